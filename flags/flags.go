package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"

	"github.com/ethereum-optimism/infra/farmsync/session"
)

const EnvVarPrefix = "FARMSYNC"

func prefixEnvVars(name string) []string {
	return opservice.PrefixEnvVar(EnvVarPrefix, name)
}

// Global flags
var (
	ProviderConfig = &cli.StringFlag{
		Name:    "config",
		EnvVars: prefixEnvVars("CONFIG"),
		Usage:   "Path to a provider config file (.yaml, .yml or .toml). Defaults to BrowserStack.",
	}
	EnvFile = &cli.StringSliceFlag{
		Name:    "env-file",
		EnvVars: prefixEnvVars("ENV_FILE"),
		Usage:   "Dotenv file(s) consulted for credentials after the process environment",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   session.DefaultTimeout,
		EnvVars: prefixEnvVars("TIMEOUT"),
		Usage:   "Timeout for each call to the session API",
	}
	MetricsTextfile = &cli.StringFlag{
		Name:    "metrics.textfile",
		EnvVars: prefixEnvVars("METRICS_TEXTFILE"),
		Usage:   "Write Prometheus metrics to this file on exit (node exporter textfile format)",
	}
)

// report command flags
var (
	SessionID = &cli.StringFlag{
		Name:    "session-id",
		EnvVars: prefixEnvVars("SESSION_ID"),
		Usage:   "Remote session id to reconcile",
	}
	Phase = &cli.StringFlag{
		Name:    "phase",
		Value:   "call",
		EnvVars: prefixEnvVars("PHASE"),
		Usage:   "Test phase the verdict belongs to (setup, call or teardown)",
	}
	Passed = &cli.BoolFlag{
		Name:    "passed",
		EnvVars: prefixEnvVars("PASSED"),
		Usage:   "The test passed",
	}
	Failed = &cli.BoolFlag{
		Name:    "failed",
		EnvVars: prefixEnvVars("FAILED"),
		Usage:   "The test failed. This is the default when --passed is not given; the flag only makes it explicit.",
	}
	XFail = &cli.BoolFlag{
		Name:    "xfail",
		EnvVars: prefixEnvVars("XFAIL"),
		Usage:   "The test failed but was expected to fail",
	}
	Driver = &cli.StringFlag{
		Name:    "driver",
		Value:   "BrowserStack",
		EnvVars: prefixEnvVars("DRIVER"),
		Usage:   "Driver the test ran with. Reporting is skipped when it does not match the provider.",
	}
	TestName = &cli.StringFlag{
		Name:    "test-name",
		EnvVars: prefixEnvVars("TEST_NAME"),
		Usage:   "Name of the test, used in reports and as the session name capability",
	}
	HTMLReportDir = &cli.StringFlag{
		Name:    "html-report",
		EnvVars: prefixEnvVars("HTML_REPORT"),
		Usage:   "Directory to write the HTML extras page to",
	}
	AllureDir = &cli.StringFlag{
		Name:    "allure-dir",
		EnvVars: prefixEnvVars("ALLURE_DIR"),
		Usage:   "allure-results directory to attach the session video to",
	}
	AllureResult = &cli.StringFlag{
		Name:    "allure-result",
		EnvVars: prefixEnvVars("ALLURE_RESULT"),
		Usage:   "UUID of the test's existing allure result to add the video to. A new result is written when unset.",
	}
	SummaryFile = &cli.StringFlag{
		Name:    "summary-file",
		EnvVars: prefixEnvVars("SUMMARY_FILE"),
		Usage:   "File the summary lines are appended to",
	}
	FailOnWarning = &cli.BoolFlag{
		Name:    "fail-on-warning",
		EnvVars: prefixEnvVars("FAIL_ON_WARNING"),
		Usage:   "Exit with code 1 when any step produced a warning",
	}
)

// capabilities command flags
var (
	Capability = &cli.StringSliceFlag{
		Name:    "capability",
		EnvVars: prefixEnvVars("CAPABILITY"),
		Usage:   "Capability as key=value, may be repeated. Applied in order.",
	}
	CapabilitiesFile = &cli.StringFlag{
		Name:    "capabilities-file",
		EnvVars: prefixEnvVars("CAPABILITIES_FILE"),
		Usage:   "JSON or YAML file with base capabilities, applied before --capability",
	}
)

// serve command flags
var (
	ListenAddr = &cli.StringFlag{
		Name:    "listen.addr",
		Value:   "127.0.0.1:7310",
		EnvVars: prefixEnvVars("LISTEN_ADDR"),
		Usage:   "Address the report API listens on",
	}
	AllowedOrigins = &cli.StringSliceFlag{
		Name:    "cors.allowed-origins",
		EnvVars: prefixEnvVars("CORS_ALLOWED_ORIGINS"),
		Usage:   "Origins allowed to call the report API from a browser. Cross-origin calls are refused when unset.",
	}
	ShutdownTimeout = &cli.DurationFlag{
		Name:    "shutdown-timeout",
		Value:   5 * time.Second,
		EnvVars: prefixEnvVars("SHUTDOWN_TIMEOUT"),
		Usage:   "Grace period for in-flight reports on shutdown",
	}
)

var requiredReportFlags = []cli.Flag{
	SessionID,
}

var optionalReportFlags = []cli.Flag{
	Phase,
	Passed,
	Failed,
	XFail,
	Driver,
	TestName,
	HTMLReportDir,
	AllureDir,
	AllureResult,
	SummaryFile,
	FailOnWarning,
}

var requiredCapabilitiesFlags = []cli.Flag{
	TestName,
}

var optionalCapabilitiesFlags = []cli.Flag{
	Capability,
	CapabilitiesFile,
}

var optionalServeFlags = []cli.Flag{
	ListenAddr,
	AllowedOrigins,
	ShutdownTimeout,
}

var optionalFlags = []cli.Flag{
	ProviderConfig,
	EnvFile,
	Timeout,
	MetricsTextfile,
}

// Flags are the global flags
var Flags []cli.Flag

// ReportFlags, CapabilitiesFlags and ServeFlags belong to their subcommands
var (
	ReportFlags       []cli.Flag
	CapabilitiesFlags []cli.Flag
	ServeFlags        []cli.Flag
)

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)

	Flags = optionalFlags
	ReportFlags = append(append([]cli.Flag{}, requiredReportFlags...), optionalReportFlags...)
	CapabilitiesFlags = append(append([]cli.Flag{}, requiredCapabilitiesFlags...), optionalCapabilitiesFlags...)
	ServeFlags = optionalServeFlags
}

// CheckRequired returns an error naming the first required flag that is not set
func CheckRequired(ctx *cli.Context, required []cli.Flag) error {
	for _, f := range required {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

// CheckReport validates the report command's flags
func CheckReport(ctx *cli.Context) error {
	if err := CheckRequired(ctx, requiredReportFlags); err != nil {
		return err
	}
	if ctx.Bool(Passed.Name) && ctx.Bool(Failed.Name) {
		return fmt.Errorf("flags %s and %s are mutually exclusive", Passed.Name, Failed.Name)
	}
	return nil
}

// CheckCapabilities validates the capabilities command's flags
func CheckCapabilities(ctx *cli.Context) error {
	return CheckRequired(ctx, requiredCapabilitiesFlags)
}
