package farmsync

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/farmsync/flags"
	"github.com/ethereum-optimism/infra/farmsync/provider"
	"github.com/ethereum-optimism/infra/farmsync/types"
)

// Config holds the settings shared by every command
type Config struct {
	ProviderConfig  string        // provider file, empty for the BrowserStack defaults
	EnvFiles        []string      // dotenv files consulted after the environment
	Timeout         time.Duration // per session API call
	MetricsTextfile string
	Log             log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	timeout := ctx.Duration(flags.Timeout.Name)
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	providerConfig := ctx.String(flags.ProviderConfig.Name)
	if providerConfig != "" {
		abs, err := filepath.Abs(providerConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for provider config '%s': %w", providerConfig, err)
		}
		providerConfig = abs
	}

	return &Config{
		ProviderConfig:  providerConfig,
		EnvFiles:        ctx.StringSlice(flags.EnvFile.Name),
		Timeout:         timeout,
		MetricsTextfile: ctx.String(flags.MetricsTextfile.Name),
		Log:             log,
	}, nil
}

// NewProvider loads the provider configuration and wires its credential sources:
// the process environment first, then the dotenv files in order.
func (c *Config) NewProvider() (*provider.Provider, error) {
	cfg := provider.DefaultConfig()
	if c.ProviderConfig != "" {
		var err error
		if cfg, err = provider.LoadConfig(c.ProviderConfig); err != nil {
			return nil, err
		}
	}

	sources := []provider.Source{provider.EnvSource{}}
	if len(c.EnvFiles) > 0 {
		dotenv, err := provider.NewDotEnvSource(c.EnvFiles...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, dotenv)
	}
	return provider.New(cfg, sources...), nil
}

// ReportConfig holds the report command's settings
type ReportConfig struct {
	Item          TestItem
	Verdict       types.Verdict
	HTMLReportDir string
	AllureDir     string
	AllureResult  string
	SummaryFile   string
	FailOnWarning bool
}

// NewReportConfig creates a ReportConfig from the report command's cli context
func NewReportConfig(ctx *cli.Context) (*ReportConfig, error) {
	if err := flags.CheckReport(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	phase := types.Phase(ctx.String(flags.Phase.Name))
	if phase == "" {
		return nil, fmt.Errorf("phase must not be empty")
	}

	testName := ctx.String(flags.TestName.Name)
	sessionID := ctx.String(flags.SessionID.Name)
	if testName == "" {
		testName = sessionID
	}

	return &ReportConfig{
		Item: TestItem{
			Name:      testName,
			Driver:    ctx.String(flags.Driver.Name),
			SessionID: sessionID,
		},
		Verdict: types.Verdict{
			Passed:             ctx.Bool(flags.Passed.Name) && !ctx.Bool(flags.Failed.Name),
			WasExpectedFailure: ctx.Bool(flags.XFail.Name),
			Phase:              phase,
		},
		HTMLReportDir: ctx.String(flags.HTMLReportDir.Name),
		AllureDir:     ctx.String(flags.AllureDir.Name),
		AllureResult:  ctx.String(flags.AllureResult.Name),
		SummaryFile:   ctx.String(flags.SummaryFile.Name),
		FailOnWarning: ctx.Bool(flags.FailOnWarning.Name),
	}, nil
}
