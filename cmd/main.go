package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/farmsync"
	"github.com/ethereum-optimism/infra/farmsync/flags"
	"github.com/ethereum-optimism/infra/farmsync/metrics"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			cli.HandleExitCoder(cli.Exit(err.Error(), farmsync.ExitCode(err)))
		}
	}

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "farmsync"
	app.Usage = "Device farm session result reconciler"
	app.Description = "farmsync pushes local test verdicts to remote browser sessions and collects their replay videos"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Commands = []*cli.Command{
		{
			Name:   "report",
			Usage:  "Reconcile one session with a test verdict and write the report sinks",
			Flags:  cliapp.ProtectFlags(flags.ReportFlags),
			Action: reportAction,
		},
		{
			Name:   "capabilities",
			Usage:  "Print the remote session request for a test as JSON",
			Flags:  cliapp.ProtectFlags(flags.CapabilitiesFlags),
			Action: capabilitiesAction,
		},
		{
			Name:   "serve",
			Usage:  "Serve the report hook over HTTP",
			Flags:  cliapp.ProtectFlags(flags.ServeFlags),
			Action: cliapp.LifecycleCmd(serveAction),
		},
	}
	return app
}

// setup builds the logger and shared config. Logs go to the error writer so
// command output on stdout stays machine readable.
func setup(c *cli.Context) (*farmsync.Config, error) {
	logger := oplog.NewLogger(c.App.ErrWriter, oplog.ReadCLIConfig(c))
	oplog.SetGlobalLogHandler(logger.Handler())

	cfg, err := farmsync.NewConfig(c, logger)
	if err != nil {
		return nil, farmsync.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)
	return cfg, nil
}

func writeMetrics(cfg *farmsync.Config) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		cfg.Log.Error("Failed to write metrics", "path", cfg.MetricsTextfile, "err", err)
	}
}
