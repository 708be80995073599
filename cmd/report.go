package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/farmsync"
	"github.com/ethereum-optimism/infra/farmsync/reporting"
)

func reportAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer writeMetrics(cfg)

	reportCfg, err := farmsync.NewReportConfig(c)
	if err != nil {
		return farmsync.NewRuntimeError(err)
	}
	p, err := cfg.NewProvider()
	if err != nil {
		return farmsync.NewRuntimeError(fmt.Errorf("failed to load provider: %w", err))
	}

	hookCfg := farmsync.HookConfig{Provider: p, Timeout: cfg.Timeout, Log: cfg.Log}
	if reportCfg.AllureDir != "" {
		sink, err := reporting.NewAllureSink(reportCfg.AllureDir)
		if err != nil {
			return farmsync.NewRuntimeError(err)
		}
		if reportCfg.AllureResult != "" {
			sink.Bind(reportCfg.Item.Name, reportCfg.AllureResult)
		}
		hookCfg.Attachments = sink
	}
	hook, err := farmsync.NewHook(hookCfg)
	if err != nil {
		return farmsync.NewRuntimeError(err)
	}

	var summary []string
	var extras []reporting.Extra
	outcome, err := hook.OnTestReport(c.Context, reportCfg.Item, reportCfg.Verdict, &summary, &extras)
	if err != nil {
		return farmsync.NewRuntimeError(err)
	}
	if outcome == nil {
		cfg.Log.Info("Driver does not use this provider, nothing to report", "driver", reportCfg.Item.Driver, "provider", p.Name())
		return nil
	}

	reporter, err := farmsync.NewSinkReporter(p.Name(), c.App.Writer, reportCfg.HTMLReportDir, reportCfg.SummaryFile, c.App.Writer == os.Stdout, cfg.Log)
	if err != nil {
		return farmsync.NewRuntimeError(err)
	}
	if err := reporter.ReportOutcome(reportCfg.Item.Name, outcome, summary, extras); err != nil {
		return farmsync.NewRuntimeError(fmt.Errorf("failed to write reports: %w", err))
	}

	if reportCfg.FailOnWarning && outcome.HasWarnings() {
		return farmsync.NewWarningsError(outcome.Warnings)
	}
	return nil
}
