package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/farmsync"
	"github.com/ethereum-optimism/infra/farmsync/flags"
	"github.com/ethereum-optimism/infra/farmsync/service"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

func serveAction(c *cli.Context, _ context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	cfg, err := setup(c)
	if err != nil {
		return nil, err
	}
	p, err := cfg.NewProvider()
	if err != nil {
		return nil, farmsync.NewRuntimeError(fmt.Errorf("failed to load provider: %w", err))
	}
	hook, err := farmsync.NewHook(farmsync.HookConfig{Provider: p, Timeout: cfg.Timeout, Log: cfg.Log})
	if err != nil {
		return nil, farmsync.NewRuntimeError(err)
	}

	return service.New(hook, service.Config{
		Addr:            c.String(flags.ListenAddr.Name),
		AllowedOrigins:  c.StringSlice(flags.AllowedOrigins.Name),
		ShutdownTimeout: c.Duration(flags.ShutdownTimeout.Name),
	}, cfg.Log), nil
}
