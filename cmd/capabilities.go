package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/farmsync"
	"github.com/ethereum-optimism/infra/farmsync/flags"
	"github.com/ethereum-optimism/infra/farmsync/provider"
)

func capabilitiesAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	if err := flags.CheckCapabilities(c); err != nil {
		return farmsync.NewRuntimeError(err)
	}

	caps := provider.NewCapabilities()
	if path := c.String(flags.CapabilitiesFile.Name); path != "" {
		if caps, err = provider.LoadCapabilities(path); err != nil {
			return farmsync.NewRuntimeError(err)
		}
	}
	for _, pair := range c.StringSlice(flags.Capability.Name) {
		key, value, err := provider.ParseCapability(pair)
		if err != nil {
			return farmsync.NewRuntimeError(err)
		}
		caps.Set(key, value)
	}

	p, err := cfg.NewProvider()
	if err != nil {
		return farmsync.NewRuntimeError(fmt.Errorf("failed to load provider: %w", err))
	}
	hook, err := farmsync.NewHook(farmsync.HookConfig{Provider: p, Log: cfg.Log})
	if err != nil {
		return farmsync.NewRuntimeError(err)
	}
	req, err := hook.SessionRequest(c.String(flags.TestName.Name), caps)
	if err != nil {
		return farmsync.NewRuntimeError(err)
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(req)
}
