package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pdvsync/internal/app"
	"github.com/allisson/pdvsync/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getSyncCommands()...)
	cmds = append(cmds, getFiscalCommands()...)
	return cmds
}

// formatFlag is shared by every command with machine-readable output.
func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

// runWithContainer starts a container for a one-shot command, checks the remote store
// once so the connectivity state is current, and shuts everything down afterwards.
func runWithContainer(ctx context.Context, fn func(ctx context.Context, container *app.Container) error) error {
	container := app.NewContainer(config.Load())
	defer func() { _ = container.Shutdown(context.WithoutCancel(ctx)) }()

	if err := container.Start(ctx); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}

	monitor, err := container.ConnectivityMonitor()
	if err != nil {
		return fmt.Errorf("failed to initialize connectivity monitor: %w", err)
	}
	monitor.Check(ctx)

	return fn(ctx, container)
}
