package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pdvsync/cmd/app/commands"
	"github.com/allisson/pdvsync/internal/app"
)

func getSyncCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "sync",
			Usage: "Synchronize the local cache with the remote store",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "direction",
					Aliases: []string{"d"},
					Value:   "pull",
					Usage:   "Sync direction: 'pull', 'push' or 'drain'",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return runWithContainer(ctx, func(ctx context.Context, container *app.Container) error {
					engine, err := container.Engine()
					if err != nil {
						return fmt.Errorf("failed to initialize sync engine: %w", err)
					}

					return commands.RunSync(
						ctx,
						engine,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("direction"),
						cmd.String("format"),
					)
				})
			},
		},
	}
}
