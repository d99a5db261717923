package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pdvsync/cmd/app/commands"
	"github.com/allisson/pdvsync/internal/app"
	"github.com/allisson/pdvsync/internal/config"
)

func getFiscalCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "fiscal-queue",
			Usage: "List the fiscal emission queue with per-status counts",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "status",
					Aliases: []string{"s"},
					Usage:   "Only list items with this status (e.g. queued, error)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return runWithContainer(ctx, func(ctx context.Context, container *app.Container) error {
					queue, err := container.FiscalQueue()
					if err != nil {
						return fmt.Errorf("failed to initialize fiscal queue: %w", err)
					}

					return commands.RunFiscalQueue(
						ctx,
						queue,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("status"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "fiscal-process",
			Usage: "Run one emission attempt for a queued order",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "order-id",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Order ID of the queue item",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return runWithContainer(ctx, func(ctx context.Context, container *app.Container) error {
					queue, err := container.FiscalQueue()
					if err != nil {
						return fmt.Errorf("failed to initialize fiscal queue: %w", err)
					}

					return commands.RunFiscalProcess(
						ctx,
						queue,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("order-id"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "fiscal-logs",
			Usage: "Show fiscal log entries for an order or a date range",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "order-id",
					Aliases: []string{"o"},
					Usage:   "Show the full trail of one order",
				},
				&cli.StringFlag{
					Name:  "start-date",
					Usage: "Start date (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)",
				},
				&cli.StringFlag{
					Name:  "end-date",
					Usage: "End date (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)",
				},
				&cli.IntFlag{
					Name:  "offset",
					Value: 0,
					Usage: "Number of entries to skip",
				},
				&cli.IntFlag{
					Name:  "limit",
					Value: 50,
					Usage: "Maximum number of entries (1-100)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				logUseCase, err := container.FiscalLogUseCase()
				if err != nil {
					return fmt.Errorf("failed to initialize fiscal log use case: %w", err)
				}

				return commands.RunFiscalLogs(
					ctx,
					logUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.FiscalLogsQuery{
						OrderID:   cmd.String("order-id"),
						StartDate: cmd.String("start-date"),
						EndDate:   cmd.String("end-date"),
						Offset:    cmd.Int("offset"),
						Limit:     cmd.Int("limit"),
					},
					cmd.String("format"),
				)
			},
		},
	}
}
