// Package main provides the Fluxo worker that runs triggered flows.
package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/fluxohq/fluxo/pkg/cmd"
	"github.com/fluxohq/fluxo/pkg/interpreter"
	"github.com/fluxohq/fluxo/pkg/log"
	"github.com/fluxohq/fluxo/pkg/otelhelper"
)

const defaultWebhookPort = 8085

func main() {
	command := &cli.Command{
		Name:                  "fluxo-worker",
		EnableShellCompletion: true,
		Usage:                 "Start a worker to execute triggered flows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.IntFlag{
				Name:    "webhook-port",
				Usage:   "Port for the shared webhook trigger server",
				Value:   defaultWebhookPort,
				Sources: cli.EnvVars("WEBHOOK_PORT"),
			},
			&cli.IntFlag{
				Name:    "max-steps",
				Usage:   "Step bound per flow run",
				Value:   interpreter.DefaultMaxSteps,
				Sources: cli.EnvVars("MAX_STEPS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("fluxo-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Fluxo Worker")

			registry := cmd.NewRegistry(logger, cmd.Collaborators{})

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			tracer, err := otelhelper.NewTracer(ctx, "fluxo-worker")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			interpreterOpts := []interpreter.Option{
				interpreter.WithPublisher(eventBus),
				interpreter.WithWorkerID(workerID),
				interpreter.WithMaxSteps(command.Int("max-steps")),
			}
			if tracer != nil {
				interpreterOpts = append(interpreterOpts, interpreter.WithTracer(tracer))
			}

			interp := interpreter.New(registry, logger, interpreterOpts...)

			triggerManager := NewTriggerManager(
				logger,
				persistence,
				registry,
				eventBus,
				command.Int("webhook-port"),
			)

			err = triggerManager.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start triggers", "error", err)

				return err
			}

			defer triggerManager.Stop(ctx)

			worker := NewWorkerManager(
				workerID,
				persistence,
				eventBus,
				logger,
				registry,
				interp,
			)

			err = worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start event-driven worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
