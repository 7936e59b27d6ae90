package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/app"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/config"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Serve match requests from the MQTT request topic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runWorker(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	pipeline, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build match pipeline: %w", err)
	}
	defer pipeline.Close()

	client := worker.NewMQTTClient(worker.MQTTConfig{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Topic:    cfg.MQTTRequestTopic,
	}, logger)

	w := worker.New(pipeline.Handler("mqtt"), client, logger)

	logger.Info("starting mqtt worker",
		slog.String("broker", cfg.MQTTBroker),
		slog.String("topic", cfg.MQTTRequestTopic),
	)
	return client.Run(ctx, w)
}
