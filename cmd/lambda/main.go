package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/app"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/config"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	// Built once per execution environment and reused across invocations.
	pipeline, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build match pipeline: %w", err)
	}
	defer pipeline.Close()

	handler := pipeline.Handler("lambda")

	lambda.Start(func(ctx context.Context, event json.RawMessage) (service.Response, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			ctx = service.ContextWithRequestID(ctx, lc.AwsRequestID)
		}
		return handler.HandleJSON(ctx, event), nil
	})

	return nil
}
