// Package app assembles the match pipeline from configuration. Every entry
// point (HTTP, Lambda, MQTT worker, CLI) builds the same App.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/catalog"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/config"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/database"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/extractor"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/face"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/imageproc"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/matcher"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/metrics"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/objectstore"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/service"
)

type App struct {
	Service *service.MatchService
	Catalog catalog.Store
	Metrics *metrics.Manager
	Logger  *slog.Logger

	closers []func()
}

// New builds every collaborator named by cfg. The caller must Close the App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Metrics: metrics.NewManager(),
		Logger:  logger,
	}

	objects, err := NewObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, closeCatalog, err := NewCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Catalog = store
	a.closers = append(a.closers, closeCatalog)

	embedder, err := face.NewFaceEmbedder(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := embedder.(interface{ Close() }); ok {
		a.closers = append(a.closers, c.Close)
	}

	logger.Info("match pipeline ready",
		slog.String("object_store", cfg.ObjectStore),
		slog.String("catalog", cfg.CatalogDriver),
		slog.String("embedder", embedder.Name()),
		slog.Float64("tolerance", cfg.MatchTolerance),
	)

	a.Service = service.NewMatchService(
		objects,
		imageproc.NewNormalizer(),
		extractor.New(embedder, cfg.EmbeddingDim, logger),
		store,
		matcher.New(cfg.MatchTolerance, matcher.WithLogger(logger)),
	).WithLogger(logger).WithMetrics(a.Metrics)

	return a, nil
}

// Handler returns the status/body boundary for the named entry point.
func (a *App) Handler(source string) *service.Handler {
	return service.NewHandler(a.Service, source).WithLogger(a.Logger).WithMetrics(a.Metrics)
}

// Close releases the collaborators in reverse creation order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func NewObjectStore(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	switch cfg.ObjectStore {
	case "file":
		return objectstore.NewFileStore(cfg.LocalImageDir), nil
	case "s3", "":
		store, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.BucketName,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 object store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown object store %q", cfg.ObjectStore)
	}
}

// NewCatalog opens the gallery catalog database. The returned func closes
// the underlying pool.
func NewCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (catalog.Store, func(), error) {
	switch cfg.CatalogDriver {
	case "postgres":
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres catalog: %w", err)
		}
		return catalog.NewPostgresStore(pool, logger), pool.Close, nil

	case "mariadb", "":
		db, err := database.NewPool(database.DefaultPoolConfig(database.DriverMySQL, cfg.MariaDBDSN()))
		if err != nil {
			return nil, nil, fmt.Errorf("open mariadb catalog: %w", err)
		}
		return catalog.NewMariaDBStore(db, logger), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown catalog driver %q", cfg.CatalogDriver)
	}
}
