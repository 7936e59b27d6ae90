package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/metrics"
)

type Dependencies struct {
	Match   handler.MatchBoundary
	Catalog handler.Pinger
	Metrics *metrics.Manager
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Selfie Match API",
	})

	if deps == nil {
		deps = &Dependencies{}
	}

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	healthHandler := handler.NewHealthHandler(r.deps.Catalog)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps.Metrics != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(r.deps.Metrics.Handler()))
	}

	if r.deps.Match != nil {
		v1 := r.app.Group("/v1")
		matchHandler := handler.NewMatchHandler(r.deps.Match, r.logger)
		v1.Post("/match", matchHandler.Match)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

// ShutdownWithTimeout stops accepting requests and waits up to d for the
// in-flight ones.
func (r *Router) ShutdownWithTimeout(d time.Duration) error {
	return r.app.ShutdownWithTimeout(d)
}
