package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readyTimeout = 2 * time.Second

// Pinger is satisfied by the catalog store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	catalog Pinger
}

func NewHealthHandler(catalog Pinger) *HealthHandler {
	return &HealthHandler{catalog: catalog}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.catalog != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		if err := h.catalog.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
				Status: "unavailable",
				Error:  "catalog unreachable",
			})
		}
	}

	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
