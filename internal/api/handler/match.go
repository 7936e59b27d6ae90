package handler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/service"
)

// MatchBoundary is the transport-neutral match handler.
type MatchBoundary interface {
	Handle(ctx context.Context, req domain.MatchRequest) service.Response
}

// MatchHandler exposes the selfie match over HTTP
type MatchHandler struct {
	boundary MatchBoundary
	logger   *slog.Logger
}

func NewMatchHandler(boundary MatchBoundary, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		boundary: boundary,
		logger:   logger,
	}
}

// Match handles POST /v1/match. The status and body are exactly the ones a
// Lambda or MQTT caller would receive.
func (h *MatchHandler) Match(c *fiber.Ctx) error {
	var req domain.MatchRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	ctx := c.UserContext()
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && id != "" {
		ctx = service.ContextWithRequestID(ctx, id)
	}

	resp := h.boundary.Handle(ctx, req)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(resp.StatusCode).SendString(resp.Body)
}
