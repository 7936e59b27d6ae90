package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/metrics"
)

const successMessage = "Request processed successfully"

type requestIDKey struct{}

// ContextWithRequestID attaches a caller supplied correlation id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id carried by ctx, or "" when none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Response is the transport-neutral result of a match: an HTTP status code
// and a JSON body.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type successBody struct {
	Message string  `json:"message"`
	Match   []int64 `json:"match"`
}

type errorBody struct {
	Error string `json:"error"`
}

type MatchServiceInterface interface {
	Match(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error)
}

// Handler is the outermost boundary shared by every surface (HTTP, Lambda,
// MQTT, CLI). It never returns an error and never panics.
type Handler struct {
	service MatchServiceInterface
	source  string
	metrics *metrics.Manager
	logger  *slog.Logger
}

func NewHandler(svc MatchServiceInterface, source string) *Handler {
	return &Handler{
		service: svc,
		source:  source,
		logger:  slog.Default(),
	}
}

func (h *Handler) WithMetrics(m *metrics.Manager) *Handler {
	h.metrics = m
	return h
}

func (h *Handler) WithLogger(logger *slog.Logger) *Handler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *Handler) Handle(ctx context.Context, req domain.MatchRequest) (resp Response) {
	if RequestID(ctx) == "" {
		ctx = ContextWithRequestID(ctx, uuid.NewString())
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic recovered",
				slog.String("request_id", RequestID(ctx)),
				slog.String("panic", fmt.Sprintf("%v", r)),
			)
			resp = errorResponse(domain.ErrInternal)
		}
		h.metrics.RecordRequest(h.source, resp.StatusCode)
	}()

	result, err := h.service.Match(ctx, req)
	if err != nil {
		appErr := toAppError(err)
		h.log(ctx, appErr)
		return errorResponse(appErr)
	}

	body, err := json.Marshal(successBody{Message: successMessage, Match: result.PhotoIDs()})
	if err != nil {
		return errorResponse(domain.ErrInternal)
	}

	return Response{StatusCode: http.StatusOK, Body: string(body)}
}

// HandleJSON decodes a raw match request before handing it to Handle. A
// payload that does not decode is answered with ErrBadRequest.
func (h *Handler) HandleJSON(ctx context.Context, payload []byte) Response {
	var req domain.MatchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		if RequestID(ctx) == "" {
			ctx = ContextWithRequestID(ctx, uuid.NewString())
		}
		h.log(ctx, domain.ErrBadRequest.WithError(fmt.Errorf("decode request: %w", err)))
		h.metrics.RecordRequest(h.source, domain.ErrBadRequest.StatusCode)
		return errorResponse(domain.ErrBadRequest)
	}
	return h.Handle(ctx, req)
}

func (h *Handler) log(ctx context.Context, appErr *domain.AppError) {
	attrs := []any{
		slog.String("request_id", RequestID(ctx)),
		slog.String("code", appErr.Code),
		slog.Int("status", appErr.StatusCode),
	}
	if appErr.Err != nil {
		attrs = append(attrs, slog.String("error", appErr.Err.Error()))
	}

	if appErr.IsClientError() {
		h.logger.Warn("match request rejected", attrs...)
		return
	}
	h.logger.Error("match request failed", attrs...)
}

func toAppError(err error) *domain.AppError {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return domain.ErrInternal.WithError(err)
}

func errorResponse(appErr *domain.AppError) Response {
	body, _ := json.Marshal(errorBody{Error: appErr.Message})
	return Response{StatusCode: appErr.StatusCode, Body: string(body)}
}
