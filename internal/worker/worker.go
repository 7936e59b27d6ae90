// Package worker serves match requests received over MQTT. Each request
// names the topic its reply is published to.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/service"
)

const (
	DefaultMaxInFlight    = 4
	DefaultRequestTimeout = 60 * time.Second
)

// Envelope carries the correlation fields around a match request.
type Envelope struct {
	RequestID  string `json:"requestId"`
	ResponseTo string `json:"responseTo"`
}

// Reply is published to the request's responseTo topic.
type Reply struct {
	RequestID  string `json:"requestId"`
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type Publisher interface {
	Publish(topic string, payload []byte) error
}

type MatchBoundary interface {
	Handle(ctx context.Context, req domain.MatchRequest) service.Response
}

type Worker struct {
	boundary  MatchBoundary
	publisher Publisher
	logger    *slog.Logger
	timeout   time.Duration
	inflight  errgroup.Group
}

func New(boundary MatchBoundary, publisher Publisher, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		boundary:  boundary,
		publisher: publisher,
		logger:    logger,
		timeout:   DefaultRequestTimeout,
	}
	w.inflight.SetLimit(DefaultMaxInFlight)
	return w
}

func (w *Worker) WithTimeout(d time.Duration) *Worker {
	if d > 0 {
		w.timeout = d
	}
	return w
}

// Dispatch processes payload in the background. It blocks while the
// in-flight limit is reached.
func (w *Worker) Dispatch(ctx context.Context, payload []byte) {
	w.inflight.Go(func() error {
		if err := w.HandleMessage(ctx, payload); err != nil {
			w.logger.Warn("mqtt request dropped", slog.String("error", err.Error()))
		}
		return nil
	})
}

// Wait blocks until every dispatched request has been answered.
func (w *Worker) Wait() {
	_ = w.inflight.Wait()
}

// HandleMessage runs one request and publishes its reply. Payloads that
// cannot be answered (undecodable, no responseTo) are returned as errors.
func (w *Worker) HandleMessage(ctx context.Context, payload []byte) error {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.ResponseTo == "" {
		return fmt.Errorf("request %q has no responseTo", env.RequestID)
	}
	if env.RequestID == "" {
		env.RequestID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(service.ContextWithRequestID(ctx, env.RequestID), w.timeout)
	defer cancel()

	var resp service.Response
	var req domain.MatchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		resp = badRequest()
	} else {
		resp = w.boundary.Handle(ctx, req)
	}

	reply, err := json.Marshal(Reply{
		RequestID:  env.RequestID,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	})
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}

	if err := w.publisher.Publish(env.ResponseTo, reply); err != nil {
		return fmt.Errorf("publish reply %s: %w", env.RequestID, err)
	}

	w.logger.Info("mqtt reply published",
		slog.String("request_id", env.RequestID),
		slog.String("topic", env.ResponseTo),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}

func badRequest() service.Response {
	body, _ := json.Marshal(map[string]string{"error": domain.ErrBadRequest.Message})
	return service.Response{StatusCode: domain.ErrBadRequest.StatusCode, Body: string(body)}
}
