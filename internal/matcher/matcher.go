// Package matcher decides which gallery photos contain a face close enough
// to one of the faces found in a submitted image.
package matcher

import (
	"log/slog"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
)

// DefaultTolerance is the distance at or below which two dlib descriptors
// are considered the same person.
const DefaultTolerance = 0.6

// Stats summarizes one Match call.
type Stats struct {
	Pooled      int
	Comparisons int
	Hits        int
	Skipped     int
}

// pooled is a gallery embedding together with the photo it belongs to.
type pooled struct {
	photoID   int64
	embedding domain.Embedding
}

// Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	tolerance float64
	distance  DistanceFunc
	logger    *slog.Logger
}

type Option func(*Matcher)

// WithDistance replaces the Euclidean metric.
func WithDistance(fn DistanceFunc) Option {
	return func(m *Matcher) {
		if fn != nil {
			m.distance = fn
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New builds a Matcher. A non-positive tolerance falls back to
// DefaultTolerance.
func New(tolerance float64, opts ...Option) *Matcher {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	m := &Matcher{
		tolerance: tolerance,
		distance:  EuclideanDistance,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

// Match compares every query embedding with every stored embedding and
// returns the set of photos with at least one hit. Comparisons that cannot
// be computed are skipped and logged.
func (m *Matcher) Match(queries []domain.Embedding, records []domain.GalleryRecord) (*domain.MatchResult, Stats) {
	result := domain.NewMatchResult()

	pool := buildPool(records)
	stats := Stats{Pooled: len(pool)}

	if len(pool) == 0 || len(queries) == 0 {
		return result, stats
	}

	for qi, query := range queries {
		for _, candidate := range pool {
			dist, err := m.distance(query, candidate.embedding)
			if err != nil {
				stats.Skipped++
				m.logger.Warn("skipping comparison",
					slog.Int("query_index", qi),
					slog.Int64("photo_id", candidate.photoID),
					slog.String("error", err.Error()),
				)
				continue
			}

			stats.Comparisons++
			m.logger.Debug("face distance",
				slog.Int("query_index", qi),
				slog.Int64("photo_id", candidate.photoID),
				slog.Float64("distance", dist),
			)

			if dist <= m.tolerance {
				stats.Hits++
				result.Add(candidate.photoID)
			}
		}
	}

	return result, stats
}

// buildPool flattens the present embeddings. Each entry keeps the photoId of
// the record it came from, so records without an embedding never shift the
// mapping.
func buildPool(records []domain.GalleryRecord) []pooled {
	pool := make([]pooled, 0, len(records))
	for _, r := range records {
		if !r.HasEmbedding() {
			continue
		}
		pool = append(pool, pooled{photoID: r.PhotoID, embedding: r.Embedding})
	}
	return pool
}
