// Package extractor produces one face embedding per face detected in a
// normalized image.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/imageproc"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider"
)

var (
	ErrExtractionFailed    = errors.New("face extraction failed")
	ErrUnexpectedDimension = errors.New("unexpected embedding dimension")
)

// Extractor is safe for concurrent use when its embedder is.
type Extractor struct {
	embedder  provider.FaceEmbedder
	dimension int
	logger    *slog.Logger

	encode func(*imageproc.Image) (*imageproc.EncodedImage, error)
}

func New(embedder provider.FaceEmbedder, dimension int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		embedder:  embedder,
		dimension: dimension,
		logger:    logger,
		encode:    imageproc.EncodeJPEG,
	}
}

// Extract returns the embeddings of every face in img, in detection order.
// No face is an empty, non-nil slice.
func (e *Extractor) Extract(ctx context.Context, img *imageproc.Image) ([]domain.Embedding, error) {
	encoded, err := e.encode(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer encoded.Release()

	start := time.Now()
	faces, err := e.embedder.EmbedFaces(ctx, encoded.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, e.embedder.Name(), err)
	}

	embeddings := make([]domain.Embedding, 0, len(faces))
	for i, f := range faces {
		if e.dimension > 0 && len(f.Embedding) != e.dimension {
			return nil, fmt.Errorf("%w: %w: face %d has %d values, want %d",
				ErrExtractionFailed, ErrUnexpectedDimension, i, len(f.Embedding), e.dimension)
		}
		embeddings = append(embeddings, domain.Embedding(f.Embedding))
	}

	e.logger.Debug("faces extracted",
		slog.String("embedder", e.embedder.Name()),
		slog.Int("faces", len(embeddings)),
		slog.Int("jpeg_bytes", encoded.Len()),
		slog.Duration("duration", time.Since(start)),
	)

	return embeddings, nil
}
