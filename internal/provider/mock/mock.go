package mock

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider"
)

const (
	DefaultDimension = 128

	// minImageSize below which the mock reports no face
	minImageSize = 1000
)

// Provider implements provider.FaceEmbedder for tests and development. The
// same image always yields the same embedding.
type Provider struct {
	dimension int
}

func New(dimension int) *Provider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Provider{dimension: dimension}
}

func (p *Provider) Name() string {
	return "mock"
}

// EmbedFaces returns a single centered face for any image of a plausible
// size and no face for tiny payloads
func (p *Provider) EmbedFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(image) < minImageSize {
		return []provider.DetectedFace{}, nil
	}

	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{X: 160, Y: 160, Width: 320, Height: 320},
			Confidence:  0.99,
			Embedding:   generateEmbedding(image, p.dimension),
		},
	}, nil
}

// generateEmbedding derives a unit vector from the SHA-256 of the image
func generateEmbedding(image []byte, dimension int) []float64 {
	hash := sha256.Sum256(image)
	embedding := make([]float64, dimension)
	hashLen := len(hash)

	for i := 0; i < dimension; i++ {
		idx := i % hashLen
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return embedding
	}

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ provider.FaceEmbedder = (*Provider)(nil)
