package matcher

import (
	"errors"
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
	ErrEmptyEmbedding    = errors.New("embedding is empty")
	ErrNonFiniteValue    = errors.New("embedding has a non-finite component")
)

// DistanceFunc measures how far apart two face embeddings are. Smaller is
// more similar.
type DistanceFunc func(a, b domain.Embedding) (float64, error)

// EuclideanDistance is the L2 norm of a-b, the metric dlib descriptors are
// trained for.
func EuclideanDistance(a, b domain.Embedding) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyEmbedding
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	dist := math.Sqrt(sum)
	if math.IsNaN(dist) || math.IsInf(dist, 0) {
		return 0, ErrNonFiniteValue
	}
	return dist, nil
}
