package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
)

var ErrMalformedEncoding = errors.New("malformed face encoding")

// DecodeEncodings parses a face_encoding column. The column holds either a
// single vector, [0.1, ...], or a list of vectors, [[0.1, ...], [...]], one
// per face found in the photo. An empty list means no face.
func DecodeEncodings(raw string) ([]domain.Embedding, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	if len(items) == 0 {
		return []domain.Embedding{}, nil
	}

	if !isArray(items[0]) {
		vector, err := decodeVector([]byte(raw))
		if err != nil {
			return nil, err
		}
		return []domain.Embedding{vector}, nil
	}

	vectors := make([]domain.Embedding, 0, len(items))
	for i, item := range items {
		if !isArray(item) {
			return nil, fmt.Errorf("%w: element %d is not a vector", ErrMalformedEncoding, i)
		}
		vector, err := decodeVector(item)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func decodeVector(raw []byte) (domain.Embedding, error) {
	var vector []float64
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrMalformedEncoding)
	}
	return vector, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
