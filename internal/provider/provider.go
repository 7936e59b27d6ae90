package provider

import (
	"context"
	"errors"
)

// ErrBackendUnavailable is returned by a backend that was not compiled in or
// could not be initialized.
var ErrBackendUnavailable = errors.New("embedding backend unavailable")

// FaceEmbedder detects every face in an encoded image and returns one
// descriptor per face. An image without faces yields an empty slice and a
// nil error.
type FaceEmbedder interface {
	EmbedFaces(ctx context.Context, image []byte) ([]DetectedFace, error)

	// Name identifies the backend in logs and metrics
	Name() string
}

// DetectedFace is one face found in the image together with its descriptor
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
	Embedding   []float64   `json:"embedding"`
}

// BoundingBox represents the face area in the image, in pixels
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
