//go:build dlib

// Package dlib runs the dlib ResNet face recognizer in process through
// go-face. Building it requires cgo and the dlib headers, so it sits behind
// the dlib build tag.
package dlib

import (
	"context"
	"fmt"
	"sync"

	"github.com/Kagami/go-face"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider"
)

// Provider wraps a go-face recognizer. The models directory must contain
// shape_predictor_5_face_landmarks.dat, dlib_face_recognition_resnet_model_v1.dat
// and mmod_human_face_detector.dat.
type Provider struct {
	rec *face.Recognizer
	// the recognizer is not safe for concurrent use
	mu sync.Mutex
}

func New(modelsDir string) (*Provider, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: load dlib models from %s: %v", provider.ErrBackendUnavailable, modelsDir, err)
	}
	return &Provider{rec: rec}, nil
}

func (p *Provider) Name() string {
	return "dlib"
}

// EmbedFaces uses the CNN detector, the more accurate of the two dlib
// detectors.
func (p *Provider) EmbedFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	faces, err := p.rec.RecognizeCNN(image)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("recognize faces: %w", err)
	}

	detected := make([]provider.DetectedFace, 0, len(faces))
	for _, f := range faces {
		detected = append(detected, toDetectedFace(f))
	}
	return detected, nil
}

func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rec != nil {
		p.rec.Close()
		p.rec = nil
	}
}

func toDetectedFace(f face.Face) provider.DetectedFace {
	embedding := make([]float64, len(f.Descriptor))
	for i, v := range f.Descriptor {
		embedding[i] = float64(v)
	}

	rect := f.Rectangle
	return provider.DetectedFace{
		BoundingBox: provider.BoundingBox{
			X:      float64(rect.Min.X),
			Y:      float64(rect.Min.Y),
			Width:  float64(rect.Dx()),
			Height: float64(rect.Dy()),
		},
		// go-face does not report a detection score
		Confidence: 1.0,
		Embedding:  embedding,
	}
}

var _ provider.FaceEmbedder = (*Provider)(nil)
