//go:build !dlib

package dlib

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider"
)

// Provider is the placeholder compiled without the dlib build tag.
type Provider struct{}

// New always fails: rebuild with -tags dlib to use the in-process recognizer.
func New(modelsDir string) (*Provider, error) {
	return nil, fmt.Errorf("%w: built without the dlib tag (models dir %s)", provider.ErrBackendUnavailable, modelsDir)
}

func (p *Provider) Name() string {
	return "dlib"
}

func (p *Provider) EmbedFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	return nil, provider.ErrBackendUnavailable
}

func (p *Provider) Close() {}

var _ provider.FaceEmbedder = (*Provider)(nil)
