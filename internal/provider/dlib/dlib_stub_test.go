//go:build !dlib

package dlib

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider"
)

func TestNew_WithoutTag(t *testing.T) {
	p, err := New("models")

	assert.Nil(t, p)
	assert.ErrorIs(t, err, provider.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "models")
}

func TestProvider_EmbedFaces_WithoutTag(t *testing.T) {
	var p Provider

	faces, err := p.EmbedFaces(context.Background(), []byte("jpeg"))

	assert.Nil(t, faces)
	assert.ErrorIs(t, err, provider.ErrBackendUnavailable)
}
