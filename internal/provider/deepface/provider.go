package deepface

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider"
)

const jpegDataURIPrefix = "data:image/jpeg;base64,"

// Provider implements provider.FaceEmbedder using DeepFace API
type Provider struct {
	client *Client
}

func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

func (p *Provider) Name() string {
	return "deepface"
}

// EmbedFaces sends the JPEG to /represent and keeps only real detections
func (p *Provider) EmbedFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	uri := jpegDataURIPrefix + base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("embed faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.FaceConfidence <= 0 {
			continue
		}
		if len(result.Embedding) == 0 {
			return nil, fmt.Errorf("embed faces: %w: empty embedding", ErrInvalidResponse)
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(result.FacialArea.X),
				Y:      float64(result.FacialArea.Y),
				Width:  float64(result.FacialArea.W),
				Height: float64(result.FacialArea.H),
			},
			Confidence: result.FaceConfidence,
			Embedding:  result.Embedding,
		})
	}

	return faces, nil
}

// Ping reports whether the DeepFace service is reachable
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

var _ provider.FaceEmbedder = (*Provider)(nil)
