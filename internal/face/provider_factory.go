package face

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/config"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider/dlib"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/provider/mock"
)

// ProviderType defines supported embedding backends
type ProviderType string

const (
	// ProviderTypeDeepFace calls a DeepFace HTTP service
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeDlib runs go-face in process (requires the dlib build tag)
	ProviderTypeDlib ProviderType = "dlib"
	// ProviderTypeMock derives embeddings from the image hash
	ProviderTypeMock ProviderType = "mock"
)

// NewFaceEmbedder creates the embedding backend selected by EMBEDDER. The
// backend is fixed for the life of the process.
//
// Environment variables:
//   - EMBEDDER: "deepface", "dlib" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_MODEL, DEEPFACE_DETECTOR, DEEPFACE_TIMEOUT
//   - DLIB_MODELS_DIR: directory with the dlib model files
//   - EMBEDDING_DIM: dimension produced by the mock backend
func NewFaceEmbedder(cfg *config.Config) (provider.FaceEmbedder, error) {
	switch ProviderType(cfg.Embedder) {
	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeDlib:
		prov, err := dlib.New(cfg.DlibModelsDir)
		if err != nil {
			return nil, fmt.Errorf("create dlib embedder: %w", err)
		}
		return prov, nil

	case ProviderTypeMock:
		return mock.New(cfg.EmbeddingDim), nil

	default:
		return nil, fmt.Errorf("unknown embedder type: %s (supported: %s, %s, %s)",
			cfg.Embedder, ProviderTypeDeepFace, ProviderTypeDlib, ProviderTypeMock)
	}
}

// createDeepFaceProvider fills unset fields from deepface.DefaultConfig
func createDeepFaceProvider(cfg *config.Config) provider.FaceEmbedder {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}
	if cfg.DeepFaceTimeout > 0 {
		deepfaceConfig.Timeout = cfg.DeepFaceTimeout
	}

	return deepface.NewProvider(deepfaceConfig)
}
