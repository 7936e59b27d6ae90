package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/catalog"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/imageproc"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/matcher"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/metrics"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/objectstore"
)

type FaceExtractorInterface interface {
	Extract(ctx context.Context, img *imageproc.Image) ([]domain.Embedding, error)
}

type ImageNormalizerInterface interface {
	Normalize(raw imageproc.RawImage, mode imageproc.ColorMode) (*imageproc.Image, error)
}

// MatchService runs one selfie against one gallery. It holds no per-request
// state and is safe for concurrent use when its collaborators are.
type MatchService struct {
	objects    objectstore.Store
	normalizer ImageNormalizerInterface
	extractor  FaceExtractorInterface
	catalog    catalog.Store
	matcher    *matcher.Matcher
	metrics    *metrics.Manager
	logger     *slog.Logger
}

func NewMatchService(
	objects objectstore.Store,
	normalizer ImageNormalizerInterface,
	extractor FaceExtractorInterface,
	catalogStore catalog.Store,
	faceMatcher *matcher.Matcher,
) *MatchService {
	return &MatchService{
		objects:    objects,
		normalizer: normalizer,
		extractor:  extractor,
		catalog:    catalogStore,
		matcher:    faceMatcher,
		logger:     slog.Default(),
	}
}

func (s *MatchService) WithMetrics(m *metrics.Manager) *MatchService {
	s.metrics = m
	return s
}

func (s *MatchService) WithLogger(logger *slog.Logger) *MatchService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Match returns the gallery photos containing any face of the image stored
// under req.ImageKey. Every returned error is a *domain.AppError.
func (s *MatchService) Match(ctx context.Context, req domain.MatchRequest) (*domain.MatchResult, error) {
	galleryID, err := req.Validate()
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(
		slog.String("request_id", RequestID(ctx)),
		slog.Int64("gallery_id", galleryID),
		slog.String("key", req.ImageKey),
	)

	start := time.Now()
	data, err := s.objects.Fetch(ctx, req.ImageKey)
	s.metrics.ObserveStage(metrics.StageAcquire, time.Since(start))
	if err != nil {
		return nil, domain.ErrAcquisitionFailed.WithError(fmt.Errorf("fetch %q: %w", req.ImageKey, err))
	}

	start = time.Now()
	img, err := s.normalizer.Normalize(imageproc.RawImage{
		Data:       data,
		FormatHint: path.Ext(req.ImageKey),
	}, imageproc.ModeRGB)
	s.metrics.ObserveStage(metrics.StageNormalize, time.Since(start))
	if err != nil {
		return nil, domain.ErrNormalizationFailed.WithError(err)
	}

	var (
		queries []domain.Embedding
		records []domain.GalleryRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverStage(&err)
		started := time.Now()
		defer func() { s.metrics.ObserveStage(metrics.StageExtract, time.Since(started)) }()

		embeddings, err := s.extractor.Extract(gctx, img)
		if err != nil {
			return domain.ErrExtractionFailed.WithError(err)
		}
		queries = embeddings
		return nil
	})
	g.Go(func() (err error) {
		defer recoverStage(&err)
		started := time.Now()
		defer func() { s.metrics.ObserveStage(metrics.StageCatalog, time.Since(started)) }()

		rows, err := s.catalog.RecordsByGallery(gctx, galleryID)
		if err != nil {
			return domain.ErrCatalogFailed.WithError(fmt.Errorf("gallery %d: %w", galleryID, err))
		}
		records = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	start = time.Now()
	result, stats := s.matcher.Match(queries, records)
	s.metrics.ObserveStage(metrics.StageMatch, time.Since(start))
	s.metrics.RecordMatch(len(queries), len(records), result.Len(), stats.Skipped)

	logger.Info("match completed",
		slog.Int("faces", len(queries)),
		slog.Int("records", len(records)),
		slog.Int("pooled", stats.Pooled),
		slog.Int("skipped", stats.Skipped),
		slog.Int("matches", result.Len()),
	)

	return result, nil
}

// recoverStage turns a panic in a stage goroutine into ErrInternal. The
// handler's recover only covers the calling goroutine.
func recoverStage(err *error) {
	if r := recover(); r != nil {
		*err = domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r))
	}
}
