// Package catalog reads the stored face encodings of a gallery.
package catalog

import (
	"context"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
)

// Store returns one GalleryRecord per stored face of every photo in a
// gallery. Photos without a stored face yield a single record with no
// embedding. Rows are fetched fresh on every call.
type Store interface {
	RecordsByGallery(ctx context.Context, galleryID int64) ([]domain.GalleryRecord, error)
	Ping(ctx context.Context) error
}

// recordsFromEncoding expands one catalog row into records. A malformed
// encoding is logged and kept as a photo without faces.
func recordsFromEncoding(logger *slog.Logger, photoID int64, encoding *string) []domain.GalleryRecord {
	if encoding == nil || *encoding == "" {
		return []domain.GalleryRecord{{PhotoID: photoID}}
	}

	vectors, err := DecodeEncodings(*encoding)
	if err != nil {
		logger.Warn("malformed face encoding",
			slog.Int64("photo_id", photoID),
			slog.String("error", err.Error()),
		)
		return []domain.GalleryRecord{{PhotoID: photoID}}
	}

	if len(vectors) == 0 {
		return []domain.GalleryRecord{{PhotoID: photoID}}
	}

	records := make([]domain.GalleryRecord, 0, len(vectors))
	for _, v := range vectors {
		records = append(records, domain.GalleryRecord{PhotoID: photoID, Embedding: v})
	}
	return records
}
