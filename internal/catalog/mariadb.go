package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
)

const mariaDBRecordsQuery = `
	SELECT photos.id, photos_face_recognition.face_encoding
	FROM photos
	LEFT JOIN photos_face_recognition ON photos_face_recognition.photo_id = photos.id
	WHERE photos.gallery_id = ?
`

// MariaDBStore reads the gallery catalog written by the photo ingestion
// pipeline, where encodings are JSON text.
type MariaDBStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewMariaDBStore(db *sql.DB, logger *slog.Logger) *MariaDBStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MariaDBStore{db: db, logger: logger}
}

func (s *MariaDBStore) RecordsByGallery(ctx context.Context, galleryID int64) ([]domain.GalleryRecord, error) {
	rows, err := s.db.QueryContext(ctx, mariaDBRecordsQuery, galleryID)
	if err != nil {
		return nil, fmt.Errorf("query gallery %d: %w", galleryID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]domain.GalleryRecord, 0)
	for rows.Next() {
		var (
			photoID  int64
			encoding sql.NullString
		)
		if err := rows.Scan(&photoID, &encoding); err != nil {
			return nil, fmt.Errorf("scan gallery %d: %w", galleryID, err)
		}

		var text *string
		if encoding.Valid {
			text = &encoding.String
		}
		records = append(records, recordsFromEncoding(s.logger, photoID, text)...)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery %d: %w", galleryID, err)
	}

	return records, nil
}

func (s *MariaDBStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mariadb: %w", err)
	}
	return nil
}

var _ Store = (*MariaDBStore)(nil)
