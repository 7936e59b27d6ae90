package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
)

const postgresRecordsQuery = `
	SELECT p.id, pfr.embedding, pfr.face_encoding
	FROM photos p
	LEFT JOIN photos_face_recognition pfr ON pfr.photo_id = p.id
	WHERE p.gallery_id = $1
`

// PgxPool is the subset of *pgxpool.Pool the store needs
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// PostgresStore reads a catalog where each face is one row with a pgvector
// embedding. Rows migrated from the text catalog may only carry the JSON
// face_encoding, which is decoded instead.
type PostgresStore struct {
	pool   PgxPool
	logger *slog.Logger
}

func NewPostgresStore(pool PgxPool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) RecordsByGallery(ctx context.Context, galleryID int64) ([]domain.GalleryRecord, error) {
	rows, err := s.pool.Query(ctx, postgresRecordsQuery, galleryID)
	if err != nil {
		return nil, fmt.Errorf("query gallery %d: %w", galleryID, err)
	}
	defer rows.Close()

	records := make([]domain.GalleryRecord, 0)
	for rows.Next() {
		var (
			photoID   int64
			embedding *pgvector.Vector
			encoding  *string
		)
		if err := rows.Scan(&photoID, &embedding, &encoding); err != nil {
			return nil, fmt.Errorf("scan gallery %d: %w", galleryID, err)
		}

		if embedding != nil && len(embedding.Slice()) > 0 {
			records = append(records, domain.GalleryRecord{
				PhotoID:   photoID,
				Embedding: toEmbedding(embedding.Slice()),
			})
			continue
		}

		records = append(records, recordsFromEncoding(s.logger, photoID, encoding)...)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery %d: %w", galleryID, err)
	}

	return records, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func toEmbedding(v []float32) domain.Embedding {
	out := make(domain.Embedding, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// ToVector converts an embedding to the pgvector column type.
func ToVector(e domain.Embedding) pgvector.Vector {
	floats := make([]float32, len(e))
	for i, v := range e {
		floats[i] = float32(v)
	}
	return pgvector.NewVector(floats)
}

var _ Store = (*PostgresStore)(nil)
