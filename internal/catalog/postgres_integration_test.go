//go:build integration

package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/selfiematch/internal/database"
	"github.com/saturnino-fabrica-de-software/selfiematch/internal/domain"
)

func TestPostgresStore_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:pg16",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "gallery_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/gallery_test?sslmode=disable", host, port.Port())

	sqlDB, err := database.NewPool(database.DefaultPoolConfig(database.DriverPostgres, dsn))
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	migrator, err := database.NewMigrator(sqlDB, database.DriverPostgres, "gallery_test")
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	pool, err := database.NewPgxPool(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	var photoA, photoB, photoC, other int64
	insertPhoto := func(gallery int64, key string) int64 {
		var id int64
		err := pool.QueryRow(ctx,
			`INSERT INTO photos (gallery_id, object_key) VALUES ($1, $2) RETURNING id`,
			gallery, key,
		).Scan(&id)
		require.NoError(t, err)
		return id
	}
	photoA = insertPhoto(1, "a.jpg")
	photoB = insertPhoto(1, "b.jpg")
	photoC = insertPhoto(1, "c.jpg")
	other = insertPhoto(2, "other.jpg")

	embedding := make(domain.Embedding, 128)
	embedding[0] = 0.5

	_, err = pool.Exec(ctx,
		`INSERT INTO photos_face_recognition (photo_id, embedding) VALUES ($1, $2), ($3, $2)`,
		photoA, ToVector(embedding), other,
	)
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO photos_face_recognition (photo_id, face_encoding) VALUES ($1, $2)`,
		photoC, `[[0.25, 0.5]]`,
	)
	require.NoError(t, err)

	store := NewPostgresStore(pool, discardLogger())
	require.NoError(t, store.Ping(ctx))

	records, err := store.RecordsByGallery(ctx, 1)
	require.NoError(t, err)

	byPhoto := make(map[int64][]domain.Embedding)
	for _, r := range records {
		byPhoto[r.PhotoID] = append(byPhoto[r.PhotoID], r.Embedding)
	}

	assert.Len(t, records, 3)
	assert.NotContains(t, byPhoto, other)
	require.Len(t, byPhoto[photoA], 1)
	assert.Equal(t, embedding, byPhoto[photoA][0])
	assert.Equal(t, []domain.Embedding{nil}, byPhoto[photoB])
	assert.Equal(t, []domain.Embedding{{0.25, 0.5}}, byPhoto[photoC])
}
