// Package objectstore fetches uploaded images by key.
package objectstore

import (
	"context"
	"errors"
)

// MaxObjectSize bounds the bytes read for a single image.
const MaxObjectSize = 32 << 20

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrAccessDenied   = errors.New("access to object denied")
	ErrObjectTooLarge = errors.New("object exceeds maximum size")
	ErrInvalidKey     = errors.New("invalid object key")
)

// Store returns the full content of the object stored under key. A missing
// object is reported as ErrObjectNotFound. Implementations do not retry.
type Store interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}
