// Package storage defines the blob store used for exported digests and label sheets.
// Implementations live in the fs and gcs subpackages and share the compliance suite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrObjectNotFound is returned by Get and Delete when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidKey is returned for empty, absolute or path-escaping keys.
var ErrInvalidKey = errors.New("invalid object key")

// Object describes a stored blob.
type Object struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}

// Store is a flat key/value blob store. Keys use "/" as separator.
// Put overwrites existing objects.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}

// ValidateKey checks that key is a relative, slash-separated path without "." or ".." segments.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
