package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcstorage "cloud.google.com/go/storage"
	"github.com/suanview/orchard/internal/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Store is a GCS-based implementation of storage.Store.
// An optional prefix namespaces every key inside the bucket.
type Store struct {
	client *gcstorage.Client
	bucket string
	prefix string
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a new GCS store.
// It assumes the client is authenticated (e.g. via GOOGLE_APPLICATION_CREDENTIALS).
func NewStore(ctx context.Context, bucketName, prefix string, opts ...option.ClientOption) (*Store, error) {
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &Store{
		client: client,
		bucket: bucketName,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *Store) keyOf(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.TrimPrefix(name, s.prefix+"/")
}

// Put uploads data to key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	w := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Get downloads the object stored at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewReader(ctx)
	if err != nil {
		// Use errors.Is to handle wrapped errors from GCS client
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// List returns every object whose key starts with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcstorage.Query{Prefix: s.objectName(prefix)})

	var objects []storage.Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		objects = append(objects, storage.Object{
			Key:       s.keyOf(attrs.Name),
			Size:      attrs.Size,
			UpdatedAt: attrs.Updated,
		})
	}
	return objects, nil
}

// Delete removes the object stored at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	err := s.client.Bucket(s.bucket).Object(s.objectName(key)).Delete(ctx)
	if errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
