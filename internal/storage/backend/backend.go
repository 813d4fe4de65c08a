// Package backend opens the blob store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/suanview/orchard/internal/config"
	"github.com/suanview/orchard/internal/storage"
	"github.com/suanview/orchard/internal/storage/fs"
	"github.com/suanview/orchard/internal/storage/gcs"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the configured blob store. The closer releases the backend
// client and must run after the last write.
func Open(ctx context.Context, cfg config.BlobConfig) (storage.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BlobBackendGCS:
		store, err := gcs.NewStore(ctx, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "", config.BlobBackendFS:
		store, err := fs.NewStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

// Name returns the effective backend name for logging.
func Name(cfg config.BlobConfig) string {
	if cfg.Backend == "" {
		return config.BlobBackendFS
	}
	return cfg.Backend
}
