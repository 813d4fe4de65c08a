package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/storage"
)

// LabelExporter writes label sheets to blob storage as CSV.
type LabelExporter struct {
	store storage.Store
	now   func() time.Time
}

// NewLabelExporter creates an exporter. A nil clock means time.Now.
func NewLabelExporter(store storage.Store, now func() time.Time) *LabelExporter {
	if now == nil {
		now = time.Now
	}
	return &LabelExporter{store: store, now: now}
}

// Export stores the sheet under labels/<timestamp>-<id>.csv and returns the key.
func (e *LabelExporter) Export(ctx context.Context, labels []domain.TreeLabel) (string, error) {
	if len(labels) == 0 {
		return "", fmt.Errorf("%w: empty label sheet", domain.ErrValidation)
	}

	data, err := EncodeLabels(labels)
	if err != nil {
		return "", fmt.Errorf("failed to encode labels: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate export id: %w", err)
	}

	key := fmt.Sprintf("labels/%s-%s.csv", e.now().UTC().Format("20060102T150405Z"), id.String())
	if err := e.store.Put(ctx, key, data, CSVContentType); err != nil {
		return "", fmt.Errorf("failed to store labels: %w", err)
	}

	slog.InfoContext(ctx, "Exported label sheet", "key", key, "labels", len(labels))
	return key, nil
}
