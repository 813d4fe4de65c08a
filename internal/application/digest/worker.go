// Package digest writes the daily follow-up digest and label sheet exports to blob storage.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/storage"
	"github.com/suanview/orchard/internal/thaidate"
)

// CSVContentType is the content type of every object this package writes.
const CSVContentType = "text/csv; charset=utf-8"

// BoardSource loads the grouped follow-up board.
// Implemented by *orchard.Service.
type BoardSource interface {
	FollowUpBoard(ctx context.Context, params orchard.FollowUpBoardParams) (*orchard.FollowUpBoard, error)
}

// Worker periodically writes the follow-up board of the current day as a CSV digest.
// The object key is digests/YYYY-MM-DD.csv, so reruns on the same day overwrite the digest.
type Worker struct {
	source           BoardSource
	store            storage.Store
	interval         time.Duration
	operationTimeout time.Duration // Timeout for one digest run
	now              func() time.Time
	zoneID           *string
	wg               sync.WaitGroup
}

// Option is a functional option for configuring Worker.
type Option func(*Worker)

// WithInterval sets how often the digest is rewritten.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithOperationTimeout sets the timeout for a single digest run.
func WithOperationTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.operationTimeout = d
		}
	}
}

// WithClock sets the clock used to pick the reference day.
// Without it the board uses its own classifier clock.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

// WithZone restricts the digest to a single zone.
func WithZone(zoneID string) Option {
	return func(w *Worker) {
		if zoneID != "" {
			w.zoneID = &zoneID
		}
	}
}

// New creates a new digest Worker.
func New(source BoardSource, store storage.Store, opts ...Option) *Worker {
	w := &Worker{
		source:           source,
		store:            store,
		interval:         1 * time.Hour,    // Default: refresh hourly
		operationTimeout: 30 * time.Second, // Default: 30s per run
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start writes a digest immediately, then on every tick until ctx is cancelled.
// On shutdown it waits for the in-flight run and returns nil.
func (w *Worker) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "Digest worker started", "interval", w.interval)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), w.operationTimeout)
	if _, err := w.RunOnce(startupCtx); err != nil {
		slog.ErrorContext(startupCtx, "Error writing digest on startup", "error", err)
	}
	startupCancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.wg.Go(func() {
				opCtx, cancel := context.WithTimeout(context.Background(), w.operationTimeout)
				defer cancel()
				if _, err := w.RunOnce(opCtx); err != nil {
					slog.ErrorContext(opCtx, "Error writing digest", "error", err)
				}
			})
		case <-ctx.Done():
			slog.InfoContext(ctx, "Shutdown requested, waiting for in-flight digest...")
			w.wg.Wait()
			slog.InfoContext(ctx, "Digest worker stopped gracefully")
			return nil
		}
	}
}

// RunOnce builds the board and writes it. Returns the object key written.
func (w *Worker) RunOnce(ctx context.Context) (string, error) {
	params := orchard.FollowUpBoardParams{ZoneID: w.zoneID}
	if w.now != nil {
		params.At = w.now()
	}

	board, err := w.source.FollowUpBoard(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to build follow-up board: %w", err)
	}

	data, err := EncodeBoard(board)
	if err != nil {
		return "", fmt.Errorf("failed to encode digest: %w", err)
	}

	key := DigestKey(board.Date)
	if err := w.store.Put(ctx, key, data, CSVContentType); err != nil {
		return "", fmt.Errorf("failed to store digest: %w", err)
	}

	slog.InfoContext(ctx, "Wrote follow-up digest",
		"key", key,
		"overdue", len(board.Groups.Overdue),
		"today", len(board.Groups.Today),
		"upcoming", len(board.Groups.Upcoming),
	)
	return key, nil
}

// DigestKey returns the object key of the digest for the given day.
// The key uses the Gregorian date so keys sort chronologically.
func DigestKey(day time.Time) string {
	return "digests/" + day.Format(thaidate.ISODate) + ".csv"
}
