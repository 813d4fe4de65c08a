package main

import (
	"context"
	"io"
	"log/slog"
)

// shutdowner abstracts the authenticator so tests can verify cleanup behavior
// without constructing real infrastructure dependencies.
type shutdowner interface {
	Shutdown(context.Context) error
}

// newCleanup constructs the shutdown hook: drain pending last_used_at updates
// through the authenticator, then close the stores in order.
func newCleanup(ctx context.Context, authenticator shutdowner, closers ...io.Closer) func() {
	return func() {
		if authenticator != nil {
			if err := authenticator.Shutdown(ctx); err != nil {
				slog.ErrorContext(ctx, "Failed to shut down authenticator", slog.String("error", err.Error()))
			}
		}

		for _, c := range closers {
			if c == nil {
				continue
			}
			if err := c.Close(); err != nil {
				slog.ErrorContext(ctx, "Failed to close store", slog.String("error", err.Error()))
			}
		}
	}
}
