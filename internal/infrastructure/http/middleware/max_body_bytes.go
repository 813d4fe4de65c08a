package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/suanview/orchard/internal/infrastructure/http/response"
)

// MaxBodyBytes limits request body size.
// Requests whose Content-Length already exceeds the limit are rejected before reading;
// otherwise the body is read through http.MaxBytesReader, which also covers chunked
// uploads and lying Content-Length headers.
//
// Returns 413 Request Entity Too Large in the standard error format.
func MaxBodyBytes(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				tooLarge(w)
				return
			}

			buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
			if err != nil {
				slog.WarnContext(r.Context(), "Request body size limit exceeded",
					"method", r.Method,
					"path", r.URL.Path,
					"content_length", r.ContentLength,
					"limit", maxBytes,
					"error", err)
				tooLarge(w)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(buf))
			next.ServeHTTP(w, r)
		})
	}
}

func tooLarge(w http.ResponseWriter) {
	response.Error(w, "PAYLOAD_TOO_LARGE", "request body exceeds size limit", http.StatusRequestEntityTooLarge)
}
