// Package handler adapts HTTP requests to orchard service calls.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
	mw "github.com/suanview/orchard/internal/infrastructure/http/middleware"
	"github.com/suanview/orchard/internal/infrastructure/http/openapi"
	"github.com/suanview/orchard/internal/infrastructure/http/response"
)

// LabelExporter writes a label sheet to blob storage and returns the object key.
// Implemented by *digest.LabelExporter.
type LabelExporter interface {
	Export(ctx context.Context, labels []domain.TreeLabel) (string, error)
}

// OrchardHandler serves the /v1 API.
type OrchardHandler struct {
	service  *orchard.Service
	exporter LabelExporter
}

// NewOrchardHandler creates a new HTTP API handler.
func NewOrchardHandler(service *orchard.Service, exporter LabelExporter) *OrchardHandler {
	return &OrchardHandler{
		service:  service,
		exporter: exporter,
	}
}

// NewOpenAPIRouter creates an HTTP handler with OpenAPI validation and route mounting.
// It is meant to be mounted at /api. Both production code and tests use this
// function so they validate requests identically.
func NewOpenAPIRouter(service *orchard.Service, exporter LabelExporter) (http.Handler, error) {
	h := NewOrchardHandler(service, exporter)

	spec, err := openapi.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(mw.NewValidator(spec, mw.ValidationConfig{MultiError: true}))
	h.Routes(r)
	return r, nil
}

// Routes registers every API route on r.
func (h *OrchardHandler) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/statuses", h.ListStatuses)

		r.Route("/zones", func(r chi.Router) {
			r.Post("/", h.CreateZone)
			r.Get("/", h.ListZones)
			r.Get("/{zone_id}", h.GetZone)
			r.Patch("/{zone_id}", h.UpdateZone)
			r.Delete("/{zone_id}", h.DeleteZone)
		})

		r.Route("/trees", func(r chi.Router) {
			r.Post("/", h.CreateTree)
			r.Get("/", h.ListTrees)
			r.Get("/{tree_id}", h.GetTree)
			r.Patch("/{tree_id}", h.UpdateTree)
			r.Delete("/{tree_id}", h.ArchiveTree)
			r.Post("/{tree_id}/activities", h.RecordActivity)
			r.Get("/{tree_id}/activities", h.ListActivities)
		})

		r.Get("/qr/{code}", h.GetTreeByCode)
		r.Post("/activities/{activity_id}/complete", h.CompleteFollowUp)
		r.Get("/followups", h.GetFollowUpBoard)
		r.Post("/labels", h.BuildLabelSheet)
		r.Post("/labels/export", h.ExportLabelSheet)
	})
}

// ListStatuses returns the selectable statuses.
// GET /v1/statuses
func (h *OrchardHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]any{
		"statuses": MapStatusOptions(domain.AllDisplayOptions()),
	})
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "invalid JSON")
		return false
	}
	return true
}

// location is where calendar dates in requests and responses are interpreted.
func (h *OrchardHandler) location() *time.Location {
	return h.service.Classifier().Location()
}

// reference is the current time in the orchard's location.
func (h *OrchardHandler) reference() time.Time {
	return h.service.Classifier().Now().In(h.location())
}

// optional returns nil for an empty string.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// etagFromHeader reads an optional If-Match header, without quotes.
func etagFromHeader(r *http.Request) *string {
	return optional(strings.Trim(r.Header.Get("If-Match"), `"`))
}
