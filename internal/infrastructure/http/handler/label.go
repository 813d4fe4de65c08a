package handler

import (
	"log/slog"
	"net/http"

	"github.com/suanview/orchard/internal/infrastructure/http/response"
)

type labelSheetRequest struct {
	TreeIDs []string `json:"tree_ids"`
}

type labelSheetResponse struct {
	Labels []TreeLabelDTO `json:"labels"`
}

type labelExportResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// BuildLabelSheet handles POST /v1/labels. Labels come back in request order.
func (h *OrchardHandler) BuildLabelSheet(w http.ResponseWriter, r *http.Request) {
	var req labelSheetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	labels, err := h.service.LabelSheet(r.Context(), req.TreeIDs)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, labelSheetResponse{Labels: MapLabelsToDTO(labels)})
}

// ExportLabelSheet handles POST /v1/labels/export
func (h *OrchardHandler) ExportLabelSheet(w http.ResponseWriter, r *http.Request) {
	var req labelSheetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	labels, err := h.service.LabelSheet(r.Context(), req.TreeIDs)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	key, err := h.exporter.Export(r.Context(), labels)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "label sheet exported via HTTP", "key", key, "count", len(labels))
	response.Created(w, labelExportResponse{Key: key, Count: len(labels)})
}
