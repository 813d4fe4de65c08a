package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/infrastructure/http/response"
	"github.com/suanview/orchard/internal/thaidate"
)

type createTreeRequest struct {
	Code      string  `json:"code"`
	ZoneID    *string `json:"zone_id"`
	Variety   string  `json:"variety"`
	Status    string  `json:"status"`
	PlantedAt string  `json:"planted_at"`
	Notes     string  `json:"notes"`
}

type updateTreeRequest struct {
	Code       *string  `json:"code"`
	ZoneID     *string  `json:"zone_id"`
	Variety    *string  `json:"variety"`
	Status     *string  `json:"status"`
	PlantedAt  *string  `json:"planted_at"`
	Notes      *string  `json:"notes"`
	Etag       *string  `json:"etag"`
	UpdateMask []string `json:"update_mask"`
}

type treeResponse struct {
	Tree TreeDTO `json:"tree"`
}

type listTreesResponse struct {
	Trees         []TreeDTO `json:"trees"`
	TotalCount    int       `json:"total_count"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

// parsePlantedAt accepts any date layout thaidate understands. Empty means unknown.
func (h *OrchardHandler) parsePlantedAt(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := thaidate.Parse(s, h.location())
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *OrchardHandler) writeTree(w http.ResponseWriter, r *http.Request, status int, tree *domain.Tree) {
	dto, err := MapTreeToDTO(tree, h.service.QRPayload(tree.Code))
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	if status == http.StatusCreated {
		response.Created(w, treeResponse{Tree: dto})
		return
	}
	response.OK(w, treeResponse{Tree: dto})
}

// CreateTree handles POST /v1/trees. The status is in the presentation vocabulary.
func (h *OrchardHandler) CreateTree(w http.ResponseWriter, r *http.Request) {
	var req createTreeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := orchard.CreateTreeInput{
		Code:    req.Code,
		ZoneID:  req.ZoneID,
		Variety: req.Variety,
		Notes:   req.Notes,
	}
	if req.Status != "" {
		status, err := domain.ToPersisted(req.Status)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		in.Status = status
	}
	plantedAt, err := h.parsePlantedAt(req.PlantedAt)
	if err != nil {
		response.ValidationError(w, "planted_at", "invalid date")
		return
	}
	in.PlantedAt = plantedAt

	tree, err := h.service.CreateTree(r.Context(), in)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "tree created via HTTP", "tree_id", tree.ID, "code", tree.Code)
	h.writeTree(w, r, http.StatusCreated, tree)
}

// GetTree handles GET /v1/trees/{tree_id}
func (h *OrchardHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.GetTree(r.Context(), chi.URLParam(r, "tree_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	h.writeTree(w, r, http.StatusOK, tree)
}

// GetTreeByCode handles GET /v1/qr/{code}, the target of a scanned label.
func (h *OrchardHandler) GetTreeByCode(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.GetTreeByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	h.writeTree(w, r, http.StatusOK, tree)
}

// ListTrees handles GET /v1/trees
func (h *OrchardHandler) ListTrees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := page(q)

	filter, err := domain.NewTreesFilter(domain.TreesFilterInput{
		Statuses:   q["status"],
		ZoneID:     optional(q.Get("zone_id")),
		Variety:    optional(q.Get("variety")),
		CodePrefix: optional(q.Get("code_prefix")),
		OrderBy:    q.Get("order_by"),
		OrderDir:   q.Get("order_dir"),
	})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	result, err := h.service.ListTrees(r.Context(), domain.ListTreesParams{
		Filter: filter,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	trees := make([]TreeDTO, 0, len(result.Trees))
	for _, t := range result.Trees {
		dto, err := MapTreeToDTO(t, h.service.QRPayload(t.Code))
		if err != nil {
			response.InternalError(w, r, err)
			return
		}
		trees = append(trees, dto)
	}
	response.OK(w, listTreesResponse{
		Trees:         trees,
		TotalCount:    result.TotalCount,
		NextPageToken: generatePageToken(offset+len(result.Trees), result.HasMore),
	})
}

// UpdateTree handles PATCH /v1/trees/{tree_id}
func (h *OrchardHandler) UpdateTree(w http.ResponseWriter, r *http.Request) {
	var req updateTreeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := domain.UpdateTreeParams{
		TreeID:     chi.URLParam(r, "tree_id"),
		Etag:       req.Etag,
		UpdateMask: req.UpdateMask,
		ZoneID:     req.ZoneID,
		Variety:    req.Variety,
		Notes:      req.Notes,
	}
	if req.Code != nil {
		code, err := domain.NewTreeCode(*req.Code)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Code = &code
	}
	if req.Status != nil {
		status, err := domain.ToPersisted(*req.Status)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Status = &status
	}
	if req.PlantedAt != nil {
		plantedAt, err := h.parsePlantedAt(*req.PlantedAt)
		if err != nil {
			response.ValidationError(w, "planted_at", "invalid date")
			return
		}
		params.PlantedAt = plantedAt
	}

	tree, err := h.service.UpdateTree(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	h.writeTree(w, r, http.StatusOK, tree)
}

// ArchiveTree handles DELETE /v1/trees/{tree_id}. Trees are archived, never removed.
func (h *OrchardHandler) ArchiveTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.ArchiveTree(r.Context(), chi.URLParam(r, "tree_id"), etagFromHeader(r))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "tree archived via HTTP", "tree_id", tree.ID)
	h.writeTree(w, r, http.StatusOK, tree)
}
