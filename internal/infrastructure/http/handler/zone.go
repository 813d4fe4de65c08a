package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/infrastructure/http/response"
)

type createZoneRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateZoneRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Etag        *string  `json:"etag"`
	UpdateMask  []string `json:"update_mask"`
}

type zoneResponse struct {
	Zone ZoneDTO `json:"zone"`
}

type listZonesResponse struct {
	Zones         []ZoneDTO `json:"zones"`
	TotalCount    int       `json:"total_count"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

// CreateZone handles POST /v1/zones
func (h *OrchardHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var req createZoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	zone, err := h.service.CreateZone(r.Context(), orchard.CreateZoneInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "zone created via HTTP", "zone_id", zone.ID)
	response.Created(w, zoneResponse{Zone: MapZoneToDTO(zone)})
}

// GetZone handles GET /v1/zones/{zone_id}
func (h *OrchardHandler) GetZone(w http.ResponseWriter, r *http.Request) {
	zone, err := h.service.GetZone(r.Context(), chi.URLParam(r, "zone_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, zoneResponse{Zone: MapZoneToDTO(zone)})
}

// ListZones handles GET /v1/zones
func (h *OrchardHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := page(q)

	result, err := h.service.ListZones(r.Context(), domain.ListZonesParams{
		NameContains: optional(q.Get("name")),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	zones := make([]ZoneDTO, 0, len(result.Zones))
	for _, z := range result.Zones {
		zones = append(zones, MapZoneToDTO(z))
	}
	response.OK(w, listZonesResponse{
		Zones:         zones,
		TotalCount:    result.TotalCount,
		NextPageToken: generatePageToken(offset+len(result.Zones), result.HasMore),
	})
}

// UpdateZone handles PATCH /v1/zones/{zone_id}
func (h *OrchardHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	var req updateZoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := domain.UpdateZoneParams{
		ZoneID:      chi.URLParam(r, "zone_id"),
		Etag:        req.Etag,
		UpdateMask:  req.UpdateMask,
		Description: req.Description,
	}
	if req.Name != nil {
		name, err := domain.NewZoneName(*req.Name)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Name = &name
	}

	zone, err := h.service.UpdateZone(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, zoneResponse{Zone: MapZoneToDTO(zone)})
}

// DeleteZone handles DELETE /v1/zones/{zone_id}
func (h *OrchardHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zone_id")
	if err := h.service.DeleteZone(r.Context(), zoneID); err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "zone deleted via HTTP", "zone_id", zoneID)
	response.NoContent(w)
}
