package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/infrastructure/http/response"
	"github.com/suanview/orchard/internal/thaidate"
)

type recordActivityRequest struct {
	Type         string `json:"type"`
	PerformedAt  string `json:"performed_at"`
	Product      string `json:"product"`
	Formulation  string `json:"formulation"`
	Dosage       string `json:"dosage"`
	Note         string `json:"note"`
	FollowUpDate string `json:"follow_up_date"`
}

type activityResponse struct {
	Activity ActivityDTO `json:"activity"`
}

type listActivitiesResponse struct {
	Activities    []ActivityDTO `json:"activities"`
	TotalCount    int           `json:"total_count"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

// RecordActivity handles POST /v1/trees/{tree_id}/activities
func (h *OrchardHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	var req recordActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := orchard.RecordActivityInput{
		TreeID:       chi.URLParam(r, "tree_id"),
		Type:         req.Type,
		Product:      req.Product,
		Formulation:  req.Formulation,
		Dosage:       req.Dosage,
		Note:         req.Note,
		FollowUpDate: req.FollowUpDate,
	}
	if req.PerformedAt != "" {
		performedAt, err := thaidate.ParseTime(req.PerformedAt, h.location())
		if err != nil {
			response.ValidationError(w, "performed_at", "invalid date")
			return
		}
		in.PerformedAt = &performedAt
	}

	activity, err := h.service.RecordActivity(r.Context(), in)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "activity recorded via HTTP",
		"activity_id", activity.ID,
		"tree_id", activity.TreeID,
		"type", activity.Type)
	response.Created(w, activityResponse{Activity: MapActivityToDTO(activity, h.reference())})
}

// ListActivities handles GET /v1/trees/{tree_id}/activities
func (h *OrchardHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := page(q)

	params := domain.ListActivitiesParams{
		TreeID: chi.URLParam(r, "tree_id"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := q.Get("type"); raw != "" {
		t, err := domain.NewActivityType(raw)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Type = &t
	}

	result, err := h.service.ListActivities(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	ref := h.reference()
	activities := make([]ActivityDTO, 0, len(result.Activities))
	for _, a := range result.Activities {
		activities = append(activities, MapActivityToDTO(a, ref))
	}
	response.OK(w, listActivitiesResponse{
		Activities:    activities,
		TotalCount:    result.TotalCount,
		NextPageToken: generatePageToken(offset+len(result.Activities), result.HasMore),
	})
}

// CompleteFollowUp handles POST /v1/activities/{activity_id}/complete
func (h *OrchardHandler) CompleteFollowUp(w http.ResponseWriter, r *http.Request) {
	activity, err := h.service.CompleteFollowUp(r.Context(), chi.URLParam(r, "activity_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "follow-up completed via HTTP", "activity_id", activity.ID)
	response.OK(w, activityResponse{Activity: MapActivityToDTO(activity, h.reference())})
}

// GetFollowUpBoard handles GET /v1/followups. The optional date query picks the reference day.
func (h *OrchardHandler) GetFollowUpBoard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := orchard.FollowUpBoardParams{ZoneID: optional(q.Get("zone_id"))}
	if raw := q.Get("date"); raw != "" {
		at, err := thaidate.ParseTime(raw, h.location())
		if err != nil {
			response.ValidationError(w, "date", "invalid date")
			return
		}
		params.At = at
	}

	board, err := h.service.FollowUpBoard(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, MapFollowUpBoardToDTO(board))
}

