package handler

import (
	"fmt"
	"time"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/followup"
	"github.com/suanview/orchard/internal/thaidate"
)

// DTOs carry presentation statuses, Thai labels and Buddhist-era dates next to the ISO values.

type StatusOptionDTO struct {
	Value domain.TreeStatusView `json:"value"`
	Label string                `json:"label"`
}

type ZoneDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TreeCount   int       `json:"tree_count"`
	Etag        string    `json:"etag"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TreeDTO struct {
	ID          string                `json:"id"`
	Code        string                `json:"code"`
	ZoneID      *string               `json:"zone_id,omitempty"`
	Variety     string                `json:"variety"`
	Status      domain.TreeStatusView `json:"status"`
	StatusLabel string                `json:"status_label"`
	PlantedAt   string                `json:"planted_at,omitempty"`
	PlantedAtTH string                `json:"planted_at_th,omitempty"`
	Notes       string                `json:"notes"`
	QRPayload   string                `json:"qr_payload"`
	Etag        string                `json:"etag"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

type ActivityDTO struct {
	ID               string    `json:"id"`
	TreeID           string    `json:"tree_id"`
	Type             string    `json:"type"`
	TypeLabel        string    `json:"type_label"`
	PerformedAt      time.Time `json:"performed_at"`
	PerformedAtTH    string    `json:"performed_at_th"`
	Product          string    `json:"product,omitempty"`
	Formulation      string    `json:"formulation,omitempty"`
	FormulationLabel string    `json:"formulation_label,omitempty"`
	Dosage           string    `json:"dosage,omitempty"`
	Note             string    `json:"note,omitempty"`
	FollowUpDate     *string   `json:"follow_up_date,omitempty"`
	FollowUpDateTH   string    `json:"follow_up_date_th,omitempty"`
	FollowUpDone     bool      `json:"follow_up_done"`
	FollowUpStatus   string    `json:"follow_up_status,omitempty"`
	FollowUpRelative string    `json:"follow_up_relative,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type FollowUpItemDTO struct {
	Activity  ActivityDTO `json:"activity"`
	TreeCode  string      `json:"tree_code"`
	ZoneName  string      `json:"zone_name"`
	DaysUntil int         `json:"days_until"`
}

type FollowUpBoardDTO struct {
	Date     string            `json:"date"`
	DateTH   string            `json:"date_th"`
	Overdue  []FollowUpItemDTO `json:"overdue"`
	Today    []FollowUpItemDTO `json:"today"`
	Upcoming []FollowUpItemDTO `json:"upcoming"`
}

type TreeLabelDTO struct {
	TreeID      string                `json:"tree_id"`
	Code        string                `json:"code"`
	QRPayload   string                `json:"qr_payload"`
	Variety     string                `json:"variety"`
	ZoneName    string                `json:"zone_name"`
	Status      domain.TreeStatusView `json:"status"`
	StatusLabel string                `json:"status_label"`
	PlantedAt   string                `json:"planted_at,omitempty"`
	PlantedAtTH string                `json:"planted_at_th,omitempty"`
}

// Domain → DTO mappers

// MapStatusOptions converts the selectable statuses.
func MapStatusOptions(opts []domain.StatusOption) []StatusOptionDTO {
	out := make([]StatusOptionDTO, len(opts))
	for i, o := range opts {
		out[i] = StatusOptionDTO{Value: o.Value, Label: o.Label}
	}
	return out
}

// MapZoneToDTO converts domain.Zone to ZoneDTO.
func MapZoneToDTO(zone *domain.Zone) ZoneDTO {
	return ZoneDTO{
		ID:          zone.ID,
		Name:        zone.Name,
		Description: zone.Description,
		TreeCount:   zone.TreeCount,
		Etag:        zone.Etag(),
		CreatedAt:   zone.CreatedAt,
		UpdatedAt:   zone.UpdatedAt,
	}
}

// MapTreeToDTO converts domain.Tree to TreeDTO.
// A stored status outside the known vocabulary is an error, never a guess.
func MapTreeToDTO(tree *domain.Tree, qrPayload string) (TreeDTO, error) {
	view, err := tree.Status.View()
	if err != nil {
		return TreeDTO{}, fmt.Errorf("tree %s: %w", tree.ID, err)
	}
	label, err := domain.DisplayLabel(string(view))
	if err != nil {
		return TreeDTO{}, fmt.Errorf("tree %s: %w", tree.ID, err)
	}

	dto := TreeDTO{
		ID:          tree.ID,
		Code:        tree.Code,
		ZoneID:      tree.ZoneID,
		Variety:     tree.Variety,
		Status:      view,
		StatusLabel: label,
		Notes:       tree.Notes,
		QRPayload:   qrPayload,
		Etag:        tree.Etag(),
		CreatedAt:   tree.CreatedAt,
		UpdatedAt:   tree.UpdatedAt,
	}
	if tree.PlantedAt != nil {
		dto.PlantedAt = tree.PlantedAt.Format(thaidate.ISODate)
		dto.PlantedAtTH = thaidate.FormatFull(*tree.PlantedAt)
	}
	return dto, nil
}

// MapActivityToDTO converts domain.ActivityLog to ActivityDTO.
// Follow-up status and relative label are computed against ref's calendar day.
func MapActivityToDTO(a *domain.ActivityLog, ref time.Time) ActivityDTO {
	dto := ActivityDTO{
		ID:            a.ID,
		TreeID:        a.TreeID,
		Type:          string(a.Type),
		TypeLabel:     a.Type.Label(),
		PerformedAt:   a.PerformedAt,
		PerformedAtTH: thaidate.FormatFull(a.PerformedAt.In(ref.Location())),
		Product:       a.Product,
		Formulation:   string(a.Formulation),
		Dosage:        a.Dosage,
		Note:          a.Note,
		FollowUpDate:  a.FollowUpDate,
		FollowUpDone:  a.FollowUpDone,
		CreatedAt:     a.CreatedAt,
	}
	if a.Formulation != "" {
		dto.FormulationLabel = a.Formulation.Label()
	}
	if a.FollowUpDate != nil {
		dto.FollowUpDateTH = thaidate.FormatLocalizedFullIn(*a.FollowUpDate, ref.Location())
	}
	if pending := a.FollowUp(); pending != "" {
		if c, err := followup.Classify(pending, ref); err == nil {
			dto.FollowUpStatus = string(c)
		}
		dto.FollowUpRelative = followup.RelativeLabel(pending, ref)
	}
	return dto
}

// MapFollowUpBoardToDTO converts the grouped board. Every list is non-nil.
func MapFollowUpBoardToDTO(board *orchard.FollowUpBoard) FollowUpBoardDTO {
	mapItems := func(items []domain.FollowUpItem) []FollowUpItemDTO {
		out := make([]FollowUpItemDTO, 0, len(items))
		for _, item := range items {
			// Grouping already dropped unparseable dates, so DaysUntil cannot fail here.
			days, _ := followup.DaysUntil(item.FollowUp(), board.Date)
			out = append(out, FollowUpItemDTO{
				Activity:  MapActivityToDTO(&item.Activity, board.Date),
				TreeCode:  item.TreeCode,
				ZoneName:  item.ZoneName,
				DaysUntil: days,
			})
		}
		return out
	}

	return FollowUpBoardDTO{
		Date:     board.Date.Format(thaidate.ISODate),
		DateTH:   thaidate.FormatFull(board.Date),
		Overdue:  mapItems(board.Groups.Overdue),
		Today:    mapItems(board.Groups.Today),
		Upcoming: mapItems(board.Groups.Upcoming),
	}
}

// MapLabelsToDTO converts a label sheet.
func MapLabelsToDTO(labels []domain.TreeLabel) []TreeLabelDTO {
	out := make([]TreeLabelDTO, len(labels))
	for i, l := range labels {
		out[i] = TreeLabelDTO{
			TreeID:      l.TreeID,
			Code:        l.Code,
			QRPayload:   l.QRPayload,
			Variety:     l.Variety,
			ZoneName:    l.ZoneName,
			Status:      l.Status,
			StatusLabel: l.StatusLabel,
			PlantedAt:   l.PlantedAt,
			PlantedAtTH: l.PlantedAtTH,
		}
	}
	return out
}
