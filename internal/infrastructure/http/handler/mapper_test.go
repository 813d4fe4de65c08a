package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/ptr"
)

func TestMapTreeToDTO_UnknownStatusFails(t *testing.T) {
	_, err := MapTreeToDTO(&domain.Tree{ID: "t1", Code: "A-1", Status: "WILTED"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTreeStatus)
}

func TestMapActivityToDTO_FollowUp(t *testing.T) {
	ref := time.Date(2024, 1, 15, 0, 0, 0, 0, bangkok)

	tests := []struct {
		name         string
		date         string
		done         bool
		wantStatus   string
		wantRelative string
	}{
		{"overdue", "2024-01-12", false, "overdue", "เลยกำหนด 3 วัน"},
		{"today", "2024-01-15", false, "today", "วันนี้"},
		{"upcoming", "2024-01-16", false, "upcoming", "อีก 1 วัน"},
		{"done", "2024-01-12", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto := MapActivityToDTO(&domain.ActivityLog{
				ID:           "a1",
				Type:         domain.ActivityPruning,
				PerformedAt:  ref.UTC(),
				FollowUpDate: ptr.To(tt.date),
				FollowUpDone: tt.done,
			}, ref)
			assert.Equal(t, tt.wantStatus, dto.FollowUpStatus)
			assert.Equal(t, tt.wantRelative, dto.FollowUpRelative)
			assert.NotEmpty(t, dto.FollowUpDateTH)
		})
	}
}

func TestMapFollowUpBoardToDTO_EmptyListsAreNotNil(t *testing.T) {
	dto := MapFollowUpBoardToDTO(&orchard.FollowUpBoard{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, bangkok)})
	assert.NotNil(t, dto.Overdue)
	assert.NotNil(t, dto.Today)
	assert.NotNil(t, dto.Upcoming)
	assert.Equal(t, "2024-01-15", dto.Date)
}

func TestPageToken_RoundTrip(t *testing.T) {
	assert.Empty(t, generatePageToken(10, false))
	assert.Equal(t, 10, parsePageToken(generatePageToken(10, true)))
	assert.Zero(t, parsePageToken("%%%"))
	assert.Zero(t, parsePageToken(generatePageToken(-3, true)))
}
