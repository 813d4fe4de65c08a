package orchard

import (
	"context"
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/followup"
	"github.com/suanview/orchard/internal/ptr"
)

var bangkok = time.FixedZone("ICT", 7*60*60)

// fixedNow is 2024-01-15 09:00 in Bangkok.
var fixedNow = time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC)

func newTestService(repo Repository, cfg Config) *Service {
	classifier := followup.New(
		followup.WithClock(func() time.Time { return fixedNow }),
		followup.WithLocation(bangkok),
	)
	return NewService(repo, classifier, cfg)
}

func echoTree(_ context.Context, tree *domain.Tree) (*domain.Tree, error) {
	tree.Version = 1
	return tree, nil
}

func TestNewService_AppliesDefaults(t *testing.T) {
	svc := NewService(&fakeRepository{}, nil, Config{PublicBaseURL: "https://suan.example/"})

	assert.Equal(t, DefaultPageSize, svc.config.DefaultPageSize)
	assert.Equal(t, MaxPageSize, svc.config.MaxPageSize)
	assert.Equal(t, DefaultMaxLabelsPerSheet, svc.config.MaxLabelsPerSheet)
	assert.Equal(t, "https://suan.example", svc.config.PublicBaseURL, "trailing slash is trimmed")
	assert.NotNil(t, svc.Classifier())
}

// =============================================================================
// Zones
// =============================================================================

func TestCreateZone(t *testing.T) {
	var captured *domain.Zone
	repo := &fakeRepository{
		createZoneFunc: func(_ context.Context, zone *domain.Zone) (*domain.Zone, error) {
			captured = zone
			zone.Version = 1
			return zone, nil
		},
	}
	svc := newTestService(repo, Config{})

	zone, err := svc.CreateZone(context.Background(), CreateZoneInput{Name: "  แปลง A ", Description: " ริมน้ำ "})
	require.NoError(t, err)

	assert.Equal(t, "แปลง A", zone.Name)
	assert.Equal(t, "ริมน้ำ", zone.Description)
	assert.NotEmpty(t, zone.ID)
	assert.Equal(t, fixedNow, captured.CreatedAt)
	assert.Equal(t, time.UTC, captured.CreatedAt.Location())
}

func TestCreateZone_Validation(t *testing.T) {
	svc := newTestService(&fakeRepository{}, Config{})

	_, err := svc.CreateZone(context.Background(), CreateZoneInput{Name: ""})
	assert.ErrorIs(t, err, domain.ErrZoneNameRequired)

	long := make([]rune, 501)
	for i := range long {
		long[i] = 'ก'
	}
	_, err = svc.CreateZone(context.Background(), CreateZoneInput{Name: "A", Description: string(long)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	var fieldErrs validation.Errors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Contains(t, fieldErrs, "Description")
}

func TestListZones_PageSize(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		offset        int
		expectedLimit int
		expectedOff   int
	}{
		{name: "default", limit: 0, expectedLimit: DefaultPageSize},
		{name: "negative limit", limit: -5, expectedLimit: DefaultPageSize},
		{name: "capped", limit: 1000, expectedLimit: MaxPageSize},
		{name: "negative offset", limit: 10, offset: -3, expectedLimit: 10, expectedOff: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured domain.ListZonesParams
			repo := &fakeRepository{
				listZonesFunc: func(_ context.Context, params domain.ListZonesParams) (*domain.PagedZoneResult, error) {
					captured = params
					return &domain.PagedZoneResult{}, nil
				},
			}
			svc := newTestService(repo, Config{})

			_, err := svc.ListZones(context.Background(), domain.ListZonesParams{Limit: tt.limit, Offset: tt.offset})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedLimit, captured.Limit)
			assert.Equal(t, tt.expectedOff, captured.Offset)
		})
	}
}

func TestDeleteZone_PropagatesNotEmpty(t *testing.T) {
	repo := &fakeRepository{
		deleteZoneFunc: func(context.Context, string) error { return domain.ErrZoneNotEmpty },
	}
	svc := newTestService(repo, Config{})

	assert.ErrorIs(t, svc.DeleteZone(context.Background(), "zone-1"), domain.ErrZoneNotEmpty)
	assert.ErrorIs(t, svc.DeleteZone(context.Background(), ""), domain.ErrZoneNotFound)
}

// =============================================================================
// Trees
// =============================================================================

func TestCreateTree_DefaultsAndNormalization(t *testing.T) {
	repo := &fakeRepository{createTreeFunc: echoTree}
	svc := newTestService(repo, Config{})

	tree, err := svc.CreateTree(context.Background(), CreateTreeInput{
		Code:    " a-001 ",
		ZoneID:  ptr.To("  "),
		Variety: " หมอนทอง ",
	})
	require.NoError(t, err)

	assert.Equal(t, "A-001", tree.Code)
	assert.Equal(t, domain.TreeStatusHealthy, tree.Status)
	assert.Nil(t, tree.ZoneID, "blank zone means unassigned")
	assert.Equal(t, "หมอนทอง", tree.Variety)
}

func TestCreateTree_RejectsInvalidInput(t *testing.T) {
	svc := newTestService(&fakeRepository{createTreeFunc: echoTree}, Config{})

	_, err := svc.CreateTree(context.Background(), CreateTreeInput{Code: ""})
	assert.ErrorIs(t, err, domain.ErrTreeCodeRequired)

	_, err = svc.CreateTree(context.Background(), CreateTreeInput{Code: "A 1"})
	assert.ErrorIs(t, err, domain.ErrTreeCodeInvalid)

	_, err = svc.CreateTree(context.Background(), CreateTreeInput{Code: "A1", Status: "healthy"})
	assert.ErrorIs(t, err, domain.ErrValidation, "presentation status must be converted before reaching the service")
}

func TestCreateTree_WrapsRepositoryError(t *testing.T) {
	repo := &fakeRepository{
		createTreeFunc: func(context.Context, *domain.Tree) (*domain.Tree, error) {
			return nil, domain.ErrTreeCodeTaken
		},
	}
	svc := newTestService(repo, Config{})

	_, err := svc.CreateTree(context.Background(), CreateTreeInput{Code: "A1"})
	assert.ErrorIs(t, err, domain.ErrTreeCodeTaken)
}

func TestGetTreeByCode_NormalizesScannedCode(t *testing.T) {
	var lookedUp string
	repo := &fakeRepository{
		findTreeByCodeFunc: func(_ context.Context, code string) (*domain.Tree, error) {
			lookedUp = code
			return &domain.Tree{ID: "t1", Code: code}, nil
		},
	}
	svc := newTestService(repo, Config{})

	_, err := svc.GetTreeByCode(context.Background(), "b-07")
	require.NoError(t, err)
	assert.Equal(t, "B-07", lookedUp)

	_, err = svc.GetTreeByCode(context.Background(), "not a code!")
	assert.ErrorIs(t, err, domain.ErrTreeNotFound)
}

func TestArchiveTree_UpdatesStatusOnly(t *testing.T) {
	var captured domain.UpdateTreeParams
	repo := &fakeRepository{
		updateTreeFunc: func(_ context.Context, params domain.UpdateTreeParams) (*domain.Tree, error) {
			captured = params
			return &domain.Tree{ID: params.TreeID, Status: *params.Status}, nil
		},
	}
	svc := newTestService(repo, Config{})

	tree, err := svc.ArchiveTree(context.Background(), "t1", ptr.To("3"))
	require.NoError(t, err)

	assert.Equal(t, domain.TreeStatusArchived, tree.Status)
	assert.Equal(t, []string{"status"}, captured.UpdateMask)
	assert.Equal(t, "3", *captured.Etag)
}

func TestUpdateTree_ValidatesMaskBeforeRepository(t *testing.T) {
	svc := newTestService(&fakeRepository{}, Config{})

	_, err := svc.UpdateTree(context.Background(), domain.UpdateTreeParams{TreeID: "t1"})
	assert.ErrorIs(t, err, domain.ErrEmptyUpdateMask)

	_, err = svc.UpdateTree(context.Background(), domain.UpdateTreeParams{TreeID: "t1", UpdateMask: []string{"height"}})
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

// =============================================================================
// Activities
// =============================================================================

func TestRecordActivity_MigratesFormulationAndNormalizesFollowUp(t *testing.T) {
	var captured *domain.ActivityLog
	repo := &fakeRepository{
		createActivityFunc: func(_ context.Context, a *domain.ActivityLog) (*domain.ActivityLog, error) {
			captured = a
			return a, nil
		},
	}
	svc := newTestService(repo, Config{})

	_, err := svc.RecordActivity(context.Background(), RecordActivityInput{
		TreeID:       "t1",
		Type:         "spraying",
		Product:      "แมนโคเซบ",
		Formulation:  "WDG",
		FollowUpDate: "2024-01-22T10:00:00+07:00",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ActivitySpraying, captured.Type)
	assert.Equal(t, domain.FormulationWG, captured.Formulation)
	require.NotNil(t, captured.FollowUpDate)
	assert.Equal(t, "2024-01-22", *captured.FollowUpDate)
	assert.Equal(t, fixedNow, captured.PerformedAt, "performed_at defaults to now")
	assert.False(t, captured.FollowUpDone)
}

func TestRecordActivity_Validation(t *testing.T) {
	svc := newTestService(&fakeRepository{}, Config{})

	tests := []struct {
		name    string
		input   RecordActivityInput
		wantErr error
	}{
		{
			name:    "missing tree",
			input:   RecordActivityInput{Type: "PRUNING"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown type",
			input:   RecordActivityInput{TreeID: "t1", Type: "mowing"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "spraying without product",
			input:   RecordActivityInput{TreeID: "t1", Type: "SPRAYING"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown formulation",
			input:   RecordActivityInput{TreeID: "t1", Type: "SPRAYING", Product: "x", Formulation: "ZZ"},
			wantErr: domain.ErrUnknownFormulation,
		},
		{
			name:    "bad follow-up date",
			input:   RecordActivityInput{TreeID: "t1", Type: "PRUNING", FollowUpDate: "next week"},
			wantErr: domain.ErrInvalidFollowUpDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordActivity(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListActivities_MissingTree(t *testing.T) {
	repo := &fakeRepository{
		findTreeByIDFunc: func(context.Context, string) (*domain.Tree, error) {
			return nil, domain.ErrTreeNotFound
		},
	}
	svc := newTestService(repo, Config{})

	_, err := svc.ListActivities(context.Background(), domain.ListActivitiesParams{TreeID: "missing"})
	assert.ErrorIs(t, err, domain.ErrTreeNotFound)
}

func TestCompleteFollowUp(t *testing.T) {
	tests := []struct {
		name     string
		activity *domain.ActivityLog
		wantErr  error
	}{
		{
			name:     "pending follow-up",
			activity: &domain.ActivityLog{ID: "a1", FollowUpDate: ptr.To("2024-01-20")},
		},
		{
			name:     "no follow-up date",
			activity: &domain.ActivityLog{ID: "a1"},
			wantErr:  domain.ErrNoFollowUp,
		},
		{
			name:     "already done",
			activity: &domain.ActivityLog{ID: "a1", FollowUpDate: ptr.To("2024-01-20"), FollowUpDone: true},
			wantErr:  domain.ErrFollowUpCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marked := false
			repo := &fakeRepository{
				findActivityByIDFunc: func(context.Context, string) (*domain.ActivityLog, error) {
					return tt.activity, nil
				},
				markFollowUpDoneFunc: func(_ context.Context, id string) (*domain.ActivityLog, error) {
					marked = true
					done := *tt.activity
					done.FollowUpDone = true
					return &done, nil
				},
			}
			svc := newTestService(repo, Config{})

			got, err := svc.CompleteFollowUp(context.Background(), "a1")
			assert.Equal(t, 1, repo.atomicCalls)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, marked)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.FollowUpDone)
		})
	}
}

// =============================================================================
// Follow-up board
// =============================================================================

func followUpItem(code, date string) domain.FollowUpItem {
	return domain.FollowUpItem{
		Activity: domain.ActivityLog{ID: "act-" + code, FollowUpDate: ptr.To(date)},
		TreeCode: code,
	}
}

func TestFollowUpBoard_GroupsAgainstClassifierDay(t *testing.T) {
	var captured domain.PendingFollowUpsParams
	repo := &fakeRepository{
		findPendingFollowUpsFunc: func(_ context.Context, params domain.PendingFollowUpsParams) ([]domain.FollowUpItem, error) {
			captured = params
			return []domain.FollowUpItem{
				followUpItem("A", "2024-01-10"),
				followUpItem("B", "2024-01-15"),
				followUpItem("C", "2024-01-20"),
				followUpItem("D", "2024-01-12"),
			}, nil
		},
		findZoneByIDFunc: func(_ context.Context, id string) (*domain.Zone, error) {
			return &domain.Zone{ID: id}, nil
		},
	}
	svc := newTestService(repo, Config{})

	board, err := svc.FollowUpBoard(context.Background(), FollowUpBoardParams{ZoneID: ptr.To("zone-1")})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, bangkok), board.Date)
	assert.Equal(t, "zone-1", *captured.ZoneID)
	assert.Equal(t, DefaultFollowUpLimit, captured.Limit)

	codes := func(items []domain.FollowUpItem) []string {
		var out []string
		for _, i := range items {
			out = append(out, i.TreeCode)
		}
		return out
	}
	assert.Equal(t, []string{"A", "D"}, codes(board.Groups.Overdue))
	assert.Equal(t, []string{"B"}, codes(board.Groups.Today))
	assert.Equal(t, []string{"C"}, codes(board.Groups.Upcoming))
}

func TestFollowUpBoard_UnknownZone(t *testing.T) {
	repo := &fakeRepository{
		findZoneByIDFunc: func(context.Context, string) (*domain.Zone, error) {
			return nil, domain.ErrZoneNotFound
		},
		findPendingFollowUpsFunc: func(context.Context, domain.PendingFollowUpsParams) ([]domain.FollowUpItem, error) {
			t.Fatal("board must not load for an unknown zone")
			return nil, nil
		},
	}
	svc := newTestService(repo, Config{})

	_, err := svc.FollowUpBoard(context.Background(), FollowUpBoardParams{ZoneID: ptr.To("garbage")})
	assert.ErrorIs(t, err, domain.ErrZoneNotFound)
}

func TestFollowUpBoard_ExplicitReferenceTime(t *testing.T) {
	repo := &fakeRepository{
		findPendingFollowUpsFunc: func(context.Context, domain.PendingFollowUpsParams) ([]domain.FollowUpItem, error) {
			return []domain.FollowUpItem{followUpItem("A", "2024-01-20")}, nil
		},
	}
	svc := newTestService(repo, Config{})

	board, err := svc.FollowUpBoard(context.Background(), FollowUpBoardParams{
		At: time.Date(2024, 1, 20, 8, 0, 0, 0, bangkok),
	})
	require.NoError(t, err)
	assert.Len(t, board.Groups.Today, 1)
}

// =============================================================================
// Labels
// =============================================================================

func TestLabelSheet(t *testing.T) {
	planted := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	zoneLookups := 0
	repo := &fakeRepository{
		findTreesByIDsFunc: func(_ context.Context, ids []string) ([]*domain.Tree, error) {
			assert.Equal(t, []string{"t2", "t1"}, ids, "duplicates collapsed, order kept")
			return []*domain.Tree{
				{ID: "t1", Code: "A-001", ZoneID: ptr.To("z1"), Variety: "หมอนทอง", Status: domain.TreeStatusHealthy, PlantedAt: &planted},
				{ID: "t2", Code: "A-002", ZoneID: ptr.To("z1"), Status: domain.TreeStatusSick},
			}, nil
		},
		findZoneByIDFunc: func(_ context.Context, id string) (*domain.Zone, error) {
			zoneLookups++
			return &domain.Zone{ID: id, Name: "แปลงเหนือ"}, nil
		},
	}
	svc := newTestService(repo, Config{PublicBaseURL: "https://suan.example"})

	labels, err := svc.LabelSheet(context.Background(), []string{"t2", "t1", "t2"})
	require.NoError(t, err)
	require.Len(t, labels, 2)

	assert.Equal(t, "A-002", labels[0].Code)
	assert.Equal(t, domain.TreeStatusViewSick, labels[0].Status)
	assert.Equal(t, "เป็นโรค", labels[0].StatusLabel)
	assert.Empty(t, labels[0].PlantedAtTH)

	assert.Equal(t, "https://suan.example/t/A-001", labels[1].QRPayload)
	assert.Equal(t, "แปลงเหนือ", labels[1].ZoneName)
	assert.Equal(t, "2019-06-01", labels[1].PlantedAt)
	assert.Equal(t, "1 มิถุนายน 2562", labels[1].PlantedAtTH)

	assert.Equal(t, 1, zoneLookups, "zone names are cached per sheet")
}

func TestLabelSheet_Limits(t *testing.T) {
	repo := &fakeRepository{
		findTreesByIDsFunc: func(context.Context, []string) ([]*domain.Tree, error) { return nil, nil },
	}
	svc := newTestService(repo, Config{MaxLabelsPerSheet: 2})

	_, err := svc.LabelSheet(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.LabelSheet(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, domain.ErrTooManyLabels)

	_, err = svc.LabelSheet(context.Background(), []string{"missing"})
	assert.ErrorIs(t, err, domain.ErrTreeNotFound)
}

// =============================================================================
// Formulation migration
// =============================================================================

func TestMigrateFormulations(t *testing.T) {
	rewrites := map[string]domain.FormulationCode{}
	repo := &fakeRepository{
		countFormulationCodesFunc: func(context.Context) (map[string]int, error) {
			return map[string]int{"EC": 10, "WDG": 3, "อีซี": 2, "??": 1, "ZZ": 4}, nil
		},
		rewriteFormulationCodeFunc: func(_ context.Context, from string, to domain.FormulationCode) (int64, error) {
			rewrites[from] = to
			return 1, nil
		},
	}
	svc := newTestService(repo, Config{})

	result, err := svc.MigrateFormulations(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 20, result.Scanned)
	assert.Equal(t, 2, result.Migrated, "one rewrite per legacy code in this fake")
	assert.Equal(t, []string{"??", "ZZ"}, result.Unknown)
	assert.Equal(t, map[string]domain.FormulationCode{
		"WDG":  domain.FormulationWG,
		"อีซี": domain.FormulationEC,
	}, rewrites)
}

func TestMigrateFormulations_DryRun(t *testing.T) {
	repo := &fakeRepository{
		countFormulationCodesFunc: func(context.Context) (map[string]int, error) {
			return map[string]int{"WDG": 3, "GRANULE": 2}, nil
		},
	}
	svc := newTestService(repo, Config{})

	result, err := svc.MigrateFormulations(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Migrated)
	assert.Empty(t, result.Unknown)
}
