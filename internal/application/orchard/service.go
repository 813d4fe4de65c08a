package orchard

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/followup"
	"github.com/suanview/orchard/internal/thaidate"
)

// Default configuration values.
const (
	DefaultPageSize          = 25
	MaxPageSize              = 100
	DefaultMaxLabelsPerSheet = 200
	DefaultFollowUpLimit     = 500
	DefaultPublicBaseURL     = "http://localhost:8080"
)

// Config holds configuration for the Service.
type Config struct {
	DefaultPageSize   int
	MaxPageSize       int
	MaxLabelsPerSheet int
	FollowUpLimit     int

	// PublicBaseURL prefixes the QR payload printed on tree labels.
	PublicBaseURL string
}

// Service provides business logic for orchard management.
// It orchestrates operations using the Repository interface.
type Service struct {
	repo       Repository
	classifier *followup.Classifier
	config     Config
}

// NewService creates a new orchard service.
// Applies application defaults for zero or invalid config values.
// A nil classifier uses the local time zone and wall clock.
func NewService(repo Repository, classifier *followup.Classifier, config Config) *Service {
	// Apply defaults for zero or invalid values (must be > 0)
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}
	if config.MaxLabelsPerSheet <= 0 {
		config.MaxLabelsPerSheet = DefaultMaxLabelsPerSheet
	}
	if config.FollowUpLimit <= 0 {
		config.FollowUpLimit = DefaultFollowUpLimit
	}
	if config.PublicBaseURL == "" {
		config.PublicBaseURL = DefaultPublicBaseURL
	}
	config.PublicBaseURL = strings.TrimRight(config.PublicBaseURL, "/")

	if classifier == nil {
		classifier = followup.New()
	}

	return &Service{
		repo:       repo,
		classifier: classifier,
		config:     config,
	}
}

// Classifier returns the follow-up classifier the service evaluates dates with.
func (s *Service) Classifier() *followup.Classifier {
	return s.classifier
}

func (s *Service) now() time.Time {
	return s.classifier.Now().UTC()
}

func newID() (string, error) {
	idObj, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return idObj.String(), nil
}

func (s *Service) pageLimit(limit int) int {
	// Apply default page size if not specified or invalid
	if limit <= 0 {
		limit = s.config.DefaultPageSize
	}
	// Enforce maximum page size
	return min(limit, s.config.MaxPageSize)
}

// =============================================================================
// Zones
// =============================================================================

// CreateZone creates a new zone.
func (s *Service) CreateZone(ctx context.Context, in CreateZoneInput) (*domain.Zone, error) {
	name, err := domain.NewZoneName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := wrapValidation(in.Validate()); err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	zone := &domain.Zone{
		ID:          id,
		Name:        name.String(),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Return the persisted entity from repository (includes version from persistence layer)
	created, err := s.repo.CreateZone(ctx, zone)
	if err != nil {
		return nil, fmt.Errorf("failed to create zone: %w", err)
	}
	return created, nil
}

// GetZone retrieves a zone by ID.
func (s *Service) GetZone(ctx context.Context, id string) (*domain.Zone, error) {
	if id == "" {
		return nil, domain.ErrZoneNotFound
	}
	return s.repo.FindZoneByID(ctx, id)
}

// ListZones retrieves zones with pagination.
func (s *Service) ListZones(ctx context.Context, params domain.ListZonesParams) (*domain.PagedZoneResult, error) {
	if params.Offset < 0 {
		params.Offset = 0
	}
	params.Limit = s.pageLimit(params.Limit)

	result, err := s.repo.ListZones(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return result, nil
}

// UpdateZone updates a zone using field mask.
func (s *Service) UpdateZone(ctx context.Context, params domain.UpdateZoneParams) (*domain.Zone, error) {
	if params.ZoneID == "" {
		return nil, domain.ErrZoneNotFound
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Description != nil {
		d := strings.TrimSpace(*params.Description)
		params.Description = &d
	}

	return s.repo.UpdateZone(ctx, params)
}

// DeleteZone deletes an empty zone.
func (s *Service) DeleteZone(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrZoneNotFound
	}
	return s.repo.DeleteZone(ctx, id)
}

// =============================================================================
// Trees
// =============================================================================

// CreateTree registers a new tree. The status defaults to HEALTHY.
func (s *Service) CreateTree(ctx context.Context, in CreateTreeInput) (*domain.Tree, error) {
	code, err := domain.NewTreeCode(in.Code)
	if err != nil {
		return nil, err
	}
	if err := wrapValidation(in.Validate()); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.TreeStatusHealthy
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	tree := &domain.Tree{
		ID:        id,
		Code:      code.String(),
		ZoneID:    nonEmpty(in.ZoneID),
		Variety:   strings.TrimSpace(in.Variety),
		Status:    status,
		PlantedAt: in.PlantedAt,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.CreateTree(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("failed to create tree: %w", err)
	}
	return created, nil
}

// GetTree retrieves a tree by ID.
func (s *Service) GetTree(ctx context.Context, id string) (*domain.Tree, error) {
	if id == "" {
		return nil, domain.ErrTreeNotFound
	}
	return s.repo.FindTreeByID(ctx, id)
}

// GetTreeByCode resolves a scanned QR code to its tree.
// The code is normalized the same way it was when the tree was registered.
func (s *Service) GetTreeByCode(ctx context.Context, raw string) (*domain.Tree, error) {
	code, err := domain.NewTreeCode(raw)
	if err != nil {
		// A malformed code can never match a stored tree.
		return nil, fmt.Errorf("%w: %w", domain.ErrTreeNotFound, err)
	}
	return s.repo.FindTreeByCode(ctx, code.String())
}

// ListTrees retrieves trees with filtering, sorting, and pagination.
func (s *Service) ListTrees(ctx context.Context, params domain.ListTreesParams) (*domain.PagedTreeResult, error) {
	if params.Offset < 0 {
		params.Offset = 0
	}
	params.Limit = s.pageLimit(params.Limit)

	result, err := s.repo.ListTrees(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list trees: %w", err)
	}
	return result, nil
}

// UpdateTree updates a tree using field mask.
// Only updates fields specified in UpdateMask.
func (s *Service) UpdateTree(ctx context.Context, params domain.UpdateTreeParams) (*domain.Tree, error) {
	if params.TreeID == "" {
		return nil, domain.ErrTreeNotFound
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if params.Variety != nil {
		v := strings.TrimSpace(*params.Variety)
		params.Variety = &v
	}
	if params.Notes != nil {
		n := strings.TrimSpace(*params.Notes)
		params.Notes = &n
	}

	return s.repo.UpdateTree(ctx, params)
}

// ChangeStatus sets a tree's health status.
func (s *Service) ChangeStatus(ctx context.Context, treeID string, status domain.TreeStatus, etag *string) (*domain.Tree, error) {
	return s.UpdateTree(ctx, domain.UpdateTreeParams{
		TreeID:     treeID,
		Etag:       etag,
		UpdateMask: []string{"status"},
		Status:     &status,
	})
}

// ArchiveTree moves a tree to the ARCHIVED status.
// Archived trees keep their history but drop out of default listings and follow-ups.
func (s *Service) ArchiveTree(ctx context.Context, treeID string, etag *string) (*domain.Tree, error) {
	return s.ChangeStatus(ctx, treeID, domain.TreeStatusArchived, etag)
}

// =============================================================================
// Activities
// =============================================================================

// RecordActivity records work done on a tree.
// Legacy formulation codes are migrated to the current catalogue before storing.
func (s *Service) RecordActivity(ctx context.Context, in RecordActivityInput) (*domain.ActivityLog, error) {
	if err := wrapValidation(in.Validate()); err != nil {
		return nil, err
	}

	activityType, err := domain.NewActivityType(in.Type)
	if err != nil {
		return nil, err
	}

	formulation, err := domain.MigrateFormulationCode(in.Formulation)
	if err != nil {
		return nil, err
	}

	var followUp *string
	if strings.TrimSpace(in.FollowUpDate) != "" {
		date, err := thaidate.Normalize(in.FollowUpDate, s.classifier.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFollowUpDate, in.FollowUpDate)
		}
		followUp = &date
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	performedAt := now
	if in.PerformedAt != nil {
		performedAt = in.PerformedAt.UTC()
	}

	activity := &domain.ActivityLog{
		ID:           id,
		TreeID:       in.TreeID,
		Type:         activityType,
		PerformedAt:  performedAt,
		Product:      strings.TrimSpace(in.Product),
		Formulation:  formulation,
		Dosage:       strings.TrimSpace(in.Dosage),
		Note:         strings.TrimSpace(in.Note),
		FollowUpDate: followUp,
		CreatedAt:    now,
	}

	created, err := s.repo.CreateActivity(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return created, nil
}

// ListActivities retrieves the activity history of a tree, newest first.
func (s *Service) ListActivities(ctx context.Context, params domain.ListActivitiesParams) (*domain.PagedActivityResult, error) {
	if params.TreeID == "" {
		return nil, domain.ErrTreeNotFound
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	params.Limit = s.pageLimit(params.Limit)

	// Surface a missing tree as not-found instead of an empty history.
	if _, err := s.repo.FindTreeByID(ctx, params.TreeID); err != nil {
		return nil, err
	}

	result, err := s.repo.ListActivities(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return result, nil
}

// CompleteFollowUp marks the follow-up of an activity log as done.
func (s *Service) CompleteFollowUp(ctx context.Context, activityID string) (*domain.ActivityLog, error) {
	if activityID == "" {
		return nil, domain.ErrActivityNotFound
	}

	var completed *domain.ActivityLog
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		activity, err := repo.FindActivityByID(ctx, activityID)
		if err != nil {
			return err
		}
		if activity.FollowUpDate == nil {
			return domain.ErrNoFollowUp
		}
		if activity.FollowUpDone {
			return domain.ErrFollowUpCompleted
		}

		completed, err = repo.MarkFollowUpDone(ctx, activityID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// =============================================================================
// Follow-up board
// =============================================================================

// FollowUpBoardParams selects the follow-ups shown on the board.
type FollowUpBoardParams struct {
	ZoneID *string

	// At overrides the reference time; zero means the classifier's clock.
	At time.Time
}

// FollowUpBoard is the grouped view of pending follow-ups for one reference day.
type FollowUpBoard struct {
	Date   time.Time // Midnight of the reference day in the classifier's location
	Groups followup.Groups[domain.FollowUpItem]
}

// FollowUpBoard loads pending follow-ups and groups them into overdue, today and upcoming.
func (s *Service) FollowUpBoard(ctx context.Context, params FollowUpBoardParams) (*FollowUpBoard, error) {
	at := params.At
	if at.IsZero() {
		at = s.classifier.Now()
	}
	refDay := thaidate.StartOfDay(at, s.classifier.Location())

	zoneID := nonEmpty(params.ZoneID)
	if zoneID != nil {
		if _, err := s.repo.FindZoneByID(ctx, *zoneID); err != nil {
			return nil, err
		}
	}

	items, err := s.repo.FindPendingFollowUps(ctx, domain.PendingFollowUpsParams{
		ZoneID: zoneID,
		Limit:  s.config.FollowUpLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load follow-ups: %w", err)
	}

	return &FollowUpBoard{
		Date:   refDay,
		Groups: followup.GroupByFollowUp(items, refDay),
	}, nil
}

// =============================================================================
// Labels
// =============================================================================

// LabelSheet builds the printable label data for the given trees, in request order.
// Duplicate IDs are collapsed. Every ID must resolve to a tree.
func (s *Service) LabelSheet(ctx context.Context, treeIDs []string) ([]domain.TreeLabel, error) {
	ids := dedupe(treeIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one tree is required", domain.ErrValidation)
	}
	if len(ids) > s.config.MaxLabelsPerSheet {
		return nil, fmt.Errorf("%w: %d requested, limit is %d", domain.ErrTooManyLabels, len(ids), s.config.MaxLabelsPerSheet)
	}

	trees, err := s.repo.FindTreesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load trees: %w", err)
	}

	byID := make(map[string]*domain.Tree, len(trees))
	for _, t := range trees {
		byID[t.ID] = t
	}

	zoneNames := make(map[string]string)
	labels := make([]domain.TreeLabel, 0, len(ids))
	for _, id := range ids {
		tree, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrTreeNotFound, id)
		}

		zoneName := ""
		if tree.ZoneID != nil {
			name, cached := zoneNames[*tree.ZoneID]
			if !cached {
				zone, err := s.repo.FindZoneByID(ctx, *tree.ZoneID)
				if err != nil {
					return nil, err
				}
				name = zone.Name
				zoneNames[*tree.ZoneID] = name
			}
			zoneName = name
		}

		label, err := s.buildLabel(tree, zoneName)
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}

	return labels, nil
}

func (s *Service) buildLabel(tree *domain.Tree, zoneName string) (domain.TreeLabel, error) {
	view, err := tree.Status.View()
	if err != nil {
		return domain.TreeLabel{}, err
	}
	statusLabel, err := domain.DisplayLabel(string(view))
	if err != nil {
		return domain.TreeLabel{}, err
	}

	label := domain.TreeLabel{
		TreeID:      tree.ID,
		Code:        tree.Code,
		QRPayload:   s.QRPayload(tree.Code),
		Variety:     tree.Variety,
		ZoneName:    zoneName,
		Status:      view,
		StatusLabel: statusLabel,
	}
	if tree.PlantedAt != nil {
		label.PlantedAt = tree.PlantedAt.Format(thaidate.ISODate)
		label.PlantedAtTH = thaidate.FormatFull(*tree.PlantedAt)
	}
	return label, nil
}

// QRPayload returns the URL encoded into a tree's QR label.
func (s *Service) QRPayload(code string) string {
	return s.config.PublicBaseURL + "/t/" + url.PathEscape(code)
}

// =============================================================================
// Formulation migration
// =============================================================================

// MigrateFormulations rewrites stored legacy formulation codes to the current catalogue.
// Codes with no current equivalent are left untouched and reported.
// With dryRun set nothing is written.
func (s *Service) MigrateFormulations(ctx context.Context, dryRun bool) (*domain.FormulationMigrationResult, error) {
	result := &domain.FormulationMigrationResult{}

	err := s.repo.Atomic(ctx, func(repo Repository) error {
		counts, err := repo.CountFormulationCodes(ctx)
		if err != nil {
			return err
		}

		for stored, count := range counts {
			result.Scanned += count

			target, err := domain.MigrateFormulationCode(stored)
			if err != nil {
				result.Unknown = append(result.Unknown, stored)
				continue
			}
			if string(target) == stored {
				continue
			}

			if dryRun {
				result.Migrated += count
				continue
			}
			n, err := repo.RewriteFormulationCode(ctx, stored, target)
			if err != nil {
				return fmt.Errorf("failed to rewrite %q: %w", stored, err)
			}
			result.Migrated += int(n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(result.Unknown)
	return result, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
