package orchard

import (
	"context"

	"github.com/suanview/orchard/internal/domain"
)

// Repository defines storage operations for orchard management.
// All create/update operations return the entity as persisted, including version.
// Statuses crossing this interface are always in the persisted vocabulary.
type Repository interface {
	// === Zone Operations ===

	// CreateZone creates a new zone.
	// Returns domain.ErrZoneNameTaken if the name is already used.
	CreateZone(ctx context.Context, zone *domain.Zone) (*domain.Zone, error)

	// FindZoneByID retrieves a zone with its active tree count.
	// Returns domain.ErrZoneNotFound if zone doesn't exist.
	FindZoneByID(ctx context.Context, id string) (*domain.Zone, error)

	// ListZones retrieves zones ordered by name.
	ListZones(ctx context.Context, params domain.ListZonesParams) (*domain.PagedZoneResult, error)

	// UpdateZone updates a zone using field mask.
	// Returns domain.ErrZoneNotFound if zone doesn't exist.
	// Returns domain.ErrVersionConflict if etag is provided and doesn't match current version.
	UpdateZone(ctx context.Context, params domain.UpdateZoneParams) (*domain.Zone, error)

	// DeleteZone deletes a zone.
	// Returns domain.ErrZoneNotEmpty if any tree still references it.
	DeleteZone(ctx context.Context, id string) error

	// === Tree Operations ===

	// CreateTree creates a new tree.
	// Returns domain.ErrTreeCodeTaken if the code is already used.
	// Returns domain.ErrZoneNotFound if the zone doesn't exist.
	CreateTree(ctx context.Context, tree *domain.Tree) (*domain.Tree, error)

	// FindTreeByID retrieves a tree by ID.
	// Returns domain.ErrTreeNotFound if tree doesn't exist.
	FindTreeByID(ctx context.Context, id string) (*domain.Tree, error)

	// FindTreeByCode retrieves a tree by its QR code.
	// Returns domain.ErrTreeNotFound if no tree carries the code.
	FindTreeByCode(ctx context.Context, code string) (*domain.Tree, error)

	// FindTreesByIDs retrieves the trees with the given IDs in no particular order.
	// Missing IDs are silently absent from the result.
	FindTreesByIDs(ctx context.Context, ids []string) ([]*domain.Tree, error)

	// ListTrees searches for trees with filtering, sorting, and pagination.
	ListTrees(ctx context.Context, params domain.ListTreesParams) (*domain.PagedTreeResult, error)

	// UpdateTree updates a tree using field mask and optional etag.
	// Returns domain.ErrTreeNotFound if tree doesn't exist.
	// Returns domain.ErrVersionConflict if etag is provided and doesn't match current version.
	UpdateTree(ctx context.Context, params domain.UpdateTreeParams) (*domain.Tree, error)

	// === Activity Operations ===

	// CreateActivity records a new activity log.
	// Returns domain.ErrTreeNotFound if the tree doesn't exist.
	CreateActivity(ctx context.Context, activity *domain.ActivityLog) (*domain.ActivityLog, error)

	// FindActivityByID retrieves an activity log.
	// Returns domain.ErrActivityNotFound if it doesn't exist.
	FindActivityByID(ctx context.Context, id string) (*domain.ActivityLog, error)

	// ListActivities retrieves the activity history of a tree, newest first.
	ListActivities(ctx context.Context, params domain.ListActivitiesParams) (*domain.PagedActivityResult, error)

	// MarkFollowUpDone flags the follow-up of an activity log as completed.
	// Returns domain.ErrActivityNotFound if it doesn't exist.
	MarkFollowUpDone(ctx context.Context, id string) (*domain.ActivityLog, error)

	// FindPendingFollowUps returns open follow-ups of non-archived trees, ordered by date.
	FindPendingFollowUps(ctx context.Context, params domain.PendingFollowUpsParams) ([]domain.FollowUpItem, error)

	// === Formulation Migration ===

	// CountFormulationCodes returns how many activity logs carry each distinct stored code.
	CountFormulationCodes(ctx context.Context) (map[string]int, error)

	// RewriteFormulationCode replaces every stored occurrence of from with to.
	// Returns the number of rows changed.
	RewriteFormulationCode(ctx context.Context, from string, to domain.FormulationCode) (int64, error)

	// Atomic runs fn inside a single transaction.
	// The Repository passed to fn is bound to that transaction.
	Atomic(ctx context.Context, fn func(repo Repository) error) error
}
