package domain

// ListTreesParams contains parameters for listing trees with filtering, sorting, and pagination.
//
// Common use cases:
//   - "Sick trees in zone A": Filter{Statuses: [sick], ZoneID: A}
//   - "Oldest plantings first": OrderBy="planted_at", OrderDir="asc"
//   - Paginated browsing: Limit=25, Offset=50 for page 3
type ListTreesParams struct {
	Filter TreesFilter

	// Pagination (both required for correct pagination)
	Limit  int // Maximum number of items to return (page size)
	Offset int // Number of items to skip (for page N: offset = (N-1) * limit)
}

// PagedTreeResult contains trees matching the query parameters.
type PagedTreeResult struct {
	Trees      []*Tree
	TotalCount int  // Total matching trees across all pages
	HasMore    bool // Whether there are more pages
}

// ListZonesParams contains parameters for listing zones.
type ListZonesParams struct {
	NameContains *string // Filter by name substring (case-insensitive)

	Limit  int
	Offset int
}

// PagedZoneResult contains zones matching the query parameters.
type PagedZoneResult struct {
	Zones      []*Zone
	TotalCount int
	HasMore    bool
}

// ListActivitiesParams contains parameters for listing the activity history of a tree.
// Results are always ordered newest first.
type ListActivitiesParams struct {
	TreeID string
	Type   *ActivityType

	Limit  int
	Offset int
}

// PagedActivityResult contains activity logs matching the query parameters.
type PagedActivityResult struct {
	Activities []*ActivityLog
	TotalCount int
	HasMore    bool
}

// PendingFollowUpsParams selects activity logs with an open follow-up.
// Dates are calendar dates (YYYY-MM-DD); nil bounds are open.
type PendingFollowUpsParams struct {
	ZoneID *string
	Before *string // Inclusive upper bound on the follow-up date
	Limit  int
}

// FormulationMigrationResult summarizes a formulation code migration run.
type FormulationMigrationResult struct {
	Scanned  int
	Migrated int
	Unknown  []string // Distinct codes that could not be mapped
}
