package domain

import (
	"fmt"
	"time"
)

// Zone is an aggregate root representing a block of the orchard.
//
// Trees are NOT included in this aggregate. They are always fetched separately
// via FindTrees (with pagination) to prevent unbounded data loading.
type Zone struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// TreeCount is populated from database aggregation and excludes archived trees.
	TreeCount int

	// Optimistic locking version for concurrent update protection
	Version int
}

// Etag returns the entity tag for this zone.
// The etag is based on the version number and is used for optimistic concurrency control.
func (z *Zone) Etag() string {
	return fmt.Sprintf("%d", z.Version)
}

// Tree is an aggregate root representing a single tracked tree.
// Code is the identifier printed in the tree's QR label.
type Tree struct {
	ID      string
	Code    string
	ZoneID  *string // Optional; unassigned trees have no zone
	Variety string
	Status  TreeStatus

	PlantedAt *time.Time // Optional, date precision
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Optimistic locking version for concurrent update protection
	Version int
}

// Etag returns the entity tag for this tree.
// Returns the version as a string: "1", "2", "42", etc.
func (t *Tree) Etag() string {
	return fmt.Sprintf("%d", t.Version)
}

// ActivityLog is an entity recording work done on a tree.
//
// FollowUpDate stays as the calendar date string (YYYY-MM-DD) the farmer picked.
// It is a local date in the orchard, not an instant, so it is never converted to UTC.
type ActivityLog struct {
	ID          string
	TreeID      string
	Type        ActivityType
	PerformedAt time.Time

	// Product details (only meaningful for chemical activities)
	Product     string
	Formulation FormulationCode
	Dosage      string

	Note string

	FollowUpDate *string
	FollowUpDone bool

	CreatedAt time.Time
}

// FollowUp returns the pending follow-up date of the log.
// Completed follow-ups report no date so they drop out of follow-up grouping.
func (a *ActivityLog) FollowUp() string {
	if a.FollowUpDate == nil || a.FollowUpDone {
		return ""
	}
	return *a.FollowUpDate
}

// FollowUpItem is an activity log joined with the tree it belongs to.
// It is the row type of the follow-up board.
type FollowUpItem struct {
	Activity ActivityLog
	TreeCode string
	ZoneName string
}

// FollowUp implements followup.Dated.
func (f FollowUpItem) FollowUp() string {
	return f.Activity.FollowUp()
}

// TreeLabel is the printable data for a tree's QR label.
// QR and PDF rendering happen on the client; this carries the content only.
type TreeLabel struct {
	TreeID      string
	Code        string
	QRPayload   string
	Variety     string
	ZoneName    string
	Status      TreeStatusView
	StatusLabel string
	PlantedAt   string // ISO date, empty when unknown
	PlantedAtTH string // Buddhist-era formatted date, empty when unknown
}

// APIKey is an aggregate root representing an API key for authentication.
//
// API keys use a split-token pattern:
//   - ShortToken: indexed portion for lookup
//   - LongSecretHash: cryptographic hash for verification
//   - FullKey: only shown once at creation (short + long)
type APIKey struct {
	ID             string
	KeyType        string // "sk" = secret key
	Service        string // Service name (e.g., "orchard")
	Version        string // API version (e.g., "v1")
	ShortToken     string // Indexed portion for fast lookup
	LongSecretHash string // BLAKE2b-256 hash of long secret
	Name           string // Human-readable name (staff member or device)
	IsActive       bool
	CreatedAt      time.Time
	LastUsedAt     *time.Time
	ExpiresAt      *time.Time
}
