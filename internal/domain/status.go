package domain

import (
	"fmt"
	"strings"
)

// TreeStatus is the health status of a tree as stored in the database.
// Value object - immutable string enum, upper case.
type TreeStatus string

const (
	TreeStatusHealthy  TreeStatus = "HEALTHY"
	TreeStatusSick     TreeStatus = "SICK"
	TreeStatusDead     TreeStatus = "DEAD"
	TreeStatusArchived TreeStatus = "ARCHIVED"
)

// TreeStatusView is the health status of a tree as consumed by API clients.
// Value object - immutable string enum, lower case.
type TreeStatusView string

const (
	TreeStatusViewHealthy  TreeStatusView = "healthy"
	TreeStatusViewSick     TreeStatusView = "sick"
	TreeStatusViewDead     TreeStatusView = "dead"
	TreeStatusViewArchived TreeStatusView = "archived"
)

// statusPairs is the canonical order of both vocabularies.
// Index i of one column always corresponds to index i of the other.
var statusPairs = [...]struct {
	persisted TreeStatus
	view      TreeStatusView
	label     string
}{
	{TreeStatusHealthy, TreeStatusViewHealthy, "สมบูรณ์"},
	{TreeStatusSick, TreeStatusViewSick, "เป็นโรค"},
	{TreeStatusDead, TreeStatusViewDead, "ตาย"},
	{TreeStatusArchived, TreeStatusViewArchived, "เก็บถาวร"},
}

// IsValidTreeStatus reports whether s is a member of the persisted vocabulary.
// The check is case-exact.
func IsValidTreeStatus(s string) bool {
	for _, p := range statusPairs {
		if string(p.persisted) == s {
			return true
		}
	}
	return false
}

// IsValidTreeStatusView reports whether s is a member of the presentation vocabulary.
// The check is case-exact.
func IsValidTreeStatusView(s string) bool {
	for _, p := range statusPairs {
		if string(p.view) == s {
			return true
		}
	}
	return false
}

// ToPresentation converts a persisted status into its presentation form.
// Returns ErrInvalidTreeStatus for anything outside the persisted set, including
// values that only differ in case.
func ToPresentation(s string) (TreeStatusView, error) {
	for _, p := range statusPairs {
		if string(p.persisted) == s {
			return p.view, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a stored status", ErrInvalidTreeStatus, s)
}

// ToPersisted converts a presentation status into its persisted form.
// Returns ErrInvalidTreeStatus for anything outside the presentation set.
func ToPersisted(s string) (TreeStatus, error) {
	for _, p := range statusPairs {
		if string(p.view) == s {
			return p.persisted, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a presentation status", ErrInvalidTreeStatus, s)
}

// View returns the presentation form of a persisted status.
func (s TreeStatus) View() (TreeStatusView, error) {
	return ToPresentation(string(s))
}

// Persisted returns the persisted form of a presentation status.
func (v TreeStatusView) Persisted() (TreeStatus, error) {
	return ToPersisted(string(v))
}

// DisplayLabel returns the Thai label for a status given in either vocabulary.
// This is the only status boundary that tolerates case and surrounding whitespace.
func DisplayLabel(s string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, p := range statusPairs {
		if string(p.view) == normalized {
			return p.label, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTreeStatus, s)
}

// StatusOption is a selectable status with its display label.
type StatusOption struct {
	Value TreeStatusView
	Label string
}

// AllDisplayOptions returns every status in canonical order:
// healthy, sick, dead, archived.
func AllDisplayOptions() []StatusOption {
	opts := make([]StatusOption, 0, len(statusPairs))
	for _, p := range statusPairs {
		opts = append(opts, StatusOption{Value: p.view, Label: p.label})
	}
	return opts
}

// ActiveTreeStatuses returns the statuses listed when no explicit status filter is given.
func ActiveTreeStatuses() []TreeStatus {
	return []TreeStatus{TreeStatusHealthy, TreeStatusSick, TreeStatusDead}
}

// IsLabelable reports whether a tree with this status should get field labels.
func (s TreeStatus) IsLabelable() bool {
	return s == TreeStatusHealthy || s == TreeStatusSick
}
