package domain

import (
	"fmt"
	"time"
)

// UpdateTreeParams contains parameters for a partial tree update.
// Only fields named in UpdateMask are applied; the Etag, when set, must match the stored version.
type UpdateTreeParams struct {
	TreeID     string
	Etag       *string
	UpdateMask []string

	Code      *TreeCode
	ZoneID    *string // Empty string clears the zone
	Variety   *string
	Status    *TreeStatus
	PlantedAt *time.Time
	Notes     *string
}

// UpdateZoneParams contains parameters for a partial zone update.
type UpdateZoneParams struct {
	ZoneID     string
	Etag       *string
	UpdateMask []string

	Name        *ZoneName
	Description *string
}

// Valid fields for UpdateTreeParams.
var updateTreeValidFields = map[string]struct{}{
	"code":       {},
	"zone_id":    {},
	"variety":    {},
	"status":     {},
	"planted_at": {},
	"notes":      {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateTreeParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))

	// Check for unknown fields
	for _, field := range p.UpdateMask {
		if _, ok := updateTreeValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	// Required field checks (cannot be nil when in mask)
	if maskSet["code"] && p.Code == nil {
		return ErrTreeCodeRequired
	}
	if maskSet["status"] && p.Status == nil {
		return ErrStatusRequired
	}
	if p.Status != nil && !IsValidTreeStatus(string(*p.Status)) {
		return fmt.Errorf("%w: %s", ErrInvalidTreeStatus, *p.Status)
	}

	return nil
}

// Has reports whether field is named in the update mask.
func (p UpdateTreeParams) Has(field string) bool {
	for _, f := range p.UpdateMask {
		if f == field {
			return true
		}
	}
	return false
}

// Valid fields for UpdateZoneParams.
var updateZoneValidFields = map[string]struct{}{
	"name":        {},
	"description": {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateZoneParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))

	for _, field := range p.UpdateMask {
		if _, ok := updateZoneValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	if maskSet["name"] && p.Name == nil {
		return ErrZoneNameRequired
	}

	return nil
}

// Has reports whether field is named in the update mask.
func (p UpdateZoneParams) Has(field string) bool {
	for _, f := range p.UpdateMask {
		if f == field {
			return true
		}
	}
	return false
}
