package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var treeCodePattern = regexp.MustCompile(`^[A-Z0-9-]{1,32}$`)

// TreeCode is a validated tree identifier as printed in the QR label.
type TreeCode struct {
	value string
}

// NewTreeCode creates a new TreeCode, validating the input.
// Codes are upper-cased so scans of hand-lettered tags match stored codes.
func NewTreeCode(s string) (TreeCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	if s == "" {
		return TreeCode{}, ErrTreeCodeRequired
	}

	if !treeCodePattern.MatchString(s) {
		return TreeCode{}, fmt.Errorf("%w: %s", ErrTreeCodeInvalid, s)
	}

	return TreeCode{value: s}, nil
}

// String returns the code value.
func (c TreeCode) String() string {
	return c.value
}

// ZoneName is a validated zone name value object (1-100 characters).
type ZoneName struct {
	value string
}

// NewZoneName creates a new ZoneName, validating the input.
// Length is counted in runes because zone names are usually Thai.
func NewZoneName(s string) (ZoneName, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return ZoneName{}, ErrZoneNameRequired
	}

	if utf8.RuneCountInString(s) > 100 {
		return ZoneName{}, ErrZoneNameTooLong
	}

	return ZoneName{value: s}, nil
}

// String returns the zone name value.
func (n ZoneName) String() string {
	return n.value
}

// Sorting defaults for tree listings.
const (
	DefaultTreeOrderBy  = "code"
	DefaultTreeOrderDir = "asc"
)

var treeOrderFields = map[string]struct{}{
	"code":       {},
	"planted_at": {},
	"created_at": {},
	"updated_at": {},
}

// TreesFilterInput is the raw, unvalidated filter coming from a request.
// Statuses are presentation values (lower case).
type TreesFilterInput struct {
	Statuses   []string
	ZoneID     *string
	Variety    *string
	CodePrefix *string
	OrderBy    string
	OrderDir   string
}

// TreesFilter is a validated tree filter.
type TreesFilter struct {
	statuses   []TreeStatus
	zoneID     *string
	variety    *string
	codePrefix *string
	orderBy    string
	orderDir   string
}

// NewTreesFilter validates the raw filter input.
// Status values go through ToPersisted, so unknown or upper-case values fail with ErrInvalidTreeStatus.
func NewTreesFilter(in TreesFilterInput) (TreesFilter, error) {
	if len(in.Statuses) > len(statusPairs) {
		return TreesFilter{}, fmt.Errorf("%w: at most %d statuses", ErrValidation, len(statusPairs))
	}

	statuses := make([]TreeStatus, 0, len(in.Statuses))
	for _, s := range in.Statuses {
		persisted, err := ToPersisted(s)
		if err != nil {
			return TreesFilter{}, err
		}
		statuses = append(statuses, persisted)
	}

	orderBy := in.OrderBy
	if orderBy == "" {
		orderBy = DefaultTreeOrderBy
	}
	if _, ok := treeOrderFields[orderBy]; !ok {
		return TreesFilter{}, fmt.Errorf("%w: unsupported order_by %q", ErrValidation, orderBy)
	}

	orderDir := strings.ToLower(in.OrderDir)
	switch orderDir {
	case "":
		orderDir = DefaultTreeOrderDir
	case "asc", "desc":
	default:
		return TreesFilter{}, fmt.Errorf("%w: unsupported order_dir %q", ErrValidation, in.OrderDir)
	}

	var variety *string
	if in.Variety != nil {
		if v := strings.TrimSpace(*in.Variety); v != "" {
			variety = &v
		}
	}

	var codePrefix *string
	if in.CodePrefix != nil {
		if p := strings.ToUpper(strings.TrimSpace(*in.CodePrefix)); p != "" {
			if !treeCodePattern.MatchString(p) {
				return TreesFilter{}, fmt.Errorf("%w: %s", ErrTreeCodeInvalid, p)
			}
			codePrefix = &p
		}
	}

	return TreesFilter{
		statuses:   statuses,
		zoneID:     in.ZoneID,
		variety:    variety,
		codePrefix: codePrefix,
		orderBy:    orderBy,
		orderDir:   orderDir,
	}, nil
}

// Statuses returns the requested statuses in persisted form.
// When no status filter was given it returns the active statuses, so archived trees stay hidden.
func (f TreesFilter) Statuses() []TreeStatus {
	if len(f.statuses) == 0 {
		return ActiveTreeStatuses()
	}
	return f.statuses
}

// HasStatusFilter reports whether the caller asked for specific statuses.
func (f TreesFilter) HasStatusFilter() bool {
	return len(f.statuses) > 0
}

func (f TreesFilter) ZoneID() *string     { return f.zoneID }
func (f TreesFilter) Variety() *string    { return f.variety }
func (f TreesFilter) CodePrefix() *string { return f.codePrefix }
func (f TreesFilter) OrderBy() string     { return f.orderBy }
func (f TreesFilter) OrderDir() string    { return f.orderDir }
