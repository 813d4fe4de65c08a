package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suanview/orchard/internal/ptr"
)

func TestNewTreeCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  error
	}{
		{name: "simple", input: "A-001", expected: "A-001"},
		{name: "lower case is upper-cased", input: "b12-x", expected: "B12-X"},
		{name: "surrounding whitespace trimmed", input: "  C7  ", expected: "C7"},
		{name: "max length", input: strings.Repeat("9", 32), expected: strings.Repeat("9", 32)},
		{name: "empty", input: "", wantErr: ErrTreeCodeRequired},
		{name: "whitespace only", input: "   ", wantErr: ErrTreeCodeRequired},
		{name: "too long", input: strings.Repeat("A", 33), wantErr: ErrTreeCodeInvalid},
		{name: "inner space", input: "A 1", wantErr: ErrTreeCodeInvalid},
		{name: "thai characters", input: "ต้น1", wantErr: ErrTreeCodeInvalid},
		{name: "slash", input: "A/1", wantErr: ErrTreeCodeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := NewTreeCode(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, code.String())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, code.String())
		})
	}
}

func TestNewZoneName(t *testing.T) {
	name, err := NewZoneName("  แปลงทุเรียน A  ")
	require.NoError(t, err)
	assert.Equal(t, "แปลงทุเรียน A", name.String())

	_, err = NewZoneName("")
	assert.ErrorIs(t, err, ErrZoneNameRequired)

	// 100 Thai runes is well over 100 bytes but still valid.
	_, err = NewZoneName(strings.Repeat("ก", 100))
	assert.NoError(t, err)

	_, err = NewZoneName(strings.Repeat("ก", 101))
	assert.ErrorIs(t, err, ErrZoneNameTooLong)
}

func TestNewTreesFilter_EmptyInput(t *testing.T) {
	filter, err := NewTreesFilter(TreesFilterInput{})

	require.NoError(t, err)
	assert.False(t, filter.HasStatusFilter())
	assert.Equal(t, ActiveTreeStatuses(), filter.Statuses(), "archived trees are hidden by default")
	assert.Equal(t, DefaultTreeOrderBy, filter.OrderBy())
	assert.Equal(t, DefaultTreeOrderDir, filter.OrderDir())
	assert.Nil(t, filter.ZoneID())
	assert.Nil(t, filter.Variety())
}

func TestNewTreesFilter_ConvertsStatusesToPersisted(t *testing.T) {
	filter, err := NewTreesFilter(TreesFilterInput{
		Statuses: []string{"sick", "archived"},
	})

	require.NoError(t, err)
	assert.True(t, filter.HasStatusFilter())
	assert.Equal(t, []TreeStatus{TreeStatusSick, TreeStatusArchived}, filter.Statuses())
}

func TestNewTreesFilter_InvalidStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
	}{
		{name: "unknown value", statuses: []string{"dormant"}},
		{name: "persisted form is rejected", statuses: []string{"SICK"}},
		{name: "mixed valid and invalid", statuses: []string{"healthy", "bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTreesFilter(TreesFilterInput{Statuses: tt.statuses})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTreeStatus))
		})
	}
}

func TestNewTreesFilter_TooManyStatuses(t *testing.T) {
	_, err := NewTreesFilter(TreesFilterInput{
		Statuses: []string{"healthy", "sick", "dead", "archived", "healthy"},
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewTreesFilter_Ordering(t *testing.T) {
	filter, err := NewTreesFilter(TreesFilterInput{OrderBy: "planted_at", OrderDir: "DESC"})
	require.NoError(t, err)
	assert.Equal(t, "planted_at", filter.OrderBy())
	assert.Equal(t, "desc", filter.OrderDir())

	_, err = NewTreesFilter(TreesFilterInput{OrderBy: "status; DROP TABLE trees"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTreesFilter(TreesFilterInput{OrderDir: "sideways"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewTreesFilter_BlankVarietyIgnored(t *testing.T) {
	filter, err := NewTreesFilter(TreesFilterInput{Variety: ptr.To("   ")})
	require.NoError(t, err)
	assert.Nil(t, filter.Variety())

	filter, err = NewTreesFilter(TreesFilterInput{Variety: ptr.To(" หมอนทอง ")})
	require.NoError(t, err)
	require.NotNil(t, filter.Variety())
	assert.Equal(t, "หมอนทอง", *filter.Variety())
}

func TestNewTreesFilter_CodePrefix(t *testing.T) {
	filter, err := NewTreesFilter(TreesFilterInput{CodePrefix: ptr.To(" a-0 ")})
	require.NoError(t, err)
	require.NotNil(t, filter.CodePrefix())
	assert.Equal(t, "A-0", *filter.CodePrefix())

	_, err = NewTreesFilter(TreesFilterInput{CodePrefix: ptr.To("A%")})
	assert.ErrorIs(t, err, ErrTreeCodeInvalid)
}
