package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActivityType(t *testing.T) {
	tests := []struct {
		input    string
		expected ActivityType
	}{
		{"FERTILIZING", ActivityFertilizing},
		{"spraying", ActivitySpraying},
		{" Pruning ", ActivityPruning},
		{"inspection", ActivityInspection},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NewActivityType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := NewActivityType("mowing")
	assert.ErrorIs(t, err, ErrInvalidActivityType)

	_, err = NewActivityType("")
	assert.ErrorIs(t, err, ErrInvalidActivityType)
}

func TestActivityType_Label(t *testing.T) {
	assert.Equal(t, "ใส่ปุ๋ย", ActivityFertilizing.Label())
	assert.Equal(t, "UNKNOWN", ActivityType("UNKNOWN").Label())
}

func TestActivityType_UsesChemicals(t *testing.T) {
	assert.True(t, ActivityFertilizing.UsesChemicals())
	assert.True(t, ActivitySpraying.UsesChemicals())
	assert.False(t, ActivityPruning.UsesChemicals())
	assert.False(t, ActivityWatering.UsesChemicals())
}
