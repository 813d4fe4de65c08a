package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/ptr"
)

func TestUUIDConversion(t *testing.T) {
	id := uuid.MustParse("0190c8a0-7a1b-7c2d-8e3f-1234567890ab")

	pg := uuidToPgtype(id)
	assert.True(t, pg.Valid)
	assert.Equal(t, id.String(), pgtypeToUUIDString(pg))
	require.NotNil(t, pgtypeToUUIDStringPtr(pg))
	assert.Equal(t, id.String(), *pgtypeToUUIDStringPtr(pg))

	assert.Empty(t, pgtypeToUUIDString(pgtype.UUID{}))
	assert.Nil(t, pgtypeToUUIDStringPtr(pgtype.UUID{}))
}

func TestStringPtrToUUIDPgtype(t *testing.T) {
	t.Run("nil and empty are NULL", func(t *testing.T) {
		for _, in := range []*string{nil, ptr.To("")} {
			pg, err := stringPtrToUUIDPgtype(in, domain.ErrZoneNotFound)
			require.NoError(t, err)
			assert.False(t, pg.Valid)
		}
	})

	t.Run("malformed maps to not found", func(t *testing.T) {
		_, err := stringPtrToUUIDPgtype(ptr.To("zone-a"), domain.ErrZoneNotFound)
		assert.ErrorIs(t, err, domain.ErrZoneNotFound)
	})

	t.Run("valid", func(t *testing.T) {
		pg, err := stringPtrToUUIDPgtype(ptr.To("0190c8a0-7a1b-7c2d-8e3f-1234567890ab"), domain.ErrZoneNotFound)
		require.NoError(t, err)
		assert.True(t, pg.Valid)
	})
}

func TestTimeConversion(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)
	local := time.Date(2024, 1, 15, 9, 0, 0, 0, bangkok)

	got := pgtypeToTime(timeToPgtype(local))
	assert.True(t, got.Equal(local))
	assert.Equal(t, time.UTC, got.Location(), "times read back are UTC")

	assert.True(t, pgtypeToTime(pgtype.Timestamptz{}).IsZero())
	assert.Nil(t, pgtypeToTimePtr(pgtype.Timestamptz{}))
	assert.False(t, timePtrToPgtype(nil).Valid)
}

func TestDateConversion(t *testing.T) {
	t.Run("keeps the calendar day of the value's own location", func(t *testing.T) {
		bangkok := time.FixedZone("ICT", 7*60*60)
		// 00:30 on 1 June in Bangkok is still 31 May in UTC.
		planted := time.Date(2019, 6, 1, 0, 30, 0, 0, bangkok)

		pg := datePtrToPgtype(&planted)
		require.True(t, pg.Valid)

		back := pgtypeToDatePtr(pg)
		require.NotNil(t, back)
		assert.Equal(t, time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), *back)
	})

	t.Run("nil is NULL", func(t *testing.T) {
		assert.False(t, datePtrToPgtype(nil).Valid)
		assert.Nil(t, pgtypeToDatePtr(pgtype.Date{}))
	})
}

func TestDateStringConversion(t *testing.T) {
	pg, err := dateStringToPgtype(ptr.To("2024-01-22"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-22", *pgtypeToDateString(pg))

	pg, err = dateStringToPgtype(nil)
	require.NoError(t, err)
	assert.False(t, pg.Valid)
	assert.Nil(t, pgtypeToDateString(pg))

	_, err = dateStringToPgtype(ptr.To("22/01/2567"))
	assert.Error(t, err)
}

func TestTreeStatusesToStrings(t *testing.T) {
	got := treeStatusesToStrings([]domain.TreeStatus{domain.TreeStatusHealthy, domain.TreeStatusArchived})
	assert.Equal(t, []string{"HEALTHY", "ARCHIVED"}, got)
	assert.Empty(t, treeStatusesToStrings(nil))
}
