package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/thaidate"
)

// === pgtype Conversion Helpers ===

// uuidToPgtype converts google/uuid.UUID to pgtype.UUID.
func uuidToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// pgtypeToUUIDString converts pgtype.UUID to string (empty if invalid).
func pgtypeToUUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// pgtypeToUUIDStringPtr converts a nullable UUID column to *string.
func pgtypeToUUIDStringPtr(id pgtype.UUID) *string {
	if !id.Valid {
		return nil
	}
	s := uuid.UUID(id.Bytes).String()
	return &s
}

// timeToPgtype converts time.Time to pgtype.Timestamptz.
func timeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// pgtypeToTime converts pgtype.Timestamptz to time.Time (zero if invalid).
// Always returns time in UTC location for consistent timezone handling.
func pgtypeToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// pgtypeToTimePtr converts pgtype.Timestamptz to *time.Time (nil if invalid).
func pgtypeToTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	utcTime := t.Time.UTC()
	return &utcTime
}

// timePtrToPgtype converts *time.Time to pgtype.Timestamptz, NULL for nil.
func timePtrToPgtype(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// datePtrToPgtype converts *time.Time to pgtype.Date, NULL for nil.
// Only the calendar date in t's own location is kept.
func datePtrToPgtype(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{Valid: false}
	}
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// pgtypeToDatePtr converts pgtype.Date to *time.Time at UTC midnight (nil if invalid).
func pgtypeToDatePtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}

// dateStringToPgtype converts a YYYY-MM-DD string to pgtype.Date, NULL for nil.
func dateStringToPgtype(s *string) (pgtype.Date, error) {
	if s == nil {
		return pgtype.Date{Valid: false}, nil
	}
	t, err := time.Parse(thaidate.ISODate, *s)
	if err != nil {
		return pgtype.Date{}, err
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

// pgtypeToDateString converts pgtype.Date to a YYYY-MM-DD string (nil if invalid).
func pgtypeToDateString(d pgtype.Date) *string {
	if !d.Valid {
		return nil
	}
	s := d.Time.Format(thaidate.ISODate)
	return &s
}

// stringPtrToUUIDPgtype converts an optional UUID string to pgtype.UUID, NULL for nil or empty.
func stringPtrToUUIDPgtype(s *string, notFound error) (pgtype.UUID, error) {
	if s == nil || *s == "" {
		return pgtype.UUID{Valid: false}, nil
	}
	id, err := parseID(*s, notFound)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return uuidToPgtype(id), nil
}

// === Row Scanners ===

const zoneColumns = `z.id, z.name, z.description, z.created_at, z.updated_at, z.version,
	(SELECT count(*) FROM trees t WHERE t.zone_id = z.id AND t.status <> 'ARCHIVED') AS tree_count`

func scanZone(row pgx.Row, extra ...any) (*domain.Zone, error) {
	var (
		id                   pgtype.UUID
		createdAt, updatedAt pgtype.Timestamptz
		version              int32
		treeCount            int64
		zone                 domain.Zone
	)
	dest := []any{&id, &zone.Name, &zone.Description, &createdAt, &updatedAt, &version, &treeCount}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	zone.ID = pgtypeToUUIDString(id)
	zone.CreatedAt = pgtypeToTime(createdAt)
	zone.UpdatedAt = pgtypeToTime(updatedAt)
	zone.Version = int(version)
	zone.TreeCount = int(treeCount)
	return &zone, nil
}

const treeColumns = `t.id, t.code, t.zone_id, t.variety, t.status, t.planted_at, t.notes,
	t.created_at, t.updated_at, t.version`

func scanTree(row pgx.Row, extra ...any) (*domain.Tree, error) {
	var (
		id, zoneID           pgtype.UUID
		status               string
		plantedAt            pgtype.Date
		createdAt, updatedAt pgtype.Timestamptz
		version              int32
		tree                 domain.Tree
	)
	dest := []any{&id, &tree.Code, &zoneID, &tree.Variety, &status, &plantedAt, &tree.Notes,
		&createdAt, &updatedAt, &version}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	tree.ID = pgtypeToUUIDString(id)
	tree.ZoneID = pgtypeToUUIDStringPtr(zoneID)
	tree.Status = domain.TreeStatus(status)
	tree.PlantedAt = pgtypeToDatePtr(plantedAt)
	tree.CreatedAt = pgtypeToTime(createdAt)
	tree.UpdatedAt = pgtypeToTime(updatedAt)
	tree.Version = int(version)
	return &tree, nil
}

const activityColumns = `a.id, a.tree_id, a.type, a.performed_at, a.product, a.formulation, a.dosage,
	a.note, a.follow_up_date, a.follow_up_done, a.created_at`

func scanActivity(row pgx.Row, extra ...any) (*domain.ActivityLog, error) {
	var (
		id, treeID             pgtype.UUID
		activityType, formula  string
		performedAt, createdAt pgtype.Timestamptz
		followUpDate           pgtype.Date
		activity               domain.ActivityLog
	)
	dest := []any{&id, &treeID, &activityType, &performedAt, &activity.Product, &formula,
		&activity.Dosage, &activity.Note, &followUpDate, &activity.FollowUpDone, &createdAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	activity.ID = pgtypeToUUIDString(id)
	activity.TreeID = pgtypeToUUIDString(treeID)
	activity.Type = domain.ActivityType(activityType)
	activity.PerformedAt = pgtypeToTime(performedAt)
	activity.Formulation = domain.FormulationCode(formula)
	activity.FollowUpDate = pgtypeToDateString(followUpDate)
	activity.CreatedAt = pgtypeToTime(createdAt)
	return &activity, nil
}

const apiKeyColumns = `id, key_type, service, version, short_token, long_secret_hash, name,
	is_active, created_at, last_used_at, expires_at`

func scanAPIKey(row pgx.Row) (*domain.APIKey, error) {
	var (
		id                             pgtype.UUID
		createdAt, lastUsed, expiresAt pgtype.Timestamptz
		key                            domain.APIKey
	)
	if err := row.Scan(&id, &key.KeyType, &key.Service, &key.Version, &key.ShortToken,
		&key.LongSecretHash, &key.Name, &key.IsActive, &createdAt, &lastUsed, &expiresAt); err != nil {
		return nil, err
	}
	key.ID = pgtypeToUUIDString(id)
	key.CreatedAt = pgtypeToTime(createdAt)
	key.LastUsedAt = pgtypeToTimePtr(lastUsed)
	key.ExpiresAt = pgtypeToTimePtr(expiresAt)
	return &key, nil
}

// treeStatusesToStrings converts domain TreeStatus slice to string slice for SQL queries.
func treeStatusesToStrings(statuses []domain.TreeStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}
