package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/suanview/orchard/internal/domain"
)

// === Zone Operations ===

// CreateZone inserts a new zone and returns it with its initial version.
func (s *Store) CreateZone(ctx context.Context, zone *domain.Zone) (*domain.Zone, error) {
	id, err := parseID(zone.ID, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}

	const q = `INSERT INTO zones (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version`

	var version int32
	err = s.db.QueryRow(ctx, q,
		uuidToPgtype(id), zone.Name, zone.Description,
		timeToPgtype(zone.CreatedAt), timeToPgtype(zone.UpdatedAt),
	).Scan(&version)
	if err != nil {
		if isUniqueViolation(err, "zones_name_key") {
			return nil, fmt.Errorf("%w: %s", domain.ErrZoneNameTaken, zone.Name)
		}
		return nil, fmt.Errorf("failed to create zone: %w", err)
	}

	created := *zone
	created.Version = int(version)
	created.TreeCount = 0
	return &created, nil
}

// FindZoneByID retrieves a zone with its active tree count.
func (s *Store) FindZoneByID(ctx context.Context, id string) (*domain.Zone, error) {
	zoneID, err := parseID(id, domain.ErrZoneNotFound)
	if err != nil {
		return nil, err
	}

	zone, err := scanZone(s.db.QueryRow(ctx, `SELECT `+zoneColumns+` FROM zones z WHERE z.id = $1`, uuidToPgtype(zoneID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, id)
		}
		return nil, fmt.Errorf("failed to get zone: %w", err)
	}
	return zone, nil
}

// ListZones returns zones ordered by name.
func (s *Store) ListZones(ctx context.Context, params domain.ListZonesParams) (*domain.PagedZoneResult, error) {
	const q = `SELECT ` + zoneColumns + `, count(*) OVER () AS total_count
		FROM zones z
		WHERE ($1::text IS NULL OR z.name ILIKE '%' || $1 || '%')
		ORDER BY lower(z.name), z.id
		LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, q, params.NameContains, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	defer rows.Close()

	var (
		zones []*domain.Zone
		total int64
	)
	for rows.Next() {
		zone, err := scanZone(rows, &total)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	// Empty page: the window count is unavailable, so count separately.
	if len(zones) == 0 {
		err := s.db.QueryRow(ctx,
			`SELECT count(*) FROM zones z WHERE ($1::text IS NULL OR z.name ILIKE '%' || $1 || '%')`,
			params.NameContains,
		).Scan(&total)
		if err != nil {
			return nil, fmt.Errorf("failed to count zones: %w", err)
		}
	}

	return &domain.PagedZoneResult{
		Zones:      zones,
		TotalCount: int(total),
		HasMore:    params.Offset+len(zones) < int(total),
	}, nil
}

// UpdateZone applies a field-mask update.
// If etag is provided and doesn't match, returns domain.ErrVersionConflict.
func (s *Store) UpdateZone(ctx context.Context, params domain.UpdateZoneParams) (*domain.Zone, error) {
	zoneID, err := parseID(params.ZoneID, domain.ErrZoneNotFound)
	if err != nil {
		return nil, err
	}
	expected, err := etagVersion(params.Etag)
	if err != nil {
		return nil, err
	}

	var set setList
	if params.Has("name") {
		set.add("name", params.Name.String())
	}
	if params.Has("description") {
		desc := ""
		if params.Description != nil {
			desc = *params.Description
		}
		set.add("description", desc)
	}

	idArg := set.arg(uuidToPgtype(zoneID))
	versionArg := set.arg(expected)
	q := fmt.Sprintf(`UPDATE zones z
		SET %s, updated_at = now(), version = z.version + 1
		WHERE z.id = %s AND (%s::int IS NULL OR z.version = %s)
		RETURNING `+zoneColumns, set.String(), idArg, versionArg, versionArg)

	zone, err := scanZone(s.db.QueryRow(ctx, q, set.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.zoneUpdateMiss(ctx, params)
		}
		if isUniqueViolation(err, "zones_name_key") {
			return nil, fmt.Errorf("%w: %s", domain.ErrZoneNameTaken, params.Name.String())
		}
		return nil, fmt.Errorf("failed to update zone: %w", err)
	}
	return zone, nil
}

// zoneUpdateMiss distinguishes a missing zone from a version conflict.
func (s *Store) zoneUpdateMiss(ctx context.Context, params domain.UpdateZoneParams) error {
	existing, err := s.FindZoneByID(ctx, params.ZoneID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: expected version %s, current version %d",
		domain.ErrVersionConflict, *params.Etag, existing.Version)
}

// DeleteZone removes a zone. Zones with trees, archived ones included, cannot be deleted.
func (s *Store) DeleteZone(ctx context.Context, id string) error {
	zoneID, err := parseID(id, domain.ErrZoneNotFound)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM zones WHERE id = $1`, uuidToPgtype(zoneID))
	if err != nil {
		if isForeignKeyViolation(err, "zone_id") {
			return fmt.Errorf("%w: %s", domain.ErrZoneNotEmpty, id)
		}
		return fmt.Errorf("failed to delete zone: %w", err)
	}
	return checkRowsAffected(tag.RowsAffected(), domain.ErrZoneNotFound, id)
}
