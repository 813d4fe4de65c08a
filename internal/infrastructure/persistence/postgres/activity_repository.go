package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/suanview/orchard/internal/domain"
)

// === Activity Operations ===

// CreateActivity records a new activity log for an existing tree.
func (s *Store) CreateActivity(ctx context.Context, activity *domain.ActivityLog) (*domain.ActivityLog, error) {
	id, err := parseID(activity.ID, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	treeID, err := parseID(activity.TreeID, domain.ErrTreeNotFound)
	if err != nil {
		return nil, err
	}
	followUp, err := dateStringToPgtype(activity.FollowUpDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidFollowUpDate, err)
	}

	const q = `INSERT INTO activity_logs AS a
		(id, tree_id, type, performed_at, product, formulation, dosage, note, follow_up_date, follow_up_done, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + activityColumns

	created, err := scanActivity(s.db.QueryRow(ctx, q,
		uuidToPgtype(id), uuidToPgtype(treeID), string(activity.Type), timeToPgtype(activity.PerformedAt),
		activity.Product, string(activity.Formulation), activity.Dosage, activity.Note,
		followUp, activity.FollowUpDone, timeToPgtype(activity.CreatedAt),
	))
	if err != nil {
		if isForeignKeyViolation(err, "tree_id") {
			return nil, fmt.Errorf("%w: %s", domain.ErrTreeNotFound, activity.TreeID)
		}
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return created, nil
}

// FindActivityByID retrieves an activity log by ID.
func (s *Store) FindActivityByID(ctx context.Context, id string) (*domain.ActivityLog, error) {
	activityID, err := parseID(id, domain.ErrActivityNotFound)
	if err != nil {
		return nil, err
	}

	activity, err := scanActivity(s.db.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activity_logs a WHERE a.id = $1`, uuidToPgtype(activityID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrActivityNotFound, id)
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

// ListActivities returns the activity history of a tree, newest first.
func (s *Store) ListActivities(ctx context.Context, params domain.ListActivitiesParams) (*domain.PagedActivityResult, error) {
	treeID, err := parseID(params.TreeID, domain.ErrTreeNotFound)
	if err != nil {
		return nil, err
	}

	var activityType *string
	if params.Type != nil {
		t := string(*params.Type)
		activityType = &t
	}

	const where = `a.tree_id = $1 AND ($2::text IS NULL OR a.type = $2)`
	args := []any{uuidToPgtype(treeID), activityType}

	rows, err := s.db.Query(ctx, `SELECT `+activityColumns+`, count(*) OVER () AS total_count
		FROM activity_logs a
		WHERE `+where+`
		ORDER BY a.performed_at DESC, a.id DESC
		LIMIT $3 OFFSET $4`, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var (
		activities []*domain.ActivityLog
		total      int64
	)
	for rows.Next() {
		activity, err := scanActivity(rows, &total)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	if len(activities) == 0 {
		if err := s.db.QueryRow(ctx, `SELECT count(*) FROM activity_logs a WHERE `+where, args...).Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to count activities: %w", err)
		}
	}

	return &domain.PagedActivityResult{
		Activities: activities,
		TotalCount: int(total),
		HasMore:    params.Offset+len(activities) < int(total),
	}, nil
}

// MarkFollowUpDone flags the follow-up of an activity log as completed.
func (s *Store) MarkFollowUpDone(ctx context.Context, id string) (*domain.ActivityLog, error) {
	activityID, err := parseID(id, domain.ErrActivityNotFound)
	if err != nil {
		return nil, err
	}

	activity, err := scanActivity(s.db.QueryRow(ctx, `UPDATE activity_logs a
		SET follow_up_done = true
		WHERE a.id = $1
		RETURNING `+activityColumns, uuidToPgtype(activityID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrActivityNotFound, id)
		}
		return nil, fmt.Errorf("failed to complete follow-up: %w", err)
	}
	return activity, nil
}

// FindPendingFollowUps returns open follow-ups of non-archived trees, earliest date first.
func (s *Store) FindPendingFollowUps(ctx context.Context, params domain.PendingFollowUpsParams) ([]domain.FollowUpItem, error) {
	zoneID, err := stringPtrToUUIDPgtype(params.ZoneID, domain.ErrZoneNotFound)
	if err != nil {
		return nil, err
	}
	before, err := dateStringToPgtype(params.Before)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidFollowUpDate, err)
	}

	const q = `SELECT ` + activityColumns + `, t.code, COALESCE(z.name, '')
		FROM activity_logs a
		JOIN trees t ON t.id = a.tree_id
		LEFT JOIN zones z ON z.id = t.zone_id
		WHERE a.follow_up_date IS NOT NULL
		  AND NOT a.follow_up_done
		  AND t.status <> 'ARCHIVED'
		  AND ($1::uuid IS NULL OR t.zone_id = $1)
		  AND ($2::date IS NULL OR a.follow_up_date <= $2)
		ORDER BY a.follow_up_date, a.performed_at, a.id
		LIMIT $3`

	rows, err := s.db.Query(ctx, q, zoneID, before, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending follow-ups: %w", err)
	}
	defer rows.Close()

	var items []domain.FollowUpItem
	for rows.Next() {
		var item domain.FollowUpItem
		activity, err := scanActivity(rows, &item.TreeCode, &item.ZoneName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan follow-up: %w", err)
		}
		item.Activity = *activity
		items = append(items, item)
	}
	return items, rows.Err()
}

// === Formulation Migration ===

// CountFormulationCodes returns the number of activity logs per distinct stored formulation code.
func (s *Store) CountFormulationCodes(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.Query(ctx, `SELECT formulation, count(*)
		FROM activity_logs
		WHERE formulation <> ''
		GROUP BY formulation`)
	if err != nil {
		return nil, fmt.Errorf("failed to count formulation codes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			code  string
			count int64
		)
		if err := rows.Scan(&code, &count); err != nil {
			return nil, fmt.Errorf("failed to scan formulation count: %w", err)
		}
		counts[code] = int(count)
	}
	return counts, rows.Err()
}

// RewriteFormulationCode replaces every stored occurrence of from with to.
func (s *Store) RewriteFormulationCode(ctx context.Context, from string, to domain.FormulationCode) (int64, error) {
	tag, err := s.db.Exec(ctx, `UPDATE activity_logs SET formulation = $2 WHERE formulation = $1`, from, string(to))
	if err != nil {
		return 0, fmt.Errorf("failed to rewrite formulation %q: %w", from, err)
	}
	return tag.RowsAffected(), nil
}

