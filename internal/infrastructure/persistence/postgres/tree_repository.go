package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/suanview/orchard/internal/domain"
)

// treeOrderColumns maps validated order fields to SQL. Values never come from user input directly.
var treeOrderColumns = map[string]string{
	"code":       "t.code",
	"planted_at": "t.planted_at",
	"created_at": "t.created_at",
	"updated_at": "t.updated_at",
}

// mapTreeWriteError translates constraint violations on trees into domain errors.
func mapTreeWriteError(err error, tree string) error {
	switch {
	case isUniqueViolation(err, "trees_code_key"):
		return fmt.Errorf("%w: %s", domain.ErrTreeCodeTaken, tree)
	case isForeignKeyViolation(err, "zone_id"):
		return fmt.Errorf("%w: for tree %s", domain.ErrZoneNotFound, tree)
	default:
		return err
	}
}

// === Tree Operations ===

// CreateTree inserts a new tree and returns it with its initial version.
func (s *Store) CreateTree(ctx context.Context, tree *domain.Tree) (*domain.Tree, error) {
	id, err := parseID(tree.ID, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	zoneID, err := stringPtrToUUIDPgtype(tree.ZoneID, domain.ErrZoneNotFound)
	if err != nil {
		return nil, err
	}

	const q = `INSERT INTO trees (id, code, zone_id, variety, status, planted_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING version`

	var version int32
	err = s.db.QueryRow(ctx, q,
		uuidToPgtype(id), tree.Code, zoneID, tree.Variety, string(tree.Status),
		datePtrToPgtype(tree.PlantedAt), tree.Notes,
		timeToPgtype(tree.CreatedAt), timeToPgtype(tree.UpdatedAt),
	).Scan(&version)
	if err != nil {
		if mapped := mapTreeWriteError(err, tree.Code); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create tree: %w", err)
	}

	created := *tree
	created.Version = int(version)
	created.PlantedAt = datePtrToTime(tree.PlantedAt)
	return &created, nil
}

// datePtrToTime truncates an optional time to its calendar date as stored.
func datePtrToTime(t *time.Time) *time.Time {
	return pgtypeToDatePtr(datePtrToPgtype(t))
}

// FindTreeByID retrieves a tree by ID.
func (s *Store) FindTreeByID(ctx context.Context, id string) (*domain.Tree, error) {
	treeID, err := parseID(id, domain.ErrTreeNotFound)
	if err != nil {
		return nil, err
	}
	return s.findTree(ctx, `t.id = $1`, uuidToPgtype(treeID), id)
}

// FindTreeByCode retrieves a tree by its normalized QR code.
func (s *Store) FindTreeByCode(ctx context.Context, code string) (*domain.Tree, error) {
	return s.findTree(ctx, `t.code = $1`, code, code)
}

func (s *Store) findTree(ctx context.Context, where string, arg any, ref string) (*domain.Tree, error) {
	tree, err := scanTree(s.db.QueryRow(ctx, `SELECT `+treeColumns+` FROM trees t WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTreeNotFound, ref)
		}
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return tree, nil
}

// FindTreesByIDs returns the trees that exist among ids, in no particular order.
// Malformed IDs are skipped; callers detect missing trees by comparing results.
func (s *Store) FindTreesByIDs(ctx context.Context, ids []string) ([]*domain.Tree, error) {
	pgIDs := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		parsed, err := parseID(id, domain.ErrTreeNotFound)
		if err != nil {
			continue
		}
		pgIDs = append(pgIDs, uuidToPgtype(parsed))
	}
	if len(pgIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `SELECT `+treeColumns+` FROM trees t WHERE t.id = ANY($1::uuid[])`, pgIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get trees: %w", err)
	}
	defer rows.Close()

	var trees []*domain.Tree
	for rows.Next() {
		tree, err := scanTree(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tree: %w", err)
		}
		trees = append(trees, tree)
	}
	return trees, rows.Err()
}

// ListTrees searches trees with filtering, sorting, and pagination.
// Without an explicit status filter archived trees are excluded.
func (s *Store) ListTrees(ctx context.Context, params domain.ListTreesParams) (*domain.PagedTreeResult, error) {
	f := params.Filter

	zoneID, err := stringPtrToUUIDPgtype(f.ZoneID(), domain.ErrZoneNotFound)
	if err != nil {
		// An unparseable zone cannot contain trees.
		return &domain.PagedTreeResult{}, nil
	}

	orderCol, ok := treeOrderColumns[f.OrderBy()]
	if !ok {
		orderCol = treeOrderColumns[domain.DefaultTreeOrderBy]
	}
	orderDir := "ASC"
	if f.OrderDir() == "desc" {
		orderDir = "DESC"
	}

	const where = `t.status = ANY($1::text[])
		AND ($2::uuid IS NULL OR t.zone_id = $2)
		AND ($3::text IS NULL OR lower(t.variety) = lower($3))
		AND ($4::text IS NULL OR t.code LIKE $4 || '%')`

	args := []any{treeStatusesToStrings(f.Statuses()), zoneID, f.Variety(), f.CodePrefix()}

	q := fmt.Sprintf(`SELECT %s, count(*) OVER () AS total_count
		FROM trees t
		WHERE %s
		ORDER BY %s %s NULLS LAST, t.id
		LIMIT $5 OFFSET $6`, treeColumns, where, orderCol, orderDir)

	rows, err := s.db.Query(ctx, q, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trees: %w", err)
	}
	defer rows.Close()

	var (
		trees []*domain.Tree
		total int64
	)
	for rows.Next() {
		tree, err := scanTree(rows, &total)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tree: %w", err)
		}
		trees = append(trees, tree)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list trees: %w", err)
	}

	if len(trees) == 0 {
		if err := s.db.QueryRow(ctx, `SELECT count(*) FROM trees t WHERE `+where, args...).Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to count trees: %w", err)
		}
	}

	return &domain.PagedTreeResult{
		Trees:      trees,
		TotalCount: int(total),
		HasMore:    params.Offset+len(trees) < int(total),
	}, nil
}

// UpdateTree applies a field-mask update.
// If etag is provided and doesn't match, returns domain.ErrVersionConflict.
func (s *Store) UpdateTree(ctx context.Context, params domain.UpdateTreeParams) (*domain.Tree, error) {
	treeID, err := parseID(params.TreeID, domain.ErrTreeNotFound)
	if err != nil {
		return nil, err
	}
	expected, err := etagVersion(params.Etag)
	if err != nil {
		return nil, err
	}

	var set setList
	if params.Has("code") {
		set.add("code", params.Code.String())
	}
	if params.Has("zone_id") {
		zoneID, err := stringPtrToUUIDPgtype(params.ZoneID, domain.ErrZoneNotFound)
		if err != nil {
			return nil, err
		}
		set.add("zone_id", zoneID)
	}
	if params.Has("variety") {
		set.add("variety", stringOrEmpty(params.Variety))
	}
	if params.Has("status") {
		set.add("status", string(*params.Status))
	}
	if params.Has("planted_at") {
		set.add("planted_at", datePtrToPgtype(params.PlantedAt))
	}
	if params.Has("notes") {
		set.add("notes", stringOrEmpty(params.Notes))
	}

	idArg := set.arg(uuidToPgtype(treeID))
	versionArg := set.arg(expected)
	q := fmt.Sprintf(`UPDATE trees t
		SET %s, updated_at = now(), version = t.version + 1
		WHERE t.id = %s AND (%s::int IS NULL OR t.version = %s)
		RETURNING `+treeColumns, set.String(), idArg, versionArg, versionArg)

	tree, err := scanTree(s.db.QueryRow(ctx, q, set.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.treeUpdateMiss(ctx, params)
		}
		if mapped := mapTreeWriteError(err, params.TreeID); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update tree: %w", err)
	}
	return tree, nil
}

// treeUpdateMiss distinguishes a missing tree from a version conflict.
func (s *Store) treeUpdateMiss(ctx context.Context, params domain.UpdateTreeParams) error {
	existing, err := s.FindTreeByID(ctx, params.TreeID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: expected version %s, current version %d",
		domain.ErrVersionConflict, *params.Etag, existing.Version)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
