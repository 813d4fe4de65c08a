package postgres

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/suanview/orchard/internal/domain"
)

// PostgreSQL error codes.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// isForeignKeyViolation checks if an error is a PostgreSQL FK violation.
// A non-empty column narrows the match to constraints mentioning it.
func isForeignKeyViolation(err error, column string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		if column == "" {
			return true
		}
		return strings.Contains(pgErr.ConstraintName, column) ||
			strings.Contains(pgErr.Message, column) ||
			strings.Contains(pgErr.Detail, column)
	}
	return false
}

// isUniqueViolation checks if an error is a PostgreSQL unique violation on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return constraint == "" || pgErr.ConstraintName == constraint
	}
	return false
}

// checkRowsAffected returns notFound wrapped with the id when an UPDATE/DELETE touched nothing.
func checkRowsAffected(rowsAffected int64, notFound error, id string) error {
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

// parseID parses a UUID, mapping malformed input to notFound.
// A string that is not a UUID can never identify a stored row.
func parseID(id string, notFound error) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", notFound, err)
	}
	return parsed, nil
}

// parseEtagToVersion extracts the version number from an etag string.
// Etag format: positive numeric string like "1", "2", "42".
func parseEtagToVersion(etag string) (int32, error) {
	version, err := strconv.ParseInt(strings.Trim(etag, `"`), 10, 32)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidEtagFormat, etag)
	}
	return int32(version), nil
}
