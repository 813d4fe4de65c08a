package postgres

import (
	"fmt"
	"strings"
)

// setList accumulates "column = $n" assignments for a field-mask UPDATE.
// Placeholders are numbered in the order values are added.
type setList struct {
	clauses []string
	args    []any
}

func (l *setList) add(column string, value any) {
	l.args = append(l.args, value)
	l.clauses = append(l.clauses, fmt.Sprintf("%s = $%d", column, len(l.args)))
}

// arg appends a value that is referenced outside the SET list and returns its placeholder.
func (l *setList) arg(value any) string {
	l.args = append(l.args, value)
	return fmt.Sprintf("$%d", len(l.args))
}

func (l *setList) String() string {
	return strings.Join(l.clauses, ", ")
}

// etagVersion converts an optional etag into the expected version parameter.
// nil means the update is unconditional.
func etagVersion(etag *string) (*int32, error) {
	if etag == nil {
		return nil, nil
	}
	v, err := parseEtagToVersion(*etag)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
