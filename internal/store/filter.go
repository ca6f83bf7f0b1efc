package store

import (
	"fmt"
	"strings"

	"github.com/jivemcp/jive/internal/jiveerr"
)

// Filter is the generic filter language of spec.md §4.1: a map of
// field name to either a scalar value or a list of values (any-of).
// Unknown fields fail InvalidFilter (surfaced by callers as a
// VALIDATION_ERROR, per spec.md §7's INVALID_FILTER carve-out).
type Filter map[string]any

// buildWhere renders f into a "col IN (?, ?, ...)" / "col = ?" clause
// joined with AND, validating every key against allowedColumns.
// Returns ("", nil) for an empty filter.
func buildWhere(f Filter, allowedColumns map[string]bool) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	var clauses []string
	var args []any
	for field, value := range f {
		if !allowedColumns[field] {
			return "", nil, jiveerr.Validation(field, value, "known column", fmt.Sprintf("unknown filter field %q", field))
		}
		switch v := value.(type) {
		case []string:
			if len(v) == 0 {
				continue
			}
			placeholders := make([]string, len(v))
			for i, item := range v {
				placeholders[i] = "?"
				args = append(args, item)
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")))
		case []any:
			if len(v) == 0 {
				continue
			}
			placeholders := make([]string, len(v))
			for i, item := range v {
				placeholders[i] = "?"
				args = append(args, item)
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")))
		default:
			clauses = append(clauses, fmt.Sprintf("%s = ?", field))
			args = append(args, value)
		}
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// SortOrder is the direction for list() sort_order (spec.md §4.1).
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListOptions configures a paginated list() call.
type ListOptions struct {
	Filter    Filter
	Limit     int
	Offset    int
	SortBy    string
	SortOrder SortOrder
}

func (o ListOptions) orderClause(allowedColumns map[string]bool, defaultCol string) (string, error) {
	col := o.SortBy
	if col == "" {
		col = defaultCol
	}
	if !allowedColumns[col] {
		return "", jiveerr.Validation("sort_by", o.SortBy, "known column", fmt.Sprintf("unknown sort field %q", o.SortBy))
	}
	dir := "ASC"
	if o.SortOrder == SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", col, dir), nil
}

func (o ListOptions) limitClause() string {
	limit := o.Limit
	if limit <= 0 {
		limit = 100
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, maxInt(o.Offset, 0))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
