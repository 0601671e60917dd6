package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx, so every repository
// method runs inside whatever transaction the caller opened.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	// ErrConflict is returned on unique constraint violations.
	ErrConflict = errors.New("record conflicts with an existing one")
	// ErrUnknownFilterColumn means a Filter referenced a column the repository does not expose.
	ErrUnknownFilterColumn = errors.New("unknown filter column")
)

// Filter holds equality conditions (column -> value) that must match jointly
// with the primary key, e.g. Filter{"team_id": 7} for scoped player lookups.
type Filter map[string]any

// clause renders the filter as "col1 = $n AND col2 = $n+1". Columns are sorted
// so the generated SQL is stable.
func (f Filter) clause(allowed map[string]bool, firstArg int) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	columns := make([]string, 0, len(f))
	for column := range f {
		if !allowed[column] {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownFilterColumn, column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	parts := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, column := range columns {
		parts = append(parts, fmt.Sprintf("%s = $%d", column, firstArg+i))
		args = append(args, f[column])
	}
	return strings.Join(parts, " AND "), args, nil
}

// whereWithID builds "WHERE id = $1 [AND filter...]".
func whereWithID(id int, filter Filter, allowed map[string]bool) (string, []any, error) {
	extra, args, err := filter.clause(allowed, 2)
	if err != nil {
		return "", nil, err
	}
	where := "WHERE id = $1"
	if extra != "" {
		where += " AND " + extra
	}
	return where, append([]any{id}, args...), nil
}

func whereFilter(filter Filter, allowed map[string]bool, firstArg int) (string, []any, error) {
	extra, args, err := filter.clause(allowed, firstArg)
	if err != nil {
		return "", nil, err
	}
	if extra == "" {
		return "", nil, nil
	}
	return "WHERE " + extra, args, nil
}

func checkRowsAffected(result sql.Result) (int64, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected, nil
}

// mapConstraintError translates postgres constraint violations. fkNotFound is
// returned for foreign key violations (the referenced parent is gone).
func mapConstraintError(err error, fkNotFound error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	case "23503": // foreign_key_violation
		if fkNotFound != nil {
			return fkNotFound
		}
	}
	return err
}
