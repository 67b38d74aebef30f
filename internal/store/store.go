// internal/store/store.go
//
// sqlx-backed executor behind the interception chokepoint.
//
// Context
// -------
// Repositories and services never build SQL against scoped tables
// themselves; they call these generic operations with an Entity, a Filter,
// and a Payload, and the executor funnels every call through apply() before
// generating a parameterised statement.  Column order in generated SQL is
// sorted so tests can match statements exactly.
//
// The executor is deliberately narrow: conjunction filters, column = value
// updates, and COUNT/SUM aggregates cover what the business services need.
// Anything fancier belongs in a dedicated query helper that still derives
// its tenant predicate from the chokepoint.
//
// Notes
// -----
//   - Max line length 100 columns.
//   - Oxford commas, two spaces after periods.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Store executes generic operations against the shared multi-tenant
// database.  Safe for concurrent use; it holds only the pool handle.
type Store struct {
	db *sqlx.DB
}

// New wraps an open pool.
func New(db *sqlx.DB) *Store { return &Store{db: db} }

// DB exposes the underlying pool for helpers (sequence minting) that need
// statements the generic executor cannot express.  Such helpers must still
// derive their tenant predicate from the ambient tenancy context.
func (s *Store) DB() *sqlx.DB { return s.db }

//
// Read family
//

// Get fetches a single row into dest.  sql.ErrNoRows propagates so callers
// can translate it into their own not-found errors.
func (s *Store) Get(ctx context.Context, e Entity, dest any, f Filter) error {
	a, err := apply(ctx, e, OpFindOne, args{filter: f})
	if err != nil {
		return err
	}
	where, vals := whereClause(a.filter)
	q := fmt.Sprintf("SELECT * FROM %s%s LIMIT 1", tableOf(e), where)
	return s.db.GetContext(ctx, dest, q, vals...)
}

// Select fetches all matching rows into dest (a pointer to a slice).
// orderBy may be empty.
func (s *Store) Select(ctx context.Context, e Entity, dest any, f Filter, orderBy string) error {
	a, err := apply(ctx, e, OpFindMany, args{filter: f})
	if err != nil {
		return err
	}
	where, vals := whereClause(a.filter)
	q := fmt.Sprintf("SELECT * FROM %s%s", tableOf(e), where)
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}
	return s.db.SelectContext(ctx, dest, q, vals...)
}

// Count returns the number of matching rows.
func (s *Store) Count(ctx context.Context, e Entity, f Filter) (int64, error) {
	a, err := apply(ctx, e, OpCount, args{filter: f})
	if err != nil {
		return 0, err
	}
	where, vals := whereClause(a.filter)
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", tableOf(e), where)
	var n int64
	if err := s.db.GetContext(ctx, &n, q, vals...); err != nil {
		return 0, err
	}
	return n, nil
}

// Sum aggregates column over the matching rows.  NULL (no rows) comes back
// as zero.
func (s *Store) Sum(ctx context.Context, e Entity, column string, f Filter) (float64, error) {
	a, err := apply(ctx, e, OpAggregate, args{filter: f})
	if err != nil {
		return 0, err
	}
	where, vals := whereClause(a.filter)
	q := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) FROM %s%s", column, tableOf(e), where)
	var total float64
	if err := s.db.GetContext(ctx, &total, q, vals...); err != nil {
		return 0, err
	}
	return total, nil
}

//
// Create family
//

// Insert creates one row and returns its auto-increment ID.
func (s *Store) Insert(ctx context.Context, e Entity, p Payload) (int64, error) {
	a, err := apply(ctx, e, OpCreate, args{payload: p})
	if err != nil {
		return 0, err
	}
	cols, marks, vals := insertClause(a.payload)
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableOf(e), cols, marks)
	res, err := s.db.ExecContext(ctx, q, vals...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertMany creates a batch of rows in one statement.  All payloads must
// share the same column set; an empty batch is a no-op.
func (s *Store) InsertMany(ctx context.Context, e Entity, ps []Payload) error {
	if len(ps) == 0 {
		return nil
	}
	a, err := apply(ctx, e, OpCreateMany, args{payloads: ps})
	if err != nil {
		return err
	}

	keys := sortedKeys(a.payloads[0])
	cols := strings.Join(keys, ", ")
	row := "(" + placeholders(len(keys)) + ")"

	rows := make([]string, len(a.payloads))
	vals := make([]any, 0, len(keys)*len(a.payloads))
	for i, p := range a.payloads {
		rows[i] = row
		for _, k := range keys {
			vals = append(vals, p[k])
		}
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		tableOf(e), cols, strings.Join(rows, ", "))
	_, err = s.db.ExecContext(ctx, q, vals...)
	return err
}

//
// Update and delete families
//

// Update rewrites the matching row's columns and reports rows affected.
// Callers address a single row by including its primary key in f; UpdateAll
// is the batch variant.
func (s *Store) Update(ctx context.Context, e Entity, f Filter, p Payload) (int64, error) {
	return s.update(ctx, e, OpUpdate, f, p)
}

// UpdateAll applies p to every row matching f.
func (s *Store) UpdateAll(ctx context.Context, e Entity, f Filter, p Payload) (int64, error) {
	return s.update(ctx, e, OpUpdateMany, f, p)
}

func (s *Store) update(ctx context.Context, e Entity, op Op, f Filter, p Payload) (int64, error) {
	a, err := apply(ctx, e, op, args{filter: f, payload: p})
	if err != nil {
		return 0, err
	}
	set, setVals := setClause(a.payload)
	where, whereVals := whereClause(a.filter)
	q := fmt.Sprintf("UPDATE %s SET %s%s", tableOf(e), set, where)
	res, err := s.db.ExecContext(ctx, q, append(setVals, whereVals...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the matching row and reports rows affected.
func (s *Store) Delete(ctx context.Context, e Entity, f Filter) (int64, error) {
	return s.del(ctx, e, OpDelete, f)
}

// DeleteAll removes every row matching f.
func (s *Store) DeleteAll(ctx context.Context, e Entity, f Filter) (int64, error) {
	return s.del(ctx, e, OpDeleteMany, f)
}

func (s *Store) del(ctx context.Context, e Entity, op Op, f Filter) (int64, error) {
	a, err := apply(ctx, e, op, args{filter: f})
	if err != nil {
		return 0, err
	}
	where, vals := whereClause(a.filter)
	q := fmt.Sprintf("DELETE FROM %s%s", tableOf(e), where)
	res, err := s.db.ExecContext(ctx, q, vals...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

//
// SQL fragment helpers
//

// IsNotFound reports whether err is the driver's empty-result signal.
func IsNotFound(err error) bool { return err == sql.ErrNoRows }

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// whereClause renders " WHERE a = ? AND b = ?" with values in sorted column
// order.  An empty filter yields an empty clause.
func whereClause(f Filter) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}
	keys := sortedKeys(f)
	preds := make([]string, len(keys))
	vals := make([]any, len(keys))
	for i, k := range keys {
		preds[i] = k + " = ?"
		vals[i] = f[k]
	}
	return " WHERE " + strings.Join(preds, " AND "), vals
}

// setClause renders "a = ?, b = ?" with values in sorted column order.
func setClause(p Payload) (string, []any) {
	keys := sortedKeys(p)
	sets := make([]string, len(keys))
	vals := make([]any, len(keys))
	for i, k := range keys {
		sets[i] = k + " = ?"
		vals[i] = p[k]
	}
	return strings.Join(sets, ", "), vals
}

// insertClause renders the column list, placeholder list, and values for a
// single-row INSERT.
func insertClause(p Payload) (cols, marks string, vals []any) {
	keys := sortedKeys(p)
	vals = make([]any, len(keys))
	for i, k := range keys {
		vals[i] = p[k]
	}
	return strings.Join(keys, ", "), placeholders(len(keys)), vals
}

func placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = "?"
	}
	return strings.Join(marks, ", ")
}
