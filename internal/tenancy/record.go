package tenancy

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record mirrors one row in the global `tenant` table.  Operational state is
// captured by two nullable timestamps:
//
//   - SuspendedAt – tenant temporarily disabled (e.g., billing).
//   - DeletedAt   – tenant permanently removed.
//
// Either timestamp being non-NULL prevents the resolver from serving the
// tenant.
type Record struct {
	ID          uint64     `db:"id"`
	Slug        string     `db:"slug"`
	Name        string     `db:"name"`
	Plan        string     `db:"plan"`
	SuspendedAt *time.Time `db:"suspended_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// Active reports whether the tenant may be served.
func (r *Record) Active() bool {
	return r.SuspendedAt == nil && r.DeletedAt == nil
}

// BySlug fetches the tenant row for slug.  sql.ErrNoRows propagates so the
// cache can translate it into ErrNotFound.
func BySlug(ctx context.Context, db *sqlx.DB, slug string) (*Record, error) {
	const q = `SELECT id, slug, name, plan, suspended_at, deleted_at,
	                  created_at, updated_at
	             FROM tenant
	            WHERE slug = ?`

	var rec Record
	if err := db.GetContext(ctx, &rec, q, slug); err != nil {
		return nil, err
	}
	return &rec, nil
}
