// internal/sequence/sequence.go
//
// Per-tenant monotonic numbers for human-readable identifiers.
//
// Context
// -------
// Workflow requests and invoices carry numbers like WF-000123 or
// INV-000042, minted from a per-tenant counter row in `tenant_counter`
// (tenant_id, kind, next_value).  The mint is a single UPDATE using
// MySQL's LAST_INSERT_ID(expr) trick, so the read-increment-write
// happens inside one statement and concurrent minters for the same tenant
// serialise on the row lock.  This relies on the store's update-by-key
// being atomic at the storage layer; it is not re-verified here, and a
// dedicated sequence service would be the next step if that assumption
// ever fails under load.
//
// The generic executor cannot express LAST_INSERT_ID(next_value + 1) as a
// column = value payload, so this helper runs beside it — but it derives
// its tenant predicate from the same ambient tenancy context and refuses
// to mint without one.  Bypass contexts cannot mint either; numbers are
// meaningless outside a tenant.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package sequence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/worklane/worklane/internal/metrics"
	"github.com/worklane/worklane/internal/store"
	"github.com/worklane/worklane/internal/tenancy"
)

// Counter kinds.  The kind doubles as the identifier prefix.
const (
	KindWorkflow = "WF"
	KindInvoice  = "INV"
)

// Next mints the next number for kind under the ambient tenant.  The
// counter row must exist (it is seeded at tenant creation); a missing row
// surfaces as an error rather than silently starting a new series.
func Next(ctx context.Context, db *sqlx.DB, kind string) (uint64, error) {
	tc, ok := tenancy.From(ctx)
	if !ok || tc.Bypass {
		return 0, fmt.Errorf("sequence %s: %w", kind, store.ErrNoTenant)
	}

	const q = `UPDATE tenant_counter
	              SET next_value = LAST_INSERT_ID(next_value + 1)
	            WHERE tenant_id = ? AND kind = ?`

	res, err := db.ExecContext(ctx, q, tc.TenantID, kind)
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("sequence %s: no counter row for tenant %d", kind, tc.TenantID)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	metrics.SequenceMintsTotal.Inc()
	return uint64(id), nil
}

// Format renders a minted value as its public identifier, e.g.
// Format("WF", 123) → "WF-000123".
func Format(kind string, n uint64) string {
	return fmt.Sprintf("%s-%06d", kind, n)
}
