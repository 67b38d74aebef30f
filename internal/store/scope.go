// internal/store/scope.go
//
// The interception chokepoint.
//
// Context
// -------
// Every operation the executor performs — reads, writes, deletes, counts,
// aggregates, against every entity — passes through apply() exactly once,
// synchronously, before any SQL is built.  apply() consults the entity
// registry and the ambient tenancy context and rewrites the operation's
// filter or payload in place of the caller's version.  Putting the rewrite
// here, rather than in dozens of service methods, makes "forgot the tenant
// filter" structurally impossible instead of a code-review hope.
//
// Rewrite rules, in order:
//
//  1. Audit guard: update/delete families against audit_log are rejected
//     outright, before any other logic.
//  2. Unscoped entities pass through unmodified.
//  3. Bypass contexts pass through unmodified (the caller has explicitly
//     asserted a cross-tenant system operation).
//  4. No ambient context at all is a programming defect: ErrNoTenant.
//  5. Filter families get filter[tenant_id] = ambient ID.  A caller-supplied
//     tenant value is overwritten, never merged — the ambient context is the
//     single source of truth.
//  6. Create families get payload[tenant_id] stamped, on every element of a
//     batch.
//
// Notes
// -----
//   - apply never touches the caller's maps; it clones before writing.
//   - Oxford commas, two spaces after periods.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/worklane/worklane/internal/metrics"
	"github.com/worklane/worklane/internal/tenancy"
)

// ErrNoTenant reports a tenant-scoped operation attempted outside any
// tenancy scope and without bypass.  Always a defect in a collaborator,
// never a user condition; let it fail the request loudly.
var ErrNoTenant = errors.New("store: tenant-scoped operation without tenant context")

// ErrAuditImmutable reports an update or delete aimed at the audit log.
// The trail's evidentiary value depends on immutability, so the operation
// is aborted before it can reach storage.
var ErrAuditImmutable = errors.New("store: audit log is append-only")

// ErrUnknownEntity reports an entity absent from both registries.
var ErrUnknownEntity = errors.New("store: unknown entity")

// args carries the mutable parts of one operation through apply().
type args struct {
	filter   Filter
	payload  Payload
	payloads []Payload
}

// apply enforces the guard and scoping rules for one operation and returns
// the rewritten arguments.  It performs no I/O.
func apply(ctx context.Context, e Entity, op Op, a args) (args, error) {
	if e == EntityAuditLog && op.mutatesRows() {
		metrics.AuditViolationsTotal.Inc()
		return a, fmt.Errorf("%s %s: %w", op, e, ErrAuditImmutable)
	}

	m, scoped := tenantScoped[e]
	if !scoped {
		if _, ok := global[e]; !ok {
			return a, fmt.Errorf("%s %q: %w", op, e, ErrUnknownEntity)
		}
		return a, nil
	}

	tc, ok := tenancy.From(ctx)
	if ok && tc.Bypass {
		metrics.BypassOpsTotal.Inc()
		return a, nil
	}
	if !ok {
		metrics.MissingContextTotal.Inc()
		return a, fmt.Errorf("%s %s: %w", op, e, ErrNoTenant)
	}

	switch {
	case op.filterFamily():
		a.filter = a.filter.clone()
		a.filter[m.TenantColumn] = tc.TenantID
	case op.createFamily():
		if a.payload != nil {
			a.payload = a.payload.clone()
			a.payload[m.TenantColumn] = tc.TenantID
		}
		if a.payloads != nil {
			stamped := make([]Payload, len(a.payloads))
			for i, p := range a.payloads {
				stamped[i] = p.clone()
				stamped[i][m.TenantColumn] = tc.TenantID
			}
			a.payloads = stamped
		}
	}
	metrics.ScopeRewritesTotal.Inc()
	return a, nil
}
