// internal/tenancy/context.go
//
// Ambient tenant context for one logical request.
//
// Context
// -------
// Every inbound request is handled inside exactly one tenancy scope.  The
// resolver middleware builds a Context (tenant ID plus an explicit bypass
// flag) and installs it with `With` before any data access runs.  Code
// anywhere below — services, the store chokepoint, the audit recorder —
// reads it back with `From`.  Because the value rides on context.Context it
// follows the request through every goroutine hand-off and disappears when
// the request's context is torn down; two concurrent requests can never see
// each other's tenant.
//
// Bypass is the single, auditable escape hatch for operations that
// legitimately span tenants (login, tenant self-service).  It must be set
// deliberately at the request boundary, never deep inside a service.
//
// Notes
// -----
//   - The context key is unexported to avoid collisions.
//   - Oxford commas, two spaces after periods.
package tenancy

import "context"

// Context identifies the tenant on whose behalf the current logical request
// is executing.  Zero value is invalid; use With or Run to install one.
type Context struct {
	TenantID uint64 // Row ID in the global `tenant` table.
	Bypass   bool   // True only for whitelisted cross-tenant operations.
}

type ctxKey struct{}

// With returns a child context carrying tc.  The previous tenancy value, if
// any, is shadowed for the dynamic extent of the returned context.
func With(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// From extracts the active tenancy Context.  ok is false when the caller is
// running outside any tenancy scope, which the store treats as a
// programming error for tenant-scoped entities.
func From(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// Run establishes tc for the dynamic extent of fn and nothing else.  It is
// a convenience for tests and batch jobs; HTTP traffic goes through the
// resolver middleware instead.
func Run(ctx context.Context, tc Context, fn func(context.Context) error) error {
	return fn(With(ctx, tc))
}
