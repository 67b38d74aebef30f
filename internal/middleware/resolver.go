// internal/middleware/resolver.go
//
// Tenant resolver — the request-entry half of the isolation contract.
//
// Context
// -------
// Every inbound request must run inside a tenancy scope before any data
// access happens.  This middleware resolves the tenant slug (explicit
// X-Worklane-Tenant header first, else the first label of the Host), loads
// the record through the cache, and installs tenancy.Context for the whole
// handler chain.  Requests to paths with no tenant yet (login,
// registration, health) get an explicit bypass scope instead — the audited
// escape hatch, asserted here and nowhere deeper.
//
// Suspended or deleted tenants are refused up front, so no handler ever
// runs against a disabled tenant.
//
// Notes
// -----
//   - Unknown tenants are a 404, not a 403: the slug namespace should not
//     leak which tenants exist.
//   - Oxford commas, two spaces after periods.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/worklane/worklane/internal/tenancy"
)

// bypassPrefixes routes with no resolvable tenant yet.  Closed list; adding
// a path here is a reviewed change.
var bypassPrefixes = []string{"/auth/", "/healthz", "/metrics"}

// Resolver returns middleware that establishes the tenancy scope for every
// request served below it.
func Resolver(cache *tenancy.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypassed(r.URL.Path) {
				ctx := tenancy.With(r.Context(), tenancy.Context{Bypass: true})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			slug := r.Header.Get("X-Worklane-Tenant")
			if slug == "" {
				slug = hostSlug(r.Host)
			}
			if slug == "" {
				http.NotFound(w, r)
				return
			}

			rec, err := cache.Get(r.Context(), slug)
			if err != nil {
				if !errors.Is(err, tenancy.ErrNotFound) {
					zap.S().Errorw("tenant resolve failed", "slug", slug, "err", err)
					http.Error(w, http.StatusText(http.StatusInternalServerError),
						http.StatusInternalServerError)
					return
				}
				http.NotFound(w, r)
				return
			}
			if !rec.Active() {
				http.Error(w, "tenant unavailable", http.StatusForbidden)
				return
			}

			ctx := tenancy.With(r.Context(), tenancy.Context{TenantID: rec.ID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bypassed(path string) bool {
	for _, p := range bypassPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// hostSlug extracts the first DNS label: "acme.worklane.app" → "acme".
// Bare hosts (localhost) yield "" so dev traffic uses the header instead.
func hostSlug(host string) string {
	host = stripPort(host)
	i := strings.IndexByte(host, '.')
	if i <= 0 {
		return ""
	}
	return host[:i]
}
