// internal/requestinfo/middleware.go
//
// Enrich parses the User-Agent header and client IP once per request and
// stores the result in the request context for downstream consumers (the
// audit recorder, access logging).
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

// Enrich is standard net/http middleware; mount it before any handler that
// records audit entries.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RequestInfo{
			UA:        parseUA(r.UserAgent()),
			Geo:       lookupGeo(clientIP(r)),
			Timestamp: time.Now(),
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP extracts the peer address, ignoring X-Forwarded-For chains; the
// audit trail wants the socket peer, not a spoofable header.
func clientIP(r *http.Request) net.IP {
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i != -1 {
		host = host[:i]
	}
	return net.ParseIP(strings.Trim(host, "[]"))
}
