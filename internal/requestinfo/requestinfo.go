// internal/requestinfo/requestinfo.go
//
// Per-request metadata (user-agent fingerprint, IP geolocation, timestamp)
// collected once by the Enrich middleware and consumed by the audit
// recorder.  The structs are inert — no DB handles, no large buffers — so
// they are safe to log or JSON-encode.
//
// Dependencies
//   - github.com/avct/uasurfer          (UA parsing)
//   - github.com/oschwald/geoip2-golang (MaxMind lookup)
package requestinfo

import (
	"context"
	"net"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// UA holds the parsed user-agent properties the audit trail stores.
type UA struct {
	Raw     string // Entire User-Agent header.
	Browser string // "Chrome", "Firefox", "Safari", ...
	OS      string // "MacOSX", "Windows", "Android", ...
	Device  string // "Desktop", "Mobile", "Tablet", or "Other".
	IsBot   bool
}

// Geo holds best-effort IP geolocation hints; empty when the DB has no
// match or is not configured.
type Geo struct {
	IP         net.IP
	CountryISO string // "US", "CA", "FR", ...
}

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	Timestamp time.Time
}

// geoReader is a singleton MaxMind handle.  Safe for concurrent reads,
// which is all we perform.  nil when geolocation is not configured.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2-City database at startup.  Optional; when not
// called, Geo fields stay empty.
func InitGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoReader = r
	return nil
}

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich, or nil if
// the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(raw string) UA {
	u := surfer.Parse(raw)

	// Browser family ("Chrome") and OS name without the stringer prefixes.
	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}
	info := UA{
		Raw:     raw,
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		OS:      osName,
		IsBot:   u.IsBot(),
	}

	switch u.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
	return info
}

// lookupGeo returns best-effort Geo data using the global reader.
func lookupGeo(ip net.IP) Geo {
	g := Geo{IP: ip}
	if geoReader == nil || ip == nil {
		return g
	}
	city, err := geoReader.City(ip)
	if err != nil {
		return g
	}
	g.CountryISO = city.Country.IsoCode
	return g
}
