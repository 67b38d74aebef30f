// internal/config/model.go
//
// Typed configuration model for Worklane.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   - optional `conf/.env`                       – dotenv values,
//   - `conf/global.yaml`                         – primary static file,
//   - `WORKLANE_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through internal/vault at boot, so the model never stores Vault URIs past
// startup — only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   - Struct tags use `koanf:"…"`; Koanf ignores `yaml` tags unless
//     configured otherwise.
//   - The `Paths` block is filled at runtime; YAML must not set it.
//   - Oxford commas, two spaces after periods.
package config

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

// Database holds the shared-store DSN template and its secret.
//
// The template (`DSN`) stays in YAML so operators can tweak host, port, or
// flags without touching Vault.  The secret (`Password`) is normally a
// `vault:` URI resolved at boot, keeping credentials out of flat files.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

// Geo points at the MaxMind database used for audit enrichment.  Optional;
// when empty, audit entries carry no country code.
type Geo struct {
	CityDB string `koanf:"city_db"`
}

// Paths is resolved at runtime — never set in YAML or env.
type Paths struct {
	Root string // WORKLANE_ROOT or discovered parent.
}

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"`
}
