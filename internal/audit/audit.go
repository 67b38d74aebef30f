// internal/audit/audit.go
//
// Append-only audit recorder.
//
// Context
// -------
// Every state-changing business operation records who did what to which
// entity, enriched with the request's UA family and country when the
// Enrich middleware has run.  Entries are written through the store
// chokepoint, so they are tenant-scoped like any other row, and the
// append-only guard in the store rejects every update or delete against
// them — no service code path can edit history.
//
// Failures to record are logged and swallowed: the audit trail must never
// abort the business operation it describes.  The write happens after the
// operation commits, which means a crash in between can lose one entry;
// that trade-off is deliberate.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/worklane/worklane/internal/requestinfo"
	"github.com/worklane/worklane/internal/store"
)

// Recorder writes audit entries through the guarded store.
type Recorder struct {
	store *store.Store
}

// New wraps the shared store.
func New(s *store.Store) *Recorder { return &Recorder{store: s} }

// Entry mirrors one row in `audit_log`.
type Entry struct {
	ID        uint64    `db:"id"`
	TenantID  uint64    `db:"tenant_id"`
	ActorID   uint64    `db:"actor_id"`
	Action    string    `db:"action"`
	Entity    string    `db:"entity"`
	EntityID  uint64    `db:"entity_id"`
	Detail    string    `db:"detail"`
	UABrowser string    `db:"ua_browser"`
	Country   string    `db:"country"`
	CreatedAt time.Time `db:"created_at"`
}

// Record appends one entry.  The tenant column is stamped by the store
// chokepoint from the ambient context; UA and country come from the
// request info when present.
func (r *Recorder) Record(ctx context.Context, actorID uint64, action string, entity store.Entity, entityID uint64, detail string) {
	p := store.Payload{
		"actor_id":   actorID,
		"action":     action,
		"entity":     string(entity),
		"entity_id":  entityID,
		"detail":     detail,
		"ua_browser": "",
		"country":    "",
		"created_at": time.Now().UTC(),
	}
	if info := requestinfo.FromContext(ctx); info != nil {
		p["ua_browser"] = info.UA.Browser
		p["country"] = info.Geo.CountryISO
	}

	if _, err := r.store.Insert(ctx, store.EntityAuditLog, p); err != nil {
		zap.S().Errorw("audit record failed",
			"action", action, "entity", entity, "entity_id", entityID, "err", err)
	}
}

// History returns the entries for one entity row, oldest first.
func (r *Recorder) History(ctx context.Context, entity store.Entity, entityID uint64) ([]Entry, error) {
	var out []Entry
	err := r.store.Select(ctx, store.EntityAuditLog, &out, store.Filter{
		"entity":    string(entity),
		"entity_id": entityID,
	}, "created_at ASC")
	return out, err
}
