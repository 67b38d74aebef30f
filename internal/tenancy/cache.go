// internal/tenancy/cache.go
//
// Lazy slug → tenant record cache.
//
// The resolver middleware hits this cache on every request, so lookups must
// be cheap and stampede-free.  Records are loaded on first use behind a
// singleflight barrier, stored in a sync.Map, and evicted after an idle TTL
// by a background loop.  Unlike a per-tenant connection pool there is
// nothing to close on eviction; entries are plain rows.
package tenancy

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/worklane/worklane/internal/metrics"
)

// Static defaults.  Override via the Cache constructor if desired.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 1000
	EvictInterval = 5 * time.Minute
)

// ErrNotFound is returned when a slug is not present in the tenant table.
var ErrNotFound = errors.New("tenant not found")

type entry struct {
	rec      *Record
	lastSeen int64 // UnixNano
}

// Cache lazily loads tenant records and evicts them on idle TTL or LRU
// pressure.  Safe for concurrent use.
type Cache struct {
	db          *sqlx.DB
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	idleTTL     time.Duration
	maxEntries  int
}

// NewCache constructs a Cache and starts the background evictor.
func NewCache(db *sqlx.DB, idleTTL time.Duration, maxEntries int) *Cache {
	c := &Cache{
		db:         db,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the Record for slug, loading it on demand.
func (c *Cache) Get(ctx context.Context, slug string) (*Record, error) {
	if v, ok := c.m.Load(slug); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.rec, nil
	}

	v, err, _ := c.sfg.Do(slug, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(slug); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.rec, nil
		}
		rec, err := BySlug(ctx, c.db, slug)
		if err != nil {
			metrics.TenantLookupErrorsTotal.Inc()
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		c.m.Store(slug, &entry{rec: rec, lastSeen: time.Now().UnixNano()})
		metrics.TenantLookupTotal.Inc()
		metrics.ActiveTenantRecords.Inc()
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

// evictLoop removes idle entries every EvictInterval and trims the map down
// to maxEntries under LRU pressure.
func (c *Cache) evictLoop() {
	for range c.evictTicker.C {
		now := time.Now().UnixNano()
		var count int

		c.m.Range(func(key, value any) bool {
			count++
			ent := value.(*entry)
			idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
			if idle > c.idleTTL {
				c.m.Delete(key)
				zap.S().Infow("tenant record evicted",
					"slug", key, "idle", idle.Truncate(time.Second))
				metrics.TenantEvictTotal.Inc()
				metrics.ActiveTenantRecords.Dec()
				count--
			}
			return true
		})

		if c.maxEntries > 0 && count > c.maxEntries {
			c.evictLRU(count - c.maxEntries)
		}
	}
}

// evictLRU drops the n least-recently-seen entries.
func (c *Cache) evictLRU(n int) {
	type kv struct {
		key string
		at  int64
	}
	var all []kv
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&ent.lastSeen)})
		return true
	})
	for i := 0; i < n && len(all) > 0; i++ {
		oldest := 0
		for j := range all {
			if all[j].at < all[oldest].at {
				oldest = j
			}
		}
		c.m.Delete(all[oldest].key)
		zap.S().Infow("tenant record evicted (LRU pressure)", "slug", all[oldest].key)
		metrics.TenantEvictTotal.Inc()
		metrics.ActiveTenantRecords.Dec()
		all = append(all[:oldest], all[oldest+1:]...)
	}
}
