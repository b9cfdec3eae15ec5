package analytics

import (
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const snapshotCacheSize = 8 * 1024 * 1024

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coaching",
		Subsystem: "analytics",
		Name:      "dashboard_cache_hits_total",
		Help:      "Dashboard snapshots served from cache.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coaching",
		Subsystem: "analytics",
		Name:      "dashboard_cache_misses_total",
		Help:      "Dashboard snapshots recomputed from the store.",
	})
)

// SnapshotCache keeps recently computed dashboard snapshots per coach so
// repeated dashboard loads do not refire the full query set. A nil cache
// disables caching.
type SnapshotCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

// NewSnapshotCache creates a cache holding snapshots for ttl.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		cache: freecache.NewCache(snapshotCacheSize),
		ttl:   ttl,
	}
}

func (c *SnapshotCache) GetDashboard(coachID string) (*DashboardSnapshot, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.cache.Get(dashboardKey(coachID))
	if err != nil {
		cacheMisses.Inc()
		return nil, false
	}
	var snapshot DashboardSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		log.WithError(err).Warn("discarding undecodable dashboard snapshot")
		cacheMisses.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return &snapshot, true
}

func (c *SnapshotCache) PutDashboard(coachID string, snapshot *DashboardSnapshot) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.cache.Set(dashboardKey(coachID), raw, int(c.ttl.Seconds())); err != nil {
		log.WithError(err).Warn("dashboard snapshot cache set failed")
	}
}

// Invalidate drops a coach's cached snapshot, used after writes that should
// show up on the next dashboard load.
func (c *SnapshotCache) Invalidate(coachID string) {
	if c == nil {
		return
	}
	c.cache.Del(dashboardKey(coachID))
}

func dashboardKey(coachID string) []byte {
	return []byte("dashboard:" + coachID)
}
