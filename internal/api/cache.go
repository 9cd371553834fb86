package api

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/lox/carisekolah/internal/metrics"
	"github.com/lox/carisekolah/internal/models"
	"github.com/lox/carisekolah/internal/stats"
)

const overviewKey = "overview"

// statsCache memoizes statistics over the immutable dataset. Concurrent
// misses for the same key share one computation.
type statsCache struct {
	c     *cache.Cache
	group singleflight.Group
}

func newStatsCache(ttl time.Duration) *statsCache {
	return &statsCache{c: cache.New(ttl, 2*ttl)}
}

func (sc *statsCache) get(kind, key string, compute func() any) any {
	if v, ok := sc.c.Get(key); ok {
		metrics.StatsCacheTotal.WithLabelValues(kind, "hit").Inc()
		return v
	}
	metrics.StatsCacheTotal.WithLabelValues(kind, "miss").Inc()
	v, _, _ := sc.group.Do(key, func() (any, error) {
		v := compute()
		sc.c.SetDefault(key, v)
		return v, nil
	})
	return v
}

func (sc *statsCache) Overview(all []models.School) stats.Overview {
	return sc.get("overview", overviewKey, func() any {
		return stats.Summarize(all)
	}).(stats.Overview)
}

func (sc *statsCache) Comparison(all []models.School, school models.School) stats.Comparison {
	return sc.get("comparison", "compare:"+school.KodSekolah, func() any {
		return stats.Compare(all, school)
	}).(stats.Comparison)
}
