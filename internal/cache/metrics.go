package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupsTotal counts reads by document kind and result (hit or miss).
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowdex_cache_lookups_total",
		Help: "Cache reads by document kind and result",
	}, []string{"kind", "result"})

	invalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowdex_cache_invalidations_total",
		Help: "Explicit cache invalidations by document kind",
	}, []string{"kind"})
)
