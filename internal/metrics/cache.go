// Package metrics holds the Prometheus collectors shared by the calendar
// collaborators.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheCounter counts cache lookups by layer and outcome. A nil counter is a
// no-op so collaborators can run without metrics.
type CacheCounter struct {
	lookups *prometheus.CounterVec
}

// NewCacheCounter registers a lookup counter for the named cache on reg.
func NewCacheCounter(reg prometheus.Registerer, cache string) (*CacheCounter, error) {
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "exterminus",
		Subsystem:   "cache",
		Name:        "lookups_total",
		Help:        "Cache lookups by cache layer and result.",
		ConstLabels: prometheus.Labels{"cache": cache},
	}, []string{"layer", "result"})
	if reg != nil {
		if err := reg.Register(lookups); err != nil {
			return nil, err
		}
	}
	return &CacheCounter{lookups: lookups}, nil
}

// Hit records a hit in layer.
func (c *CacheCounter) Hit(layer string) {
	c.observe(layer, "hit")
}

// Miss records a miss in layer.
func (c *CacheCounter) Miss(layer string) {
	c.observe(layer, "miss")
}

func (c *CacheCounter) observe(layer, result string) {
	if c == nil || c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(layer, result).Inc()
}
