// Package middleware provides authentication, logging, rate limiting
// and metrics middleware for the application.
package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// FeedRequests counts feed assemblies by variant.
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_feed_requests_total",
		Help: "Total number of feed page assemblies by variant",
	}, []string{"variant"})

	// CascadeDeletes counts cascading delete transactions by entity.
	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_cascade_deletes_total",
		Help: "Total number of cascading delete transactions by root entity",
	}, []string{"entity"})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the HTTP metrics middleware. The underlying
// collectors register with the process-global Prometheus registry, so
// the middleware is created at most once.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}
