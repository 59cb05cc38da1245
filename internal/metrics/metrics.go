// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders successfully placed.",
	})

	OrdersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "cancelled_total",
		Help:      "Orders cancelled with stock restored.",
	})

	// OrdersRejected counts failed order placements by error kind.
	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "orders",
			Name:      "rejected_total",
			Help:      "Order placements rejected, by reason.",
		},
		[]string{"reason"},
	)

	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "orders",
			Name:      "status_transitions_total",
			Help:      "Order status changes, by target status.",
		},
		[]string{"status"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Order events handed to the broker, by outcome.",
		},
		[]string{"type", "outcome"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Analytics cache lookups, by result.",
		},
		[]string{"result"}, // "hit" | "miss"
	)
)

// Registry is the registry served on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(
		RequestDuration,
		OrdersCreated,
		OrdersCancelled,
		OrdersRejected,
		StatusTransitions,
		EventsPublished,
		CacheLookups,
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
