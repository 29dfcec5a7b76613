// Package metrics exposes Prometheus metrics for the booking engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the custom prometheus registry for the server
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// BookingSubmissions counts submissions by source and resulting status
// ("rejected" when the submission failed).
var BookingSubmissions = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "booking",
	Name:      "submissions_total",
	Help:      "Booking request submissions by source and outcome",
}, []string{"source", "outcome"})

// BookingTransitions counts applied status changes.
var BookingTransitions = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "booking",
	Name:      "transitions_total",
	Help:      "Applied booking request status transitions",
}, []string{"from", "to"})

// TransitionRejections counts refused status changes by reason.
var TransitionRejections = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "booking",
	Name:      "transition_rejections_total",
	Help:      "Refused booking request transitions by reason",
}, []string{"reason"})

// AvailabilityLookups counts availability reads by cache result.
var AvailabilityLookups = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "booking",
	Name:      "availability_lookups_total",
	Help:      "Availability lookups by cache result",
}, []string{"cache"})

// AvailabilityDuration observes availability computation time on cache misses.
var AvailabilityDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "booking",
	Name:      "availability_duration_seconds",
	Help:      "Time spent computing availability for a tenant day",
	Buckets:   prometheus.DefBuckets,
})

// SlotsOffered observes how many start times an availability lookup offered.
var SlotsOffered = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "booking",
	Name:      "slots_offered",
	Help:      "Open start times returned per computed tenant day",
	Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
})

// CrewSuggestions counts crew ranking requests by whether any crew was eligible.
var CrewSuggestions = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "booking",
	Name:      "crew_suggestions_total",
	Help:      "Crew suggestion requests by result",
}, []string{"result"})

// StaleDeclined counts requests declined by the stale sweeper.
var StaleDeclined = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "booking",
	Name:      "stale_declined_total",
	Help:      "Pending or waitlisted requests declined after their date passed",
})

// DispatchConnections tracks open dispatch board websocket connections.
var DispatchConnections = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "dispatch",
	Name:      "websocket_connections",
	Help:      "Open dispatch board websocket connections",
})

// HTTPRequests counts HTTP requests by route and status code.
var HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method, route and status",
}, []string{"method", "route", "status"})

// HTTPDuration observes HTTP handler latency by route.
var HTTPDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by method and route",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// Middleware records request count and latency against the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
