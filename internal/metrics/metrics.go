package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "afewwords"

// creates a collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_calls_total",
			Help:      "backend API calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_call_duration_seconds",
			Help:      "backend API call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_deliveries_total",
			Help:      "messages delivered to a context endpoint",
		}, []string{"kind", "destination"}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_drops_total",
			Help:      "messages a context endpoint missed",
		}, []string{"kind", "destination"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "silent token refreshes by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(c.apiCalls, c.apiLatency, c.deliveries, c.drops, c.refreshes)

	return c
}

func (c *Collector) RecordAPICall(endpoint, outcome string, duration time.Duration) {
	c.apiCalls.WithLabelValues(endpoint, outcome).Inc()
	c.apiLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (c *Collector) RecordDelivery(kind, destination string) {
	c.deliveries.WithLabelValues(kind, destination).Inc()
}

func (c *Collector) RecordDrop(kind, destination string) {
	c.drops.WithLabelValues(kind, destination).Inc()
}

func (c *Collector) RecordRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

// returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
