package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// outcomes recorded by the api client, the bus and the refresher
type Recorder interface {
	RecordAPICall(endpoint, outcome string, duration time.Duration)
	RecordDelivery(kind, destination string)
	RecordDrop(kind, destination string)
	RecordRefresh(outcome string)
}

// prometheus implementation of Recorder
type Collector struct {
	apiCalls   *prometheus.CounterVec
	apiLatency *prometheus.HistogramVec
	deliveries *prometheus.CounterVec
	drops      *prometheus.CounterVec
	refreshes  *prometheus.CounterVec
}

// discards everything; used when no registry is wired
type Nop struct{}

func (Nop) RecordAPICall(string, string, time.Duration) {}
func (Nop) RecordDelivery(string, string)               {}
func (Nop) RecordDrop(string, string)                   {}
func (Nop) RecordRefresh(string)                        {}
