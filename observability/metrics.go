// Package observability provides metrics and tracing instruments for Herald.
// Both are optional; a nil *Metrics or *Tracer records nothing.
package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Send outcome labels.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Metrics holds Herald's metric instruments, backed by any go-utils MetricFactory.
type Metrics struct {
	SendsTotal      gu.Counter
	RetriesTotal    gu.Counter
	EventsPublished gu.Counter
	SendLatency     gu.Histogram
	InFlight        gu.Gauge
}

// NewMetrics creates Herald metric instruments using the supplied factory.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		SendsTotal:      factory.Counter("herald_sends_total"),
		RetriesTotal:    factory.Counter("herald_retries_total"),
		EventsPublished: factory.Counter("herald_events_published_total"),
		SendLatency:     factory.Histogram("herald_send_latency_seconds"),
		InFlight:        factory.Gauge("herald_async_in_flight"),
	}
}

// RecordSend records one dispatch attempt for kind with the given outcome
// category ("" on success) and latency.
func (m *Metrics) RecordSend(kind, category string, latencySeconds float64) {
	if m == nil {
		return
	}

	status := StatusSent
	if category != "" {
		status = StatusFailed
	}
	m.SendsTotal.WithLabels(map[string]string{
		"kind":     kind,
		"status":   status,
		"category": category,
	}).Inc()
	m.SendLatency.Observe(latencySeconds)
}

// RecordRetry records that a retry was scheduled for kind.
func (m *Metrics) RecordRetry(kind string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabels(map[string]string{"kind": kind}).Inc()
}

// RecordEvent records a published lifecycle event of the given type.
func (m *Metrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabels(map[string]string{"type": eventType}).Inc()
}

// TaskStarted increments the in-flight async task gauge.
func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

// TaskFinished decrements the in-flight async task gauge.
func (m *Metrics) TaskFinished() {
	if m == nil {
		return
	}
	m.InFlight.Dec()
}
