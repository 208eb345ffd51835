// Package metrics counts what a pipeline run read, skipped and wrote.
//
// Every run owns its registry, so counters never leak between runs. A batch
// job has no scrape endpoint; the registry is written out in the textfile
// collector format instead.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace   = "ropipeline"
	LabelReason = "reason"
)

// Metrics holds the counters of one run.
type Metrics struct {
	registry *prometheus.Registry

	Documents        prometheus.Counter
	DocumentsSkipped prometheus.Counter
	EventsExtracted  prometheus.Counter
	EventsSkipped    *prometheus.CounterVec
	Windows          prometheus.Counter
	RecordsPersisted prometheus.Counter
}

// New creates the counters and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Total number of XML documents read",
		}),
		DocumentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_skipped_total",
			Help:      "Total number of XML documents that were not well-formed",
		}),
		EventsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_extracted_total",
			Help:      "Total number of valid events extracted",
		}),
		EventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_skipped_total",
			Help:      "Total number of event nodes discarded, by reason",
		}, []string{LabelReason}),
		Windows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_total",
			Help:      "Total number of windows produced",
		}),
		RecordsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_persisted_total",
			Help:      "Total number of records handed to the sink",
		}),
	}
	m.registry.MustRegister(
		m.Documents,
		m.DocumentsSkipped,
		m.EventsExtracted,
		m.EventsSkipped,
		m.Windows,
		m.RecordsPersisted,
	)
	return m
}

// Registry returns the registry the counters live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values to filename in the text
// exposition format.
func (m *Metrics) WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, m.registry)
}
