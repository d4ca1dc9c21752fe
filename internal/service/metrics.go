package service

import (
	"time"

	"doc-analyzer/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the upload pipeline's Prometheus collectors.
type Metrics struct {
	uploads            *prometheus.CounterVec
	extractions        *prometheus.CounterVec
	extractionFailures *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	analyses           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docanalyzer_uploads_total",
				Help: "Uploads handled, by outcome",
			},
			[]string{"outcome"},
		),
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docanalyzer_extractions_total",
				Help: "Successful extractions by input kind and winning method",
			},
			[]string{"kind", "method"},
		),
		extractionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docanalyzer_extraction_failures_total",
				Help: "Failed extractions by stage and reason",
			},
			[]string{"stage", "reason"},
		),
		extractionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docanalyzer_extraction_duration_seconds",
				Help:    "Time spent extracting text",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docanalyzer_analyses_total",
				Help: "Model analyses by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.uploads, m.extractions, m.extractionFailures, m.extractionDuration, m.analyses)
	return m
}

func (m *Metrics) upload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) extracted(result *domain.ExtractionResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(string(result.Kind), string(result.Method)).Inc()
	m.extractionDuration.WithLabelValues("success").Observe(elapsed.Seconds())
}

func (m *Metrics) extractionFailed(f *domain.ExtractionFailure, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.extractionFailures.WithLabelValues(string(f.Stage), string(f.Reason)).Inc()
	m.extractionDuration.WithLabelValues("failure").Observe(elapsed.Seconds())
}

func (m *Metrics) analysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}
