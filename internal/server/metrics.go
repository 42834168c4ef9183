package server

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"document-qa/internal/models"
	"document-qa/internal/session"
)

type metrics struct {
	uploads   *prometheus.CounterVec
	questions *prometheus.CounterVec
	ingestion prometheus.Histogram
}

func newMetrics(registry prometheus.Registerer, sessions *session.Manager) *metrics {
	m := &metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "uploads_total",
			Help:      "Document uploads by outcome.",
		}, []string{"outcome"}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "questions_total",
			Help:      "Questions answered by outcome.",
		}, []string{"outcome"}),
		ingestion: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "ingestion_duration_seconds",
			Help:      "Time to extract, chunk and index a document.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	registry.MustRegister(
		m.uploads,
		m.questions,
		m.ingestion,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "docqa",
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory.",
		}, func() float64 { return float64(sessions.Len()) }),
	)
	return m
}

// outcome labels an error by its kind
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, models.ErrNoReadableText):
		return "no_readable_text"
	case errors.Is(err, models.ErrEmptySheet):
		return "empty_sheet"
	case errors.Is(err, models.ErrEmptyChunkSet):
		return "empty_chunk_set"
	case errors.Is(err, models.ErrMalformedFile):
		return "malformed_file"
	case errors.Is(err, models.ErrExtractionIO):
		return "extraction_io"
	case errors.Is(err, models.ErrGeneration):
		return "generation"
	default:
		return "error"
	}
}
