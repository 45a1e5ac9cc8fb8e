// Package metrics provides Prometheus metrics for the Sage service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequestsTotal tracks chat messages handled by outcome
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total number of chat messages handled by outcome",
		},
		[]string{"outcome"},
	)

	// ChatRequestDuration tracks end to end chat handling duration in seconds
	ChatRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sage",
			Subsystem: "chat",
			Name:      "request_duration_seconds",
			Help:      "Duration of chat message handling in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	// ExtractionsTotal tracks intent extraction attempts by status
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "intent",
			Name:      "extractions_total",
			Help:      "Total number of intent extraction attempts by status",
		},
		[]string{"status"},
	)

	// ExtractionDuration tracks intent extraction duration in seconds
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sage",
			Subsystem: "intent",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of intent extraction calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// MatchResolutionsTotal tracks catalog match resolutions by outcome
	MatchResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "matching",
			Name:      "resolutions_total",
			Help:      "Total number of catalog match resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// MatchResultRows tracks how many plans each resolution returned
	MatchResultRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sage",
			Subsystem: "matching",
			Name:      "result_rows",
			Help:      "Number of plans returned per resolution",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		},
		[]string{"outcome"},
	)

	// CatalogUpdatesTotal tracks catalog sync batches by status
	CatalogUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "catalog_sync",
			Name:      "updates_total",
			Help:      "Total number of catalog update batches by status",
		},
		[]string{"status"},
	)

	// CatalogPlansUpserted tracks individual plan rows written by catalog sync
	CatalogPlansUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "catalog_sync",
			Name:      "plans_upserted_total",
			Help:      "Total number of plan rows upserted by catalog sync",
		},
	)
)

// RecordChatRequest records a handled chat message
func RecordChatRequest(outcome string, durationSeconds float64) {
	ChatRequestsTotal.WithLabelValues(outcome).Inc()
	ChatRequestDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

// RecordExtraction records an intent extraction attempt
func RecordExtraction(status string, durationSeconds float64) {
	ExtractionsTotal.WithLabelValues(status).Inc()
	ExtractionDuration.Observe(durationSeconds)
}

// RecordMatchResolution records a catalog match resolution
func RecordMatchResolution(outcome string, rows int) {
	MatchResolutionsTotal.WithLabelValues(outcome).Inc()
	MatchResultRows.WithLabelValues(outcome).Observe(float64(rows))
}

// RecordCatalogUpdate records a catalog sync batch
func RecordCatalogUpdate(status string, plans int) {
	CatalogUpdatesTotal.WithLabelValues(status).Inc()
	if plans > 0 {
		CatalogPlansUpserted.Add(float64(plans))
	}
}
