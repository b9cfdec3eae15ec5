// Package observability holds service-wide Prometheus instruments.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	resultPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "coaching",
		Subsystem: "persistence",
		Name:      "last_result_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout result persisted to Postgres.",
	})
	recordsMintedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coaching",
		Subsystem: "records",
		Name:      "personal_records_minted_total",
		Help:      "Count of personal record rows created by result submissions.",
	})
	resultsRejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coaching",
		Subsystem: "results",
		Name:      "submissions_rejected_total",
		Help:      "Count of result submissions rejected, labeled by reason.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(resultPersistGauge, recordsMintedCounter, resultsRejectedCounter)
}

// RecordResultPersisted updates the persistence watermark gauge.
func RecordResultPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	resultPersistGauge.Set(float64(ts.Unix()))
}

// RecordPersonalRecordMinted counts a newly minted personal record.
func RecordPersonalRecordMinted() {
	recordsMintedCounter.Inc()
}

// RecordSubmissionRejected counts a rejected submission by reason.
func RecordSubmissionRejected(reason string) {
	resultsRejectedCounter.WithLabelValues(reason).Inc()
}
