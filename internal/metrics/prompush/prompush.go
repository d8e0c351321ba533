// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A batch job has nothing to scrape, so the registry is
// pushed to the gateway on Flush, grouped under the job name.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"hretl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec
	stepDuration *prometheus.SummaryVec
	rowCounter   *prometheus.CounterVec
	rejectCount  *prometheus.CounterVec
	bucketCount  *prometheus.CounterVec
	batchCounter prometheus.Counter
	runDuration  *prometheus.GaugeVec
}

// NewBackend constructs a Pushgateway backend. An empty jobName means
// "hretl".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "hretl"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline stage executions by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Duration of pipeline stages in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows by kind (read, skipped, output, persisted).",
		}, []string{"kind"}),
		rejectCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RejectedTotal,
			Help: "Rows removed by the pipeline, by reason.",
		}, []string{"reason"}),
		bucketCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.SalaryBucketRow,
			Help: "Output rows per salary bucket.",
		}, []string{"bucket"}),
		batchCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Storage batches written.",
		}),
		runDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metrics.RunDuration,
			Help: "Wall time of the last run in seconds.",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		b.stepCounter, b.stepDuration, b.rowCounter, b.rejectCount,
		b.bucketCount, b.batchCounter, b.runDuration,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.RejectedTotal:
		b.rejectCount.WithLabelValues(labels["reason"]).Add(delta)
	case metrics.SalaryBucketRow:
		b.bucketCount.WithLabelValues(labels["bucket"]).Add(delta)
	case metrics.BatchesTotal:
		b.batchCounter.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case metrics.StepDuration:
		b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
	case metrics.RunDuration:
		b.runDuration.WithLabelValues(labels["status"]).Set(value)
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
