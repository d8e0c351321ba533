// Package metrics records operational metrics of a pipeline run behind a
// small Backend interface. The default backend is a no-op, so callers can
// record unconditionally; concrete backends live in subpackages
// (prompush, datadog) and are installed with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal       = "hretl_step_total"
	StepDuration    = "hretl_step_duration_seconds"
	RowsTotal       = "hretl_rows_total"
	RejectedTotal   = "hretl_rejected_rows_total"
	BatchesTotal    = "hretl_batches_total"
	RunDuration     = "hretl_run_duration_seconds"
	SalaryBucketRow = "hretl_salary_bucket_rows_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. Passing nil keeps the current backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one stage execution and its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta to the row counter of kind. Kinds used by the
// CLI are "read", "skipped", "output" and "persisted".
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordRejects counts rows removed for reason.
func RecordRejects(job, reason string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RejectedTotal, float64(delta), Labels{"job": job, "reason": reason})
}

// RecordBucket counts output rows that landed in a salary bucket.
func RecordBucket(job, bucket string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(SalaryBucketRow, float64(delta), Labels{"job": job, "bucket": bucket})
}

// RecordBatches counts storage batches.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}

// RecordRun observes the wall time of a whole run.
func RecordRun(job string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	current().ObserveHistogram(RunDuration, d.Seconds(), Labels{"job": job, "status": status})
}
