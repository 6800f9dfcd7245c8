// Package metrics records operational metrics for pipeline runs behind a
// pluggable Backend. The default backend is a no-op, so instrumentation is
// always safe to call.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal       = "titanic_step_total"
	StepDuration    = "titanic_step_duration_seconds"
	RecordsTotal    = "titanic_records_total"
	BatchesTotal    = "titanic_batches_total"
	OutputRowsTotal = "titanic_output_rows_total"
)

// Record kinds passed to RecordRows.
const (
	KindJoined      = "joined"
	KindDroppedNoID = "dropped_no_id"
	KindImputedAge  = "imputed_age"
	KindDefaulted   = "defaulted"
	KindCleaned     = "cleaned"
	KindLoaded      = "loaded"
	KindPublished   = "published"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline step and its latency.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// Timed runs fn as step and records it.
func Timed(job, step string, fn func() error) error {
	start := time.Now()
	err := fn()
	RecordStep(job, step, err, time.Since(start))
	return err
}

// RecordRows increments the record counter for kind. Non-positive deltas are
// ignored.
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments the bulk-copy batch counter.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

// RecordOutput counts rows written to one projection.
func RecordOutput(job, projection string, rows int) {
	if rows <= 0 {
		return
	}
	backend.IncCounter(OutputRowsTotal, float64(rows), Labels{
		"job":        job,
		"projection": projection,
	})
}
