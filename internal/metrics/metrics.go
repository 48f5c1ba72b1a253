package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"paramsheet/internal"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Recorder holds the conversion counters on a private registry so that
// repeated runs in one process (and tests) never collide on registration.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	records   *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	runs      *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paramsheet_records_total",
			Help: "Canonical records written after flattening.",
		}, []string{"dialect"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paramsheet_skipped_total",
			Help: "Raw records skipped as noise.",
		}, []string{"dialect"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paramsheet_type_fallbacks_total",
			Help: "Type tokens that defaulted to SIGNED32.",
		}, []string{"dialect"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paramsheet_runs_total",
			Help: "Conversion runs by outcome.",
		}, []string{"dialect", "status"}),
	}
	r.registry.MustRegister(r.records, r.skipped, r.fallbacks, r.runs)
	return r
}

func (r *Recorder) ObserveRun(s internal.RunSummary) {
	if r == nil {
		return
	}
	d := string(s.Dialect)
	r.records.WithLabelValues(d).Add(float64(s.Output))
	r.skipped.WithLabelValues(d).Add(float64(s.Skipped))
	r.fallbacks.WithLabelValues(d).Add(float64(s.FallbackCount()))
	r.runs.WithLabelValues(d, StatusOK).Inc()
}

func (r *Recorder) ObserveFailure(d internal.Dialect) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(string(d), StatusFailed).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
