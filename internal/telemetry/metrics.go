// Package telemetry records pipeline metrics on a private Prometheus
// registry. Batch runs write them to a node-exporter textfile; long runs
// can also serve them over HTTP.
package telemetry

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fraudflow"

// Metrics implements pipeline.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	StepDuration *prometheus.HistogramVec
	StepFailures *prometheus.CounterVec
	DatasetRows  *prometheus.GaugeVec
	ModelScore   *prometheus.GaugeVec
}

// New registers the pipeline metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of each pipeline step.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"step"}),
		StepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Pipeline steps that returned an error.",
		}, []string{"step"}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the working dataset after each step.",
		}, []string{"step"}),
		ModelScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_score",
			Help:      "Evaluation metrics of the last trained model.",
		}, []string{"metric"}),
	}
	m.registry.MustRegister(m.StepDuration, m.StepFailures, m.DatasetRows, m.ModelScore)
	return m
}

// Registry returns the registry holding the pipeline metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveStep records the duration of a step and counts it as failed when
// err is non-nil.
func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	m.StepDuration.WithLabelValues(step).Observe(d.Seconds())
	if err != nil {
		m.StepFailures.WithLabelValues(step).Inc()
	}
}

// SetRows records the dataset size after step.
func (m *Metrics) SetRows(step string, rows int) {
	m.DatasetRows.WithLabelValues(step).Set(float64(rows))
}

// SetScores records evaluation metrics by name.
func (m *Metrics) SetScores(scores map[string]float64) {
	for name, v := range scores {
		m.ModelScore.WithLabelValues(name).Set(v)
	}
}

// WriteTextfile writes the metrics in text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}

// Serve exposes the metrics on addr at /metrics until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() { _ = srv.Serve(ln) }()
	return nil
}
