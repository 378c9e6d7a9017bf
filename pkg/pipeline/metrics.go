package pipeline

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics of a run, kept in their own registry so they can be dumped for
// the node_exporter textfile collector once the process is done.
type Metrics struct {
	Registry *prometheus.Registry

	recordsWritten prometheus.Gauge
	payloadBytes   prometheus.Gauge
	duration       prometheus.Gauge
	success        prometheus.Gauge
	lastSuccess    prometheus.Gauge
	failures       *prometheus.CounterVec
}

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		recordsWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wwtpgen_records_written",
			Help: "Rows appended to the destination by the last run.",
		}),
		payloadBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wwtpgen_payload_bytes",
			Help: "Approximate size of the series written by the last run.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wwtpgen_last_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wwtpgen_last_run_success",
			Help: "1 if the last run wrote its series, 0 otherwise.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wwtpgen_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wwtpgen_failures_total",
			Help: "Failed runs by kind.",
		}, []string{"kind"}),
	}

	m.Registry.MustRegister(
		m.recordsWritten,
		m.payloadBytes,
		m.duration,
		m.success,
		m.lastSuccess,
		m.failures,
	)

	// both kinds show up as 0 before the first failure
	m.failures.WithLabelValues(KindProcessing.String())
	m.failures.WithLabelValues(KindDelivery.String())

	return m
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return errors.Wrap(prometheus.WriteToTextfile(path, m.Registry), "prometheus.WriteToTextfile")
}

func (m *Metrics) observeSuccess(res Result) {
	m.recordsWritten.Set(float64(res.Records))
	m.payloadBytes.Set(float64(res.Bytes))
	m.duration.Set(res.Elapsed.Seconds())
	m.success.Set(1)
	m.lastSuccess.SetToCurrentTime()
}

func (m *Metrics) observeFailure(kind Kind, res Result) {
	m.duration.Set(res.Elapsed.Seconds())
	m.success.Set(0)
	m.failures.WithLabelValues(kind.String()).Inc()
}
