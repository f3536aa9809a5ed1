package backupq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt results used as the "result" label of backupq_upload_attempts_total.
const (
	resultSuccess  = "success"
	resultRetry    = "retry"
	resultTerminal = "terminal"
)

// Every collector carries the queue namespace so several queues can share a process.
var (
	queueLengthVec = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backupq_queue_length",
			Help: "Number of uploads waiting in the retry queue",
		},
		[]string{"namespace"},
	)

	onlineGaugeVec = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backupq_online",
			Help: "1 when the queue considers the host online, 0 otherwise",
		},
		[]string{"namespace"},
	)

	uploadAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backupq_upload_attempts_total",
			Help: "Upload attempts by result (success, retry, terminal)",
		},
		[]string{"namespace", "result"},
	)

	uploadDurationVec = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backupq_upload_duration_seconds",
			Help:    "Duration of single upload attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"namespace"},
	)

	persistErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backupq_persist_errors_total",
			Help: "Failed loads and saves against the backing store",
		},
		[]string{"namespace"},
	)
)

// queueMetrics are the collectors bound to one namespace.
type queueMetrics struct {
	queueLength    prometheus.Gauge
	online         prometheus.Gauge
	attempts       *prometheus.CounterVec
	uploadDuration prometheus.Observer
	persistErrors  prometheus.Counter
}

func newQueueMetrics(ns string) queueMetrics {
	l := prometheus.Labels{"namespace": ns}
	return queueMetrics{
		queueLength:    queueLengthVec.With(l),
		online:         onlineGaugeVec.With(l),
		attempts:       uploadAttemptsTotal.MustCurryWith(l),
		uploadDuration: uploadDurationVec.With(l),
		persistErrors:  persistErrorsTotal.With(l),
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
