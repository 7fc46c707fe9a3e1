package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the verification core.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted *prometheus.CounterVec
	SignalsProcessed  *prometheus.CounterVec
	MethodsRecorded   *prometheus.CounterVec
	ActivityRetries   prometheus.Counter
	DecayIterations   prometheus.Counter
	LiveSessions      prometheus.Gauge
}

// New creates and registers all verification metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_verification_sessions_started_total",
			Help: "Total number of verification sessions started",
		}),
		SessionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_verification_sessions_finished_total",
			Help: "Total number of verification sessions finished, by terminal status",
		}, []string{"status"}),
		SignalsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_verification_signals_total",
			Help: "Total number of signals accepted by session event loops",
		}, []string{"kind"}),
		MethodsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_verification_methods_recorded_total",
			Help: "Total number of method records committed, by method type",
		}, []string{"method"}),
		ActivityRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_verification_activity_retries_total",
			Help: "Total number of activity call retries across coordinators",
		}),
		DecayIterations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_reputation_decay_iterations_total",
			Help: "Total number of reputation decay iterations applied",
		}),
		LiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vouch_verification_live_sessions",
			Help: "Current number of live session event loops",
		}),
	}
}

func (m *Metrics) IncrementSessionsStarted() {
	m.SessionsStarted.Inc()
}

func (m *Metrics) IncrementSessionsFinished(status string) {
	m.SessionsCompleted.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementSignals(kind string) {
	m.SignalsProcessed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementMethodsRecorded(method string) {
	m.MethodsRecorded.WithLabelValues(method).Inc()
}
