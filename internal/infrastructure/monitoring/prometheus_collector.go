package monitoring

import (
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ ports.MetricsRecorder = (*PrometheusCollector)(nil)

type PrometheusCollector struct {
	// Counters
	connectionsActive  prometheus.Gauge
	registrationsTotal prometheus.Counter
	deregistrations    prometheus.Counter

	// Broadcast metrics
	broadcastsTotal    *prometheus.CounterVec
	deliveriesTotal    prometheus.Counter
	deliveryFailures   prometheus.Counter

	// Access control
	authDecisionsTotal *prometheus.CounterVec

	// Pipeline
	messagesProcessed  *prometheus.CounterVec
	analysisDuration   prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "chatpulse_connections_active",
			Help: "Number of currently open WebSocket connections",
		}),

		registrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_registrations_total",
			Help: "Total number of connection registrations",
		}),

		deregistrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_deregistrations_total",
			Help: "Total number of connection deregistrations",
		}),

		broadcastsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatpulse_broadcasts_total",
			Help: "Total number of broadcast attempts by outcome",
		}, []string{"outcome"}),

		deliveriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_deliveries_total",
			Help: "Total number of per-connection payload deliveries",
		}),

		deliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatpulse_delivery_failures_total",
			Help: "Total number of failed per-connection deliveries",
		}),

		authDecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatpulse_auth_decisions_total",
			Help: "Total number of authorization decisions by role and decision",
		}, []string{"role", "decision"}),

		messagesProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatpulse_messages_processed_total",
			Help: "Total number of chat messages run through the pipeline by outcome",
		}, []string{"outcome"}),

		analysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatpulse_analysis_duration_seconds",
			Help:    "Duration of sentiment analysis calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
	}
}

func (p *PrometheusCollector) RecordConnectionOpened() {
	p.connectionsActive.Inc()
}

func (p *PrometheusCollector) RecordConnectionClosed() {
	p.connectionsActive.Dec()
	p.deregistrations.Inc()
}

func (p *PrometheusCollector) RecordRegistration() {
	p.registrationsTotal.Inc()
}

func (p *PrometheusCollector) RecordBroadcast(delivered, failed int) {
	outcome := "complete"
	switch {
	case delivered == 0 && failed == 0:
		outcome = "no_connections"
	case failed > 0:
		outcome = "partial"
	}
	p.broadcastsTotal.WithLabelValues(outcome).Inc()
	p.deliveriesTotal.Add(float64(delivered))
	p.deliveryFailures.Add(float64(failed))
}

func (p *PrometheusCollector) RecordAuthDecision(role domain.Role, policy domain.Policy) {
	label := string(role)
	if label == "" {
		label = "unknown"
	}
	p.authDecisionsTotal.WithLabelValues(label, string(policy.Decision)).Inc()
}

func (p *PrometheusCollector) RecordMessageProcessed(err error) {
	if err != nil {
		p.messagesProcessed.WithLabelValues("error").Inc()
		return
	}
	p.messagesProcessed.WithLabelValues("ok").Inc()
}

func (p *PrometheusCollector) RecordAnalysisDuration(duration time.Duration) {
	p.analysisDuration.Observe(duration.Seconds())
}
