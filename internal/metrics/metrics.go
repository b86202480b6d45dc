// Package metrics exposes regime evaluations as Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"RegimeWatch/internal/model"
)

// Metrics holds the regime gauges and run counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	State           *prometheus.GaugeVec
	Severity        prometheus.Gauge
	WeeksInState    prometheus.Gauge
	AlertsTriggered *prometheus.GaugeVec
	LastEvaluation  prometheus.Gauge

	Runs        *prometheus.CounterVec
	Escalations prometheus.Counter
}

// New creates and registers all RegimeWatch metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		State: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regimewatch_state",
				Help: "Current regime, 1 for the active state and 0 otherwise",
			},
			[]string{"state"},
		),
		Severity: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "regimewatch_severity",
				Help: "Severity of the current regime (0-3)",
			},
		),
		WeeksInState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "regimewatch_weeks_in_state",
				Help: "Consecutive weeks in the current regime, including this one",
			},
		),
		AlertsTriggered: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regimewatch_alerts_triggered",
				Help: "Triggered alerts per rule group in the latest evaluation",
			},
			[]string{"group"},
		),
		LastEvaluation: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "regimewatch_last_evaluation_timestamp_seconds",
				Help: "Unix time of the latest successful evaluation",
			},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimewatch_runs_total",
				Help: "Evaluation runs by result",
			},
			[]string{"result"},
		),
		Escalations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "regimewatch_escalations_total",
				Help: "Evaluations that raised an escalation",
			},
		),
	}

	m.registry.MustRegister(
		m.State,
		m.Severity,
		m.WeeksInState,
		m.AlertsTriggered,
		m.LastEvaluation,
		m.Runs,
		m.Escalations,
	)
	return m
}

// ObserveEvaluation updates the gauges from a successful run.
func (m *Metrics) ObserveEvaluation(snap *model.Snapshot) {
	for _, s := range model.States {
		v := 0.0
		if s == snap.State {
			v = 1
		}
		m.State.WithLabelValues(string(s)).Set(v)
	}
	m.Severity.Set(float64(snap.Severity))
	m.WeeksInState.Set(float64(snap.WeeksInState))
	m.AlertsTriggered.WithLabelValues("downturn").Set(float64(snap.DownturnAlertCount))
	m.AlertsTriggered.WithLabelValues("recovery").Set(float64(snap.RecoveryAlertCount))
	m.LastEvaluation.Set(float64(time.Now().Unix()))
	m.Runs.WithLabelValues("success").Inc()
	if snap.Escalation.Notify {
		m.Escalations.Inc()
	}
}

// RunFailed counts an evaluation that aborted.
func (m *Metrics) RunFailed() {
	m.Runs.WithLabelValues("error").Inc()
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
