// Package monitoring exposes Prometheus metrics for the capture-rig daemon.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/capture-rig/internal/sim"
)

var (
	// Tick metrics
	TicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capture_rig_ticks_total",
			Help: "Total number of simulation ticks applied",
		},
	)

	TickErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capture_rig_tick_errors_total",
			Help: "Total number of ticks rejected for invalid configuration",
		},
	)

	// Simulation state gauges
	CurrentPPM = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "capture_rig_co2_ppm",
			Help: "Current enclosure CO2 concentration in ppm",
		},
	)

	CumulativeYieldMg = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "capture_rig_yield_mg",
			Help: "Cumulative Na2CO3 yield in milligrams",
		},
	)

	CumulativeCapturedPPM = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "capture_rig_captured_ppm",
			Help: "Cumulative ppm-equivalent of CO2 removed",
		},
	)

	SimTimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "capture_rig_sim_time_seconds",
			Help: "Simulated seconds elapsed since the last reset",
		},
	)

	RunState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "capture_rig_running",
			Help: "1 while the engine is Running, 0 while Idle",
		},
	)

	HistoryPoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "capture_rig_history_points",
			Help: "Number of trend samples currently retained",
		},
	)

	// MQTT metrics
	MQTTPublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_rig_mqtt_publishes_total",
			Help: "Total number of MQTT publish attempts",
		},
		[]string{"topic", "status"},
	)

	ControlCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_rig_control_commands_total",
			Help: "Total number of control commands received",
		},
		[]string{"command"},
	)
)

// ObserveTick updates the tick counter and state gauges from fresh telemetry.
func ObserveTick(telem sim.Telemetry, historyLen int) {
	TicksTotal.Inc()
	SetTelemetry(telem)
	HistoryPoints.Set(float64(historyLen))
}

// SetTelemetry updates the state gauges without counting a tick
// (used after reset).
func SetTelemetry(telem sim.Telemetry) {
	CurrentPPM.Set(telem.CurrentPPM)
	CumulativeYieldMg.Set(telem.CumulativeYieldMg)
	CumulativeCapturedPPM.Set(telem.CumulativeCO2CapturedPPM)
	SimTimeSeconds.Set(float64(telem.TimeElapsedSeconds))
}

// SetRunning mirrors the engine state machine onto the run-state gauge.
func SetRunning(running bool) {
	if running {
		RunState.Set(1)
	} else {
		RunState.Set(0)
	}
}

// RecordPublish counts an MQTT publish attempt.
func RecordPublish(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	MQTTPublishesTotal.WithLabelValues(topic, status).Inc()
}
