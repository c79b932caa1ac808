// Package status provides a thread-safe status tracker for the capture-rig
// daemon. The run loop writes it once per tick; HTTP handlers and system
// event payload builders read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/capture-rig/internal/sim"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs       int64
	HeartbeatMs  int64
	Broker       string
	ControlTopic string
	HTTPAddr     string
	RelayEnabled bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
// The History slice is replaced wholesale on update, never mutated in place.
type Snapshot struct {
	Telemetry     sim.Telemetry
	Params        sim.Parameters
	Running       bool
	History       []sim.HistoryPoint
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, initial
// parameters, and config.
func NewTracker(startTime time.Time, params sim.Parameters, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Telemetry: sim.Telemetry{CurrentPPM: params.InitialPPM},
			Params:    params,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets telemetry, parameters, and run state.
// Called from the run loop on every tick and state transition.
func (t *Tracker) Update(telem sim.Telemetry, params sim.Parameters, running bool) {
	t.mu.Lock()
	t.snap.Telemetry = telem
	t.snap.Params = params
	t.snap.Running = running
	t.mu.Unlock()
}

// SetHistory replaces the trend points. The caller must hand over a slice
// it will not mutate afterwards (Engine.History returns a fresh copy).
func (t *Tracker) SetHistory(points []sim.HistoryPoint) {
	t.mu.Lock()
	t.snap.History = points
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
