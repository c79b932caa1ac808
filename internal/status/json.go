package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/capture-rig/internal/sim"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string       `json:"event,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	Running        bool         `json:"running"`
	SimTimeSeconds int          `json:"sim_time_seconds"`
	SimTime        string       `json:"sim_time"`
	PPM            float64      `json:"ppm"`
	YieldMg        float64      `json:"yield_mg"`
	CapturedPPM    float64      `json:"captured_ppm"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	StartTime      string       `json:"start_time"`
	Timestamp      string       `json:"timestamp"`
	MQTT           MQTTStatus   `json:"mqtt"`
	Params         ParamsJSON   `json:"params"`
	Network        *NetworkJSON `json:"network,omitempty"`
	Config         ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ParamsJSON is the JSON representation of the simulation parameters.
type ParamsJSON struct {
	EnclosureVolumeM3  float64 `json:"enclosure_volume_m3"`
	FanFlowRateLPM     float64 `json:"fan_flow_rate_lpm"`
	CaptureEfficiency  float64 `json:"capture_efficiency"`
	InitialPPM         float64 `json:"initial_ppm"`
	TemperatureCelsius float64 `json:"temperature_celsius"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs       int64  `json:"tick_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Broker       string `json:"broker"`
	ControlTopic string `json:"control_topic"`
	HTTPAddr     string `json:"http_addr"`
	RelayEnabled bool   `json:"relay_enabled"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Running:        snap.Running,
		SimTimeSeconds: snap.Telemetry.TimeElapsedSeconds,
		SimTime:        sim.FormatElapsed(snap.Telemetry.TimeElapsedSeconds),
		PPM:            snap.Telemetry.CurrentPPM,
		YieldMg:        snap.Telemetry.CumulativeYieldMg,
		CapturedPPM:    snap.Telemetry.CumulativeCO2CapturedPPM,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Params: ParamsJSON{
			EnclosureVolumeM3:  snap.Params.EnclosureVolumeM3,
			FanFlowRateLPM:     snap.Params.FanFlowRateLPM,
			CaptureEfficiency:  snap.Params.CaptureEfficiency,
			InitialPPM:         snap.Params.InitialPPM,
			TemperatureCelsius: snap.Params.TemperatureCelsius,
		},
		Config: ConfigJSON{
			TickMs:       snap.Config.TickMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			ControlTopic: snap.Config.ControlTopic,
			HTTPAddr:     snap.Config.HTTPAddr,
			RelayEnabled: snap.Config.RelayEnabled,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
