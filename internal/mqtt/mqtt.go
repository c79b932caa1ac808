// Package mqtt provides MQTT publishing and control for the capture rig,
// with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/capture-rig/internal/sim"
)

// TopicTelemetry is the MQTT topic for per-tick telemetry samples.
const TopicTelemetry = "air/capture/rig/telemetry"

// TopicSystem is the MQTT topic for system lifecycle and run events.
const TopicSystem = "air/capture/rig/system"

// TopicControl is the MQTT topic the rig listens on for commands.
const TopicControl = "air/capture/rig/control"

// Publisher publishes rig output to MQTT.
type Publisher interface {
	// PublishTelemetry sends a telemetry sample to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishTelemetry(sample TelemetrySample) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// TelemetrySample pairs a telemetry snapshot with the wall-clock time it
// was taken.
type TelemetrySample struct {
	Timestamp time.Time
	Telemetry sim.Telemetry
}

// SystemEvent represents a system lifecycle or run event
// (e.g., startup, shutdown, heartbeat, run started).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "RUN_STARTED"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the telemetry message payload structure.
type Payload struct {
	Rig RigPayload `json:"rig"`
}

// RigPayload contains the telemetry sample details.
type RigPayload struct {
	Timestamp      string  `json:"timestamp"`
	SimTime        string  `json:"sim_time"`
	SimTimeSeconds int     `json:"sim_time_seconds"`
	PPM            float64 `json:"ppm"`
	YieldMg        float64 `json:"yield_mg"`
	CapturedPPM    float64 `json:"captured_ppm"`
}

// FormatTelemetryPayload creates the JSON payload for a telemetry sample.
func FormatTelemetryPayload(sample TelemetrySample) ([]byte, error) {
	payload := Payload{
		Rig: RigPayload{
			Timestamp:      sample.Timestamp.UTC().Format(time.RFC3339),
			SimTime:        sim.FormatElapsed(sample.Telemetry.TimeElapsedSeconds),
			SimTimeSeconds: sample.Telemetry.TimeElapsedSeconds,
			PPM:            sample.Telemetry.CurrentPPM,
			YieldMg:        sample.Telemetry.CumulativeYieldMg,
			CapturedPPM:    sample.Telemetry.CumulativeCO2CapturedPPM,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Command names accepted on the control topic.
const (
	CommandStart     = "start"
	CommandStop      = "stop"
	CommandReset     = "reset"
	CommandSetParams = "set_params"
)

// Command is a decoded control message.
type Command struct {
	// Name is one of the Command* constants.
	Name string `json:"command"`

	// Params carries the parameter patch for set_params. Absent fields
	// keep their current values, so a partial update is just a sparse
	// JSON object.
	Params json.RawMessage `json:"params,omitempty"`
}

// ParseCommand decodes and validates a control message.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode control message: %w", err)
	}

	switch cmd.Name {
	case CommandStart, CommandStop, CommandReset:
		return cmd, nil
	case CommandSetParams:
		if len(cmd.Params) == 0 {
			return Command{}, fmt.Errorf("set_params without params")
		}
		return cmd, nil
	case "":
		return Command{}, fmt.Errorf("control message without command")
	default:
		return Command{}, fmt.Errorf("unknown command %q", cmd.Name)
	}
}

// ApplyParams overlays a set_params patch onto the given parameters.
// Fields absent from the patch keep their current values. The patched
// result is validated before being returned.
func (c Command) ApplyParams(current sim.Parameters) (sim.Parameters, error) {
	patched := current
	if err := json.Unmarshal(c.Params, &patched); err != nil {
		return current, fmt.Errorf("decode params patch: %w", err)
	}
	if err := patched.Validate(); err != nil {
		return current, err
	}
	return patched, nil
}
