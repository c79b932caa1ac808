package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/capture-rig/internal/sim"
)

func TestFormatTelemetryPayload(t *testing.T) {
	sample := TelemetrySample{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Telemetry: sim.Telemetry{
			TimeElapsedSeconds:       75,
			CurrentPPM:               402.35,
			CumulativeYieldMg:        11.62,
			CumulativeCO2CapturedPPM: 17.65,
		},
	}

	payload, err := FormatTelemetryPayload(sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Rig.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Rig.Timestamp)
	}
	if parsed.Rig.SimTime != "01:15" {
		t.Errorf("unexpected sim time: %s", parsed.Rig.SimTime)
	}
	if parsed.Rig.SimTimeSeconds != 75 {
		t.Errorf("unexpected sim seconds: %d", parsed.Rig.SimTimeSeconds)
	}
	if parsed.Rig.PPM != 402.35 {
		t.Errorf("unexpected ppm: %v", parsed.Rig.PPM)
	}
	if parsed.Rig.YieldMg != 11.62 {
		t.Errorf("unexpected yield: %v", parsed.Rig.YieldMg)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{"start", `{"command":"start"}`, CommandStart, false},
		{"stop", `{"command":"stop"}`, CommandStop, false},
		{"reset", `{"command":"reset"}`, CommandReset, false},
		{"set params", `{"command":"set_params","params":{"fan_flow_rate_lpm":30}}`, CommandSetParams, false},
		{"set params without patch", `{"command":"set_params"}`, "", true},
		{"unknown", `{"command":"explode"}`, "", true},
		{"missing command", `{"params":{}}`, "", true},
		{"garbage", `not json`, "", true},
	}

	for _, tc := range cases {
		cmd, err := ParseCommand([]byte(tc.payload))
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %+v", tc.name, cmd)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if cmd.Name != tc.want {
			t.Errorf("%s: got command %q, want %q", tc.name, cmd.Name, tc.want)
		}
	}
}

func TestApplyParamsPartialPatch(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"command":"set_params","params":{"fan_flow_rate_lpm":45,"capture_efficiency":0.6}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	current := sim.DefaultParameters()
	patched, err := cmd.ApplyParams(current)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if patched.FanFlowRateLPM != 45 {
		t.Errorf("FanFlowRateLPM: got %v, want 45", patched.FanFlowRateLPM)
	}
	if patched.CaptureEfficiency != 0.6 {
		t.Errorf("CaptureEfficiency: got %v, want 0.6", patched.CaptureEfficiency)
	}
	// Untouched fields keep their values.
	if patched.EnclosureVolumeM3 != current.EnclosureVolumeM3 {
		t.Errorf("EnclosureVolumeM3 changed: %v", patched.EnclosureVolumeM3)
	}
	if patched.InitialPPM != current.InitialPPM {
		t.Errorf("InitialPPM changed: %v", patched.InitialPPM)
	}
}

func TestApplyParamsRejectsInvalidPatch(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"command":"set_params","params":{"enclosure_volume_m3":-1}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	current := sim.DefaultParameters()
	got, err := cmd.ApplyParams(current)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got != current {
		t.Errorf("invalid patch leaked through: %+v", got)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	sample := TelemetrySample{Timestamp: time.Now(), Telemetry: sim.Telemetry{CurrentPPM: 400}}
	if err := f.PublishTelemetry(sample); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Samples) != 1 || len(f.Payloads) != 1 {
		t.Errorf("telemetry not recorded: %d samples, %d payloads", len(f.Samples), len(f.Payloads))
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("system event not recorded: %+v", f.SystemEvents)
	}

	f.Reset()
	if len(f.Samples) != 0 || len(f.SystemEvents) != 0 {
		t.Error("Reset did not clear recorded messages")
	}
}
