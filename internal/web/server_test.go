package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/capture-rig/internal/sim"
	"github.com/sweeney/capture-rig/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		TickMs:       1000,
		HeartbeatMs:  900000,
		Broker:       "tcp://192.168.1.200:1883",
		ControlTopic: "air/capture/rig/control",
		HTTPAddr:     ":8080",
	}
	tr := status.NewTracker(start, sim.DefaultParameters(), cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(sim.Telemetry{
		TimeElapsedSeconds:       30,
		CurrentPPM:               413.2,
		CumulativeYieldMg:        4.4,
		CumulativeCO2CapturedPPM: 6.8,
	}, sim.DefaultParameters(), true)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if !sj.Status.Running {
		t.Error("expected running=true")
	}
	if sj.Status.PPM != 413.2 {
		t.Errorf("ppm: got %v, want 413.2", sj.Status.PPM)
	}
	if sj.Status.SimTime != "00:30" {
		t.Errorf("sim_time: got %q, want 00:30", sj.Status.SimTime)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected mqtt.connected=true")
	}
}

func TestHistoryEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetHistory([]sim.HistoryPoint{
		{Label: "00:01", PPM: 419.21, YieldMg: 0.52},
		{Label: "00:02", PPM: 418.41, YieldMg: 1.04},
	})

	resp, err := http.Get(ts.URL + "/history.json")
	if err != nil {
		t.Fatalf("GET /history.json: %v", err)
	}
	defer resp.Body.Close()

	var hj HistoryJSON
	if err := json.NewDecoder(resp.Body).Decode(&hj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if len(hj.History) != 2 {
		t.Fatalf("history: got %d points, want 2", len(hj.History))
	}
	if hj.History[0].Label != "00:01" || hj.History[0].PPM != 419.21 {
		t.Errorf("first point: got %+v", hj.History[0])
	}
}

func TestHistoryEndpointEmpty(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/history.json")
	if err != nil {
		t.Fatalf("GET /history.json: %v", err)
	}
	defer resp.Body.Close()

	var hj HistoryJSON
	if err := json.NewDecoder(resp.Body).Decode(&hj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if hj.History == nil || len(hj.History) != 0 {
		t.Errorf("expected empty array, got %+v", hj.History)
	}
}

func TestIndexPage(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(sim.Telemetry{CurrentPPM: 420}, sim.DefaultParameters(), false)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	buf := make([]byte, 64*1024)
	n, _ := resp.Body.Read(buf)
	body := string(buf[:n])

	if !strings.Contains(body, "Capture Rig") {
		t.Error("page missing title")
	}
	if !strings.Contains(body, "IDLE") {
		t.Error("page missing run state")
	}
	if !strings.Contains(body, "420.00 ppm") {
		t.Error("page missing concentration")
	}
}

func TestIndexNotFoundForOtherPaths(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}
