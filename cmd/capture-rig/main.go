// Command capture-rig simulates a closed-loop direct-air-capture enclosure
// and publishes telemetry to MQTT. Start/stop/reset and parameter changes
// arrive on an MQTT control topic; an HTTP server exposes the status page,
// trend history, and Prometheus metrics. On bench hardware the daemon can
// mirror the run state onto a fan relay GPIO.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/capture-rig/internal/monitoring"
	"github.com/sweeney/capture-rig/internal/mqtt"
	"github.com/sweeney/capture-rig/internal/physics"
	"github.com/sweeney/capture-rig/internal/relay"
	"github.com/sweeney/capture-rig/internal/sim"
	"github.com/sweeney/capture-rig/internal/status"
	"github.com/sweeney/capture-rig/internal/web"
)

func main() {
	tick := flag.Duration("tick", time.Second, "Wall-clock interval per simulated second")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	relayPin := flag.Int("relay-pin", 0, "BCM pin driving the fan relay (0 to disable)")
	envFile := flag.String("env-file", "", "Optional .env file with defaults")
	autostart := flag.Bool("autostart", true, "Begin the run immediately")
	printFactor := flag.Bool("print-factor", false, "Print the yield factor for the configured enclosure and exit")

	volume := flag.Float64("volume", 0.15, "Enclosure volume (m³)")
	flow := flag.Float64("flow", 20, "Fan flow rate (L/min)")
	efficiency := flag.Float64("efficiency", 0.85, "Capture efficiency (0..1)")
	initialPPM := flag.Float64("initial-ppm", 420, "Initial CO₂ concentration (ppm)")
	temperature := flag.Float64("temp", 22, "Enclosure temperature (°C)")

	flag.Parse()

	params := sim.Parameters{
		EnclosureVolumeM3:  *volume,
		FanFlowRateLPM:     *flow,
		CaptureEfficiency:  *efficiency,
		InitialPPM:         *initialPPM,
		TemperatureCelsius: *temperature,
	}

	if err := run(*tick, *broker, *heartbeat, *httpAddr, *relayPin, *envFile, *autostart, *printFactor, params); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(tick time.Duration, broker string, heartbeat time.Duration, httpAddr string, relayPin int, envFile string, autostart, printFactor bool, params sim.Parameters) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	// Reject bad parameters at the boundary; the engine re-checks on every
	// tick in case the control topic lets something through later.
	if err := params.Validate(); err != nil {
		return err
	}

	// Print factor mode
	if printFactor {
		factor, err := physics.YieldFactorMgPerPpm(params.EnclosureVolumeM3, params.TemperatureCelsius+physics.KelvinOffset)
		if err != nil {
			return err
		}
		fmt.Printf("%.4f mg Na₂CO₃ per ppm CO₂ (V=%g m³, T=%g °C)\n", factor, params.EnclosureVolumeM3, params.TemperatureCelsius)
		return nil
	}

	// Initialize the fan relay
	var fan relay.Driver
	if relayPin > 0 {
		d, err := relay.NewRealDriver(relayPin)
		if err != nil {
			return fmt.Errorf("init relay: %w", err)
		}
		defer d.Close()
		fan = d
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker, "capture-rig")
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	engine := sim.NewEngine(params)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), params, status.Config{
		TickMs:       tick.Milliseconds(),
		HeartbeatMs:  heartbeat.Milliseconds(),
		Broker:       broker,
		ControlTopic: mqtt.TopicControl,
		HTTPAddr:     httpAddr,
		RelayEnabled: relayPin > 0,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	if autostart {
		engine.Start()
		setFan(fan, true)
	}

	log.Printf("started: tick=%v broker=%s heartbeat=%v running=%v", tick, broker, heartbeat, engine.Running())

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(engine, fan, publisher, publisher, tracker, heartbeat, time.Now, ticker.C, publisher.Commands(), sigCh)
}

// runLoop is the single writer of the engine: ticks, control commands, and
// shutdown are serialized through one select so no reader ever observes a
// half-applied state.
func runLoop(engine *sim.Engine, fan relay.Driver, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, commands <-chan mqtt.Command, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	syncTracker := func() {
		tracker.Update(engine.Telemetry(), engine.Parameters(), engine.Running())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		monitoring.SetRunning(engine.Running())
	}
	syncTracker()
	monitoring.SetTelemetry(engine.Telemetry())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			setFan(fan, false)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				syncTracker()
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cmd := <-commands:
			applyCommand(engine, fan, publisher, tracker, cmd, now())
			syncTracker()

		case <-tick:
			if !engine.Running() {
				// Idle: the scheduling source is suppressed, not the clock.
				continue
			}
			t := now()

			telem, err := engine.Tick()
			if err != nil {
				log.Printf("tick error: %v", err)
				monitoring.TickErrorsTotal.Inc()
				continue
			}

			hist := engine.History()
			tracker.SetHistory(hist)
			monitoring.ObserveTick(telem, len(hist))
			syncTracker()

			err = publisher.PublishTelemetry(mqtt.TelemetrySample{Timestamp: t, Telemetry: telem})
			monitoring.RecordPublish(mqtt.TopicTelemetry, err)
			if err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				log.Printf("heartbeat: sim_time=%s ppm=%.2f yield_mg=%.2f",
					sim.FormatElapsed(telem.TimeElapsedSeconds), telem.CurrentPPM, telem.CumulativeYieldMg)

				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				hbEvent := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func applyCommand(engine *sim.Engine, fan relay.Driver, publisher mqtt.Publisher, tracker *status.Tracker, cmd mqtt.Command, t time.Time) {
	monitoring.ControlCommandsTotal.WithLabelValues(cmd.Name).Inc()

	switch cmd.Name {
	case mqtt.CommandStart:
		if !engine.Start() {
			return
		}
		setFan(fan, true)
		publishRunEvent(publisher, "RUN_STARTED", t)

	case mqtt.CommandStop:
		if !engine.Stop() {
			return
		}
		setFan(fan, false)
		publishRunEvent(publisher, "RUN_STOPPED", t)

	case mqtt.CommandReset:
		engine.Reset()
		setFan(fan, false)
		tracker.SetHistory(nil)
		monitoring.SetTelemetry(engine.Telemetry())
		monitoring.HistoryPoints.Set(0)
		publishRunEvent(publisher, "RESET", t)

	case mqtt.CommandSetParams:
		patched, err := cmd.ApplyParams(engine.Parameters())
		if err != nil {
			log.Printf("rejected parameter update: %v", err)
			return
		}
		engine.SetParameters(patched)
		log.Printf("parameters updated: volume=%g flow=%g efficiency=%g initial_ppm=%g temp=%g",
			patched.EnclosureVolumeM3, patched.FanFlowRateLPM, patched.CaptureEfficiency,
			patched.InitialPPM, patched.TemperatureCelsius)
	}
}

func publishRunEvent(publisher mqtt.Publisher, event string, t time.Time) {
	log.Printf("event: %s", event)
	if err := publisher.PublishSystem(mqtt.SystemEvent{Timestamp: t, Event: event}); err != nil {
		log.Printf("publish %s: %v", event, err)
	}
}

// setFan switches the fan relay when one is configured.
func setFan(fan relay.Driver, on bool) {
	if fan == nil {
		return
	}
	if err := fan.Set(on); err != nil {
		log.Printf("relay: %v", err)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
