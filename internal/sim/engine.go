package sim

import (
	"fmt"
	"math"

	"github.com/sweeney/capture-rig/internal/physics"
)

// Engine owns the mutable simulation state and advances it one tick at a
// time. It is a single-writer object: the owner must serialize Tick, Reset,
// and parameter updates with each other and with reads.
//
// The Running flag only gates the owner's scheduling decision — Tick itself
// does not consult it.
type Engine struct {
	params  Parameters
	telem   Telemetry
	history *History
	running bool
}

// NewEngine creates an Idle engine with Telemetry initialized from the
// given parameters (concentration at InitialPPM, accumulators at zero).
func NewEngine(params Parameters) *Engine {
	return &Engine{
		params:  params,
		telem:   Telemetry{CurrentPPM: params.InitialPPM},
		history: NewHistory(DefaultHistoryCapacity),
	}
}

// Start moves the engine to Running. Returns false if already Running.
func (e *Engine) Start() bool {
	if e.running {
		return false
	}
	e.running = true
	return true
}

// Stop moves the engine to Idle without touching Telemetry.
// Returns false if already Idle.
func (e *Engine) Stop() bool {
	if !e.running {
		return false
	}
	e.running = false
	return true
}

// Reset moves the engine to Idle, reinitializes Telemetry from the current
// parameters, and clears the history.
func (e *Engine) Reset() {
	e.running = false
	e.telem = Telemetry{CurrentPPM: e.params.InitialPPM}
	e.history.Clear()
}

// Running reports whether the engine is in the Running state.
func (e *Engine) Running() bool {
	return e.running
}

// Parameters returns the current configuration.
func (e *Engine) Parameters() Parameters {
	return e.params
}

// SetParameters replaces the configuration. The change takes effect on the
// next Tick; Telemetry and history are left alone.
func (e *Engine) SetParameters(params Parameters) {
	e.params = params
}

// Telemetry returns the current state snapshot.
func (e *Engine) Telemetry() Telemetry {
	return e.telem
}

// History returns the retained trend samples in chronological order.
func (e *Engine) History() []HistoryPoint {
	return e.history.Points()
}

// Tick advances the simulation by one second and returns the new Telemetry.
//
// The enclosure is modeled as a well-mixed constant-volume reservoir: each
// second the fan pushes captureEfficiency × flowRate worth of air through
// the medium, so the concentration decays geometrically by that fraction of
// the enclosure volume. The processed fraction is deliberately not clamped
// to [0, 1]; only the resulting concentration is clamped at zero, matching
// the rig's original behavior under extreme flow/volume combinations.
//
// On invalid parameters Tick returns ErrInvalidConfiguration (wrapped) and
// leaves Telemetry untouched. The new state is committed as a whole — no
// partially-updated Telemetry is ever observable.
func (e *Engine) Tick() (Telemetry, error) {
	if err := e.params.Validate(); err != nil {
		return e.telem, err
	}

	flowM3PerSec := e.params.FanFlowRateLPM / 1000 / 60
	fractionProcessed := e.params.CaptureEfficiency * flowM3PerSec / e.params.EnclosureVolumeM3

	newPPM := e.telem.CurrentPPM * (1 - fractionProcessed)
	if newPPM < 0 {
		// Floating-point drift or over-unity processed fraction: the
		// enclosure cannot hold a negative concentration.
		newPPM = 0
	}
	ppmDelta := e.telem.CurrentPPM - newPPM

	factor, err := physics.YieldFactorMgPerPpm(
		e.params.EnclosureVolumeM3,
		e.params.TemperatureCelsius+physics.KelvinOffset,
	)
	if err != nil {
		return e.telem, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	next := Telemetry{
		TimeElapsedSeconds:       e.telem.TimeElapsedSeconds + 1,
		CurrentPPM:               newPPM,
		CumulativeYieldMg:        e.telem.CumulativeYieldMg + ppmDelta*factor,
		CumulativeCO2CapturedPPM: e.telem.CumulativeCO2CapturedPPM + ppmDelta,
	}
	e.telem = next

	// Sample every other tick, but always take the first point so a trend
	// exists immediately after the first tick.
	if next.TimeElapsedSeconds%2 == 0 || e.history.Len() == 0 {
		e.history.Append(HistoryPoint{
			Label:   FormatElapsed(next.TimeElapsedSeconds),
			PPM:     round2(next.CurrentPPM),
			YieldMg: round2(next.CumulativeYieldMg),
		})
	}

	return next, nil
}

// FormatElapsed renders a tick count as mm:ss.
func FormatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
