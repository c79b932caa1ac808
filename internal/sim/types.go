// Package sim contains the discrete-time simulation core for the capture
// rig. This package has NO external dependencies (no MQTT, GPIO, OS, or
// clocks) — time advances only when the owner calls Tick, one simulated
// second per call.
package sim

import (
	"errors"
	"fmt"

	"github.com/sweeney/capture-rig/internal/physics"
)

// ErrInvalidConfiguration is returned by Tick when the current parameters
// are outside their physical domain. Callers must not advance time on it;
// Telemetry is left untouched.
var ErrInvalidConfiguration = errors.New("sim: invalid configuration")

// Parameters is the rig configuration. It may change between ticks; changes
// apply from the next Tick and never alter Telemetry or history by
// themselves.
type Parameters struct {
	// EnclosureVolumeM3 is the sealed enclosure volume in m³. Must be > 0.
	EnclosureVolumeM3 float64 `json:"enclosure_volume_m3"`

	// FanFlowRateLPM is the fan flow rate in litres per minute. Must be ≥ 0.
	FanFlowRateLPM float64 `json:"fan_flow_rate_lpm"`

	// CaptureEfficiency is the fraction of CO₂ removed from processed air,
	// in [0, 1].
	CaptureEfficiency float64 `json:"capture_efficiency"`

	// InitialPPM is the enclosure CO₂ concentration applied on reset.
	InitialPPM float64 `json:"initial_ppm"`

	// TemperatureCelsius is the enclosure temperature. Must be above
	// absolute zero.
	TemperatureCelsius float64 `json:"temperature_celsius"`
}

// DefaultParameters returns the bench rig's nominal operating point.
func DefaultParameters() Parameters {
	return Parameters{
		EnclosureVolumeM3:  0.15,
		FanFlowRateLPM:     20,
		CaptureEfficiency:  0.85,
		InitialPPM:         420,
		TemperatureCelsius: 22,
	}
}

// Validate reports whether the parameters are inside their physical domain.
// The returned error wraps ErrInvalidConfiguration.
func (p Parameters) Validate() error {
	if p.EnclosureVolumeM3 <= 0 {
		return fmt.Errorf("%w: enclosure volume %g m³ must be > 0", ErrInvalidConfiguration, p.EnclosureVolumeM3)
	}
	if p.FanFlowRateLPM < 0 {
		return fmt.Errorf("%w: fan flow rate %g L/min must be ≥ 0", ErrInvalidConfiguration, p.FanFlowRateLPM)
	}
	if p.CaptureEfficiency < 0 || p.CaptureEfficiency > 1 {
		return fmt.Errorf("%w: capture efficiency %g must be in [0, 1]", ErrInvalidConfiguration, p.CaptureEfficiency)
	}
	if p.InitialPPM < 0 {
		return fmt.Errorf("%w: initial concentration %g ppm must be ≥ 0", ErrInvalidConfiguration, p.InitialPPM)
	}
	if p.TemperatureCelsius <= physics.AbsoluteZeroCelsius {
		return fmt.Errorf("%w: temperature %g °C must be above absolute zero", ErrInvalidConfiguration, p.TemperatureCelsius)
	}
	return nil
}

// Telemetry is the simulation state. A single instance is owned by the
// Engine and replaced wholesale on each tick, so a copy taken between ticks
// is always internally consistent.
type Telemetry struct {
	// TimeElapsedSeconds counts completed ticks.
	TimeElapsedSeconds int `json:"time_elapsed_seconds"`

	// CurrentPPM is the enclosure CO₂ concentration. Never negative.
	CurrentPPM float64 `json:"current_ppm"`

	// CumulativeYieldMg is the total Na₂CO₃ produced, in mg.
	// Monotonically non-decreasing.
	CumulativeYieldMg float64 `json:"cumulative_yield_mg"`

	// CumulativeCO2CapturedPPM accumulates the ppm-equivalent of CO₂
	// removed (not a mass). Monotonically non-decreasing.
	CumulativeCO2CapturedPPM float64 `json:"cumulative_co2_captured_ppm"`
}
