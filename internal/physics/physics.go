// Package physics contains the gas-law constants and the yield factor
// calculation for the capture rig. This package has NO external dependencies
// and no mutable state — everything here is a pure function over its inputs.
package physics

import "errors"

// Scientific constants. Fixed for the lifetime of the process.
const (
	// GasConstant is the ideal gas constant R in J/(mol·K).
	GasConstant = 8.314

	// MolarMassCO2 is the molar mass of CO₂ in g/mol.
	MolarMassCO2 = 44.009

	// MolarMassNa2CO3 is the molar mass of sodium carbonate in g/mol.
	MolarMassNa2CO3 = 105.9888

	// StandardPressurePa is standard atmospheric pressure in Pa.
	StandardPressurePa = 101325.0

	// AbsoluteZeroCelsius is 0 K expressed in °C.
	AbsoluteZeroCelsius = -273.15

	// KelvinOffset converts °C to K by addition.
	KelvinOffset = 273.15
)

// Domain errors for YieldFactorMgPerPpm.
var (
	ErrNonPositiveVolume      = errors.New("physics: enclosure volume must be > 0")
	ErrNonPositiveTemperature = errors.New("physics: absolute temperature must be > 0")
)

// YieldFactorMgPerPpm returns the milligrams of Na₂CO₃ produced per 1 ppm
// decrease in CO₂ concentration for a well-mixed enclosure of the given
// volume (m³) at the given absolute temperature (K) and standard pressure.
//
// By the ideal gas law the enclosure holds n = P·V/(R·T) moles of air, so a
// 1 ppm concentration drop removes n×1e-6 moles of CO₂. The scrubbing
// reaction 2 NaOH + CO₂ → Na₂CO₃ + H₂O is 1:1 in CO₂ and Na₂CO₃, so the
// same number of moles of carbonate is produced.
//
// The result scales linearly with volume and inversely with temperature.
func YieldFactorMgPerPpm(volumeM3, temperatureK float64) (float64, error) {
	if volumeM3 <= 0 {
		return 0, ErrNonPositiveVolume
	}
	if temperatureK <= 0 {
		return 0, ErrNonPositiveTemperature
	}

	molesAir := StandardPressurePa * volumeM3 / (GasConstant * temperatureK)
	molesCO2PerPpm := molesAir * 1e-6

	// grams → milligrams
	return molesCO2PerPpm * MolarMassNa2CO3 * 1000, nil
}
