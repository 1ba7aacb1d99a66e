package tcs34725

import (
	"fmt"
)

// Coefficients from the AMS DN40 application note for the TCS34725 without
// an IR-blocking filter.
const (
	dn40RCoef    = 0.136  // red contribution to the photopic response
	dn40GCoef    = 1.0    // green contribution
	dn40BCoef    = -0.444 // blue contribution
	dn40DF       = 310.0  // device factor
	dn40CTCoef   = 3810.0 // color temperature slope
	dn40CTOffset = 1391.0 // color temperature offset
)

// LuxResult is the outcome of one DN40 computation. Saturated is a defined
// photometric outcome, not a failure: the clear channel clipped and the lux
// and color temperature fields are meaningless.
type LuxResult struct {
	Lux             int
	ColorTempKelvin int
	Saturated       bool
}

// ComputeLux derives illuminance and correlated color temperature from one
// raw sample using the DN40 method: saturation check, IR rejection, weighted
// photopic response, then counts-per-lux normalization by integration time,
// gain and glass attenuation.
//
// Color temperature divides by the IR-rejected red channel; a sample whose
// red channel does not exceed the IR estimate has no defined color
// temperature and is reported as ErrOutOfRange rather than left to the
// platform's divide behavior.
func ComputeLux(sample RawColor, integrationTime IntegrationTime, gain int, glassAttenuation float64) (LuxResult, error) {
	it, ok := integrationTimes[integrationTime]
	if !ok {
		return LuxResult{}, fmt.Errorf("%w: ATIME code %#02x", ErrOutOfRange, byte(integrationTime))
	}
	if _, ok := gainCodes[gain]; !ok {
		return LuxResult{}, fmt.Errorf("%w: gain must be 1, 4, 16 or 60, %d was given", ErrOutOfRange, gain)
	}
	if glassAttenuation < 1.0 {
		return LuxResult{}, fmt.Errorf("%w: glass attenuation must be >= 1.0, %v was given", ErrOutOfRange, glassAttenuation)
	}

	// Each 2.4ms integration cycle accumulates up to 1024 counts, so the
	// analog ceiling is 1024 counts per cycle; past 63 cycles the 16-bit
	// counters clip first (digital saturation).
	ceiling := 65535
	if it.cycles <= 63 {
		ceiling = 1024 * it.cycles
	}
	// Ripple saturation: with short integration times the clear channel
	// becomes unreliable well before the counter ceiling.
	if it.ms < 150 {
		ceiling -= ceiling / 4
	}
	if int(sample.Clear) > ceiling {
		return LuxResult{Saturated: true}, nil
	}

	c := int(sample.Clear)
	r := int(sample.Red)
	g := int(sample.Green)
	b := int(sample.Blue)

	// The channels overlap in the IR band; the overlap shows up as the
	// amount by which r+g+b exceeds the clear channel.
	ir := (r + g + b - c) / 2
	r1 := r - ir
	g1 := g - ir
	b1 := b - ir

	g2 := dn40RCoef*float64(r1) + dn40GCoef*float64(g1) + dn40BCoef*float64(b1)
	cpl := (it.ms * float64(gain)) / (glassAttenuation * dn40DF)
	lux := int(g2 / cpl)

	if r1 <= 0 {
		return LuxResult{}, fmt.Errorf("%w: color temperature undefined, red channel %d does not exceed the IR estimate %d", ErrOutOfRange, r, ir)
	}
	colorTemp := int(dn40CTCoef*float64(b1)/float64(r1) + dn40CTOffset)

	return LuxResult{Lux: lux, ColorTempKelvin: colorTemp}, nil
}
