package tcs34725

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hand-computed DN40 fixture:
//
//	c=600 r=250 g=300 b=200, 154ms, gain 1, GA 1.0
//	ir = (250+300+200-600)/2 = 75
//	r1=175 g1=225 b1=125
//	g2 = 0.136*175 + 1.0*225 - 0.444*125 = 193.3
//	cpl = 154*1/(1.0*310) = 0.496774...
//	lux = 193.3/cpl = 389.110... -> 389
//	ct  = 3810*125/175 + 1391 = 4112.428... -> 4112
func TestComputeLuxFixture(t *testing.T) {
	sample := RawColor{Clear: 600, Red: 250, Green: 300, Blue: 200}

	result, err := ComputeLux(sample, IntegrationTime154ms, 1, 1.0)
	require.NoError(t, err)
	assert.False(t, result.Saturated)
	assert.Equal(t, 389, result.Lux)
	assert.Equal(t, 4112, result.ColorTempKelvin)
}

func TestComputeLuxScaling(t *testing.T) {
	sample := RawColor{Clear: 600, Red: 250, Green: 300, Blue: 200}

	// Same counts at 4x gain mean a quarter of the light.
	result, err := ComputeLux(sample, IntegrationTime154ms, 4, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 97, result.Lux)

	// Glass attenuation scales the reading back up.
	result, err = ComputeLux(sample, IntegrationTime154ms, 1, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 778, result.Lux)

	// Color temperature is a channel ratio, unaffected by either.
	assert.Equal(t, 4112, result.ColorTempKelvin)
}

func TestComputeLuxSaturation(t *testing.T) {
	patterns := []struct {
		name      string
		it        IntegrationTime
		clear     uint16
		saturated bool
	}{
		// 700ms: 256 cycles, digital ceiling 65535, no ripple reduction.
		// A full-scale count sits on the ceiling and is not saturated.
		{"700ms full scale", IntegrationTime700ms, 65535, false},
		// 154ms: 64 cycles is still past the digital threshold.
		{"154ms full scale", IntegrationTime154ms, 65535, false},
		// 101ms: analog ceiling 42*1024=43008, ripple -> 32256.
		{"101ms at ceiling", IntegrationTime101ms, 32256, false},
		{"101ms above ceiling", IntegrationTime101ms, 32257, true},
		// 24ms: analog ceiling 10*1024=10240, ripple -> 7680.
		{"24ms at ceiling", IntegrationTime24ms, 7680, false},
		{"24ms above ceiling", IntegrationTime24ms, 7681, true},
		// 2.4ms: analog ceiling 1024, ripple -> 768.
		{"2.4ms above ceiling", IntegrationTime2_4ms, 769, true},
	}
	for _, p := range patterns {
		t.Run(p.name, func(t *testing.T) {
			// Keep r+g+b low so the IR estimate leaves the red channel
			// positive on the non-saturated branches.
			sample := RawColor{Clear: p.clear, Red: 3000, Green: 3000, Blue: 1000}
			result, err := ComputeLux(sample, p.it, 1, 1.0)
			require.NoError(t, err)
			assert.Equal(t, p.saturated, result.Saturated)
			if p.saturated {
				// No computation happens past the saturation check.
				assert.Zero(t, result.Lux)
				assert.Zero(t, result.ColorTempKelvin)
			}
		})
	}
}

func TestComputeLuxColorTempUndefined(t *testing.T) {
	// ir = (10+400+400-300)/2 = 255, leaving r1 negative.
	sample := RawColor{Clear: 300, Red: 10, Green: 400, Blue: 400}
	_, err := ComputeLux(sample, IntegrationTime154ms, 1, 1.0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	// r1 exactly zero is just as undefined.
	sample = RawColor{Clear: 300, Red: 100, Green: 200, Blue: 200}
	_, err = ComputeLux(sample, IntegrationTime154ms, 1, 1.0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestComputeLuxRejectsBadInputs(t *testing.T) {
	sample := RawColor{Clear: 600, Red: 250, Green: 300, Blue: 200}

	_, err := ComputeLux(sample, IntegrationTime(0x42), 1, 1.0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = ComputeLux(sample, IntegrationTime154ms, 2, 1.0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = ComputeLux(sample, IntegrationTime154ms, 1, 0.5)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
