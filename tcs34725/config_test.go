package tcs34725

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationTimeRoundTrip(t *testing.T) {
	patterns := []struct {
		code   IntegrationTime
		ms     float64
		cycles int
	}{
		{IntegrationTime2_4ms, 2.4, 1},
		{IntegrationTime24ms, 24, 10},
		{IntegrationTime101ms, 101, 42},
		{IntegrationTime154ms, 154, 64},
		{IntegrationTime700ms, 700, 256},
	}
	for _, p := range patterns {
		t.Run(p.code.String(), func(t *testing.T) {
			tcs, bus := newTestSensor()
			require.NoError(t, tcs.SetIntegrationTime(p.code))
			assert.Equal(t, byte(p.code), bus.regs[0x01])

			got, err := tcs.IntegrationTime()
			require.NoError(t, err)
			assert.Equal(t, p.code, got)
			assert.Equal(t, p.ms, got.Milliseconds())
			assert.Equal(t, p.cycles, got.Cycles())

			// The ms and cycles representations resolve to the same code.
			fromMs, err := IntegrationTimeFromMs(p.ms)
			require.NoError(t, err)
			fromCycles, err := IntegrationTimeFromCycles(p.cycles)
			require.NoError(t, err)
			assert.Equal(t, p.code, fromMs)
			assert.Equal(t, p.code, fromCycles)
		})
	}
}

func TestIntegrationTimeRejected(t *testing.T) {
	tcs, bus := newTestSensor()
	assert.ErrorIs(t, tcs.SetIntegrationTime(IntegrationTime(0x42)), ErrOutOfRange)
	assert.Empty(t, bus.writes)

	_, err := IntegrationTimeFromMs(100)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = IntegrationTimeFromCycles(2)
	assert.ErrorIs(t, err, ErrOutOfRange)

	// An unknown code read back from the chip is reported, not coerced.
	bus.regs[0x01] = 0x42
	_, err = tcs.IntegrationTime()
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestWaitTimeRoundTrip(t *testing.T) {
	patterns := []struct {
		ms    float64
		code  byte
		wlong bool
	}{
		{2.4, 0xFF, false},
		{204, 0xAB, false},
		{614, 0x00, false},
		{29, 0xFF, true},
		{2450, 0xAB, true},
		{7400, 0x00, true},
	}
	for _, p := range patterns {
		tcs, bus := newTestSensor()
		require.NoError(t, tcs.SetWaitTimeMs(p.ms))
		assert.Equal(t, p.code, bus.regs[0x03], "WTIME for %vms", p.ms)

		// Selecting a wait time flips WLONG to its table as a side effect.
		wlong, err := tcs.Wlong()
		require.NoError(t, err)
		assert.Equal(t, p.wlong, wlong, "WLONG for %vms", p.ms)

		got, err := tcs.WaitTimeMs()
		require.NoError(t, err)
		assert.Equal(t, p.ms, got)
	}
}

func TestWaitTimeWlongCoupling(t *testing.T) {
	tcs, _ := newTestSensor()
	// Same WTIME code on both scales; only WLONG distinguishes them.
	require.NoError(t, tcs.SetWaitTimeMs(2450))
	wlong, err := tcs.Wlong()
	require.NoError(t, err)
	assert.True(t, wlong)

	require.NoError(t, tcs.SetWaitTimeMs(204))
	wlong, err = tcs.Wlong()
	require.NoError(t, err)
	assert.False(t, wlong)

	got, err := tcs.WaitTimeMs()
	require.NoError(t, err)
	assert.Equal(t, 204.0, got)
}

func TestWaitTimeRejected(t *testing.T) {
	tcs, bus := newTestSensor()
	assert.ErrorIs(t, tcs.SetWaitTimeMs(100), ErrOutOfRange)
	assert.Empty(t, bus.writes)
}

func TestGainRoundTrip(t *testing.T) {
	for gain, code := range map[int]byte{1: 0b00, 4: 0b01, 16: 0b10, 60: 0b11} {
		tcs, bus := newTestSensor()
		require.NoError(t, tcs.SetGain(gain))
		assert.Equal(t, code, bus.regs[0x0F])

		got, err := tcs.Gain()
		require.NoError(t, err)
		assert.Equal(t, gain, got)
	}
}

func TestGainRejected(t *testing.T) {
	tcs, bus := newTestSensor()
	for _, gain := range []int{0, 2, 8, 25, 64, -1} {
		assert.ErrorIs(t, tcs.SetGain(gain), ErrOutOfRange, "gain %d", gain)
	}
	assert.Empty(t, bus.writes)
}

func TestLowerGain(t *testing.T) {
	tcs, _ := newTestSensor()
	require.NoError(t, tcs.SetGain(60))
	for _, expected := range []int{16, 4, 1} {
		lowered, err := tcs.LowerGain()
		require.NoError(t, err)
		assert.True(t, lowered)
		gain, err := tcs.Gain()
		require.NoError(t, err)
		assert.Equal(t, expected, gain)
	}
	// Nothing below 1x.
	lowered, err := tcs.LowerGain()
	require.NoError(t, err)
	assert.False(t, lowered)
}

func TestPersistence(t *testing.T) {
	legal := []int{1, 2, 3, 5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60}
	for _, cycles := range legal {
		tcs, bus := newTestSensor()
		require.NoError(t, tcs.SetPersistence(cycles))
		// Written verbatim, no remapping.
		assert.Equal(t, byte(cycles), bus.regs[0x0C])

		got, err := tcs.Persistence()
		require.NoError(t, err)
		assert.Equal(t, cycles, got)
	}

	tcs, bus := newTestSensor()
	for _, cycles := range []int{0, 4, 6, 61, 65, -5} {
		assert.ErrorIs(t, tcs.SetPersistence(cycles), ErrOutOfRange, "persistence %d", cycles)
	}
	assert.Empty(t, bus.writes)
}

func TestThresholdRoundTrip(t *testing.T) {
	for _, threshold := range []int{0, 1, 0xFF, 0x100, 0xABCD, 0xFFFF} {
		tcs, bus := newTestSensor()
		require.NoError(t, tcs.SetMinThreshold(threshold))
		require.NoError(t, tcs.SetMaxThreshold(threshold))

		// Split low byte then high byte into adjacent registers.
		assert.Equal(t, byte(threshold&0xFF), bus.regs[0x04])
		assert.Equal(t, byte(threshold>>8), bus.regs[0x05])
		assert.Equal(t, byte(threshold&0xFF), bus.regs[0x06])
		assert.Equal(t, byte(threshold>>8), bus.regs[0x07])

		min, err := tcs.MinThreshold()
		require.NoError(t, err)
		assert.Equal(t, uint16(threshold), min)
		max, err := tcs.MaxThreshold()
		require.NoError(t, err)
		assert.Equal(t, uint16(threshold), max)
	}
}

func TestThresholdRejected(t *testing.T) {
	tcs, bus := newTestSensor()
	assert.ErrorIs(t, tcs.SetMinThreshold(65536), ErrOutOfRange)
	assert.ErrorIs(t, tcs.SetMinThreshold(-1), ErrOutOfRange)
	assert.ErrorIs(t, tcs.SetMaxThreshold(65536), ErrOutOfRange)
	assert.ErrorIs(t, tcs.SetMaxThreshold(-1), ErrOutOfRange)
	// Rejected before any write reaches the bus.
	assert.Empty(t, bus.writes)
}

func TestGlassAttenuation(t *testing.T) {
	tcs, _ := newTestSensor()
	assert.Equal(t, 1.0, tcs.GlassAttenuation())

	assert.ErrorIs(t, tcs.SetGlassAttenuation(0.5), ErrOutOfRange)
	assert.Equal(t, 1.0, tcs.GlassAttenuation())

	require.NoError(t, tcs.SetGlassAttenuation(1.0))
	require.NoError(t, tcs.SetGlassAttenuation(2.37))
	assert.Equal(t, 2.37, tcs.GlassAttenuation())
}

func TestSensorID(t *testing.T) {
	tcs, bus := newTestSensor()
	bus.regs[0x12] = 0x44
	id, err := tcs.SensorID()
	require.NoError(t, err)
	assert.Equal(t, byte(0x44), id)

	// No setter path exists; a write through the codec is rejected.
	assert.ErrorIs(t, tcs.writeRegister(RegID, 0x00), ErrReadOnly)
	assert.ErrorIs(t, tcs.writeRegister(RegStatus, 0x00), ErrReadOnly)
	assert.Empty(t, bus.writes)
}

func TestStatus(t *testing.T) {
	patterns := []struct {
		name   string
		raw    byte
		status SensorStatus
		err    bool
	}{
		{"valid cycle, no interrupt", 0x01, StatusNoInterrupt, false},
		{"interrupt pending", 0x10, StatusInterrupt, false},
		{"nothing asserted", 0x00, 0b00, true},
		{"both asserted", 0x11, 0b11, true},
		{"unrelated bits ignored", 0x41, StatusNoInterrupt, false},
	}
	for _, p := range patterns {
		t.Run(p.name, func(t *testing.T) {
			tcs, bus := newTestSensor()
			bus.regs[0x13] = p.raw
			status, err := tcs.Status()
			if p.err {
				assert.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, p.status, status)
		})
	}
}
