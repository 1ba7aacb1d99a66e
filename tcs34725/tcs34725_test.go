package tcs34725

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBus is an in-memory register file standing in for the I2C transport.
// It strips the command byte back to a register address and honors the
// auto-increment protocol for multi-byte transactions.
type mockBus struct {
	regs   map[byte]byte
	writes []busWrite
	err    error
}

type busWrite struct {
	addr  byte
	value byte
}

func newMockBus() *mockBus {
	return &mockBus{regs: map[byte]byte{}}
}

func (m *mockBus) WriteReg(reg byte, buf []byte) error {
	if m.err != nil {
		return m.err
	}
	addr := reg &^ 0xE0
	for i, b := range buf {
		m.regs[addr+byte(i)] = b
		m.writes = append(m.writes, busWrite{addr + byte(i), b})
	}
	return nil
}

func (m *mockBus) ReadReg(reg byte, buf []byte) error {
	if m.err != nil {
		return m.err
	}
	addr := reg &^ 0xE0
	for i := range buf {
		buf[i] = m.regs[addr+byte(i)]
	}
	return nil
}

type mockLED struct {
	on    bool
	calls int
}

func (m *mockLED) SetLevel(on bool) error {
	m.on = on
	m.calls++
	return nil
}

func newTestSensor() (*TCS34725, *mockBus) {
	bus := newMockBus()
	return &TCS34725{Device: bus, glassAttenuation: 1.0}, bus
}

func TestEnableSequence(t *testing.T) {
	tcs, bus := newTestSensor()
	require.NoError(t, tcs.Enable())
	assert.Equal(t, StateEnabled, tcs.State)
	assert.True(t, tcs.Enabled())

	// PON alone first, then PON|AEN, as two separate writes.
	require.Len(t, bus.writes, 2)
	assert.Equal(t, busWrite{0x00, EnablePON}, bus.writes[0])
	assert.Equal(t, busWrite{0x00, EnablePON | EnableAEN}, bus.writes[1])
}

func TestDisableFromAnyState(t *testing.T) {
	for _, state := range []PowerState{StateDisabled, StatePoweredOn, StateEnabled} {
		tcs, bus := newTestSensor()
		tcs.State = state
		require.NoError(t, tcs.Disable())
		assert.Equal(t, StateDisabled, tcs.State)
		assert.False(t, tcs.Enabled())
		assert.Equal(t, []busWrite{{0x00, 0x00}}, bus.writes)
	}
}

func TestReadColor(t *testing.T) {
	tcs, bus := newTestSensor()
	// Channel registers assemble little-endian from low/high byte pairs.
	bus.regs[0x14] = 0x34
	bus.regs[0x15] = 0x12
	bus.regs[0x16] = 0x78
	bus.regs[0x17] = 0x56
	bus.regs[0x18] = 0xBC
	bus.regs[0x19] = 0x9A
	bus.regs[0x1A] = 0xF0
	bus.regs[0x1B] = 0xDE

	sample, err := tcs.ReadColor()
	require.NoError(t, err)
	assert.Equal(t, RawColor{
		Clear: 0x1234,
		Red:   0x5678,
		Green: 0x9ABC,
		Blue:  0xDEF0,
	}, sample)
}

func TestReadRGB(t *testing.T) {
	tcs, bus := newTestSensor()
	bus.regs[0x16] = 0x01
	bus.regs[0x18] = 0x02
	bus.regs[0x1A] = 0x03

	r, g, b, err := tcs.ReadRGB()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), r)
	assert.Equal(t, uint16(2), g)
	assert.Equal(t, uint16(3), b)
}

func TestTransportFailurePropagates(t *testing.T) {
	tcs, bus := newTestSensor()
	busErr := errors.New("remote I/O error")
	bus.err = busErr

	err := tcs.Enable()
	assert.ErrorIs(t, err, busErr)

	_, err = tcs.ReadColor()
	assert.ErrorIs(t, err, busErr)
}

func TestNotConnected(t *testing.T) {
	tcs := &TCS34725{}
	assert.ErrorIs(t, tcs.Enable(), ErrNotConnected)
	_, err := tcs.ReadColor()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSendCommand(t *testing.T) {
	tcs, bus := newTestSensor()
	// The reserved command type is rejected before anything touches the bus.
	assert.ErrorIs(t, tcs.SendCommand(RegEnable, EnablePON, commandReserved), ErrReservedCommandType)
	assert.Empty(t, bus.writes)

	require.NoError(t, tcs.ClearInterrupt())
	assert.Equal(t, []busWrite{{0x06, 0x00}}, bus.writes)
}

func TestLight(t *testing.T) {
	tcs, _ := newTestSensor()
	assert.ErrorIs(t, tcs.LightOn(), ErrNotConnected)

	led := &mockLED{}
	tcs.Led = led
	require.NoError(t, tcs.LightOn())
	assert.True(t, led.on)
	require.NoError(t, tcs.LightOff())
	assert.False(t, led.on)
	assert.Equal(t, 2, led.calls)
}
