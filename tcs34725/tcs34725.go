package tcs34725

/*
 * tcs34725 - Package for interacting with TCS34725 RGBC color sensors.
 *
 * Ref:
 * https://ams.com/tcs34725
 * AMS DN40 - Lux and CCT Calculations (application note)
 *
 */

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/io/i2c"
)

var l *logrus.Logger

func init() {
	l = logrus.New()
	// Setup the logger, so it can be parsed by datadog
	l.Formatter = &logrus.JSONFormatter{}
	l.SetOutput(os.Stdout)
	// Set the log level
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))
	switch logLevel {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "info":
		l.SetLevel(logrus.InfoLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}
}

// Transport is the two-wire bus collaborator the driver issues its
// transactions through. *i2c.Device satisfies it. The register argument is
// the fully encoded command byte for the transaction.
type Transport interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) error
}

// LED drives the optional illumination LED wired next to the sensor.
// It is not part of the sensor's bus protocol.
type LED interface {
	SetLevel(on bool) error
}

// PowerState tracks the two-phase enable sequence of the chip.
type PowerState int

const (
	StateDisabled PowerState = iota
	StatePoweredOn
	StateEnabled
)

// RawColor is one uncached sample of the four 16-bit photodiode channels.
type RawColor struct {
	Clear uint16
	Red   uint16
	Green uint16
	Blue  uint16
}

// TCS34725 is a single sensor on the bus. The driver performs no internal
// locking; callers sharing one instance must serialize access themselves.
type TCS34725 struct {
	Device Transport
	Led    LED
	State  PowerState

	glassAttenuation float64
}

// Connect to a TCS34725 via I2C protocol & set gain/integration time
func New(gain int, integrationTime IntegrationTime, path string) (*TCS34725, error) {
	if path == "" {
		// i2c-1 is the default I2C bus for the Raspberry Pi
		path = "/dev/i2c-1"
	}
	device, err := i2c.Open(&i2c.Devfs{Dev: path}, DefaultAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}
	tcs := &TCS34725{
		Device:           device,
		glassAttenuation: 1.0,
	}

	// Read the device ID to confirm there is a TCS34725 at this address
	id, err := tcs.SensorID()
	if err != nil {
		return nil, fmt.Errorf("failed to read id: %w", err)
	}
	if id != 0x44 && id != 0x4D {
		return nil, fmt.Errorf("unexpected device id %#02x on %s: %w", id, path, ErrNotConnected)
	}

	if err := tcs.Enable(); err != nil {
		return nil, err
	}
	if err := tcs.SetIntegrationTime(integrationTime); err != nil {
		return nil, err
	}
	if err := tcs.SetGain(gain); err != nil {
		return nil, err
	}

	tcs.Disable()
	return tcs, nil
}

// SendCommand issues a single-byte register write with an explicit command
// type. Most callers want the auto-increment default the setters use.
func (tcs *TCS34725) SendCommand(reg Register, value byte, ct CommandType) error {
	if tcs.Device == nil {
		return ErrNotConnected
	}
	cmd, err := encodeWrite(reg, ct)
	if err != nil {
		return err
	}
	if err := tcs.Device.WriteReg(cmd, []byte{value}); err != nil {
		return fmt.Errorf("write %s: %w", reg, err)
	}
	return nil
}

func (tcs *TCS34725) writeRegister(reg Register, value byte) error {
	return tcs.SendCommand(reg, value, CommandAutoIncrement)
}

// ClearInterrupt clears a pending clear channel interrupt through the
// special function command.
func (tcs *TCS34725) ClearInterrupt() error {
	return tcs.SendCommand(RegClearInt, 0x00, CommandSpecial)
}

// readRegister encodes and issues a register read of the register's full
// backing size.
func (tcs *TCS34725) readRegister(reg Register, length int) ([]byte, error) {
	if tcs.Device == nil {
		return nil, ErrNotConnected
	}
	cmd, err := encodeRead(reg, CommandAutoIncrement, length)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if err := tcs.Device.ReadReg(cmd, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", reg, err)
	}
	return buf, nil
}

// Enable powers the sensor on and activates the ADC. The oscillator must be
// running before AEN is asserted, so PON is written alone first. The two
// writes are issued back-to-back without a stabilization delay, matching the
// reference sequence for this chip.
func (tcs *TCS34725) Enable() error {
	if err := tcs.writeRegister(RegEnable, EnablePON); err != nil {
		return err
	}
	tcs.State = StatePoweredOn
	if err := tcs.writeRegister(RegEnable, EnablePON|EnableAEN); err != nil {
		return err
	}
	tcs.State = StateEnabled
	l.Debug("sensor enabled")
	return nil
}

// Disable powers the sensor down, from any state.
func (tcs *TCS34725) Disable() error {
	if err := tcs.writeRegister(RegEnable, 0x00); err != nil {
		return err
	}
	tcs.State = StateDisabled
	l.Debug("sensor disabled")
	return nil
}

// Enabled reports whether the ADC is active.
func (tcs *TCS34725) Enabled() bool {
	return tcs.State == StateEnabled
}

// ReadColor reads the four channel registers into one sample. Each channel
// is a little-endian low/high byte pair. One transaction set per call, no
// retries, no averaging.
func (tcs *TCS34725) ReadColor() (RawColor, error) {
	var sample RawColor
	for _, ch := range []struct {
		reg Register
		dst *uint16
	}{
		{RegCData, &sample.Clear},
		{RegRData, &sample.Red},
		{RegGData, &sample.Green},
		{RegBData, &sample.Blue},
	} {
		raw, err := tcs.readRegister(ch.reg, 2)
		if err != nil {
			return RawColor{}, err
		}
		*ch.dst = binary.LittleEndian.Uint16(raw)
	}
	l.Debugf("Sample read: %+v", sample)
	return sample, nil
}

// ReadRGB is ReadColor with the clear channel dropped.
func (tcs *TCS34725) ReadRGB() (r, g, b uint16, err error) {
	sample, err := tcs.ReadColor()
	if err != nil {
		return 0, 0, 0, err
	}
	return sample.Red, sample.Green, sample.Blue, nil
}

// LightOn turns the illumination LED on, if one is wired up.
func (tcs *TCS34725) LightOn() error {
	if tcs.Led == nil {
		return fmt.Errorf("led: %w", ErrNotConnected)
	}
	return tcs.Led.SetLevel(true)
}

// LightOff turns the illumination LED off.
func (tcs *TCS34725) LightOff() error {
	if tcs.Led == nil {
		return fmt.Errorf("led: %w", ErrNotConnected)
	}
	return tcs.Led.SetLevel(false)
}
