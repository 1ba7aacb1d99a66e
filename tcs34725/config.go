package tcs34725

import (
	"fmt"
)

// IntegrationTime is the raw ATIME register code for one of the chip's
// supported RGBC integration times.
type IntegrationTime byte

const (
	IntegrationTime2_4ms IntegrationTime = 0xFF // 1 cycle
	IntegrationTime24ms  IntegrationTime = 0xF6 // 10 cycles
	IntegrationTime101ms IntegrationTime = 0xD5 // 42 cycles
	IntegrationTime154ms IntegrationTime = 0xC0 // 64 cycles
	IntegrationTime700ms IntegrationTime = 0x00 // 256 cycles
)

// The single source of truth for ATIME code <-> physical value; both lookup
// directions are derived from it.
var integrationTimes = map[IntegrationTime]struct {
	ms     float64
	cycles int
}{
	IntegrationTime2_4ms: {2.4, 1},
	IntegrationTime24ms:  {24, 10},
	IntegrationTime101ms: {101, 42},
	IntegrationTime154ms: {154, 64},
	IntegrationTime700ms: {700, 256},
}

// Milliseconds returns the integration time in milliseconds, or 0 for an
// unknown code.
func (t IntegrationTime) Milliseconds() float64 {
	return integrationTimes[t].ms
}

// Cycles returns the number of 2.4ms integration cycles, or 0 for an
// unknown code.
func (t IntegrationTime) Cycles() int {
	return integrationTimes[t].cycles
}

func (t IntegrationTime) String() string {
	it, ok := integrationTimes[t]
	if !ok {
		return "Unknown"
	}
	return fmt.Sprintf("%vms", it.ms)
}

// IntegrationTimeFromMs maps a supported millisecond value to its ATIME code.
func IntegrationTimeFromMs(ms float64) (IntegrationTime, error) {
	for code, it := range integrationTimes {
		if it.ms == ms {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: integration time must be 2.4, 24, 101, 154 or 700ms, %v was given", ErrOutOfRange, ms)
}

// IntegrationTimeFromCycles maps a supported cycle count to its ATIME code.
func IntegrationTimeFromCycles(cycles int) (IntegrationTime, error) {
	for code, it := range integrationTimes {
		if it.cycles == cycles {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: integration time must be 1, 10, 42, 64 or 256 cycles, %d was given", ErrOutOfRange, cycles)
}

// SetIntegrationTime writes the ATIME register.
func (tcs *TCS34725) SetIntegrationTime(t IntegrationTime) error {
	if _, ok := integrationTimes[t]; !ok {
		return fmt.Errorf("%w: ATIME code %#02x", ErrOutOfRange, byte(t))
	}
	return tcs.writeRegister(RegATime, byte(t))
}

// IntegrationTime reads the ATIME register back.
func (tcs *TCS34725) IntegrationTime() (IntegrationTime, error) {
	raw, err := tcs.readRegister(RegATime, 1)
	if err != nil {
		return 0, err
	}
	t := IntegrationTime(raw[0])
	if _, ok := integrationTimes[t]; !ok {
		return 0, fmt.Errorf("%w: ATIME code %#02x", ErrOutOfRange, raw[0])
	}
	return t, nil
}

// Wait times share the WTIME register codes between two scales; the WLONG
// bit of CONFIG selects which one applies. Setting a wait time from either
// scale flips WLONG to match.
var waitTimes = map[float64]struct {
	code  byte
	wlong bool
}{
	2.4: {0xFF, false},
	204: {0xAB, false},
	614: {0x00, false},

	29:   {0xFF, true},
	2450: {0xAB, true},
	7400: {0x00, true},
}

// SetWaitTimeMs writes the WTIME register, adjusting WLONG as a side effect
// when the requested value belongs to the other scale.
func (tcs *TCS34725) SetWaitTimeMs(ms float64) error {
	wt, ok := waitTimes[ms]
	if !ok {
		return fmt.Errorf("%w: wait time must be 2.4, 204 or 614ms (29, 2450 or 7400ms with WLONG), %v was given", ErrOutOfRange, ms)
	}
	if err := tcs.setWlong(wt.wlong); err != nil {
		return err
	}
	return tcs.writeRegister(RegWTime, wt.code)
}

// WaitTimeMs reads WTIME and CONFIG back and reports the configured wait
// time in milliseconds.
func (tcs *TCS34725) WaitTimeMs() (float64, error) {
	wlong, err := tcs.Wlong()
	if err != nil {
		return 0, err
	}
	raw, err := tcs.readRegister(RegWTime, 1)
	if err != nil {
		return 0, err
	}
	for ms, wt := range waitTimes {
		if wt.code == raw[0] && wt.wlong == wlong {
			return ms, nil
		}
	}
	return 0, fmt.Errorf("%w: WTIME code %#02x", ErrOutOfRange, raw[0])
}

func (tcs *TCS34725) setWlong(on bool) error {
	var value byte
	if on {
		value = configWLONG
	}
	return tcs.writeRegister(RegConfig, value)
}

// Wlong reports the WLONG bit of CONFIG.
func (tcs *TCS34725) Wlong() (bool, error) {
	raw, err := tcs.readRegister(RegConfig, 1)
	if err != nil {
		return false, err
	}
	return raw[0]&configWLONG != 0, nil
}

// DefaultGain is the 1x gain multiplier the chip resets to.
const DefaultGain = 1

// Gain codes occupy the low two bits of CONTROL.
var gainCodes = map[int]byte{
	1:  0b00,
	4:  0b01,
	16: 0b10,
	60: 0b11,
}

// SetGain sets the RGBC gain multiplier, one of 1, 4, 16 or 60.
func (tcs *TCS34725) SetGain(gain int) error {
	code, ok := gainCodes[gain]
	if !ok {
		return fmt.Errorf("%w: gain must be 1, 4, 16 or 60, %d was given", ErrOutOfRange, gain)
	}
	return tcs.writeRegister(RegControl, code)
}

// Gain reads the gain multiplier back from CONTROL.
func (tcs *TCS34725) Gain() (int, error) {
	raw, err := tcs.readRegister(RegControl, 1)
	if err != nil {
		return 0, err
	}
	bits := raw[0] & 0b11
	for gain, code := range gainCodes {
		if code == bits {
			return gain, nil
		}
	}
	// unreachable, all four 2-bit codes are mapped
	return 0, fmt.Errorf("%w: CONTROL %#02x", ErrOutOfRange, raw[0])
}

// LowerGain steps the gain down to the next smaller multiplier and reports
// whether a smaller one existed. Used to back off after a saturated sample.
func (tcs *TCS34725) LowerGain() (bool, error) {
	gain, err := tcs.Gain()
	if err != nil {
		return false, err
	}
	switch gain {
	case 60:
		return true, tcs.SetGain(16)
	case 16:
		return true, tcs.SetGain(4)
	case 4:
		return true, tcs.SetGain(1)
	}
	return false, nil
}

// SetPersistence sets the interrupt persistence filter: the number of
// consecutive out-of-threshold cycles before an interrupt is generated.
// Accepts 1, 2, 3 or a multiple of 5 up to 60; the value is written verbatim.
func (tcs *TCS34725) SetPersistence(cycles int) error {
	if !validPersistence(cycles) {
		return fmt.Errorf("%w: persistence must be 1, 2, 3 or 5, 10, 15, ... 60, %d was given", ErrOutOfRange, cycles)
	}
	return tcs.writeRegister(RegPers, byte(cycles))
}

// Persistence reads the persistence filter back.
func (tcs *TCS34725) Persistence() (int, error) {
	raw, err := tcs.readRegister(RegPers, 1)
	if err != nil {
		return 0, err
	}
	return int(raw[0]), nil
}

func validPersistence(cycles int) bool {
	if cycles >= 1 && cycles <= 3 {
		return true
	}
	return cycles >= 5 && cycles <= 60 && cycles%5 == 0
}

// SetMinThreshold sets the clear channel interrupt low threshold, split into
// a low byte then high byte write to the adjacent threshold registers.
func (tcs *TCS34725) SetMinThreshold(threshold int) error {
	if threshold < 0 || threshold > 0xFFFF {
		return fmt.Errorf("%w: threshold must be between 0 and 65535, %d was given", ErrOutOfRange, threshold)
	}
	if err := tcs.writeRegister(RegAILTL, byte(threshold&0xFF)); err != nil {
		return err
	}
	return tcs.writeRegister(RegAILTH, byte(threshold>>8))
}

// MinThreshold reads the interrupt low threshold back.
func (tcs *TCS34725) MinThreshold() (uint16, error) {
	return tcs.readThreshold(RegAILTL, RegAILTH)
}

// SetMaxThreshold sets the clear channel interrupt high threshold.
func (tcs *TCS34725) SetMaxThreshold(threshold int) error {
	if threshold < 0 || threshold > 0xFFFF {
		return fmt.Errorf("%w: threshold must be between 0 and 65535, %d was given", ErrOutOfRange, threshold)
	}
	if err := tcs.writeRegister(RegAIHTL, byte(threshold&0xFF)); err != nil {
		return err
	}
	return tcs.writeRegister(RegAIHTH, byte(threshold>>8))
}

// MaxThreshold reads the interrupt high threshold back.
func (tcs *TCS34725) MaxThreshold() (uint16, error) {
	return tcs.readThreshold(RegAIHTL, RegAIHTH)
}

func (tcs *TCS34725) readThreshold(low, high Register) (uint16, error) {
	lo, err := tcs.readRegister(low, 1)
	if err != nil {
		return 0, err
	}
	hi, err := tcs.readRegister(high, 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi[0])<<8 | uint16(lo[0]), nil
}

// SetGlassAttenuation sets the attenuation factor of any cover glass over
// the sensor, the inverse of its transmissivity. Held driver-side, used by
// the lux computation. Bare sensors use 1.0.
func (tcs *TCS34725) SetGlassAttenuation(ga float64) error {
	if ga < 1.0 {
		return fmt.Errorf("%w: glass attenuation must be >= 1.0, %v was given", ErrOutOfRange, ga)
	}
	tcs.glassAttenuation = ga
	return nil
}

// GlassAttenuation returns the configured glass attenuation factor.
func (tcs *TCS34725) GlassAttenuation() float64 {
	return tcs.glassAttenuation
}

// SensorID reads the device ID register. Read-only: there is no setter path
// for it, and a write through the codec fails.
func (tcs *TCS34725) SensorID() (byte, error) {
	raw, err := tcs.readRegister(RegID, 1)
	if err != nil {
		return 0, err
	}
	return raw[0], nil
}

// SensorStatus is the two decoded bits of the STATUS register.
type SensorStatus byte

const (
	// A clear channel interrupt is pending
	StatusInterrupt SensorStatus = 0b01
	// A valid RGBC cycle has completed, no interrupt pending
	StatusNoInterrupt SensorStatus = 0b10
)

// Status reads the STATUS register and decodes the AINT and AVALID bits.
// Any decoded value other than StatusInterrupt or StatusNoInterrupt is an
// error condition and is reported as one, never normalized.
func (tcs *TCS34725) Status() (SensorStatus, error) {
	raw, err := tcs.readRegister(RegStatus, 1)
	if err != nil {
		return 0, err
	}
	var status SensorStatus
	if raw[0]&statusAINT != 0 {
		status |= 0b01
	}
	if raw[0]&statusAVALID != 0 {
		status |= 0b10
	}
	switch status {
	case StatusInterrupt, StatusNoInterrupt:
		return status, nil
	}
	return status, fmt.Errorf("%w: STATUS %#02x decodes to %#02b", ErrOutOfRange, raw[0], byte(status))
}
