package tcs34725

import (
	"errors"
	"fmt"
)

// Validation errors, all raised before any bus transaction is attempted.
var (
	ErrUnknownRegister     = errors.New("unknown register")
	ErrReadOnly            = errors.New("register is read-only")
	ErrWriteOnly           = errors.New("register is write-only")
	ErrReservedCommandType = errors.New("command type 0b10 is reserved by the TCS34725")
	ErrOutOfRange          = errors.New("value out of range")
	ErrNotConnected        = errors.New("sensor is not connected")
)

// CommandType selects the TYPE field (bits 6:5) of the command byte.
// 0b10 is reserved by the chip and is rejected by the codec.
type CommandType byte

const (
	CommandRepeated      CommandType = 0b00 // repeated byte protocol
	CommandAutoIncrement CommandType = 0b01 // auto-increment protocol
	CommandSpecial       CommandType = 0b11 // special function

	commandReserved CommandType = 0b10

	// CMD bit, must be set on every command byte
	commandBit byte = 0x80
)

// Register names the logical registers of the TCS34725.
type Register string

const (
	RegEnable  Register = "ENABLE"  // Enables states and interrupts
	RegATime   Register = "ATIME"   // RGBC integration time
	RegWTime   Register = "WTIME"   // Wait time
	RegAILTL   Register = "AILTL"   // Clear interrupt low threshold low byte
	RegAILTH   Register = "AILTH"   // Clear interrupt low threshold high byte
	RegAIHTL   Register = "AIHTL"   // Clear interrupt high threshold low byte
	RegAIHTH   Register = "AIHTH"   // Clear interrupt high threshold high byte
	RegPers    Register = "PERS"    // Interrupt persistence filter
	RegConfig  Register = "CONFIG"  // Configuration (WLONG)
	RegControl Register = "CONTROL" // Control (gain)
	RegID      Register = "ID"      // Device ID
	RegStatus  Register = "STATUS"  // Device status

	// 16-bit channel registers, read as a low/high byte pair
	RegCData Register = "CDATA" // Clear channel
	RegRData Register = "RDATA" // Red channel
	RegGData Register = "GDATA" // Green channel
	RegBData Register = "BDATA" // Blue channel

	// Aliases over addresses already named above
	RegClearInt Register = "CLRINT" // Clear interrupt, write side of 0x06
	RegCDataL   Register = "CDATAL" // Clear channel low byte only
)

// ENABLE register flags
const (
	EnablePON  byte = 0x01 // Power on - activates the internal oscillator
	EnableAEN  byte = 0x02 // RGBC enable - activates the ADC
	EnableWEN  byte = 0x08 // Wait enable - activates the wait timer
	EnableAIEN byte = 0x10 // RGBC interrupt enable
)

// CONFIG register flags
const (
	configWLONG byte = 0x02 // Wait long - scales WTIME by 12x
)

// STATUS register flags
const (
	statusAVALID byte = 0x01 // RGBC cycle has completed since AEN was asserted
	statusAINT   byte = 0x10 // RGBC clear channel interrupt
)

// DefaultAddr is the default I2C address of the TCS34725.
const DefaultAddr = 0x29

type accessMode byte

const (
	accessWrite     accessMode = 0b01
	accessRead      accessMode = 0b10
	accessReadWrite accessMode = 0b11
)

type registerInfo struct {
	addr   byte
	access accessMode
	size   int
}

// The register map of the chip. Multi-byte entries are read low byte first.
var registers = map[Register]registerInfo{
	RegEnable:  {0x00, accessReadWrite, 1},
	RegATime:   {0x01, accessReadWrite, 1},
	RegWTime:   {0x03, accessReadWrite, 1},
	RegAILTL:   {0x04, accessReadWrite, 1},
	RegAILTH:   {0x05, accessReadWrite, 1},
	RegAIHTL:   {0x06, accessReadWrite, 1},
	RegAIHTH:   {0x07, accessReadWrite, 1},
	RegPers:    {0x0C, accessReadWrite, 1},
	RegConfig:  {0x0D, accessReadWrite, 1},
	RegControl: {0x0F, accessReadWrite, 1},
	RegID:      {0x12, accessRead, 1},
	RegStatus:  {0x13, accessRead, 1},

	RegCData: {0x14, accessRead, 2},
	RegRData: {0x16, accessRead, 2},
	RegGData: {0x18, accessRead, 2},
	RegBData: {0x1A, accessRead, 2},

	RegClearInt: {0x06, accessWrite, 1},
	RegCDataL:   {0x14, accessRead, 1},
}

// encodeWrite builds the command byte for a write transaction, rejecting
// illegal register/command combinations before anything touches the bus.
func encodeWrite(reg Register, ct CommandType) (byte, error) {
	if ct == commandReserved {
		return 0, ErrReservedCommandType
	}
	info, ok := registers[reg]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRegister, reg)
	}
	if info.access&accessWrite == 0 {
		return 0, fmt.Errorf("%w: %s", ErrReadOnly, reg)
	}
	return commandBit | byte(ct)<<5 | info.addr, nil
}

// encodeRead builds the command byte for a read transaction. length must
// cover the register's full backing size; partial reads are not defined.
func encodeRead(reg Register, ct CommandType, length int) (byte, error) {
	if ct == commandReserved {
		return 0, ErrReservedCommandType
	}
	info, ok := registers[reg]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRegister, reg)
	}
	if info.access&accessRead == 0 {
		return 0, fmt.Errorf("%w: %s", ErrWriteOnly, reg)
	}
	if length != info.size {
		return 0, fmt.Errorf("%w: %s is a %d-byte register, read of %d requested", ErrOutOfRange, reg, info.size, length)
	}
	return commandBit | byte(ct)<<5 | info.addr, nil
}
