// Package hardware implements the Hardware Projector of spec §4.4/§6: it
// reconciles the in-memory PduUnit line state onto real or simulated GPIO
// pins, and samples back raw ADC values for the Measurements channels.
package hardware

import "fmt"

// DriverStats tallies the I/O activity and faults of a GPIODriver, as
// returned by its Stats method. Neither the Hardware Projector nor the
// Supervisor's metrics read it; the HardwareFault counter of GetPduStatus
// is bumped by the Projector directly on a failed WritePin.
type DriverStats struct {
	Writes uint64
	Reads  uint64
	Faults uint64
}

// GPIODriver is the hardware abstraction the Hardware Projector drives: one
// implementation talks to real MCP23017 expanders over I²C (Mcp23017Driver),
// the other is a pure in-memory stand-in for simulator mode (SimDriver).
type GPIODriver interface {
	// ConfigureOutput prepares line as a digital output. NewMcp23017Driver
	// calls it once per line; the Projector does not call it.
	ConfigureOutput(line int) error
	// WritePin drives line according to energized, applying the inverted
	// polarity documented in spec §6 (energized ⇒ pin driven LOW) inside
	// the implementation.
	WritePin(line int, energized bool) error
	// Stats returns a snapshot of cumulative I/O counters.
	Stats() DriverStats
}

// ErrLineOutOfRange is returned by a GPIODriver when asked to address a
// line index outside [0, pdu.LineCount).
var ErrLineOutOfRange = fmt.Errorf("hardware: line index out of range")
