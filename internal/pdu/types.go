// Package pdu implements the command/telemetry state machine and data
// model of the dual Power Distribution Unit (nominal + redundant).
package pdu

import "fmt"

// APID is the CCSDS Application Process Identifier used to route a command
// to one of the two PDU units.
type APID uint16

const (
	// APIDNominal addresses the nominal PDU.
	APIDNominal APID = 0x65
	// APIDRedundant addresses the redundant PDU.
	APIDRedundant APID = 0x66
)

// Mode is the PDU operating mode, per the state machine in spec §4.3.
type Mode byte

const (
	ModeBoot Mode = iota
	ModeLoad
	ModeOperate
	ModeSafe
	ModeMaintenance
)

func (m Mode) String() string {
	switch m {
	case ModeBoot:
		return "Boot"
	case ModeLoad:
		return "Load"
	case ModeOperate:
		return "Operate"
	case ModeSafe:
		return "Safe"
	case ModeMaintenance:
		return "Maintenance"
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

// LineCount is the total number of switchable power rails modeled per unit.
const LineCount = 71

// LogicalUnit identifies one of the nine named groups of power lines.
type LogicalUnit byte

const (
	LUHighPowerHeaters LogicalUnit = iota
	LULowPowerHeaters
	LUAvionicLoads
	LUHDRM
	LUReactionWheels
	LUPropulsion
	LUIsolatedLDO
	LUIsolatedPower
	LUThermalFlyback
	logicalUnitCount
)

// logicalUnitRange describes the contiguous [first, last] line indices
// (inclusive) owned by a logical unit. The table is the single source of
// truth for the line/logical-unit partition named in spec §3; its
// correctness (exact, non-overlapping, 71 lines total) is checked by
// types_test.go.
type logicalUnitRange struct {
	first, last int
}

var logicalUnitRanges = map[LogicalUnit]logicalUnitRange{
	LUHighPowerHeaters: {0, 17},
	LULowPowerHeaters:  {18, 39},
	LUAvionicLoads:     {40, 41},
	LUHDRM:             {42, 53},
	LUReactionWheels:   {54, 57},
	LUPropulsion:       {58, 59},
	LUIsolatedLDO:      {60, 65},
	LUIsolatedPower:    {66, 68},
	LUThermalFlyback:   {69, 70},
}

// ErrUnknownLogicalUnit is returned by Lines when lu is outside 0-8.
var ErrUnknownLogicalUnit = fmt.Errorf("pdu: unknown logical unit")

// Lines returns the [first, last] inclusive line indices owned by lu.
func Lines(lu LogicalUnit) (first, last int, err error) {
	r, ok := logicalUnitRanges[lu]
	if !ok {
		return 0, 0, ErrUnknownLogicalUnit
	}
	return r.first, r.last, nil
}

// Width returns the number of lines in logical unit lu.
func Width(lu LogicalUnit) (int, error) {
	first, last, err := Lines(lu)
	if err != nil {
		return 0, err
	}
	return last - first + 1, nil
}

// ValidLogicalUnit reports whether lu is one of the nine defined units.
func ValidLogicalUnit(lu LogicalUnit) bool {
	_, ok := logicalUnitRanges[lu]
	return ok
}
