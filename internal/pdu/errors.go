package pdu

import "fmt"

// FaultKind enumerates the error kinds of spec §7. Every command-level
// failure returned by the dispatcher carries one of these so the endpoint
// can pick a status byte and the state store can bump the matching
// counter, mirroring the teacher's modbus.Exception/Code() shape.
type FaultKind byte

const (
	// FaultNone indicates success; no Fault is ever constructed with it.
	FaultNone FaultKind = iota
	FaultMalformedFrame
	FaultUnknownMessage
	FaultInvalidStateTransition
	FaultLineTransitionForbidden
	FaultUnknownLogicalUnit
	FaultHardwareFault
	FaultTransportFault
)

func (k FaultKind) String() string {
	switch k {
	case FaultMalformedFrame:
		return "MalformedFrame"
	case FaultUnknownMessage:
		return "UnknownMessage"
	case FaultInvalidStateTransition:
		return "InvalidStateTransition"
	case FaultLineTransitionForbidden:
		return "LineTransitionForbidden"
	case FaultUnknownLogicalUnit:
		return "UnknownLogicalUnit"
	case FaultHardwareFault:
		return "HardwareFault"
	case FaultTransportFault:
		return "TransportFault"
	default:
		return "None"
	}
}

// StatusCode is the single on-wire status byte a response carries, one
// value per FaultKind plus OK.
type StatusCode byte

const (
	StatusOK StatusCode = iota
	StatusMalformedFrame
	StatusUnknownMessage
	StatusInvalidStateTransition
	StatusLineTransitionForbidden
	StatusUnknownLogicalUnit
	StatusHardwareFault
	StatusTransportFault
)

// Code maps a FaultKind onto its wire status byte.
func (k FaultKind) Code() StatusCode {
	if k == FaultNone {
		return StatusOK
	}
	return StatusCode(k)
}

// Fault is the error type returned by dispatcher handlers. It satisfies
// the builtin error interface and additionally exposes the machine
// readable Kind, the same pairing the teacher's modbus.Exception makes
// between a human string and its Code().
type Fault struct {
	kind FaultKind
	msg  string
}

var _ error = (*Fault)(nil)

// NewFault builds a Fault of the given kind with an explanatory message.
func NewFault(kind FaultKind, msg string) *Fault {
	return &Fault{kind: kind, msg: msg}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("pdu: %s: %s", f.kind, f.msg)
}

// Kind returns the FaultKind carried by f.
func (f *Fault) Kind() FaultKind {
	return f.kind
}

// Bump increments the ErrorCounters field matching kind. HardwareFault is
// counted here too (spec §7) even though it is never raised synchronously
// from a command handler; the Hardware Projector calls it directly.
func (e *ErrorCounters) Bump(kind FaultKind) {
	switch kind {
	case FaultMalformedFrame:
		e.ChecksumFailed++
	case FaultUnknownMessage:
		e.UnknownCommand++
	case FaultInvalidStateTransition, FaultLineTransitionForbidden:
		e.CommandRejected++
	case FaultUnknownLogicalUnit:
		e.CommandRejected++
	case FaultHardwareFault:
		e.HardwareFault++
	}
}
