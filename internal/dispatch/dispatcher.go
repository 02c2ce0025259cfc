// Package dispatch implements the Command Dispatcher of spec §4.2: it maps
// a decoded command to a handler, executes it synchronously against the
// addressed PduUnit, and produces a response payload. Its Dispatch method
// plays the same role the teacher's modbus.Mux.Handle plays for a function
// code, generalized from one byte (modbus function code) to the
// (APID, MessageID) pair this protocol routes on.
package dispatch

import (
	"time"

	"github.com/stratos-avionics/pdusim/internal/codec"
	"github.com/stratos-avionics/pdusim/internal/pdu"
)

// Dispatcher routes decoded commands to the PduStateManager. It holds no
// per-request state; it is safe for concurrent use by multiple endpoints,
// exactly as the teacher's Handler/Mux contract requires ("h must be safe
// for use by multiple go routines").
type Dispatcher struct {
	Units *pdu.PduStateManager
	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// New builds a Dispatcher bound to units.
func New(units *pdu.PduStateManager) *Dispatcher {
	return &Dispatcher{Units: units, Now: time.Now}
}

// Dispatch executes one decoded command and returns the Response to send
// back. Unknown APIDs are ignored silently by returning (Response{}, false)
// — spec §4.2: "another unit may own them" — so the caller must not emit a
// reply in that case.
func (d *Dispatcher) Dispatch(cmd codec.Command) (codec.Response, bool) {
	unit := d.Units.Unit(cmd.APID)
	if unit == nil {
		return codec.Response{}, false
	}
	return d.dispatchToUnit(unit, cmd), true
}

// DispatchToUnit executes cmd against a specific, already-resolved unit.
// The Serial Endpoint uses this directly since RS422 frames carry no APID
// (see DESIGN.md): it is bound to one unit at configuration time.
func (d *Dispatcher) DispatchToUnit(unit *pdu.PduUnit, cmd codec.Command) codec.Response {
	return d.dispatchToUnit(unit, cmd)
}

func (d *Dispatcher) dispatchToUnit(unit *pdu.PduUnit, cmd codec.Command) codec.Response {
	resp := codec.Response{MessageID: cmd.MessageID, LogicalUnit: cmd.LogicalUnit, Status: pdu.StatusOK}

	switch cmd.MessageID {
	case codec.MsgObcHeartBeat:
		counter, err := codec.DecodeHeartbeatParams(cmd.Payload)
		if err != nil {
			return malformed(unit, resp)
		}
		reply := unit.Heartbeat(counter, d.now())
		resp.Payload = codec.EncodeHeartbeatParams(reply)

	case codec.MsgGetPduStatus:
		resp.Payload = codec.EncodeStatusResponse(unit.StatusValue())

	case codec.MsgPduGoLoad:
		_, fault := unit.RequestTransition(pdu.CmdGoLoad)
		resp = withFault(resp, fault)
	case codec.MsgPduGoOperate:
		_, fault := unit.RequestTransition(pdu.CmdGoOperate)
		resp = withFault(resp, fault)
	case codec.MsgPduGoSafe:
		_, fault := unit.RequestTransition(pdu.CmdGoSafe)
		resp = withFault(resp, fault)
	case codec.MsgPduGoMaintenance:
		_, fault := unit.RequestTransition(pdu.CmdGoMaintenance)
		resp = withFault(resp, fault)

	case codec.MsgSetUnitPwLines:
		mask, err := codec.DecodeLineMaskParams(cmd.Payload)
		if err != nil {
			return malformed(unit, resp)
		}
		resp = withFault(resp, unit.SetLines(cmd.LogicalUnit, mask))

	case codec.MsgResetUnitPwLines:
		mask, err := codec.DecodeLineMaskParams(cmd.Payload)
		if err != nil {
			return malformed(unit, resp)
		}
		resp = withFault(resp, unit.ResetLines(cmd.LogicalUnit, mask))

	case codec.MsgOverwriteUnitPwLines:
		mask, err := codec.DecodeLineMaskParams(cmd.Payload)
		if err != nil {
			return malformed(unit, resp)
		}
		resp = withFault(resp, unit.OverwriteLines(cmd.LogicalUnit, mask))

	case codec.MsgGetUnitLineStates:
		mask, fault := unit.LineStates(cmd.LogicalUnit)
		resp = withFault(resp, fault)
		if fault == nil {
			resp.Payload = codec.EncodeLineStatesResponse(mask)
		}

	case codec.MsgGetRawMeasurements:
		values, fault := unit.RawMeasurements(cmd.LogicalUnit)
		resp = withFault(resp, fault)
		if fault == nil {
			resp.Payload = codec.EncodeRawMeasurementsResponse(values)
		}

	case codec.MsgGetConvertedMeasurements:
		values, fault := unit.ConvertedMeasurements(cmd.LogicalUnit)
		resp = withFault(resp, fault)
		if fault == nil {
			resp.Payload = codec.EncodeConvertedMeasurementsResponse(values)
		}

	default:
		resp.Status = pdu.StatusUnknownMessage
	}

	return resp
}

// HandleDecodeFault builds the telemetry error response for a frame that
// failed to decode (MalformedFrame/UnknownMessage, spec §4.1) and bumps the
// addressed unit's counter (P1 still holds as far as it can: MessageID and
// LogicalUnit are echoed whenever the codec managed to recover them). ok is
// false when unit is nil — the frame's APID could not be resolved to either
// PduUnit — in which case the endpoint drops the frame without replying,
// since there is no addressee to bump or answer.
func (d *Dispatcher) HandleDecodeFault(unit *pdu.PduUnit, cmd codec.Command, fault *pdu.Fault) (codec.Response, bool) {
	if unit == nil {
		return codec.Response{}, false
	}
	unit.BumpFault(fault.Kind())
	return codec.Response{MessageID: cmd.MessageID, LogicalUnit: cmd.LogicalUnit, Status: fault.Kind().Code()}, true
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func malformed(unit *pdu.PduUnit, resp codec.Response) codec.Response {
	unit.BumpFault(pdu.FaultMalformedFrame)
	resp.Status = pdu.StatusMalformedFrame
	return resp
}

func withFault(resp codec.Response, fault *pdu.Fault) codec.Response {
	if fault != nil {
		resp.Status = fault.Kind().Code()
	}
	return resp
}

