package codec

import (
	"fmt"

	"github.com/stratos-avionics/pdusim/internal/pdu"
)

// Serial frame delimiter and layout constants (spec §4.1):
//
//	0x55 | MessageID | LogicalUnitID | PayloadLen(1 octet) | Payload... | 0x55
//
// PayloadLen authoritatively bounds Payload; the trailing 0x55 is a sanity
// check, not a frame-search token (Open Question Q3, resolved in
// SPEC_FULL.md: length-prefix parsing, no byte-stuffing).
const (
	serialDelimiter  = 0x55
	serialHeaderLen  = 3 // delimiter + MessageID + LogicalUnitID
	serialMinFrame   = serialHeaderLen + 1 /*PayloadLen*/ + 1 /*trailing delimiter*/
	serialMaxPayload = 255
)

// SerialFrameCodec encodes/decodes the RS422 framing. Unlike
// SpacePacketCodec it carries no APID: a Serial Endpoint is bound to
// exactly one PduUnit at configuration time, since the frame itself has no
// APID field (see DESIGN.md).
type SerialFrameCodec struct{}

// DecodeCommand parses one complete frame (delimiter through trailing
// delimiter, inclusive) into a Command. A structurally invalid frame or a
// bad trailing sentinel is a MalformedFrame; an unrecognized Message ID
// passing otherwise-valid structure is UnknownMessage.
func (SerialFrameCodec) DecodeCommand(frame []byte) (Command, *pdu.Fault) {
	if len(frame) < serialMinFrame {
		return Command{}, pdu.NewFault(pdu.FaultMalformedFrame, "frame shorter than minimum length")
	}
	if frame[0] != serialDelimiter {
		return Command{}, pdu.NewFault(pdu.FaultMalformedFrame, "missing leading delimiter")
	}
	msgID := MessageID(frame[1])
	lu := pdu.LogicalUnit(frame[2])
	payloadLen := int(frame[3])

	wantTotal := serialHeaderLen + 1 + payloadLen + 1
	if len(frame) != wantTotal {
		return Command{}, pdu.NewFault(pdu.FaultMalformedFrame,
			fmt.Sprintf("frame length %d does not match PayloadLen-implied %d", len(frame), wantTotal))
	}
	payload := frame[4 : 4+payloadLen]
	trailer := frame[len(frame)-1]
	if trailer != serialDelimiter {
		return Command{}, pdu.NewFault(pdu.FaultMalformedFrame, "trailing sentinel is not 0x55")
	}

	if !msgID.IsKnown() {
		return Command{MessageID: msgID, LogicalUnit: lu, Payload: payload},
			pdu.NewFault(pdu.FaultUnknownMessage, msgID.String())
	}
	return Command{MessageID: msgID, LogicalUnit: lu, Payload: payload}, nil
}

// EncodeResponse builds a complete RS422 frame for r.
func (SerialFrameCodec) EncodeResponse(r Response) ([]byte, error) {
	body := EncodeResponseBody(r)
	if len(body) > serialMaxPayload {
		return nil, fmt.Errorf("codec: response payload %d bytes exceeds serial frame limit %d", len(body), serialMaxPayload)
	}
	out := make([]byte, serialHeaderLen+1+len(body)+1)
	out[0] = serialDelimiter
	out[1] = byte(r.MessageID)
	out[2] = byte(r.LogicalUnit)
	out[3] = byte(len(body))
	copy(out[4:], body)
	out[len(out)-1] = serialDelimiter
	return out, nil
}

// DecodeResponse is the inverse of EncodeResponse (used by tests and any
// OBC-side test double).
func (SerialFrameCodec) DecodeResponse(frame []byte) (Response, error) {
	if len(frame) < serialMinFrame {
		return Response{}, fmt.Errorf("codec: response frame too short")
	}
	msgID := MessageID(frame[1])
	lu := pdu.LogicalUnit(frame[2])
	payloadLen := int(frame[3])
	if len(frame) != serialHeaderLen+1+payloadLen+1 {
		return Response{}, fmt.Errorf("codec: response frame length mismatch")
	}
	status, payload, err := DecodeResponseBody(frame[4 : 4+payloadLen])
	if err != nil {
		return Response{}, err
	}
	return Response{
		MessageID:   msgID,
		LogicalUnit: lu,
		Status:      status,
		Payload:     append([]byte(nil), payload...),
	}, nil
}

// ScanFrame attempts to locate one complete frame at the start of buf,
// returning its length. It returns (0, false) when buf does not yet hold a
// complete frame (the Serial Endpoint should keep reading), enabling the
// endpoint to parse a byte stream rather than a single pre-sliced frame.
func ScanFrame(buf []byte) (frameLen int, ok bool) {
	if len(buf) < serialHeaderLen+1 {
		return 0, false
	}
	if buf[0] != serialDelimiter {
		// Resynchronize by skipping one byte; the caller bumps
		// checksum-failed and retries from the next byte.
		return 0, false
	}
	payloadLen := int(buf[3])
	total := serialHeaderLen + 1 + payloadLen + 1
	if len(buf) < total {
		return 0, false
	}
	return total, true
}
