package codec

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/stratos-avionics/pdusim/internal/pdu"
)

// SpacePacket framing constants (spec §4.1).
const (
	spacePacketHeaderLen = 6
	ccsdsVersion         = 0 // version field is always 0 in this ICD
	telecommandType      = 1
	telemetryType        = 0
	maxDatagramSize      = 64 * 1024
)

// SpacePacketCodec encodes/decodes the CCSDS-style primary header +
// payload framing used over the Network Endpoint. A codec is not tied to
// an APID: EncodeResponse takes the APID per call (telemetry responses
// always claim the APID that was addressed), so one codec serves both units.
type SpacePacketCodec struct {
	seqCount uint32 // wraps at 14 bits; monotonically incremented per encode
}

// DecodeCommand parses a telecommand Space Packet into a Command.
// MalformedFrame covers structural failures (too short, length mismatch);
// UnknownMessage covers a well-formed frame with an unrecognized Message
// ID — both are returned as *pdu.Fault so the caller can build the
// matching telemetry error response (spec §4.1).
func (c *SpacePacketCodec) DecodeCommand(raw []byte) (Command, *pdu.Fault) {
	if len(raw) > maxDatagramSize {
		return Command{}, pdu.NewFault(pdu.FaultMalformedFrame, "datagram exceeds maximum size")
	}
	if len(raw) < spacePacketHeaderLen+2 {
		return Command{}, pdu.NewFault(pdu.FaultMalformedFrame, "frame shorter than header+MessageID+LogicalUnitID")
	}

	word01 := binary.BigEndian.Uint16(raw[0:2])
	version := byte(word01 >> 13)
	packetType := byte((word01 >> 12) & 0x1)
	apid := pdu.APID(word01 & 0x07FF)

	length := binary.BigEndian.Uint16(raw[4:6])
	wantLen := int(length) + 1
	gotLen := len(raw) - spacePacketHeaderLen
	if wantLen != gotLen {
		return Command{APID: apid}, pdu.NewFault(pdu.FaultMalformedFrame,
			fmt.Sprintf("packet data length field says %d, payload is %d", wantLen, gotLen))
	}
	if version != ccsdsVersion {
		return Command{APID: apid}, pdu.NewFault(pdu.FaultMalformedFrame, "unsupported CCSDS version")
	}
	if packetType != telecommandType {
		return Command{APID: apid}, pdu.NewFault(pdu.FaultMalformedFrame, "expected telecommand packet type")
	}

	payload := raw[spacePacketHeaderLen:]
	msgID := MessageID(payload[0])
	lu := pdu.LogicalUnit(payload[1])
	params := payload[2:]

	if !msgID.IsKnown() {
		return Command{APID: apid, MessageID: msgID, LogicalUnit: lu, Payload: params},
			pdu.NewFault(pdu.FaultUnknownMessage, msgID.String())
	}

	return Command{APID: apid, MessageID: msgID, LogicalUnit: lu, Payload: params}, nil
}

// EncodeResponse builds a telemetry Space Packet addressed from apid,
// carrying r's status+payload. seqCount wraps modulo 2^14 as required by
// the 14-bit sequence count field.
func (c *SpacePacketCodec) EncodeResponse(apid pdu.APID, r Response) ([]byte, error) {
	payload := make([]byte, 3+len(r.Payload))
	payload[0] = byte(r.MessageID)
	payload[1] = byte(r.LogicalUnit)
	payload[2] = byte(r.Status)
	copy(payload[3:], r.Payload)

	if len(payload) > 0xFFFF {
		return nil, fmt.Errorf("codec: response payload too large for Space Packet")
	}

	seq := uint16(atomic.AddUint32(&c.seqCount, 1) & 0x3FFF)

	out := make([]byte, spacePacketHeaderLen+len(payload))
	word01 := uint16(ccsdsVersion)<<13 | uint16(telemetryType)<<12 | uint16(apid&0x07FF)
	binary.BigEndian.PutUint16(out[0:2], word01)
	word23 := seq & 0x3FFF // grouping=0 (unsegmented) in top 2 bits
	binary.BigEndian.PutUint16(out[2:4], word23)
	binary.BigEndian.PutUint16(out[4:6], uint16(len(payload)-1))
	copy(out[spacePacketHeaderLen:], payload)
	return out, nil
}

// DecodeResponse is the inverse of EncodeResponse, used by test code and
// any OBC-side test double exercising P6/S7.
func (c *SpacePacketCodec) DecodeResponse(raw []byte) (apid pdu.APID, r Response, err error) {
	if len(raw) < spacePacketHeaderLen+3 {
		return 0, Response{}, fmt.Errorf("codec: response frame too short")
	}
	word01 := binary.BigEndian.Uint16(raw[0:2])
	apid = pdu.APID(word01 & 0x07FF)
	length := binary.BigEndian.Uint16(raw[4:6])
	payload := raw[spacePacketHeaderLen:]
	if int(length)+1 != len(payload) {
		return 0, Response{}, fmt.Errorf("codec: length field mismatch")
	}
	r = Response{
		MessageID:   MessageID(payload[0]),
		LogicalUnit: pdu.LogicalUnit(payload[1]),
		Status:      pdu.StatusCode(payload[2]),
		Payload:     append([]byte(nil), payload[3:]...),
	}
	return apid, r, nil
}
