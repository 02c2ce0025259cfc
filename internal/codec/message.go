// Package codec implements the two wire framings of spec §4.1 (CCSDS-style
// Space Packet and the RS422 serial frame) sharing one command/response
// payload schema, in the same spirit as the teacher's framer interface
// sharing one ADU shape across modbus's TCP/RTU/ASCII variants.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/stratos-avionics/pdusim/internal/pdu"
)

// MessageID identifies the command/response kind carried by a payload
// (spec §4.1). The numeric assignments below are this rewrite's resolution
// of Open Question Q1 (no authoritative ICD shipped with the corpus): one
// consistent, documented byte per name, in the order §4.1 lists them.
type MessageID byte

const (
	MsgObcHeartBeat MessageID = 0x01 + iota
	MsgGetPduStatus
	MsgPduGoLoad
	MsgPduGoOperate
	MsgPduGoSafe
	MsgPduGoMaintenance
	MsgSetUnitPwLines
	MsgResetUnitPwLines
	MsgOverwriteUnitPwLines
	MsgGetUnitLineStates
	MsgGetRawMeasurements
	MsgGetConvertedMeasurements
)

func (m MessageID) String() string {
	switch m {
	case MsgObcHeartBeat:
		return "ObcHeartBeat"
	case MsgGetPduStatus:
		return "GetPduStatus"
	case MsgPduGoLoad:
		return "PduGoLoad"
	case MsgPduGoOperate:
		return "PduGoOperate"
	case MsgPduGoSafe:
		return "PduGoSafe"
	case MsgPduGoMaintenance:
		return "PduGoMaintenance"
	case MsgSetUnitPwLines:
		return "SetUnitPwLines"
	case MsgResetUnitPwLines:
		return "ResetUnitPwLines"
	case MsgOverwriteUnitPwLines:
		return "OverwriteUnitPwLines"
	case MsgGetUnitLineStates:
		return "GetUnitLineStates"
	case MsgGetRawMeasurements:
		return "GetRawMeasurements"
	case MsgGetConvertedMeasurements:
		return "GetConvertedMeasurements"
	default:
		return fmt.Sprintf("MessageID(%#02x)", byte(m))
	}
}

// knownMessageIDs backs IsKnown; used by decoders to raise UnknownMessage
// instead of silently accepting an unrecognized byte.
var knownMessageIDs = map[MessageID]bool{
	MsgObcHeartBeat: true, MsgGetPduStatus: true, MsgPduGoLoad: true,
	MsgPduGoOperate: true, MsgPduGoSafe: true, MsgPduGoMaintenance: true,
	MsgSetUnitPwLines: true, MsgResetUnitPwLines: true, MsgOverwriteUnitPwLines: true,
	MsgGetUnitLineStates: true, MsgGetRawMeasurements: true, MsgGetConvertedMeasurements: true,
}

// IsKnown reports whether m is one of the Message IDs defined by the ICD.
func (m MessageID) IsKnown() bool {
	return knownMessageIDs[m]
}

// Command is the decoded form of an inbound request, common to both
// framings. APID is the zero value for frames decoded off the Serial
// Endpoint, which is bound to a single unit at configuration time (the
// RS422 frame carries no APID field — see DESIGN.md).
type Command struct {
	APID        pdu.APID
	MessageID   MessageID
	LogicalUnit pdu.LogicalUnit
	Payload     []byte
}

// Response is the encoded form of an outbound reply. It always echoes the
// request's MessageID and LogicalUnit (invariant P1, spec §4.2).
type Response struct {
	MessageID   MessageID
	LogicalUnit pdu.LogicalUnit
	Status      pdu.StatusCode
	Payload     []byte
}

// EncodeResponseBody serializes a Response's status + payload into the
// body carried inside a frame whose header already states MessageID and
// LogicalUnit separately (the RS422 serial framing, spec §4.1): one status
// octet followed by Payload.
func EncodeResponseBody(r Response) []byte {
	body := make([]byte, 1+len(r.Payload))
	body[0] = byte(r.Status)
	copy(body[1:], r.Payload)
	return body
}

// DecodeResponseBody is the inverse of EncodeResponseBody.
func DecodeResponseBody(body []byte) (pdu.StatusCode, []byte, error) {
	if len(body) < 1 {
		return 0, nil, fmt.Errorf("codec: response body too short (%d bytes)", len(body))
	}
	return pdu.StatusCode(body[0]), body[1:], nil
}

// --- command payload parameter helpers ---
//
// These mirror the teacher's helper.go put()/bytesToBools() style: small,
// explicit big-endian packers/unpackers for the fixed parameter shapes a
// handler needs, rather than a generic reflection-based codec.

// putUint16 writes a big-endian uint16 into buf's first two bytes.
func putUint16(buf []byte, v uint16) {
	binary.BigEndian.PutUint16(buf, v)
}

// EncodeHeartbeatParams packs the ObcHeartBeat payload: a 16-bit counter.
func EncodeHeartbeatParams(counter uint16) []byte {
	buf := make([]byte, 2)
	putUint16(buf, counter)
	return buf
}

func DecodeHeartbeatParams(payload []byte) (counter uint16, err error) {
	if len(payload) != 2 {
		return 0, fmt.Errorf("codec: heartbeat payload must be 2 bytes, got %d", len(payload))
	}
	return binary.BigEndian.Uint16(payload), nil
}

// EncodeLineMaskParams packs the Set/Reset/Overwrite request payload: a
// 32-bit line-selection bitmask, big-endian.
func EncodeLineMaskParams(mask uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, mask)
	return buf
}

func DecodeLineMaskParams(payload []byte) (mask uint32, err error) {
	if len(payload) != 4 {
		return 0, fmt.Errorf("codec: line-mask payload must be 4 bytes, got %d", len(payload))
	}
	return binary.BigEndian.Uint32(payload), nil
}

// EncodeLineStatesResponse packs GetUnitLineStates' result.
func EncodeLineStatesResponse(mask uint32) []byte {
	return EncodeLineMaskParams(mask)
}

func DecodeLineStatesResponse(payload []byte) (uint32, error) {
	return DecodeLineMaskParams(payload)
}

// EncodeStatusResponse packs GetPduStatus' (mode, error counters, uptime).
func EncodeStatusResponse(s pdu.Status) []byte {
	buf := make([]byte, 1+4*4+8)
	buf[0] = byte(s.Mode)
	binary.BigEndian.PutUint32(buf[1:], s.Errors.CommandRejected)
	binary.BigEndian.PutUint32(buf[5:], s.Errors.ChecksumFailed)
	binary.BigEndian.PutUint32(buf[9:], s.Errors.UnknownCommand)
	binary.BigEndian.PutUint32(buf[13:], s.Errors.HardwareFault)
	binary.BigEndian.PutUint64(buf[17:], s.Uptime)
	return buf
}

func DecodeStatusResponse(payload []byte) (pdu.Status, error) {
	if len(payload) != 25 {
		return pdu.Status{}, fmt.Errorf("codec: status payload must be 25 bytes, got %d", len(payload))
	}
	return pdu.Status{
		Mode: pdu.Mode(payload[0]),
		Errors: pdu.ErrorCounters{
			CommandRejected: binary.BigEndian.Uint32(payload[1:]),
			ChecksumFailed:  binary.BigEndian.Uint32(payload[5:]),
			UnknownCommand:  binary.BigEndian.Uint32(payload[9:]),
			HardwareFault:   binary.BigEndian.Uint32(payload[13:]),
		},
		Uptime: binary.BigEndian.Uint64(payload[17:]),
	}, nil
}

// EncodeRawMeasurementsResponse packs a slice of raw (uint16) samples;
// EncodeConvertedMeasurementsResponse packs converted (int32, encoded as
// uint32 two's complement) samples.
func EncodeRawMeasurementsResponse(values []uint16) []byte {
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(buf[2*i:], v)
	}
	return buf
}

func DecodeRawMeasurementsResponse(payload []byte) ([]uint16, error) {
	if len(payload)%2 != 0 {
		return nil, fmt.Errorf("codec: raw measurements payload must be a multiple of 2 bytes, got %d", len(payload))
	}
	out := make([]uint16, len(payload)/2)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(payload[2*i:])
	}
	return out, nil
}

func EncodeConvertedMeasurementsResponse(values []int32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(buf[4*i:], uint32(v))
	}
	return buf
}

func DecodeConvertedMeasurementsResponse(payload []byte) ([]int32, error) {
	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("codec: converted measurements payload must be a multiple of 4 bytes, got %d", len(payload))
	}
	out := make([]int32, len(payload)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(payload[4*i:]))
	}
	return out, nil
}
