// Package transport implements the two wire endpoints of spec §4.1 (the
// UDP-framed Network Endpoint carrying Space Packets, and the RS422 Serial
// Endpoint), built around the teacher's network/server shape: a read loop
// that decodes one frame at a time, hands it to the dispatcher, and writes
// the reply back, all torn down by a single cancel.Context.
package transport

import (
	"errors"
	"net"

	"github.com/GoAethereal/cancel"
	"github.com/charmbracelet/log"

	"github.com/stratos-avionics/pdusim/internal/codec"
	"github.com/stratos-avionics/pdusim/internal/dispatch"
	"github.com/stratos-avionics/pdusim/internal/pdu"
)

const maxDatagramSize = 64 * 1024

// NetworkEndpoint is the Network Endpoint of spec §4.1/D: it listens for
// CCSDS Space Packet datagrams addressed to either PDU unit and replies on
// the same socket, one datagram per request (no persistent per-client
// state, unlike the teacher's TCP connection).
type NetworkEndpoint struct {
	Addr       string
	Dispatcher *dispatch.Dispatcher
	Codec      codec.SpacePacketCodec
	Log        *log.Logger

	conn net.PacketConn
}

// Serve opens the UDP socket and processes datagrams until ctx is
// canceled. It mirrors the teacher's Server.Serve: a watchdog goroutine
// closes the listener on cancellation, and net.ErrClosed from the read
// loop that follows is treated as a clean shutdown rather than a fault
// (SPEC_FULL.md §D).
func (e *NetworkEndpoint) Serve(ctx cancel.Context) error {
	conn, err := net.ListenPacket("udp", e.Addr)
	if err != nil {
		return err
	}
	e.conn = conn

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, src, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			e.logger().Error("network endpoint read failed", "err", err)
			continue
		}
		e.handle(src, append([]byte(nil), buf[:n]...))
	}
}

func (e *NetworkEndpoint) handle(src net.Addr, frame []byte) {
	cmd, fault := e.Codec.DecodeCommand(frame)
	var resp codec.Response
	var apid pdu.APID
	var ok bool

	if fault != nil {
		unit := e.Dispatcher.Units.Unit(cmd.APID)
		resp, ok = e.Dispatcher.HandleDecodeFault(unit, cmd, fault)
		apid = cmd.APID
	} else {
		resp, ok = e.Dispatcher.Dispatch(cmd)
		apid = cmd.APID
	}
	if !ok {
		return
	}

	out, err := e.Codec.EncodeResponse(apid, resp)
	if err != nil {
		e.logger().Error("network endpoint encode failed", "err", err)
		return
	}
	if _, err := e.conn.WriteTo(out, src); err != nil {
		e.logger().Error("network endpoint write failed", "err", err, "dst", src)
	}
}

func (e *NetworkEndpoint) logger() *log.Logger {
	if e.Log != nil {
		return e.Log
	}
	return log.Default()
}
