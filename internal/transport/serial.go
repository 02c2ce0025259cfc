package transport

import (
	"io"
	"time"

	"github.com/GoAethereal/cancel"
	"github.com/charmbracelet/log"
	"github.com/pkg/term"

	"github.com/stratos-avionics/pdusim/internal/codec"
	"github.com/stratos-avionics/pdusim/internal/dispatch"
	"github.com/stratos-avionics/pdusim/internal/pdu"
)

const (
	minBackoff    = 100 * time.Millisecond
	maxBackoff    = 5 * time.Second
	serialReadBuf = 512
)

// SerialEndpoint is the RS422 Serial Endpoint of spec §4.1/E. Unlike the
// Network Endpoint it is bound to a single PduUnit at configuration time,
// since the serial frame carries no APID (see DESIGN.md). It reconnects
// with a bounded exponential backoff when the device node disappears.
type SerialEndpoint struct {
	Device     string
	Baud       int
	Unit       *pdu.PduUnit
	Dispatcher *dispatch.Dispatcher
	Codec      codec.SerialFrameCodec
	Log        *log.Logger

	// open opens the device; overridable in tests to avoid touching a
	// real tty.
	open func(device string, baud int) (io.ReadWriteCloser, error)
}

// Serve opens the serial device and processes frames until ctx is
// canceled, reconnecting with backoff on I/O failure.
func (e *SerialEndpoint) Serve(ctx cancel.Context) error {
	b := newBackoff(minBackoff, maxBackoff)
	openFn := e.open
	if openFn == nil {
		openFn = openSerialPort
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		port, err := openFn(e.Device, e.Baud)
		if err != nil {
			e.logger().Error("serial endpoint open failed", "device", e.Device, "err", err)
			if !sleepOrDone(ctx, b.next()) {
				return nil
			}
			continue
		}
		b.reset()

		err = e.readLoop(ctx, port)
		port.Close()
		if err == nil {
			return nil
		}
		e.logger().Warn("serial endpoint disconnected", "device", e.Device, "err", err)
		if !sleepOrDone(ctx, b.next()) {
			return nil
		}
	}
}

// readLoop consumes bytes from port until it errors or ctx is canceled,
// carving complete frames with codec.ScanFrame and resynchronizing one
// byte at a time when the stream does not start on a delimiter.
func (e *SerialEndpoint) readLoop(ctx cancel.Context, port io.ReadWriteCloser) error {
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	buf := make([]byte, 0, serialReadBuf)
	chunk := make([]byte, serialReadBuf)
	for {
		n, err := port.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		for {
			frameLen, ok := codec.ScanFrame(buf)
			if !ok {
				if len(buf) > 0 && !startsWithDelimiter(buf) {
					e.Unit.BumpFault(pdu.FaultMalformedFrame)
					buf = buf[1:]
					continue
				}
				break
			}
			e.handle(port, buf[:frameLen])
			buf = buf[frameLen:]
		}
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
	}
}

func (e *SerialEndpoint) handle(port io.Writer, frame []byte) {
	cmd, fault := e.Codec.DecodeCommand(frame)
	var resp codec.Response
	if fault != nil {
		resp, _ = e.Dispatcher.HandleDecodeFault(e.Unit, cmd, fault)
	} else {
		resp = e.Dispatcher.DispatchToUnit(e.Unit, cmd)
	}

	out, err := e.Codec.EncodeResponse(resp)
	if err != nil {
		e.logger().Error("serial endpoint encode failed", "err", err)
		return
	}
	if _, err := port.Write(out); err != nil {
		e.logger().Error("serial endpoint write failed", "err", err)
	}
}

func (e *SerialEndpoint) logger() *log.Logger {
	if e.Log != nil {
		return e.Log
	}
	return log.Default()
}

func startsWithDelimiter(buf []byte) bool {
	return len(buf) > 0 && buf[0] == 0x55
}

// sleepOrDone waits for d, returning false early if ctx is canceled first.
func sleepOrDone(ctx cancel.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func openSerialPort(device string, baud int) (io.ReadWriteCloser, error) {
	return term.Open(device, term.Speed(baud), term.RawMode)
}
