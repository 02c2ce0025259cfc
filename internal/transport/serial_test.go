package transport

import (
	"io"
	"testing"
	"time"

	"github.com/GoAethereal/cancel"

	"github.com/stratos-avionics/pdusim/internal/codec"
	"github.com/stratos-avionics/pdusim/internal/dispatch"
	"github.com/stratos-avionics/pdusim/internal/pdu"
)

// pipePort is an in-memory io.ReadWriteCloser standing in for a real tty,
// so the endpoint's framing/backoff logic can be exercised without opening
// a device node.
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newPipePort() (port *pipePort, toPort *io.PipeWriter, fromPort *io.PipeReader) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	return &pipePort{r: inR, w: outW}, inW, outR
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipePort) Close() error {
	p.r.Close()
	p.w.Close()
	return nil
}

// readFrame reads one byte at a time off r until codec.ScanFrame reports a
// complete frame, mirroring the endpoint's own incremental scan.
func readFrame(t *testing.T, r io.Reader) []byte {
	t.Helper()
	buf := make([]byte, 0, 64)
	one := make([]byte, 1)
	for {
		n, err := r.Read(one)
		if n > 0 {
			buf = append(buf, one[:n]...)
		}
		if err != nil {
			t.Fatalf("reading frame: %v", err)
		}
		if frameLen, ok := codec.ScanFrame(buf); ok {
			return buf[:frameLen]
		}
	}
}

func TestSerialEndpointRoundTrip(t *testing.T) {
	units := pdu.NewPduStateManager()
	unit := units.Unit(pdu.APIDNominal)
	d := dispatch.New(units)

	port, toPort, fromPort := newPipePort()
	ep := &SerialEndpoint{
		Unit:       unit,
		Dispatcher: d,
		open:       func(string, int) (io.ReadWriteCloser, error) { return port, nil },
	}

	ctx := cancel.New()
	done := make(chan error, 1)
	go func() { done <- ep.Serve(ctx) }()

	frame := []byte{0x55, byte(codec.MsgGetPduStatus), 0, 0, 0x55}
	if _, err := toPort.Write(frame); err != nil {
		t.Fatal(err)
	}

	var sc codec.SerialFrameCodec
	resp, err := sc.DecodeResponse(readFrame(t, fromPort))
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MessageID != codec.MsgGetPduStatus || resp.Status != pdu.StatusOK {
		t.Fatalf("got %+v", resp)
	}

	ctx.Cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestStartsWithDelimiter(t *testing.T) {
	if startsWithDelimiter(nil) {
		t.Fatal("empty buffer must not start with delimiter")
	}
	if !startsWithDelimiter([]byte{0x55, 0x01}) {
		t.Fatal("buffer starting with 0x55 must report true")
	}
	if startsWithDelimiter([]byte{0x00}) {
		t.Fatal("buffer not starting with 0x55 must report false")
	}
}

func TestSerialEndpointResyncsOnGarbage(t *testing.T) {
	units := pdu.NewPduStateManager()
	unit := units.Unit(pdu.APIDNominal)
	d := dispatch.New(units)
	port, toPort, fromPort := newPipePort()

	ep := &SerialEndpoint{
		Unit:       unit,
		Dispatcher: d,
		open:       func(string, int) (io.ReadWriteCloser, error) { return port, nil },
	}
	ctx := cancel.New()
	done := make(chan error, 1)
	go func() { done <- ep.Serve(ctx) }()

	garbage := []byte{0x00, 0x00}
	frame := []byte{0x55, byte(codec.MsgGetPduStatus), 0, 0, 0x55}
	msg := append(append([]byte{}, garbage...), frame...)
	if _, err := toPort.Write(msg); err != nil {
		t.Fatal(err)
	}

	var sc codec.SerialFrameCodec
	resp, err := sc.DecodeResponse(readFrame(t, fromPort))
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MessageID != codec.MsgGetPduStatus {
		t.Fatalf("got %+v", resp)
	}
	if unit.StatusValue().Errors.ChecksumFailed != uint32(len(garbage)) {
		t.Fatalf("ChecksumFailed = %d, want %d (one per garbage byte)", unit.StatusValue().Errors.ChecksumFailed, len(garbage))
	}

	ctx.Cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
