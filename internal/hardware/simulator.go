package hardware

import (
	"sync"
	"sync/atomic"

	"github.com/stratos-avionics/pdusim/internal/pdu"
)

// SimDriver is the simulator-mode GPIODriver: it holds line state purely
// in memory, with no I²C traffic at all, so the rest of the Hardware
// Projector's reconciliation logic runs identically in both modes.
type SimDriver struct {
	mu    sync.Mutex
	lines [pdu.LineCount]bool
	stats DriverStats
}

// NewSimDriver returns a driver with every line de-energized.
func NewSimDriver() *SimDriver {
	return &SimDriver{}
}

// ConfigureOutput is a no-op in simulator mode; every line is always
// configurable.
func (d *SimDriver) ConfigureOutput(line int) error {
	if line < 0 || line >= pdu.LineCount {
		return ErrLineOutOfRange
	}
	return nil
}

// WritePin records energized for line.
func (d *SimDriver) WritePin(line int, energized bool) error {
	if line < 0 || line >= pdu.LineCount {
		atomic.AddUint64(&d.stats.Faults, 1)
		return ErrLineOutOfRange
	}
	d.mu.Lock()
	d.lines[line] = energized
	d.mu.Unlock()
	atomic.AddUint64(&d.stats.Writes, 1)
	return nil
}

// LineState reports the last value WritePin recorded for line, used by
// tests to assert the Projector reconciled state correctly.
func (d *SimDriver) LineState(line int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[line]
}

// Stats returns a snapshot of cumulative I/O counters.
func (d *SimDriver) Stats() DriverStats {
	return DriverStats{
		Writes: atomic.LoadUint64(&d.stats.Writes),
		Faults: atomic.LoadUint64(&d.stats.Faults),
	}
}

var _ GPIODriver = (*SimDriver)(nil)
