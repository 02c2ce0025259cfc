package hardware

import (
	"fmt"
	"sync"
	"sync/atomic"

	"periph.io/x/periph/conn/i2c"

	"github.com/stratos-avionics/pdusim/internal/pdu"
)

// MCP23017 register addresses (bank 0, the power-on default), addressed as
// two 8-bit GPIO ports per chip (spec §6).
const (
	regIODIRA = 0x00
	regIODIRB = 0x01
	regOLATA  = 0x14
	regOLATB  = 0x15
)

// chipCount and pinsPerChip describe the six MCP23017 expanders wired at
// consecutive I²C addresses 0x22-0x27, 16 pins each (spec §6): 71 of the 96
// available pins are used, leaving the sixth expander entirely spare.
const (
	chipCount   = 6
	pinsPerChip = 16
	baseAddr    = 0x22
)

// Mcp23017Driver drives the real power-switching hardware: six MCP23017
// I²C GPIO expanders, one conn/i2c.Dev per chip, addressed sequentially
// across the 71-line partition. Output polarity is inverted in this
// hardware revision: driving a line's pin LOW energizes it.
type Mcp23017Driver struct {
	mu    sync.Mutex
	chips [chipCount]*i2c.Dev
	olat  [chipCount][2]byte // shadow of OLATA/OLATB per chip, avoids a read-modify-write round trip per pin

	stats DriverStats
}

// NewMcp23017Driver opens one i2c.Dev per expander on bus and configures
// every used line as an output (GPIO high on boot, inverted polarity means
// lines start de-energized).
func NewMcp23017Driver(bus i2c.Bus) (*Mcp23017Driver, error) {
	d := &Mcp23017Driver{}
	for i := 0; i < chipCount; i++ {
		d.chips[i] = &i2c.Dev{Addr: uint16(baseAddr + i), Bus: bus}
		d.olat[i][0], d.olat[i][1] = 0xFF, 0xFF // de-energized (HIGH) at boot
	}
	for line := 0; line < pdu.LineCount; line++ {
		if err := d.ConfigureOutput(line); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// ConfigureOutput clears the IODIR bit for line's pin, marking it as an
// output (MCP23017: 0 = output, 1 = input, the inverse of most GPIO ICs).
func (d *Mcp23017Driver) ConfigureOutput(line int) error {
	chip, port, bit, err := linePin(line)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	reg := byte(regIODIRA)
	if port == 1 {
		reg = regIODIRB
	}
	current, err := d.readRegister(chip, reg)
	if err != nil {
		atomic.AddUint64(&d.stats.Faults, 1)
		return err
	}
	current &^= 1 << bit
	if err := d.writeRegister(chip, reg, current); err != nil {
		atomic.AddUint64(&d.stats.Faults, 1)
		return err
	}
	return nil
}

// WritePin applies energized to line, inverting polarity (energized ⇒
// pin driven LOW) as documented in spec §6.
func (d *Mcp23017Driver) WritePin(line int, energized bool) error {
	chip, port, bit, err := linePin(line)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	reg := byte(regOLATA)
	if port == 1 {
		reg = regOLATB
	}
	v := d.olat[chip][port]
	if energized {
		v &^= 1 << bit
	} else {
		v |= 1 << bit
	}
	if err := d.writeRegister(chip, reg, v); err != nil {
		atomic.AddUint64(&d.stats.Faults, 1)
		return err
	}
	d.olat[chip][port] = v
	atomic.AddUint64(&d.stats.Writes, 1)
	return nil
}

// Stats returns a snapshot of cumulative I/O counters.
func (d *Mcp23017Driver) Stats() DriverStats {
	return DriverStats{
		Writes: atomic.LoadUint64(&d.stats.Writes),
		Reads:  atomic.LoadUint64(&d.stats.Reads),
		Faults: atomic.LoadUint64(&d.stats.Faults),
	}
}

func (d *Mcp23017Driver) readRegister(chip int, reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := d.chips[chip].Tx([]byte{reg}, buf); err != nil {
		return 0, err
	}
	atomic.AddUint64(&d.stats.Reads, 1)
	return buf[0], nil
}

func (d *Mcp23017Driver) writeRegister(chip int, reg, value byte) error {
	return d.chips[chip].Tx([]byte{reg, value}, nil)
}

var _ GPIODriver = (*Mcp23017Driver)(nil)

// linePin maps a global line index onto (chip, port, bit): port 0 is the
// expander's A bank (bits 0-7), port 1 is the B bank (bits 0-7).
func linePin(line int) (chip, port, bit int, err error) {
	if line < 0 || line >= pdu.LineCount {
		return 0, 0, 0, ErrLineOutOfRange
	}
	chip = line / pinsPerChip
	offset := line % pinsPerChip
	port = offset / 8
	bit = offset % 8
	if chip >= chipCount {
		return 0, 0, 0, fmt.Errorf("hardware: line %d maps outside the six configured expanders", line)
	}
	return chip, port, bit, nil
}
