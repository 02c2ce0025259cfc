package hardware

import (
	"time"

	"github.com/GoAethereal/cancel"

	"github.com/stratos-avionics/pdusim/internal/pdu"
)

// DefaultInterval is the Hardware Projector's reconciliation period: 10Hz,
// as named in spec §4.4.
const DefaultInterval = 100 * time.Millisecond

// nominalRaw/offRaw are the synthetic ADC readings the default Sample
// function reports for an energized/de-energized line, in the absence of a
// named ADC chip in the corpus (DESIGN.md records this as a placeholder).
const (
	nominalRaw uint16 = 0x0800
	offRaw     uint16 = 0x0000
)

// Projector is the Hardware Projector of spec §4.4: it periodically pushes
// the nominal PduUnit's commanded line state onto a GPIODriver (the driver
// has one pin per line, so only one unit drives it; the redundant unit's
// lines are not written to hardware) and, for each unit, reads back a raw
// sample per channel and commits it through CommitMeasurements.
type Projector struct {
	Units        *pdu.PduStateManager
	Driver       GPIODriver
	Coefficients map[int]pdu.AffineCoefficient
	// Sample returns the raw ADC reading for channel, given whether its
	// owning line (or, for the two bus aggregate channels, any line in
	// the unit) is energized. Overridable in tests; defaults to a fixed
	// nominal/zero pair.
	Sample   func(channel int, energized bool) uint16
	Interval time.Duration
}

// Run reconciles hardware state once per Interval until ctx is canceled.
func (p *Projector) Run(ctx cancel.Context) error {
	interval := p.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.reconcile()
		}
	}
}

func (p *Projector) reconcile() {
	nominal := p.Units.Unit(pdu.APIDNominal)
	for _, unit := range p.Units.Units() {
		lines := unit.AllLines()
		anyOn := false
		for i, energized := range lines {
			if energized {
				anyOn = true
			}
			if unit == nominal {
				if err := p.Driver.WritePin(i, energized); err != nil {
					unit.BumpFault(pdu.FaultHardwareFault)
					continue
				}
			}
			raw := p.sample(i, energized)
			unit.CommitMeasurements(i, raw, p.coeff(i))
		}
		unit.CommitMeasurements(pdu.LineCount, p.sample(pdu.LineCount, anyOn), p.coeff(pdu.LineCount))
		unit.CommitMeasurements(pdu.LineCount+1, p.sample(pdu.LineCount+1, anyOn), p.coeff(pdu.LineCount+1))
	}
}

func (p *Projector) sample(channel int, energized bool) uint16 {
	if p.Sample != nil {
		return p.Sample(channel, energized)
	}
	if energized {
		return nominalRaw
	}
	return offRaw
}

func (p *Projector) coeff(channel int) pdu.AffineCoefficient {
	if c, ok := p.Coefficients[channel]; ok {
		return c
	}
	return pdu.AffineCoefficient{Gain: 1, Offset: 0}
}
