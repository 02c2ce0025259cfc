package pdu

// MaxRaw is the upper (inclusive) bound of a 12-bit ADC sample.
const MaxRaw = 0x0FFF

// AffineCoefficient is the per-channel (gain, offset) pair used to project
// a raw ADC sample into an engineering-unit value (spec §3, §4.6).
// Converted = raw*Gain + Offset.
type AffineCoefficient struct {
	Gain   float64
	Offset int32
}

// Apply projects a raw 12-bit sample into its engineering-unit value.
func (c AffineCoefficient) Apply(raw uint16) int32 {
	return int32(float64(raw)*c.Gain) + c.Offset
}

// CommitMeasurements atomically writes raw and its converted projection
// for channel idx (invariant I5: the pair updates together). idx ranges
// over [0, LineCount+2): 0..LineCount-1 are the per-line channels,
// LineCount and LineCount+1 are the bus voltage/current aggregates.
func (u *PduUnit) CommitMeasurements(idx int, raw uint16, coeff AffineCoefficient) {
	if idx < 0 || idx >= len(u.measurements.Raw) {
		return
	}
	if raw > MaxRaw {
		raw = MaxRaw
	}
	u.withLock(func(u *PduUnit) {
		u.measurements.Raw[idx] = raw
		u.measurements.Converted[idx] = coeff.Apply(raw)
	})
}

// RawMeasurements returns the raw samples for the channels belonging to lu
// (GetRawMeasurements, spec §4.2).
func (u *PduUnit) RawMeasurements(lu LogicalUnit) ([]uint16, *Fault) {
	first, last, err := Lines(lu)
	if err != nil {
		var fault *Fault
		u.withLock(func(u *PduUnit) {
			u.status.Errors.Bump(FaultUnknownLogicalUnit)
			fault = NewFault(FaultUnknownLogicalUnit, "logical unit out of range")
		})
		return nil, fault
	}
	out := make([]uint16, 0, last-first+1)
	u.withLock(func(u *PduUnit) {
		for i := first; i <= last; i++ {
			out = append(out, u.measurements.Raw[i])
		}
	})
	return out, nil
}

// ConvertedMeasurements returns the engineering-unit samples for the
// channels belonging to lu (GetConvertedMeasurements, spec §4.2).
func (u *PduUnit) ConvertedMeasurements(lu LogicalUnit) ([]int32, *Fault) {
	first, last, err := Lines(lu)
	if err != nil {
		var fault *Fault
		u.withLock(func(u *PduUnit) {
			u.status.Errors.Bump(FaultUnknownLogicalUnit)
			fault = NewFault(FaultUnknownLogicalUnit, "logical unit out of range")
		})
		return nil, fault
	}
	out := make([]int32, 0, last-first+1)
	u.withLock(func(u *PduUnit) {
		for i := first; i <= last; i++ {
			out = append(out, u.measurements.Converted[i])
		}
	})
	return out, nil
}

// BusAggregates returns the two bus-level channels (voltage, current) in
// both raw and converted form.
func (u *PduUnit) BusAggregates() (rawV, rawI uint16, convV, convI int32) {
	u.withLock(func(u *PduUnit) {
		rawV, rawI = u.measurements.Raw[LineCount], u.measurements.Raw[LineCount+1]
		convV, convI = u.measurements.Converted[LineCount], u.measurements.Converted[LineCount+1]
	})
	return
}
