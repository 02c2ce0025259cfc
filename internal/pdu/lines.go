package pdu

// SetLines sets to true every line in lu whose bit in mask is 1, leaving
// bit-0 lines untouched (SetUnitPwLines, spec §4.2). Fails with
// FaultLineTransitionForbidden outside Operate/Maintenance (invariant I2),
// leaving line states unchanged.
func (u *PduUnit) SetLines(lu LogicalUnit, mask uint32) *Fault {
	return u.mutateLines(lu, mask, func(cur bool, bit bool) bool {
		return cur || bit
	})
}

// ResetLines sets to false every line in lu whose bit in mask is 1
// (ResetUnitPwLines, spec §4.2).
func (u *PduUnit) ResetLines(lu LogicalUnit, mask uint32) *Fault {
	return u.mutateLines(lu, mask, func(cur bool, bit bool) bool {
		if bit {
			return false
		}
		return cur
	})
}

// OverwriteLines assigns every line in lu to the corresponding bit in mask
// (OverwriteUnitPwLines, spec §4.2; invariant P4).
func (u *PduUnit) OverwriteLines(lu LogicalUnit, mask uint32) *Fault {
	return u.mutateLines(lu, mask, func(cur bool, bit bool) bool {
		return bit
	})
}

// mutateLines is the shared guarded-write path for Set/Reset/Overwrite: it
// validates lu, checks the mode guard (I2), and applies combine bit-by-bit
// only once all preconditions hold, so a rejected command never leaves a
// partial write behind.
func (u *PduUnit) mutateLines(lu LogicalUnit, mask uint32, combine func(cur, bit bool) bool) *Fault {
	first, last, err := Lines(lu)
	if err != nil {
		var fault *Fault
		u.withLock(func(u *PduUnit) {
			u.status.Errors.Bump(FaultUnknownLogicalUnit)
			fault = NewFault(FaultUnknownLogicalUnit, "logical unit out of range")
		})
		return fault
	}

	var fault *Fault
	u.withLock(func(u *PduUnit) {
		if !canTransitionLines(u.status.Mode) {
			u.status.Errors.Bump(FaultLineTransitionForbidden)
			fault = NewFault(FaultLineTransitionForbidden, "line transition outside Operate/Maintenance")
			return
		}
		for i := first; i <= last; i++ {
			bit := mask&(1<<uint(i-first)) != 0
			u.lines[i] = combine(u.lines[i], bit)
		}
	})
	return fault
}

// LineStates returns a bitmask of the lines currently enabled in lu
// (GetUnitLineStates, spec §4.2), bit 0 corresponding to the first line of
// the unit.
func (u *PduUnit) LineStates(lu LogicalUnit) (uint32, *Fault) {
	first, last, err := Lines(lu)
	if err != nil {
		var fault *Fault
		u.withLock(func(u *PduUnit) {
			u.status.Errors.Bump(FaultUnknownLogicalUnit)
			fault = NewFault(FaultUnknownLogicalUnit, "logical unit out of range")
		})
		return 0, fault
	}
	var mask uint32
	u.withLock(func(u *PduUnit) {
		for i := first; i <= last; i++ {
			if u.lines[i] {
				mask |= 1 << uint(i-first)
			}
		}
	})
	return mask, nil
}

// AllLines returns a copy of the full 71-element line vector (invariant
// I1), used by the Hardware Projector to snapshot state under lock.
func (u *PduUnit) AllLines() [LineCount]bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lines
}
