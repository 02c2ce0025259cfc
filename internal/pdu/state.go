package pdu

import (
	"sync"
	"time"
)

// Heartbeat tracks the OBC <-> PDU heartbeat exchange (spec §3).
type Heartbeat struct {
	LastReceivedCounter uint16
	LastReplyCounter    uint16
	LastExchange        time.Time
	MissedCount         uint32
}

// ErrorCounters tallies the command-level failures named in spec §7.
type ErrorCounters struct {
	CommandRejected uint32
	ChecksumFailed  uint32
	UnknownCommand  uint32
	HardwareFault   uint32
}

// Status holds the mode, error counters and uptime of a PduUnit.
type Status struct {
	Mode    Mode
	Errors  ErrorCounters
	Uptime  uint64 // ticks, incremented once per Supervisor tick (1 Hz)
}

// Measurements holds every instrumented channel's raw ADC sample and its
// engineering-unit projection, kept atomically in sync (invariant I5).
type Measurements struct {
	Raw       [LineCount + 2]uint16 // +2: bus voltage, bus current aggregates
	Converted [LineCount + 2]int32  // milliamps / millivolts / millidegrees C
}

// PduUnit is the aggregate state of one PDU (nominal or redundant).
// All reads/mutations of a unit go through its mutex; handlers and the
// Hardware Projector never touch the fields directly from outside this
// package.
type PduUnit struct {
	mu           sync.Mutex
	apid         APID
	heartbeat    Heartbeat
	status       Status
	lines        [LineCount]bool
	measurements Measurements
}

// Snapshot is a point-in-time, race-free copy of a PduUnit's state,
// returned under lock by PduUnit.Snapshot. It supplements the
// per-operation getters with a single consistent read, useful for status
// reporting, the Hardware Projector and metrics (see SPEC_FULL.md §B).
type Snapshot struct {
	APID         APID
	Heartbeat    Heartbeat
	Status       Status
	Lines        [LineCount]bool
	Measurements Measurements
}

// Snapshot returns a consistent copy of the unit's entire state.
func (u *PduUnit) Snapshot() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Snapshot{
		APID:         u.apid,
		Heartbeat:    u.heartbeat,
		Status:       u.status,
		Lines:        u.lines,
		Measurements: u.measurements,
	}
}

// BumpFault records a fault raised outside the normal command path — a
// frame that failed to decode before a handler could run, or a hardware
// fault observed by the Hardware Projector.
func (u *PduUnit) BumpFault(kind FaultKind) {
	u.withLock(func(u *PduUnit) {
		u.status.Errors.Bump(kind)
	})
}

// withLock runs fn with the unit's mutex held. It is the sole mutation
// entry point used by the dispatcher and the Hardware Projector so that
// every field group is touched under exclusive access (spec §5).
func (u *PduUnit) withLock(fn func(u *PduUnit)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fn(u)
}

// PduStateManager owns the two PduUnits, keyed by APID (spec §3).
type PduStateManager struct {
	units map[APID]*PduUnit
}

// NewPduStateManager creates the dual-unit store with all lines disabled,
// mode Boot, counters zero (spec §3 Lifecycle).
func NewPduStateManager() *PduStateManager {
	return &PduStateManager{
		units: map[APID]*PduUnit{
			APIDNominal:   {apid: APIDNominal},
			APIDRedundant: {apid: APIDRedundant},
		},
	}
}

// Unit returns the PduUnit addressed by apid, or nil if apid is not one of
// the two known units (spec §4.2: "Unknown APIDs are ignored silently").
func (m *PduStateManager) Unit(apid APID) *PduUnit {
	return m.units[apid]
}

// Units returns both units, nominal first, for iteration by the
// Supervisor's uptime/heartbeat ticker and the Hardware Projector.
func (m *PduStateManager) Units() []*PduUnit {
	return []*PduUnit{m.units[APIDNominal], m.units[APIDRedundant]}
}
