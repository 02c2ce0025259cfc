package pdu

import "time"

// Heartbeat applies an ObcHeartBeat command (spec §4.2): records the OBC's
// counter, replies with the same value (invariant I4 — the caller emits
// the response in the same dispatch turn), and refreshes the exchange
// timestamp used by the Supervisor's missed-heartbeat ticker.
func (u *PduUnit) Heartbeat(obcCounter uint16, now time.Time) (replyCounter uint16) {
	u.withLock(func(u *PduUnit) {
		u.heartbeat.LastReceivedCounter = obcCounter
		u.heartbeat.LastReplyCounter = obcCounter
		u.heartbeat.LastExchange = now
	})
	return obcCounter
}

// StatusValue returns the unit's (mode, error counters, uptime) triple
// (GetPduStatus, spec §4.2).
func (u *PduUnit) StatusValue() Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

// Tick advances uptime by one and, if more than timeout has elapsed since
// the last heartbeat exchange, bumps the missed-heartbeat counter once.
// Called by the Supervisor's 1Hz ticker (SPEC_FULL.md §Supplemented
// features: uptime / missed-heartbeat accounting).
func (u *PduUnit) Tick(now time.Time, timeout time.Duration) {
	u.withLock(func(u *PduUnit) {
		u.status.Uptime++
		if u.heartbeat.LastExchange.IsZero() {
			return
		}
		if now.Sub(u.heartbeat.LastExchange) > timeout {
			u.heartbeat.MissedCount++
			// Advance the deadline so a sustained outage counts once per
			// timeout window rather than once per tick.
			u.heartbeat.LastExchange = now
		}
	})
}
