// Package track correlates request identifiers with send timestamps to
// measure round-trip times.
package track

import "time"

// Slots is the ring size: how many in-flight requests per connection have
// their send time remembered. The value is deliberately small because the
// main use case is a large number of connections each sending at a very
// low rate. With more than Slots unanswered requests on one connection the
// ring overruns and the measured RTT for the overwritten identifiers is
// incorrect (typically under-estimated).
const Slots = 8

// A Tracker is a fixed-size ring of send timestamps addressed by the
// request identifier modulo Slots. It keeps no occupancy state: resolving
// an identifier whose slot was overwritten silently yields a bogus value,
// unless stale detection was requested.
type Tracker struct {
	sent   [Slots]time.Time
	ids    [Slots]uint16
	strict bool
}

// New returns an empty Tracker. With strict set, Resolve additionally
// checks that the slot still holds the identifier being resolved and
// rejects stale matches instead of returning a wrong measurement.
func New(strict bool) *Tracker {
	return &Tracker{strict: strict}
}

// RecordSend stores the send time for id, overwriting whatever occupied
// its slot.
func (t *Tracker) RecordSend(id uint16, now time.Time) {
	slot := id % Slots
	t.sent[slot] = now
	t.ids[slot] = id
}

// Resolve returns the elapsed time since id was sent. Negative differences
// clamp to zero. The boolean is false only in strict mode, when the slot
// no longer holds id.
func (t *Tracker) Resolve(id uint16, now time.Time) (time.Duration, bool) {
	slot := id % Slots
	if t.strict && t.ids[slot] != id {
		return 0, false
	}
	d := now.Sub(t.sent[slot])
	if d < 0 {
		d = 0
	}
	return d, true
}
