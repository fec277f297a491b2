package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveMatchesSend(t *testing.T) {
	tr := New(false)
	base := time.Now()

	for _, id := range []uint16{0, 3, 7, 8, 255, 65535} {
		sent := base.Add(time.Duration(id) * time.Millisecond)
		tr.RecordSend(id, sent)

		rtt, ok := tr.Resolve(id, sent.Add(1500*time.Microsecond))
		assert.True(t, ok)
		assert.Equal(t, 1500*time.Microsecond, rtt, "id %d", id)
	}
}

func TestSlotIsPureFunctionOfID(t *testing.T) {
	tr := New(false)
	base := time.Now()

	// Identifiers 8 apart share a slot, so the later send overwrites the
	// earlier one and resolving the stale identifier yields the newer
	// timestamp. This is the accepted limitation, not an error.
	tr.RecordSend(2, base)
	tr.RecordSend(10, base.Add(5*time.Millisecond))

	rtt, ok := tr.Resolve(2, base.Add(6*time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, time.Millisecond, rtt)
}

func TestStrictRejectsStaleSlot(t *testing.T) {
	tr := New(true)
	base := time.Now()

	tr.RecordSend(2, base)
	tr.RecordSend(10, base.Add(time.Millisecond))

	_, ok := tr.Resolve(2, base.Add(2*time.Millisecond))
	assert.False(t, ok)

	rtt, ok := tr.Resolve(10, base.Add(2*time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, time.Millisecond, rtt)
}

func TestNegativeDifferenceClampsToZero(t *testing.T) {
	tr := New(false)
	base := time.Now()

	tr.RecordSend(1, base)

	rtt, ok := tr.Resolve(1, base.Add(-time.Second))
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), rtt)
}

func TestEightInFlightStaysCorrect(t *testing.T) {
	tr := New(false)
	base := time.Now()

	for id := uint16(0); id < Slots; id++ {
		tr.RecordSend(id, base.Add(time.Duration(id)*time.Millisecond))
	}
	// All eight slots are distinct; every identifier still resolves to its
	// own send time.
	for id := uint16(0); id < Slots; id++ {
		sent := base.Add(time.Duration(id) * time.Millisecond)
		rtt, ok := tr.Resolve(id, sent.Add(250*time.Microsecond))
		assert.True(t, ok)
		assert.Equal(t, 250*time.Microsecond, rtt, "id %d", id)
	}
}
