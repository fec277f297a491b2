// Package stats aggregates RTT samples for the end-of-run summary.
package stats

import (
	"fmt"
	"time"

	"github.com/codahale/hdrhistogram"
)

// RTT collects round-trip samples in microseconds. Not safe for concurrent
// use: the reactor loop is the only writer and the summary is read after
// the loop has stopped.
type RTT struct {
	h *hdrhistogram.Histogram
}

// NewRTT covers 1µs to 60s at three significant figures.
func NewRTT() *RTT {
	return &RTT{h: hdrhistogram.New(1, 60*1000*1000, 3)}
}

// Record adds one sample, clamped to the trackable range.
func (r *RTT) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	if us > r.h.HighestTrackableValue() {
		us = r.h.HighestTrackableValue()
	}
	r.h.RecordValue(us)
}

// Count reports how many samples were recorded.
func (r *RTT) Count() int64 {
	return r.h.TotalCount()
}

// Summary formats the distribution for the run report.
func (r *RTT) Summary() string {
	return fmt.Sprintf("rtt samples=%d min=%dus mean=%.0fus p50=%dus p90=%dus p99=%dus max=%dus",
		r.h.TotalCount(), r.h.Min(), r.h.Mean(),
		r.h.ValueAtQuantile(50), r.h.ValueAtQuantile(90), r.h.ValueAtQuantile(99),
		r.h.Max())
}
