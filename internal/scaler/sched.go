package scaler

import (
	"math/rand"
	"time"

	"github.com/tomaskrizek/tcpscaler/internal/reactor"
)

// A Scheduler installs the staggered periodic send timers. Every
// connection shares the same interval but starts at a uniform random
// offset within it, so the connections don't send in lockstep and the
// aggregate load stays smooth. The fixed seed keeps offsets reproducible
// between runs.
type Scheduler struct {
	re       *reactor.Reactor
	interval time.Duration
	rng      *rand.Rand
}

func NewScheduler(re *reactor.Reactor, interval time.Duration) *Scheduler {
	return &Scheduler{
		re:       re,
		interval: interval,
		rng:      rand.New(rand.NewSource(42)),
	}
}

// Install arms one one-shot timer per connection. When it fires it
// installs the persistent per-interval timer and performs the first send.
// There is no backpressure check and no drift correction: ticks fire on
// schedule whatever the transport is doing.
func (s *Scheduler) Install(conns []*Connection) {
	for _, c := range conns {
		c := c
		s.re.AddTimer(s.offset(), 0, func() {
			s.re.AddTimer(s.interval, s.interval, func() {
				c.SendTick(time.Now())
			})
			c.SendTick(time.Now())
		})
	}
}

// offset draws the initial delay, microsecond granularity over
// [0, interval].
func (s *Scheduler) offset() time.Duration {
	usec := int64(s.interval / time.Microsecond)
	return time.Duration(s.rng.Int63n(usec+1)) * time.Microsecond
}
