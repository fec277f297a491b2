// Package reactor implements a single-threaded event loop driving socket
// reads and timers.
//
// One goroutine runs the loop and is the only goroutine that invokes
// handlers, so handler state needs no locking. Each registered connection
// gets a reader goroutine that does nothing but block in Read and forward
// the bytes (or the error) to the loop; that channel is the readiness
// source. Register and AddTimer may be called before Run or from inside a
// callback, never from another goroutine while the loop runs. Stop and
// Fail are safe from any goroutine.
package reactor

import (
	"container/heap"
	"net"
	"sync"
	"time"
)

// A Handler receives the events the loop dispatches for one connection.
type Handler interface {
	// OnReadable delivers bytes read from the connection.
	OnReadable(p []byte)
	// OnError reports a transport error. The loop takes no action of its
	// own; the handler decides what failure means.
	OnError(err error)
}

type event struct {
	h   Handler
	p   []byte
	err error
}

// A Timer is a scheduled callback. Persistent timers re-arm relative to
// the moment they fire, not to their ideal schedule, so a long run
// accumulates drift. That matches the write-scheduling contract and is
// not corrected.
type Timer struct {
	when    time.Time
	period  time.Duration // 0 for one-shot
	fn      func()
	stopped bool
}

// Stop deactivates the timer. It may still sit in the heap; the loop
// skips it when it comes due.
func (t *Timer) Stop() {
	t.stopped = true
}

const (
	eventBacklog = 1024
	readBufSize  = 4096
)

type Reactor struct {
	events   chan event
	timers   timerHeap
	quit     chan struct{}
	stopOnce sync.Once
}

// New creates an idle reactor.
func New() *Reactor {
	return &Reactor{
		events: make(chan event, eventBacklog),
		quit:   make(chan struct{}),
	}
}

// Register attaches a handler to a connection and starts its read pump.
func (r *Reactor) Register(conn net.Conn, h Handler) {
	go func() {
		buf := make([]byte, readBufSize)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				p := make([]byte, n)
				copy(p, buf[:n])
				if !r.post(event{h: h, p: p}) {
					return
				}
			}
			if err != nil {
				r.post(event{h: h, err: err})
				return
			}
		}
	}()
}

// Fail injects a transport error for h from outside the loop, e.g. from a
// connection's writer.
func (r *Reactor) Fail(h Handler, err error) {
	r.post(event{h: h, err: err})
}

func (r *Reactor) post(ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.quit:
		return false
	}
}

// AddTimer schedules fn to run after delay. A non-zero period re-arms the
// timer after every fire.
func (r *Reactor) AddTimer(delay, period time.Duration, fn func()) *Timer {
	t := &Timer{when: time.Now().Add(delay), period: period, fn: fn}
	heap.Push(&r.timers, t)
	return t
}

// Run dispatches events and timers until Stop is called or limit elapses.
// A zero limit runs until stopped. In-flight frames are abandoned on exit,
// not flushed. No ordering is guaranteed between timers and socket events
// that come due in the same cycle.
func (r *Reactor) Run(limit time.Duration) {
	if limit > 0 {
		r.AddTimer(limit, 0, r.Stop)
	}
	for {
		if r.stopping() {
			return
		}
		now := time.Now()
		for len(r.timers) > 0 && !r.timers[0].when.After(now) {
			t := heap.Pop(&r.timers).(*Timer)
			if t.stopped {
				continue
			}
			t.fn()
			if r.stopping() {
				return
			}
			if t.period > 0 && !t.stopped {
				t.when = time.Now().Add(t.period)
				heap.Push(&r.timers, t)
			}
		}
		var due <-chan time.Time
		if len(r.timers) > 0 {
			wait := time.Until(r.timers[0].when)
			if wait < 0 {
				wait = 0
			}
			due = time.After(wait)
		}
		select {
		case ev := <-r.events:
			if ev.err != nil {
				ev.h.OnError(ev.err)
			} else {
				ev.h.OnReadable(ev.p)
			}
		case <-due:
		case <-r.quit:
			return
		}
	}
}

// Stop terminates the loop. Pending events and timers are abandoned.
func (r *Reactor) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

func (r *Reactor) stopping() bool {
	select {
	case <-r.quit:
		return true
	default:
		return false
	}
}

type timerHeap []*Timer

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].when.Before(h[j].when) }
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x interface{}) {
	*h = append(*h, x.(*Timer))
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
