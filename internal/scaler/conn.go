// Package scaler is the traffic-generation core: it ramps up TCP
// connections against one validated endpoint, schedules length-prefixed
// request frames at a controlled aggregate rate and correlates responses
// with their send times.
package scaler

import (
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/tomaskrizek/tcpscaler/internal/diag"
	"github.com/tomaskrizek/tcpscaler/internal/frame"
	"github.com/tomaskrizek/tcpscaler/internal/metrics"
	"github.com/tomaskrizek/tcpscaler/internal/stats"
	"github.com/tomaskrizek/tcpscaler/internal/track"
)

// State is the lifecycle of one connection. Failed is terminal: a failed
// connection is never retried or recreated, it is only skipped by the
// scheduler until its socket is torn down at process shutdown.
type State int

const (
	Connecting State = iota
	Active
	Failed
)

// Counters aggregates traffic across all connections. Updated with
// atomics because the stats logger samples them from outside the reactor
// loop.
type Counters struct {
	Sent     atomic.Int64
	Received atomic.Int64
	Failed   atomic.Int64
}

// A Connection owns one transport endpoint together with everything
// needed to frame requests and correlate responses: the inbound
// accumulation buffer, the RTT ring and the wrapping request identifier.
// All fields except the outbound queue are mutated only by reactor
// callbacks for this connection.
type Connection struct {
	tc    net.Conn
	state State
	out   *sendq

	dec     frame.Decoder
	rtt     *track.Tracker
	nextID  uint16
	payload []byte

	printRTT bool
	w        io.Writer // RTT samples, one integer per line
	lg       *diag.Logger
	counters *Counters
	exp      *metrics.Exporter
	hist     *stats.RTT
}

func newConnection(tc net.Conn, env *env) *Connection {
	c := &Connection{
		tc:       tc,
		state:    Active,
		rtt:      track.New(env.cfg.DetectStaleRTT),
		payload:  env.payload,
		printRTT: env.cfg.PrintRTT,
		w:        env.out,
		lg:       env.lg,
		counters: env.counters,
		exp:      env.exp,
		hist:     env.hist,
	}
	re := env.re
	c.out = newSendq(tc, func(err error) { re.Fail(c, err) })
	env.exp.ConnOpened()
	re.Register(tc, c)
	return c
}

// SendTick builds and enqueues one request frame. It is invoked by the
// write scheduler's timers and becomes a no-op once the connection has
// failed.
func (c *Connection) SendTick(now time.Time) {
	if c.state != Active {
		return
	}
	b := frame.Encode(c.nextID, c.payload)
	c.rtt.RecordSend(c.nextID, now)
	c.nextID++ // wraps at 65536
	c.out.push(b)
	c.counters.Sent.Add(1)
	c.exp.FrameSent()
}

// OnReadable drains every complete response frame from the stream. An
// incomplete trailing frame stays buffered until more bytes arrive; a
// frame that never completes is never delivered.
func (c *Connection) OnReadable(p []byte) {
	c.dec.Feed(p)
	for {
		m, ok := c.dec.Next()
		if !ok {
			return
		}
		c.counters.Received.Add(1)
		c.exp.FrameReceived()
		c.resolve(m.ID)
	}
}

func (c *Connection) resolve(id uint16) {
	if !c.printRTT && c.hist == nil && c.exp == nil {
		return
	}
	d, ok := c.rtt.Resolve(id, time.Now())
	if !ok {
		c.lg.Debugf("stale RTT slot for query id %d, sample dropped\n", id)
		return
	}
	if c.printRTT {
		fmt.Fprintf(c.w, "%d\n", d.Microseconds())
	}
	if c.hist != nil {
		c.hist.Record(d)
	}
	c.exp.ObserveRTT(d)
}

// OnError marks the connection failed. No retry, no reconnect; the send
// timers observing the state produce nothing from here on.
func (c *Connection) OnError(err error) {
	if c.state == Failed {
		return
	}
	c.state = Failed
	c.counters.Failed.Add(1)
	c.exp.ConnFailed()
	c.lg.Errorf("connection error: %s\n", err)
}

// State reports the connection's lifecycle state.
func (c *Connection) State() State {
	return c.state
}

// Close releases the outbound queue and the socket.
func (c *Connection) Close() {
	c.out.close()
	c.tc.Close()
}
