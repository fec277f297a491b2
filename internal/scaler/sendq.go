package scaler

import (
	"io"
	"sync"
)

// A sendq decouples timer-driven frame production from socket writes, the
// way a bufferevent output buffer does: pushes never block and the queue
// is unbounded, so a peer that stops reading grows memory instead of
// stalling the event loop. A single writer goroutine drains the queue;
// the first write error goes to errfn and stops the writer.
type sendq struct {
	mu     sync.Mutex
	cond   *sync.Cond
	bufs   [][]byte
	closed bool

	w     io.Writer
	errfn func(error)
}

func newSendq(w io.Writer, errfn func(error)) *sendq {
	q := &sendq{w: w, errfn: errfn}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// push enqueues b regardless of transport readiness.
func (q *sendq) push(b []byte) {
	q.mu.Lock()
	if !q.closed {
		q.bufs = append(q.bufs, b)
		q.cond.Signal()
	}
	q.mu.Unlock()
}

func (q *sendq) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
}

func (q *sendq) run() {
	for {
		q.mu.Lock()
		for len(q.bufs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		b := q.bufs[0]
		q.bufs = q.bufs[1:]
		q.mu.Unlock()

		if _, err := q.w.Write(b); err != nil {
			if q.errfn != nil {
				q.errfn(err)
			}
			q.close()
			return
		}
	}
}
