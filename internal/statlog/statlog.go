// Package statlog periodically appends run statistics to a JSON-lines
// file. Each line is one Sample, written through a buffered encoder and
// flushed per write so the file is usable while the run is still going.
package statlog

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// A Sample is one point of the traffic counters. T is assigned by the
// logger at sampling time.
type Sample struct {
	T        int64 `json:"t"` // unix nanoseconds
	Sent     int64 `json:"sent"`
	Received int64 `json:"received"`
	Failed   int64 `json:"failed"`
}

type file struct {
	f *os.File
	w *bufio.Writer
	e *json.Encoder
}

func createFile(path string) (*file, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriter(f)

	return &file{
		f: f,
		w: w,
		e: json.NewEncoder(w),
	}, nil
}

func (l *file) write(v interface{}) error {
	if err := l.e.Encode(v); err != nil {
		return err
	}

	return l.w.Flush()
}

func (l *file) close() error {
	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return err
	}

	return l.f.Close()
}

// A Logger samples a counter snapshot function on a fixed period.
type Logger struct {
	l    *file
	snap func() Sample
	err  error
	c    chan struct{}
	w    *sync.WaitGroup
}

// Start writes one sample immediately, then one every d, into path.
func Start(path string, d time.Duration, snap func() Sample) (*Logger, error) {
	l, err := createFile(path)
	if err != nil {
		return nil, err
	}

	sl := &Logger{
		l:    l,
		snap: snap,
		c:    make(chan struct{}),
		w:    new(sync.WaitGroup),
	}

	sl.w.Add(1)
	go sl.run(d)

	return sl, nil
}

// Stop records a final sample, waits until the sampler really stops and
// closes the file. It returns the first error the logger encountered.
func (sl *Logger) Stop() error {
	close(sl.c)
	sl.w.Wait()

	if err := sl.l.close(); sl.err == nil {
		sl.err = err
	}

	return sl.err
}

func (sl *Logger) run(d time.Duration) {
	defer sl.w.Done()

	t := time.NewTicker(d)
	defer t.Stop()

	sl.record()

	for {
		select {
		case <-t.C:
			sl.record()
		case <-sl.c:
			sl.record()
			return
		}
	}
}

func (sl *Logger) record() {
	s := sl.snap()
	s.T = time.Now().UnixNano()

	if err := sl.l.write(s); err != nil && sl.err == nil {
		sl.err = err
	}
}
