// Package prof dumps heap profiles, mainly to watch buffer growth during
// long load runs.
package prof

import (
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
)

// WriteHeap forces garbage collection and writes the heap profile to path.
func WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

// OnSignal writes the heap profile to path each time one of sig arrives.
// If onDone isn't nil it is called with the result of every write. The
// returned channel stops the handler when passed to StopOnSignal.
func OnSignal(path string, onDone func(err error), sig ...os.Signal) chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, sig...)

	go func() {
		for range c {
			if err := WriteHeap(path); onDone != nil {
				onDone(err)
			}
		}
	}()

	return c
}

// StopOnSignal detaches and stops a handler started by OnSignal.
func StopOnSignal(c chan os.Signal) {
	signal.Stop(c)
	close(c)
}
