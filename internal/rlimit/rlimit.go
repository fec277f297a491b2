// Package rlimit raises the open-file limit so a single process can hold
// a large number of TCP connections.
package rlimit

import "golang.org/x/sys/unix"

// RaiseNoFile lifts the soft RLIMIT_NOFILE to the hard limit and returns
// the resulting soft limit.
func RaiseNoFile() (uint64, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0, err
	}

	lim.Cur = lim.Max
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0, err
	}

	return lim.Cur, nil
}
