package scaler

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomaskrizek/tcpscaler/internal/config"
	"github.com/tomaskrizek/tcpscaler/internal/diag"
	"github.com/tomaskrizek/tcpscaler/internal/reactor"
)

func testEnv(t *testing.T, re *reactor.Reactor) *env {
	t.Helper()
	return &env{
		cfg:      &config.Config{},
		lg:       diag.New(io.Discard, 0),
		out:      io.Discard,
		payload:  testPayload(t),
		counters: new(Counters),
		re:       re,
	}
}

// pipeDial hands out the client half of a pipe and keeps the server half
// alive so reads just block.
func pipeDial(fail func(attempt int) bool) (dial func(string, string, time.Duration) (net.Conn, error), attempts *int) {
	n := new(int)
	return func(network, addr string, timeout time.Duration) (net.Conn, error) {
		*n++
		if fail(*n) {
			return nil, errors.New("connection refused")
		}
		client, server := net.Pipe()
		go io.Copy(io.Discard, server)
		return client, nil
	}, n
}

func TestRampOpensRequestedConnections(t *testing.T) {
	dial, attempts := pipeDial(func(int) bool { return false })
	r := &Ramp{Interval: 0, Rate: 1000, Dial: dial}

	conns := r.Open("10.0.0.1:53", 5, testEnv(t, reactor.New()))
	defer closeAll(conns)

	assert.Len(t, conns, 5)
	assert.Equal(t, 5, *attempts)
	for _, c := range conns {
		assert.Equal(t, Active, c.State())
	}
}

func TestRampFailFast(t *testing.T) {
	// The third attempt fails: exactly two connections survive and no
	// attempt beyond the third is made.
	dial, attempts := pipeDial(func(n int) bool { return n == 3 })
	r := &Ramp{Interval: 0, Rate: 1000, Dial: dial}

	conns := r.Open("10.0.0.1:53", 10, testEnv(t, reactor.New()))
	defer closeAll(conns)

	assert.Len(t, conns, 2)
	assert.Equal(t, 3, *attempts)
}

func TestRampZeroConnectionsIsNotAnError(t *testing.T) {
	dial, attempts := pipeDial(func(int) bool { return true })
	r := &Ramp{Interval: 0, Rate: 1000, Dial: dial}

	conns := r.Open("10.0.0.1:53", 10, testEnv(t, reactor.New()))

	assert.Empty(t, conns)
	assert.Equal(t, 1, *attempts)
}

func TestResolveEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	ep, err := ResolveEndpoint("127.0.0.1", port, diag.New(io.Discard, 0))
	require.NoError(t, err)
	assert.Equal(t, ln.Addr().String(), ep)
}

func TestResolveEndpointUnreachable(t *testing.T) {
	// Grab a port and close it again so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	ln.Close()

	_, err = ResolveEndpoint("127.0.0.1", port, diag.New(io.Discard, 0))
	assert.Error(t, err)
}

func closeAll(conns []*Connection) {
	for _, c := range conns {
		c.Close()
	}
}
