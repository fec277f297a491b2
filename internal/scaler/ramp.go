package scaler

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/tomaskrizek/tcpscaler/internal/diag"
)

const dialTimeout = 10 * time.Second

// ResolveEndpoint resolves host and returns the first candidate address
// that accepts a TCP connection, as "ip:port". The probe connection is
// closed right away; the winning endpoint is reused for every ramped
// connection so all of them share one address family.
func ResolveEndpoint(host, port string, lg *diag.Logger) (string, error) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", host, err)
	}
	for _, ip := range ips {
		ep := net.JoinHostPort(ip.String(), port)
		lg.Infof("trying to connect to %s...\n", ep)
		c, err := net.DialTimeout("tcp", ep, dialTimeout)
		if err != nil {
			lg.Errorf("failed to connect: %s\n", err)
			continue
		}
		lg.Infof("success!\n")
		c.Close()
		return ep, nil
	}
	return "", fmt.Errorf("could not connect to host %s port %s", host, port)
}

// A Ramp opens connections against a fixed endpoint at a bounded creation
// rate. Dial errors are fail-fast: the first one stops all further
// attempts and whatever was opened so far is the working set. Opening
// zero connections is not an error, the run just produces no traffic.
type Ramp struct {
	Interval time.Duration // pause between attempts, uncompensated
	Rate     int           // attempts per second, used for progress output
	TLSConf  *tls.Config   // nil for plain TCP

	// Dial overrides the dial function in tests. Nil means net.DialTimeout.
	Dial func(network, addr string, timeout time.Duration) (net.Conn, error)
}

func (r *Ramp) dial(ep string) (net.Conn, error) {
	d := r.Dial
	if d == nil {
		d = net.DialTimeout
	}
	tc, err := d("tcp", ep, dialTimeout)
	if err != nil {
		return nil, err
	}
	if r.TLSConf != nil {
		return tls.Client(tc, r.TLSConf), nil
	}
	return tc, nil
}

// Open brings up to n connections online, pausing Interval between
// attempts to avoid overwhelming the server.
func (r *Ramp) Open(ep string, n int, env *env) []*Connection {
	conns := make([]*Connection, 0, n)
	for i := 0; i < n; i++ {
		tc, err := r.dial(ep)
		if err != nil {
			env.lg.Errorf("failed to connect: %s\n", err)
			break
		}
		conns = append(conns, newConnection(tc, env))

		// Progress output, roughly once per second.
		if r.Rate > 0 && i%r.Rate == 0 {
			env.lg.Debugf("opened %d connections so far...\n", i)
		}
		time.Sleep(r.Interval)
	}
	return conns
}
