package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Config holds the run parameters. It is populated from the command line
// and treated as immutable once the run starts.
type Config struct {
	Host        string
	Port        string
	Rate        int // aggregate writes per second across all connections
	Connections int
	RampRate    int // new connections per second during ramp-up
	Duration    int // seconds, 0 = run until terminated
	Verbosity   int
	PrintRTT    bool

	QName string
	QType string

	TLS   bool
	TLSCa string

	MetricsAddr    string
	StatsLog       string
	MemProfile     string
	DetectStaleRTT bool
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing target host")
	}
	if c.Port == "" {
		return fmt.Errorf("missing target port (-p)")
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive (-r)")
	}
	if c.Connections <= 0 {
		return fmt.Errorf("number of connections must be positive (-c)")
	}
	if c.RampRate <= 0 {
		return fmt.Errorf("new connection rate must be positive (-n)")
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative (-t)")
	}
	if _, err := c.QTypeValue(); err != nil {
		return err
	}
	return nil
}

// QTypeValue resolves the configured query type name.
func (c *Config) QTypeValue() (uint16, error) {
	t, ok := dns.StringToType[strings.ToUpper(c.QType)]
	if !ok {
		return 0, fmt.Errorf("unknown query type %q", c.QType)
	}
	return t, nil
}

// WriteInterval is the time between two writes on a single connection.
// The aggregate rate is split evenly across connections: whole seconds of
// connections/rate, plus the microsecond remainder with a floor of one
// microsecond so the interval is never zero. The achieved aggregate rate
// therefore only approximates the requested one, bounded by microsecond
// rounding.
func (c *Config) WriteInterval() time.Duration {
	sec := int64(c.Connections) / int64(c.Rate)
	usec := (1000000 * int64(c.Connections) / int64(c.Rate)) % 1000000
	if usec == 0 {
		usec = 1
	}
	return time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond
}

// RampInterval is the pause between two connection attempts during ramp-up.
func (c *Config) RampInterval() time.Duration {
	return time.Second / time.Duration(c.RampRate)
}
