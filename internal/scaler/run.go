package scaler

import (
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomaskrizek/tcpscaler/internal/config"
	"github.com/tomaskrizek/tcpscaler/internal/diag"
	"github.com/tomaskrizek/tcpscaler/internal/frame"
	"github.com/tomaskrizek/tcpscaler/internal/metrics"
	"github.com/tomaskrizek/tcpscaler/internal/prof"
	"github.com/tomaskrizek/tcpscaler/internal/reactor"
	"github.com/tomaskrizek/tcpscaler/internal/rlimit"
	"github.com/tomaskrizek/tcpscaler/internal/statlog"
	"github.com/tomaskrizek/tcpscaler/internal/stats"
)

// env bundles the per-run collaborators every connection shares. All of
// it is read-only for the connections except the aggregate counters.
type env struct {
	cfg      *config.Config
	lg       *diag.Logger
	out      io.Writer
	payload  []byte
	counters *Counters
	exp      *metrics.Exporter
	hist     *stats.RTT
	re       *reactor.Reactor
}

// Run executes one load-generation run end to end: raise the descriptor
// limit, validate the target, ramp up connections, schedule the staggered
// writes and drive the reactor until the duration elapses or the process
// is told to stop. Any returned error is fatal and happens before traffic
// is sent.
func Run(cfg *config.Config) error {
	lg := diag.New(os.Stderr, cfg.Verbosity)

	if nofile, err := rlimit.RaiseNoFile(); err != nil {
		lg.Errorf("failed to raise open file limit: %s\n", err)
	} else {
		lg.Infof("maximum number of TCP connections: %d\n", nofile)
		if uint64(cfg.Connections) > nofile {
			lg.Errorf("warning: requested number of TCP connections (%d) larger than maximum number of open files (%d)\n",
				cfg.Connections, nofile)
		}
	}

	qtype, err := cfg.QTypeValue()
	if err != nil {
		return err
	}
	payload, err := frame.Query(cfg.QName, qtype)
	if err != nil {
		return fmt.Errorf("cannot build query for %s: %w", cfg.QName, err)
	}

	endpoint, err := ResolveEndpoint(cfg.Host, cfg.Port, lg)
	if err != nil {
		return err
	}

	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf, err = NewTLSClientConfig(cfg.TLSCa, cfg.Host)
		if err != nil {
			return err
		}
	}

	var exp *metrics.Exporter
	if cfg.MetricsAddr != "" {
		exp = metrics.New()
		go func() {
			if err := exp.Serve(cfg.MetricsAddr); err != nil {
				lg.Errorf("metrics listener: %s\n", err)
			}
		}()
	}

	if cfg.MemProfile != "" {
		c := prof.OnSignal(cfg.MemProfile, func(err error) {
			if err != nil {
				lg.Errorf("heap profile: %s\n", err)
			} else {
				lg.Infof("heap profile written to %s\n", cfg.MemProfile)
			}
		}, syscall.SIGUSR1)
		defer prof.StopOnSignal(c)
	}

	re := reactor.New()
	env := &env{
		cfg:      cfg,
		lg:       lg,
		out:      os.Stdout,
		payload:  payload,
		counters: new(Counters),
		exp:      exp,
		hist:     stats.NewRTT(),
		re:       re,
	}

	interval := cfg.WriteInterval()
	lg.Debugf("write interval %s\n", interval)

	ramp := &Ramp{Interval: cfg.RampInterval(), Rate: cfg.RampRate, TLSConf: tlsConf}
	conns := ramp.Open(endpoint, cfg.Connections, env)
	lg.Infof("opened %d connections to host %s port %s\n", len(conns), cfg.Host, cfg.Port)

	lg.Infof("scheduling sending tasks with random offset...\n")
	NewScheduler(re, interval).Install(conns)

	var slog *statlog.Logger
	if cfg.StatsLog != "" {
		slog, err = statlog.Start(cfg.StatsLog, time.Second, func() statlog.Sample {
			return statlog.Sample{
				Sent:     env.counters.Sent.Load(),
				Received: env.counters.Received.Load(),
				Failed:   env.counters.Failed.Load(),
			}
		})
		if err != nil {
			return fmt.Errorf("cannot open stats log: %w", err)
		}
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		re.Stop()
	}()

	lg.Infof("starting event loop\n")
	start := time.Now()
	re.Run(time.Duration(cfg.Duration) * time.Second)
	elapsed := time.Since(start)

	for _, c := range conns {
		c.Close()
	}
	if slog != nil {
		if err := slog.Stop(); err != nil {
			lg.Errorf("stats log: %s\n", err)
		}
	}
	if cfg.MemProfile != "" {
		if err := prof.WriteHeap(cfg.MemProfile); err != nil {
			lg.Errorf("heap profile: %s\n", err)
		}
	}

	sent := env.counters.Sent.Load()
	received := env.counters.Received.Load()
	if elapsed > 0 {
		lg.Infof("sent %d frames, received %d in %s (%.1f writes/sec)\n",
			sent, received, elapsed.Round(time.Millisecond), float64(sent)/elapsed.Seconds())
	}
	if env.hist.Count() > 0 {
		lg.Infof("%s\n", env.hist.Summary())
	}
	return nil
}
