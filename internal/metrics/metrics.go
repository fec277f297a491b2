// Package metrics exposes run counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// An Exporter publishes traffic counters and the RTT distribution. A nil
// *Exporter is valid and records nothing, so call sites need no guards
// when metrics are disabled.
type Exporter struct {
	reg *prometheus.Registry

	framesSent  prometheus.Counter
	framesRecvd prometheus.Counter
	connsOpen   prometheus.Gauge
	connsFailed prometheus.Counter
	rtt         prometheus.Histogram
}

// New creates an Exporter backed by its own registry.
func New() *Exporter {
	e := &Exporter{
		reg: prometheus.NewRegistry(),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcpscaler_frames_sent_total",
			Help: "Request frames handed to the transport.",
		}),
		framesRecvd: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcpscaler_frames_received_total",
			Help: "Complete response frames decoded.",
		}),
		connsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tcpscaler_connections_open",
			Help: "Connections currently usable for sending.",
		}),
		connsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tcpscaler_connections_failed_total",
			Help: "Connections lost to transport errors.",
		}),
		rtt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tcpscaler_rtt_seconds",
			Help:    "Round-trip time between a request frame and its response.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
	}
	e.reg.MustRegister(e.framesSent, e.framesRecvd, e.connsOpen, e.connsFailed, e.rtt)
	return e
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
}

// Serve blocks on an HTTP listener exposing /metrics at addr.
func (e *Exporter) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	return http.ListenAndServe(addr, mux)
}

func (e *Exporter) FrameSent() {
	if e == nil {
		return
	}
	e.framesSent.Inc()
}

func (e *Exporter) FrameReceived() {
	if e == nil {
		return
	}
	e.framesRecvd.Inc()
}

func (e *Exporter) ConnOpened() {
	if e == nil {
		return
	}
	e.connsOpen.Inc()
}

func (e *Exporter) ConnFailed() {
	if e == nil {
		return
	}
	e.connsOpen.Dec()
	e.connsFailed.Inc()
}

func (e *Exporter) ObserveRTT(d time.Duration) {
	if e == nil {
		return
	}
	e.rtt.Observe(d.Seconds())
}
