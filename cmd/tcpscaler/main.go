package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tomaskrizek/tcpscaler/internal/config"
	"github.com/tomaskrizek/tcpscaler/internal/scaler"
)

var version = "0.2.0"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "tcpscaler [flags] <host>",
	Short: "TCP load generator for length-prefixed request/response protocols",
	Long: `Connects to the specified host and port with the chosen number of TCP
connections and sends length-prefixed DNS queries at a fixed aggregate rate.

The rate (-r) is the total number of writes per second towards the server,
across all TCP connections; each write is one length-prefixed query frame
(31 bytes with the default question). The new connection rate (-n) bounds
how fast connections are opened during ramp-up. With -R, every measured
round-trip time is printed to standard output in microseconds, one per
line. With -t, the run stops after the given number of seconds.`,
	Version:       version,
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Host = args[0]
		if err := cfg.Validate(); err != nil {
			return err
		}
		// Past this point errors are operational, not usage mistakes.
		cmd.SilenceUsage = true
		return scaler.Run(&cfg)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&cfg.Port, "port", "p", "", "target TCP port (required)")
	f.IntVarP(&cfg.Rate, "rate", "r", 0, "aggregate writes per second across all connections (required)")
	f.IntVarP(&cfg.Connections, "connections", "c", 0, "number of TCP connections (required)")
	f.IntVarP(&cfg.RampRate, "new-conn-rate", "n", 1000, "new connections per second during ramp-up")
	f.CountVarP(&cfg.Verbosity, "verbose", "v", "increase verbosity (repeatable)")
	f.BoolVarP(&cfg.PrintRTT, "print-rtt", "R", false, "print all RTT samples in microseconds")
	f.IntVarP(&cfg.Duration, "duration", "t", 0, "only run for the given number of seconds (0 = until terminated)")
	f.StringVar(&cfg.QName, "qname", "example.com.", "domain name to query")
	f.StringVar(&cfg.QType, "qtype", "A", "query type")
	f.BoolVar(&cfg.TLS, "tls", false, "connect with TLS")
	f.StringVar(&cfg.TLSCa, "tls-ca", "", "CA cert path for TLS mode (default: system roots)")
	f.StringVar(&cfg.MetricsAddr, "metrics", "", "expose Prometheus metrics on this address")
	f.StringVar(&cfg.StatsLog, "stats-log", "", "append JSON run statistics to this file")
	f.StringVar(&cfg.MemProfile, "memprofile", "", "write a heap profile to this file on SIGUSR1 and at exit")
	f.BoolVar(&cfg.DetectStaleRTT, "detect-stale-rtt", false, "drop RTT samples whose tracking slot was overwritten")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
