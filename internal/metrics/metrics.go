// Package metrics exposes Prometheus counters for the itmdump decode
// pipeline. Follow mode keeps itmdump running as a long-lived tailer,
// so the counters are served over HTTP when a listen address is
// configured.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus metrics for the itmdump pipeline.
type Metrics struct {
	PacketsDecoded prometheus.Counter
	BytesForwarded prometheus.Counter
	UnknownHeaders prometheus.Counter
	FollowRetries  prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics on a caller-supplied registry.
// Tests use this to avoid duplicate registration on the default
// registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PacketsDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "itmdump_packets_decoded_total",
			Help: "Total number of ITM data packets decoded (all stimulus ports)",
		}),
		BytesForwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "itmdump_payload_bytes_forwarded_total",
			Help: "Total payload bytes written to the output sink",
		}),
		UnknownHeaders: factory.NewCounter(prometheus.CounterOpts{
			Name: "itmdump_unknown_headers_total",
			Help: "Total number of unrecognized ITM header bytes skipped",
		}),
		FollowRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "itmdump_follow_retries_total",
			Help: "Total number of follow-mode pauses after end of input",
		}),
	}
}

// Serve exposes the default registry on addr under /metrics. Blocks
// until the listener fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
