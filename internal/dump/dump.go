// Package dump wires the itmdump pipeline together: trace source,
// packet stream, output sink, logging and metrics.
package dump

import (
	"fmt"
	"io"
	"os"
	"time"

	"itmdump/common"
	"itmdump/internal/metrics"
	"itmdump/internal/source"
	"itmdump/itm"
	"itmdump/printer"
)

// Config mirrors the command line arguments of itmdump.
type Config struct {
	Source        source.Options
	Stimulus      uint8
	Follow        bool
	RetryInterval time.Duration
	List          bool   // print packet lines instead of forwarding payload bytes
	MetricsAddr   string // empty disables the metrics listener
	Log           common.Logger
	Output        io.Writer        // defaults to os.Stdout
	Metrics       *metrics.Metrics // optional pre-built metrics (tests)
}

// Run opens the configured source and decodes it until end of input or
// a fatal error. With Follow set it only returns on failure.
func Run(cfg Config) error {
	log := cfg.Log
	if log == nil {
		log = common.NewNoOpLogger()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	// The header carries five port bits, so anything above 31 can
	// never match. Legal to configure, so warn rather than fail.
	if cfg.Stimulus > 31 {
		log.Logf(common.SeverityWarning,
			"stimulus port %d can never match: ITM headers address ports 0-31", cfg.Stimulus)
	}

	src, name, err := source.Open(cfg.Source)
	if err != nil {
		return err
	}
	defer src.Close()
	log.Logf(common.SeverityInfo, "reading ITM data from %s (stimulus port %d)", name, cfg.Stimulus)

	m := cfg.Metrics
	if m == nil && cfg.MetricsAddr != "" {
		m = metrics.New()
	}
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				log.Logf(common.SeverityWarning, "metrics server: %v", err)
			}
		}()
		log.Logf(common.SeverityInfo, "serving metrics on %s", cfg.MetricsAddr)
	}

	var handler itm.Handler
	var filter *itm.PortFilter
	if cfg.List {
		handler = &listHandler{w: out}
	} else {
		filter = &itm.PortFilter{Port: cfg.Stimulus, W: out, Metrics: m}
		handler = filter
	}

	stream := &itm.Stream{
		Handler:       handler,
		Follow:        cfg.Follow,
		RetryInterval: cfg.RetryInterval,
		Log:           log,
		Metrics:       m,
	}
	if err := stream.Run(src); err != nil {
		return err
	}

	stats := stream.Stats()
	if filter != nil {
		log.Logf(common.SeverityInfo,
			"end of input: %d packets decoded, %d payload bytes forwarded, %d unknown headers",
			stats.Packets, filter.Written, stats.UnknownHeaders)
	} else {
		log.Logf(common.SeverityInfo,
			"end of input: %d packets decoded, %d unknown headers",
			stats.Packets, stats.UnknownHeaders)
	}
	return nil
}

// listHandler prints one line per decoded packet instead of forwarding
// payload bytes, tracking the byte offset of each packet in the stream.
type listHandler struct {
	w      io.Writer
	offset uint64
}

func (h *listHandler) HandlePacket(pkt itm.Packet) error {
	if _, err := fmt.Fprintln(h.w, printer.FormatPacketLine(h.offset, pkt)); err != nil {
		return fmt.Errorf("writing packet listing: %w", err)
	}
	h.offset += uint64(1 + len(pkt.Payload))
	return nil
}

func (h *listHandler) HandleUnknown(header byte) error {
	if _, err := fmt.Fprintln(h.w, printer.FormatUnknownLine(h.offset, header)); err != nil {
		return fmt.Errorf("writing packet listing: %w", err)
	}
	h.offset++
	return nil
}
