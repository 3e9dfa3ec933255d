// Package source opens the trace byte source for itmdump: a file or
// named pipe, a TCP connection to a debug probe's SWO server, or
// standard input.
package source

import (
	"fmt"
	"io"
	"net"
	"os"
)

// Options selects where trace bytes come from. Path and TCPAddr are
// mutually exclusive; with neither set the source is standard input.
type Options struct {
	Path    string // file or named pipe
	TCPAddr string // host:port of an SWO/ITM server (OpenOCD style)
}

// Open returns the byte source and a human-readable name for logging.
// The caller closes the returned source. Open failures are wrapped with
// the attempted path or address.
func Open(opts Options) (io.ReadCloser, string, error) {
	switch {
	case opts.Path != "" && opts.TCPAddr != "":
		return nil, "", fmt.Errorf("file and tcp sources are mutually exclusive")

	case opts.Path != "":
		f, err := os.Open(opts.Path)
		if err != nil {
			return nil, "", fmt.Errorf("couldn't open source file %q: %w", opts.Path, err)
		}
		return f, opts.Path, nil

	case opts.TCPAddr != "":
		conn, err := net.Dial("tcp", opts.TCPAddr)
		if err != nil {
			return nil, "", fmt.Errorf("couldn't connect to SWO server %q: %w", opts.TCPAddr, err)
		}
		return conn, opts.TCPAddr, nil

	default:
		// Stdin stays open for the process; nothing to close.
		return io.NopCloser(os.Stdin), "stdin", nil
	}
}
