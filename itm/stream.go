package itm

import (
	"errors"
	"fmt"
	"io"
	"time"

	"itmdump/common"
	"itmdump/internal/metrics"
)

// DefaultRetryInterval is how long a following stream pauses after
// reaching end of input before reading again.
const DefaultRetryInterval = 100 * time.Millisecond

// Handler consumes decoded packets from a Stream.
type Handler interface {
	HandlePacket(pkt Packet) error
}

// UnknownHandler is implemented by handlers that also want the header
// bytes the decoder could not classify. Handlers without it get those
// reported through the stream's logger instead.
type UnknownHandler interface {
	HandleUnknown(header byte) error
}

// PortFilter forwards payload bytes for one stimulus port to a writer
// and silently discards every other packet.
type PortFilter struct {
	Port    uint8
	W       io.Writer
	Metrics *metrics.Metrics

	Written uint64 // payload bytes written so far
}

func (f *PortFilter) HandlePacket(pkt Packet) error {
	if pkt.Port != f.Port {
		return nil
	}
	if _, err := f.W.Write(pkt.Payload); err != nil {
		return fmt.Errorf("writing payload to sink: %w", err)
	}
	f.Written += uint64(len(pkt.Payload))
	if f.Metrics != nil {
		f.Metrics.BytesForwarded.Add(float64(len(pkt.Payload)))
	}
	return nil
}

// Stats reports what a stream has processed so far.
type Stats struct {
	Packets        uint64 // data packets decoded (all ports)
	UnknownHeaders uint64 // unrecognized header bytes skipped
	Retries        uint64 // follow-mode pauses after end of input
}

// Stream drives a Decoder against a continuous byte source and hands
// each decoded packet to a Handler.
//
// The stream runs on one goroutine with blocking reads. After end of
// input it either terminates cleanly or, when Follow is set, sleeps for
// RetryInterval and reads again, expecting the source to grow in place
// the way a live pipe or append-only file does.
type Stream struct {
	Handler       Handler
	Follow        bool
	RetryInterval time.Duration // zero means DefaultRetryInterval
	Log           common.Logger
	Metrics       *metrics.Metrics

	dec   Decoder
	stats Stats
}

// NewStream returns a stream forwarding payload bytes for the given
// stimulus port to sink.
func NewStream(port uint8, follow bool, sink io.Writer) *Stream {
	return &Stream{
		Handler: &PortFilter{Port: port, W: sink},
		Follow:  follow,
		Log:     common.NewNoOpLogger(),
	}
}

// Run decodes packets from source until end of input (when not
// following) or a fatal read or handler error. Unrecognized headers are
// skipped and the loop continues one byte later.
func (s *Stream) Run(source io.Reader) error {
	log := s.Log
	if log == nil {
		log = common.NewNoOpLogger()
	}
	interval := s.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	for {
		pkt, err := s.dec.ReadPacket(source)
		if err == nil {
			s.stats.Packets++
			if s.Metrics != nil {
				s.Metrics.PacketsDecoded.Inc()
			}
			if err := s.Handler.HandlePacket(pkt); err != nil {
				return err
			}
			continue
		}

		var unknown *UnknownHeaderError
		switch {
		case errors.As(err, &unknown):
			s.stats.UnknownHeaders++
			if s.Metrics != nil {
				s.Metrics.UnknownHeaders.Inc()
			}
			if uh, ok := s.Handler.(UnknownHandler); ok {
				if err := uh.HandleUnknown(unknown.Header); err != nil {
					return err
				}
			} else {
				log.Logf(common.SeverityDebug, "%v", err)
			}

		case IsEndOfInput(err):
			if !s.Follow {
				return nil
			}
			s.stats.Retries++
			if s.Metrics != nil {
				s.Metrics.FollowRetries.Inc()
			}
			time.Sleep(interval)

		default:
			return fmt.Errorf("reading trace stream: %w", err)
		}
	}
}

// Stats returns what the stream has processed so far.
func (s *Stream) Stats() Stats {
	return s.stats
}
