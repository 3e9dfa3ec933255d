package itm

import (
	"errors"
	"fmt"
	"io"
)

// UnknownHeaderError reports a header byte whose low three bits do not
// select a recognized data packet. The stream has advanced past exactly
// that one byte, so decoding can continue at the next byte.
type UnknownHeaderError struct {
	Header byte
}

func (e *UnknownHeaderError) Error() string {
	return fmt.Sprintf("unknown header byte: %#02x", e.Header)
}

// IsEndOfInput reports whether err is the decoder's end-of-input
// signal: the source had fewer bytes available than the current packet
// needed, including a clean packet boundary with no bytes at all.
func IsEndOfInput(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Decoder reads ITM data packets from a byte stream.
//
// End of input surfaces as io.EOF on a packet boundary and as io.EOF or
// io.ErrUnexpectedEOF inside a packet; callers should branch with
// IsEndOfInput. Any other read error is fatal.
//
// A packet interrupted by end of input is not lost: the decoder keeps
// the header and payload bytes consumed so far and resumes the same
// packet on the next ReadPacket call. A caller tailing a growing source
// can therefore retry after end of input and still receive the split
// packet intact once the rest of it arrives.
type Decoder struct {
	// Resume state for a packet interrupted by end of input.
	midPacket bool
	header    byte
	payload   [MaxPayloadSize]byte
	have      int // payload bytes consumed so far
}

// NewDecoder creates a decoder with no packet in progress.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Reset discards any partially read packet.
func (d *Decoder) Reset() {
	d.midPacket = false
	d.header = 0
	d.have = 0
}

// ReadPacket consumes one packet from r.
//
// The header is classified before any payload byte is read, so an
// unrecognized header costs exactly one byte and never desynchronizes
// the stream with a mis-sized payload read.
func (d *Decoder) ReadPacket(r io.Reader) (Packet, error) {
	if !d.midPacket {
		var hdr [1]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return Packet{}, err
		}
		header := hdr[0]
		if !isDataPacket(header) {
			return Packet{}, &UnknownHeaderError{Header: header}
		}
		d.midPacket = true
		d.header = header
		d.have = 0
	}

	size := payloadSize(d.header)
	n, err := io.ReadFull(r, d.payload[d.have:size])
	d.have += n
	if err != nil {
		if err == io.EOF && d.have > 0 {
			// ReadFull reports io.EOF when no bytes were read at
			// all; mid-payload that is still a split packet.
			err = io.ErrUnexpectedEOF
		}
		return Packet{}, err
	}

	d.midPacket = false
	payload := make([]byte, size)
	copy(payload, d.payload[:size])
	return Packet{
		Header:  d.header,
		Port:    d.header >> 3,
		Payload: payload,
	}, nil
}
