package itm

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadPacket_PayloadSizes(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		port    uint8
		payload []byte
	}{
		{"port 0 size 1", []byte{0x01, 0xAA}, 0, []byte{0xAA}},
		{"port 0 size 2", []byte{0x02, 0x48, 0x69}, 0, []byte{0x48, 0x69}},
		{"port 1 size 1", []byte{0x09, 0x42}, 1, []byte{0x42}},
		{"port 2 size 4", []byte{0x13, 0xDE, 0xAD, 0xBE, 0xEF}, 2, []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		{"port 31 size 4", []byte{0xFB, 0x01, 0x02, 0x03, 0x04}, 31, []byte{0x01, 0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.raw)
			pkt, err := NewDecoder().ReadPacket(r)
			if err != nil {
				t.Fatalf("ReadPacket() error: %v", err)
			}

			want := Packet{Header: tt.raw[0], Port: tt.port, Payload: tt.payload}
			if diff := cmp.Diff(want, pkt); diff != "" {
				t.Errorf("packet mismatch (-want +got):\n%s", diff)
			}
			if r.Len() != 0 {
				t.Errorf("%d bytes left unconsumed", r.Len())
			}
		})
	}
}

// Every possible header byte, checked against the classification rule:
// header&0b111 in {001, 010, 011} selects a data packet sized by the
// low two bits; everything else is unrecognized and costs one byte.
func TestReadPacket_HeaderClassification(t *testing.T) {
	payload := []byte{0xA1, 0xB2, 0xC3, 0xD4}

	for h := 0; h < 256; h++ {
		header := byte(h)
		raw := append([]byte{header}, payload...)
		r := bytes.NewReader(raw)

		pkt, err := NewDecoder().ReadPacket(r)

		low := header & 0b111
		if low >= 1 && low <= 3 {
			if err != nil {
				t.Fatalf("header %#02x: unexpected error: %v", header, err)
			}
			wantSize := map[byte]int{1: 1, 2: 2, 3: 4}[header&0b11]
			if pkt.Port != header>>3 {
				t.Errorf("header %#02x: port = %d, want %d", header, pkt.Port, header>>3)
			}
			if !bytes.Equal(pkt.Payload, payload[:wantSize]) {
				t.Errorf("header %#02x: payload = %x, want %x", header, pkt.Payload, payload[:wantSize])
			}
			if r.Len() != len(payload)-wantSize {
				t.Errorf("header %#02x: %d bytes left, want %d", header, r.Len(), len(payload)-wantSize)
			}
			continue
		}

		var unknown *UnknownHeaderError
		if !errors.As(err, &unknown) {
			t.Fatalf("header %#02x: error = %v, want UnknownHeaderError", header, err)
		}
		if unknown.Header != header {
			t.Errorf("header %#02x: error carries %#02x", header, unknown.Header)
		}
		if r.Len() != len(payload) {
			t.Errorf("header %#02x: consumed %d bytes, want exactly 1", header, 1+len(payload)-r.Len())
		}
	}
}

func TestReadPacket_EmptyStream(t *testing.T) {
	_, err := NewDecoder().ReadPacket(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("error = %v, want io.EOF", err)
	}
	if !IsEndOfInput(err) {
		t.Errorf("IsEndOfInput(%v) = false, want true", err)
	}
}

func TestReadPacket_TruncatedPayload(t *testing.T) {
	// Header wants 4 payload bytes, only 2 are available.
	d := NewDecoder()
	_, err := d.ReadPacket(bytes.NewReader([]byte{0x0B, 0x01, 0x02}))
	if !IsEndOfInput(err) {
		t.Fatalf("error = %v, want end of input", err)
	}

	// The split packet resumes once the rest of the bytes arrive.
	pkt, err := d.ReadPacket(bytes.NewReader([]byte{0x03, 0x04}))
	if err != nil {
		t.Fatalf("resumed ReadPacket() error: %v", err)
	}
	want := Packet{Header: 0x0B, Port: 1, Payload: []byte{0x01, 0x02, 0x03, 0x04}}
	if diff := cmp.Diff(want, pkt); diff != "" {
		t.Errorf("resumed packet mismatch (-want +got):\n%s", diff)
	}
}

func TestReadPacket_TruncatedAfterHeader(t *testing.T) {
	d := NewDecoder()
	_, err := d.ReadPacket(bytes.NewReader([]byte{0x09}))
	if !IsEndOfInput(err) {
		t.Fatalf("error = %v, want end of input", err)
	}

	pkt, err := d.ReadPacket(bytes.NewReader([]byte{0x42}))
	if err != nil {
		t.Fatalf("resumed ReadPacket() error: %v", err)
	}
	if pkt.Port != 1 || !bytes.Equal(pkt.Payload, []byte{0x42}) {
		t.Errorf("resumed packet = %+v", pkt)
	}
}

func TestReadPacket_ResetDiscardsPartialPacket(t *testing.T) {
	d := NewDecoder()
	if _, err := d.ReadPacket(bytes.NewReader([]byte{0x0B, 0x01})); !IsEndOfInput(err) {
		t.Fatalf("error = %v, want end of input", err)
	}

	d.Reset()
	pkt, err := d.ReadPacket(bytes.NewReader([]byte{0x09, 0x55}))
	if err != nil {
		t.Fatalf("ReadPacket() after Reset error: %v", err)
	}
	if pkt.Header != 0x09 || !bytes.Equal(pkt.Payload, []byte{0x55}) {
		t.Errorf("packet after Reset = %+v", pkt)
	}
}

func TestReadPacket_UnknownHeaderKeepsStreamAligned(t *testing.T) {
	// An unrecognized byte followed by a valid packet: the decoder
	// must consume only the bad byte and decode the packet intact.
	r := bytes.NewReader([]byte{0x04, 0x09, 0xAA})
	d := NewDecoder()

	_, err := d.ReadPacket(r)
	var unknown *UnknownHeaderError
	if !errors.As(err, &unknown) || unknown.Header != 0x04 {
		t.Fatalf("error = %v, want UnknownHeaderError for 0x04", err)
	}

	pkt, err := d.ReadPacket(r)
	if err != nil {
		t.Fatalf("ReadPacket() error: %v", err)
	}
	if pkt.Port != 1 || !bytes.Equal(pkt.Payload, []byte{0xAA}) {
		t.Errorf("packet = %+v", pkt)
	}
}

func TestReadPacket_FatalReadError(t *testing.T) {
	errBroken := errors.New("device gone")
	_, err := NewDecoder().ReadPacket(&failReader{err: errBroken})
	if !errors.Is(err, errBroken) {
		t.Fatalf("error = %v, want %v", err, errBroken)
	}
	if IsEndOfInput(err) {
		t.Errorf("IsEndOfInput(%v) = true, want false", err)
	}
}

type failReader struct {
	err error
}

func (r *failReader) Read(p []byte) (int, error) {
	return 0, r.err
}
