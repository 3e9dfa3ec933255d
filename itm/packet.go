// Package itm decodes the ARM Cortex-M Instrumentation Trace Macrocell
// (ITM) wire format. The ITM multiplexes up to 32 independent byte
// streams ("stimulus ports") onto one trace output; this package
// extracts the data packets carrying those bytes.
//
// Only software stimulus (SWIT) data packets are decoded.
// Synchronization, timestamp, overflow and hardware event packets are
// reported as unrecognized headers and skipped one byte at a time.
package itm

import "fmt"

// MaxPayloadSize is the largest payload an ITM data packet can carry.
const MaxPayloadSize = 4

// Data packet header layout (MSB to LSB):
//   bits 7-3  stimulus port number (0-31)
//   bits 2-0  data packet discriminant: 001, 010 and 011 select a
//             payload of 1, 2 and 4 bytes respectively. Any other
//             value is not a data packet.

// Packet is a decoded ITM data packet.
type Packet struct {
	Header  byte   // raw header byte, retained for diagnostics
	Port    uint8  // stimulus port this packet was sent from
	Payload []byte // 1, 2 or 4 payload bytes in stream order
}

// Description returns a human-readable description of the packet.
func (p *Packet) Description() string {
	return fmt.Sprintf("stimulus port %d; payload %d bytes", p.Port, len(p.Payload))
}

// isDataPacket reports whether header starts a recognized data packet.
func isDataPacket(header byte) bool {
	low := header & 0b111
	return low >= 0b001 && low <= 0b011
}

// payloadSize maps the header size code to the data packet payload
// length. Returns 0 when the header is not a recognized data packet.
func payloadSize(header byte) int {
	switch header & 0b11 {
	case 0b01:
		return 1
	case 0b10:
		return 2
	case 0b11:
		return 4
	}
	return 0
}
