// Package printer formats decoded ITM packets for the listing mode.
package printer

import (
	"fmt"
	"strings"

	"itmdump/itm"
)

// FormatPacketLine formats a decoded data packet as a trace listing
// line. offset is the byte offset of the packet header in the stream.
func FormatPacketLine(offset uint64, pkt itm.Packet) string {
	raw := make([]byte, 0, 1+len(pkt.Payload))
	raw = append(raw, pkt.Header)
	raw = append(raw, pkt.Payload...)
	return fmt.Sprintf("Idx:%d; Port:%d; [%s];\tDATA : %s",
		offset, pkt.Port, formatHexBytes(raw), pkt.Description())
}

// FormatUnknownLine formats an unrecognized header byte.
func FormatUnknownLine(offset uint64, header byte) string {
	return fmt.Sprintf("Idx:%d; [%s];\tUNKNOWN : unrecognized header",
		offset, formatHexBytes([]byte{header}))
}

func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("0x%02x", b)
	}
	return strings.Join(parts, " ") + " "
}
