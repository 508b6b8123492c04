// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package debugger implements a GDB remote serial protocol server over the
// CPU's debug surface: packet framing, the ack handshake, and the command
// set described in §4.4 of the design notes.
package debugger

import (
	"fmt"
)

// checksum is the low byte of the sum of payload bytes, per the wire format.
func checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum += b
	}
	return sum
}

// frame wraps payload as a complete `$<payload>#<checksum>` packet.
func frame(payload string) string {
	return fmt.Sprintf("$%s#%02x", payload, checksum([]byte(payload)))
}

// packet is a successfully-framed and checksum-verified request, split into
// its leading command byte and the remaining argument text.
type packet struct {
	command byte
	args    string
}

// parsePacket splits a verified payload into its command byte and argument
// remainder. An empty payload has no command.
func parsePacket(payload string) packet {
	if len(payload) == 0 {
		return packet{}
	}
	return packet{command: payload[0], args: payload[1:]}
}
