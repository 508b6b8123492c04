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

package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jetsetilly/armv6m-sim/errors"
	"github.com/jetsetilly/armv6m-sim/hardware/cpu"
	"github.com/jetsetilly/armv6m-sim/logger"
)

const haltReply = "S05"

// qSupportedReply advertises a 16KiB packet size, matching the protocol's
// hex-text framing overhead comfortably within most GDB client buffers.
const qSupportedReply = "PacketSize=4000"

const qOffsetsReply = "Text=0;Data=0;Bss=0"

// errBadLength flags that an M packet's declared length didn't match the
// hex payload actually supplied.
var errBadLength = errors.New(errors.ProtocolMalformed, errors.ProtocolMalformedMsg, "length mismatch")

// encodeRegisterLE renders a register value as 8 hex characters in target
// (little-endian) byte order, the way GDB's RSP expects register bytes.
func encodeRegisterLE(v uint32) string {
	var b [4]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	return fmt.Sprintf("%02x%02x%02x%02x", b[0], b[1], b[2], b[3])
}

// decodeRegisterLE parses 8 hex characters in target byte order back into a
// register value.
func decodeRegisterLE(s string) (uint32, error) {
	if len(s) != 8 {
		return 0, errors.New(errors.ProtocolMalformed, errors.ProtocolMalformedMsg, "register field not 8 hex digits")
	}
	var b [4]uint64
	for i := 0; i < 4; i++ {
		n, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return 0, errors.New(errors.ProtocolMalformed, errors.ProtocolMalformedMsg, err)
		}
		b[i] = n
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// parseHexAddress parses an address or length field, accepting an optional
// "0x" prefix and up to 8 hex digits.
func parseHexAddress(s string) (uint32, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" || len(s) > 8 {
		return 0, errors.New(errors.ProtocolMalformed, errors.ProtocolMalformedMsg, "bad address field")
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, errors.New(errors.ProtocolMalformed, errors.ProtocolMalformedMsg, err)
	}
	return uint32(v), nil
}

// dispatch handles every non-looping command and returns the reply payload
// (unframed). "c" and "s" are handled by the server's continue loop instead,
// since they need to poll the peer connection between steps.
func dispatch(pk packet, t Target) string {
	switch pk.command {
	case '?':
		return haltReply

	case 'g':
		var s strings.Builder
		for i := 0; i < cpu.NumRegisters; i++ {
			s.WriteString(encodeRegisterLE(t.GetRegister(i)))
		}
		return s.String()

	case 'G':
		if len(pk.args) != cpu.NumRegisters*8 {
			return "E00"
		}
		for i := 0; i < cpu.NumRegisters; i++ {
			v, err := decodeRegisterLE(pk.args[i*8 : i*8+8])
			if err != nil {
				return "E00"
			}
			t.SetRegister(i, v)
		}
		return "OK"

	case 'p':
		n, err := strconv.ParseUint(pk.args, 16, 32)
		if err != nil || int(n) >= cpu.NumRegisters {
			return "E00"
		}
		return encodeRegisterLE(t.GetRegister(int(n)))

	case 'm':
		return handleReadMemory(pk.args, t)

	case 'M':
		return handleWriteMemory(pk.args, t)

	case 'Z':
		return handleBreakpoint(pk.args, t, true)

	case 'z':
		return handleBreakpoint(pk.args, t, false)

	case 'H':
		return "OK"

	case 'q':
		return handleQuery(pk.args)
	}

	return ""
}

func handleReadMemory(args string, t Target) string {
	addrStr, lenStr, ok := strings.Cut(args, ",")
	if !ok {
		return "E00"
	}
	addr, err := parseHexAddress(addrStr)
	if err != nil {
		return "E00"
	}
	length, err := parseHexAddress(lenStr)
	if err != nil {
		return "E00"
	}

	var s strings.Builder
	for i := uint32(0); i < length; i++ {
		b, err := t.ReadByte(addr + i)
		if err != nil {
			return "E00"
		}
		fmt.Fprintf(&s, "%02x", b)
	}
	return s.String()
}

func handleWriteMemory(args string, t Target) string {
	head, hexData, ok := strings.Cut(args, ":")
	if !ok {
		return "E00"
	}
	addrStr, lenStr, ok := strings.Cut(head, ",")
	if !ok {
		return "E00"
	}
	addr, err := parseHexAddress(addrStr)
	if err != nil {
		return "E00"
	}
	length, err := parseHexAddress(lenStr)
	if err != nil {
		return "E00"
	}
	if len(hexData) != int(length)*2 {
		logger.Log(logger.Allow, "debugger", errBadLength)
		return "E00"
	}

	for i := uint32(0); i < length; i++ {
		n, err := strconv.ParseUint(hexData[i*2:i*2+2], 16, 8)
		if err != nil {
			return "E00"
		}
		if err := t.WriteByte(addr+i, byte(n)); err != nil {
			return "E00"
		}
	}
	return "OK"
}

func handleBreakpoint(args string, t Target, set bool) string {
	parts := strings.Split(args, ",")
	if len(parts) != 3 || parts[0] != "0" {
		return "E00"
	}
	addr, err := parseHexAddress(parts[1])
	if err != nil {
		return "E00"
	}
	if set {
		t.SetBreakpoint(addr)
	} else {
		t.ClearBreakpoint(addr)
	}
	return "OK"
}

func handleQuery(args string) string {
	switch {
	case args == "Supported" || strings.HasPrefix(args, "Supported:"):
		return qSupportedReply
	case strings.HasPrefix(args, "Offsets"):
		return qOffsetsReply
	case strings.HasPrefix(args, "Rcmd,"):
		return "E00"
	}
	return ""
}
