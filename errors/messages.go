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

package errors

// curated error message formats, grouped by the Kind they're normally raised
// with. Message constants are suffixed Msg to keep them distinct from the
// Kind values in categories.go.
const (
	// memory fabric
	UnmappedAccessMsg   = "unmapped access at 0x%08x"
	MisalignedAccessMsg = "misaligned access of width %d at 0x%08x"
	RegionOverlapMsg    = "region [0x%08x, 0x%08x) overlaps an existing region"
	RegionTableFullMsg  = "region table full"

	// CPU interpreter
	IllegalInstructionMsg     = "illegal instruction 0x%04x at pc 0x%08x"
	Illegal32BitEncodingMsg   = "unsupported 32-bit encoding 0x%04x 0x%04x at pc 0x%08x"
	IllegalExceptionReturnMsg = "illegal exception return value 0x%08x"
	IllegalThumbStateMsg      = "branch target 0x%08x is not a valid thumb address"
	EmptyRegisterListMsg      = "empty register list in %s"

	// debug server
	ProtocolFramingMsg   = "packet checksum mismatch"
	ProtocolMalformedMsg = "malformed packet payload: %s"
	PeerIOMsg            = "debug peer io error: %v"

	// configuration / loader
	ConfigErrorMsg = "%v"
)
