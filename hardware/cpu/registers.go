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

package cpu

// Register indices. r13 (SP) is never stored directly: it is a view over
// the banked msp/psp fields, redirected by the accessors below. See the
// design notes on banked stack pointers.
const (
	RegSP        = 13
	RegLR        = 14
	RegPC        = 15
	NumRegisters = 16
)

// Mode is the processor's execution mode.
type Mode int

const (
	ModeThread Mode = iota
	ModeHandler
)

func (m Mode) String() string {
	if m == ModeHandler {
		return "Handler"
	}
	return "Thread"
}

// CONTROL bits.
const (
	controlNPRIV = 0x1
	controlSPSEL = 0x2
)

// activeSP returns the banked stack pointer currently selected by mode and
// CONTROL.SPSEL. Handler mode always uses MSP.
func (c *CPU) activeSP() uint32 {
	if c.mode == ModeHandler {
		return c.msp
	}
	if c.control&controlSPSEL != 0 {
		return c.psp
	}
	return c.msp
}

// setActiveSP redirects a write to r13 into whichever bank is currently
// active, exactly mirroring activeSP's selection.
func (c *CPU) setActiveSP(v uint32) {
	if c.mode == ModeHandler {
		c.msp = v
		return
	}
	if c.control&controlSPSEL != 0 {
		c.psp = v
		return
	}
	c.msp = v
}

// GetRegister returns the current value of general register i as seen by
// the debug surface: r13 is the active SP view, r15 is the plain PC of the
// instruction about to execute (not the architectural PC+4 used internally
// during execute — see archPC).
func (c *CPU) GetRegister(i int) uint32 {
	switch i {
	case RegSP:
		return c.activeSP()
	case RegLR:
		return c.lr
	case RegPC:
		return c.pc
	default:
		return c.r[i]
	}
}

// SetRegister writes general register i. Writes to r13 route into the
// active bank; writes to r15 set PC and clear bit 0 (per the debug surface
// contract in §4.3).
func (c *CPU) SetRegister(i int, v uint32) {
	switch i {
	case RegSP:
		c.setActiveSP(v)
	case RegLR:
		c.lr = v
	case RegPC:
		c.pc = v &^ 1
	default:
		c.r[i] = v
	}
}

// archPC is the architectural value of r15 as read by an executing
// instruction: the address of the current instruction plus 4, per §3 of the
// design notes. fetchPC is the address the currently-executing instruction
// was fetched from.
func archPC(fetchPC uint32) uint32 {
	return fetchPC + 4
}
