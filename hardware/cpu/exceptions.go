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

import "github.com/jetsetilly/armv6m-sim/errors"

// epsrTBit is bit 24 of the combined xPSR, always set on ARMv6-M since the
// core never leaves Thumb state.
const epsrTBit = 1 << 24

// excReturnHandler / excReturnThreadMSP / excReturnThreadPSP are the three
// EXC_RETURN values ARMv6-M defines; the low nibble of 0xFFFFFFE0 selects
// the return mode and stack.
const (
	excReturnHandler   = 0xfffffff1
	excReturnThreadMSP = 0xfffffff9
	excReturnThreadPSP = 0xfffffffd
)

// raiseException pushes the 8-word exception frame, switches to Handler
// mode on MSP, sets IPSR to exception number, and vectors through the
// table entry for it. The return address pushed is the current PC (the
// address of the next instruction to execute), matching the architecture's
// "preferred return address" for synchronous exceptions taken at
// instruction boundaries.
func (c *CPU) raiseException(number int) error {
	frameSP := c.activeSP() - 32

	xpsr := c.apsr.ToBits() | epsrTBit | c.ipsr

	values := [8]uint32{c.r[0], c.r[1], c.r[2], c.r[3], c.r[12], c.lr, c.pc, xpsr}
	addr := frameSP
	for _, v := range values {
		if err := c.fabric.Store(addr, v, 4); err != nil {
			return err
		}
		addr += 4
	}

	excReturn := uint32(excReturnThreadMSP)
	if c.mode == ModeHandler {
		excReturn = excReturnHandler
	} else if c.control&controlSPSEL != 0 {
		excReturn = excReturnThreadPSP
	}

	// The frame is pushed onto whichever stack was active before entry;
	// only that bank's pointer moves. Handler mode always runs on MSP, but
	// MSP itself is untouched if the frame went to PSP.
	c.setActiveSP(frameSP)
	c.mode = ModeHandler
	c.control &^= controlSPSEL
	c.ipsr = uint32(number) & 0x3f
	c.lr = excReturn

	vectorAddr := c.vectorTable + uint32(number)*4
	entry, err := c.fabric.Load(vectorAddr, 4, false)
	if err != nil {
		return err
	}
	c.pc = entry &^ 1
	return nil
}

// exceptionReturn pops the 8-word exception frame per the EXC_RETURN value
// popped into PC (via POP or BX), restoring registers, the active stack
// selection and Thread/Handler mode. next is set to the restored return
// address, overriding whatever plain branch target execute had already
// computed.
func (c *CPU) exceptionReturn(excReturn uint32, next *uint32) error {
	switch excReturn {
	case excReturnThreadPSP:
		c.mode = ModeThread
		c.control |= controlSPSEL
	case excReturnThreadMSP:
		c.mode = ModeThread
		c.control &^= controlSPSEL
	case excReturnHandler:
		c.mode = ModeHandler
		c.control &^= controlSPSEL
	default:
		return errors.New(errors.IllegalExceptionReturn, errors.IllegalExceptionReturnMsg, excReturn)
	}

	addr := c.activeSP()
	var values [8]uint32
	for i := range values {
		v, err := c.fabric.Load(addr, 4, false)
		if err != nil {
			return err
		}
		values[i] = v
		addr += 4
	}

	c.r[0], c.r[1], c.r[2], c.r[3], c.r[12] = values[0], values[1], values[2], values[3], values[4]
	c.lr = values[5]
	returnPC := values[6]
	xpsr := values[7]

	c.apsr.FromBits(xpsr)
	c.ipsr = xpsr & 0x3f

	c.setActiveSP(addr)
	*next = returnPC &^ 1
	return nil
}
