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

import (
	"math/bits"

	"github.com/jetsetilly/armv6m-sim/errors"
)

// execute applies inst's architectural effect. fetchPC is the address the
// instruction was fetched from; next is the address execute should resume
// at unless inst branches, in which case execute overwrites it.
func (c *CPU) execute(inst Instruction, fetchPC uint32, next *uint32) error {
	switch inst.Op {

	case OpLSL_IMM:
		v, carry := shiftLeft(c.r[inst.Rm], uint8(inst.Imm), c.apsr.carry)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry

	case OpLSR_IMM:
		n := uint8(inst.Imm)
		if n == 0 {
			n = 32
		}
		v, carry := shiftRight(c.r[inst.Rm], n, c.apsr.carry)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry

	case OpASR_IMM:
		n := uint8(inst.Imm)
		if n == 0 {
			n = 32
		}
		v, carry := arithShiftRight(c.r[inst.Rm], n, c.apsr.carry)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry

	case OpADD_REG:
		v, carry, overflow := addWithCarry(c.r[inst.Rn], c.r[inst.Rm], false)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpSUB_REG:
		v, carry, overflow := addWithCarry(c.r[inst.Rn], ^c.r[inst.Rm], true)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpADD_IMM3:
		v, carry, overflow := addWithCarry(c.r[inst.Rn], inst.Imm, false)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpSUB_IMM3:
		v, carry, overflow := addWithCarry(c.r[inst.Rn], ^inst.Imm, true)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpMOV_IMM8:
		c.r[inst.Rd] = inst.Imm
		c.apsr.setNZ(inst.Imm)

	case OpCMP_IMM8:
		v, carry, overflow := addWithCarry(c.r[inst.Rd], ^inst.Imm, true)
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpADD_IMM8:
		v, carry, overflow := addWithCarry(c.r[inst.Rd], inst.Imm, false)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpSUB_IMM8:
		v, carry, overflow := addWithCarry(c.r[inst.Rd], ^inst.Imm, true)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpAND:
		v := c.r[inst.Rd] & c.r[inst.Rm]
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)

	case OpEOR:
		v := c.r[inst.Rd] ^ c.r[inst.Rm]
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)

	case OpLSL_REG:
		v, carry := shiftLeft(c.r[inst.Rd], uint8(c.r[inst.Rm]&0xff), c.apsr.carry)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry

	case OpLSR_REG:
		v, carry := shiftRight(c.r[inst.Rd], uint8(c.r[inst.Rm]&0xff), c.apsr.carry)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry

	case OpASR_REG:
		v, carry := arithShiftRight(c.r[inst.Rd], uint8(c.r[inst.Rm]&0xff), c.apsr.carry)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry

	case OpADC:
		v, carry, overflow := addWithCarry(c.r[inst.Rd], c.r[inst.Rm], c.apsr.carry)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpSBC:
		v, carry, overflow := addWithCarry(c.r[inst.Rd], ^c.r[inst.Rm], c.apsr.carry)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpROR:
		v, carry := rotateRight(c.r[inst.Rd], uint8(c.r[inst.Rm]&0xff), c.apsr.carry)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry

	case OpTST:
		v := c.r[inst.Rd] & c.r[inst.Rm]
		c.apsr.setNZ(v)

	case OpNEG:
		v, carry, overflow := addWithCarry(^c.r[inst.Rm], 0, true)
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpCMP_REG:
		v, carry, overflow := addWithCarry(c.r[inst.Rd], ^c.r[inst.Rm], true)
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpCMN:
		v, carry, overflow := addWithCarry(c.r[inst.Rd], c.r[inst.Rm], false)
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpORR:
		v := c.r[inst.Rd] | c.r[inst.Rm]
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)

	case OpMUL:
		v := c.r[inst.Rd] * c.r[inst.Rm]
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)

	case OpBIC:
		v := c.r[inst.Rd] &^ c.r[inst.Rm]
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)

	case OpMVN:
		v := ^c.r[inst.Rm]
		c.r[inst.Rd] = v
		c.apsr.setNZ(v)

	case OpADD_HI:
		rnv := c.readHiReg(inst.Rd, fetchPC)
		rmv := c.readHiReg(inst.Rm, fetchPC)
		v := rnv + rmv
		c.writeHiReg(inst.Rd, v, next)

	case OpCMP_HI:
		rnv := c.readHiReg(inst.Rd, fetchPC)
		rmv := c.readHiReg(inst.Rm, fetchPC)
		v, carry, overflow := addWithCarry(rnv, ^rmv, true)
		c.apsr.setNZ(v)
		c.apsr.carry = carry
		c.apsr.overflow = overflow

	case OpMOV_HI:
		v := c.readHiReg(inst.Rm, fetchPC)
		c.writeHiReg(inst.Rd, v, next)

	case OpBX:
		return c.branchExchange(c.readHiReg(inst.Rm, fetchPC), next)

	case OpBLX:
		target := c.readHiReg(inst.Rm, fetchPC)
		c.lr = (fetchPC + 2) | 1
		return c.branchExchange(target, next)

	case OpLDR_LIT:
		addr := (archPC(fetchPC) &^ 3) + inst.Imm
		v, err := c.fabric.Load(addr, 4, false)
		if err != nil {
			return err
		}
		c.r[inst.Rd] = v

	case OpSTR_REG:
		return c.store(c.r[inst.Rn]+c.r[inst.Rm], c.r[inst.Rt], 4)
	case OpSTRH_REG:
		return c.store(c.r[inst.Rn]+c.r[inst.Rm], c.r[inst.Rt], 2)
	case OpSTRB_REG:
		return c.store(c.r[inst.Rn]+c.r[inst.Rm], c.r[inst.Rt], 1)
	case OpLDR_REG:
		return c.load(c.r[inst.Rn]+c.r[inst.Rm], inst.Rt, 4, false)
	case OpLDRH_REG:
		return c.load(c.r[inst.Rn]+c.r[inst.Rm], inst.Rt, 2, false)
	case OpLDRB_REG:
		return c.load(c.r[inst.Rn]+c.r[inst.Rm], inst.Rt, 1, false)
	case OpLDRSB_REG:
		return c.load(c.r[inst.Rn]+c.r[inst.Rm], inst.Rt, 1, true)
	case OpLDRSH_REG:
		return c.load(c.r[inst.Rn]+c.r[inst.Rm], inst.Rt, 2, true)

	case OpSTR_IMM:
		return c.store(c.r[inst.Rn]+inst.Imm, c.r[inst.Rt], 4)
	case OpLDR_IMM:
		return c.load(c.r[inst.Rn]+inst.Imm, inst.Rt, 4, false)
	case OpSTRB_IMM:
		return c.store(c.r[inst.Rn]+inst.Imm, c.r[inst.Rt], 1)
	case OpLDRB_IMM:
		return c.load(c.r[inst.Rn]+inst.Imm, inst.Rt, 1, false)
	case OpSTRH_IMM:
		return c.store(c.r[inst.Rn]+inst.Imm, c.r[inst.Rt], 2)
	case OpLDRH_IMM:
		return c.load(c.r[inst.Rn]+inst.Imm, inst.Rt, 2, false)

	case OpSTR_SP:
		return c.store(c.activeSP()+inst.Imm, c.r[inst.Rt], 4)
	case OpLDR_SP:
		return c.load(c.activeSP()+inst.Imm, inst.Rt, 4, false)

	case OpADR:
		base := c.activeSP()
		if !inst.SPBase {
			base = archPC(fetchPC) &^ 3
		}
		c.r[inst.Rd] = base + inst.Imm

	case OpADD_SP_IMM:
		c.setActiveSP(c.activeSP() + inst.Imm)
	case OpSUB_SP_IMM:
		c.setActiveSP(c.activeSP() - inst.Imm)

	case OpSXTH:
		c.r[inst.Rd] = uint32(signExtend32(c.r[inst.Rm]&0xffff, 16))
	case OpSXTB:
		c.r[inst.Rd] = uint32(signExtend32(c.r[inst.Rm]&0xff, 8))
	case OpUXTH:
		c.r[inst.Rd] = c.r[inst.Rm] & 0xffff
	case OpUXTB:
		c.r[inst.Rd] = c.r[inst.Rm] & 0xff

	case OpREV:
		c.r[inst.Rd] = bits.ReverseBytes32(c.r[inst.Rm])
	case OpREV16:
		v := c.r[inst.Rm]
		c.r[inst.Rd] = (bits.ReverseBytes16(uint16(v)) & 0xffff) |
			(uint32(bits.ReverseBytes16(uint16(v>>16))) << 16)
	case OpREVSH:
		h := bits.ReverseBytes16(uint16(c.r[inst.Rm] & 0xffff))
		c.r[inst.Rd] = uint32(signExtend32(uint32(h), 16))

	case OpCPS:
		if inst.Imm != 0 {
			c.primask = 1
		} else {
			c.primask = 0
		}

	case OpHINT:
		// NOP and friends: no architectural effect

	case OpPUSH:
		return c.push(inst, fetchPC)
	case OpPOP:
		return c.pop(inst, next)

	case OpLDM:
		return c.ldm(inst)
	case OpSTM:
		return c.stm(inst)

	case OpB_COND:
		if c.apsr.condition(inst.Cond) {
			*next = uint32(int64(archPC(fetchPC)) + int64(inst.SImm))
		}

	case OpB:
		*next = uint32(int64(archPC(fetchPC)) + int64(inst.SImm))

	case OpBL:
		c.lr = (fetchPC + 4) | 1
		*next = uint32(int64(archPC(fetchPC)) + int64(inst.SImm))

	case OpSVC:
		c.pc = *next
		if err := c.raiseException(11); err != nil {
			c.pc = fetchPC
			return err
		}
		*next = c.pc

	case OpBKPT:
		c.halted = true

	case OpUNDEF:
		return errors.New(errors.IllegalInstruction, errors.IllegalInstructionMsg, 0, fetchPC)

	default:
		return errors.New(errors.IllegalInstruction, errors.IllegalInstructionMsg, 0, fetchPC)
	}

	return nil
}

// readHiReg reads a register that may be PC, returning the architectural
// PC+4 value rather than the plain resting PC when Rm/Rd is 15.
func (c *CPU) readHiReg(i int, fetchPC uint32) uint32 {
	if i == RegPC {
		return archPC(fetchPC) &^ 1
	}
	return c.GetRegister(i)
}

// writeHiReg writes a register that may be PC. A write to PC branches by
// updating next rather than going through SetRegister, since the low bit of
// a branch target is architecturally significant only via branchExchange;
// here (ADD/MOV in the special-data group) the low bit is simply cleared.
func (c *CPU) writeHiReg(i int, v uint32, next *uint32) {
	if i == RegPC {
		*next = v &^ 1
		return
	}
	c.SetRegister(i, v)
}

func (c *CPU) store(addr, value uint32, width int) error {
	return c.fabric.Store(addr, value, width)
}

func (c *CPU) load(addr uint32, rt, width int, signed bool) error {
	v, err := c.fabric.Load(addr, width, signed)
	if err != nil {
		return err
	}
	c.r[rt] = v
	return nil
}

func (c *CPU) push(inst Instruction, fetchPC uint32) error {
	count := bits.OnesCount8(inst.RegList)
	if inst.R {
		count++
	}
	if count == 0 {
		return errors.New(errors.IllegalInstruction, errors.EmptyRegisterListMsg, "PUSH")
	}

	addr := c.activeSP() - uint32(count)*4
	base := addr
	for i := 0; i < 8; i++ {
		if inst.RegList&(1<<i) != 0 {
			if err := c.fabric.Store(addr, c.r[i], 4); err != nil {
				return err
			}
			addr += 4
		}
	}
	if inst.R {
		if err := c.fabric.Store(addr, c.lr, 4); err != nil {
			return err
		}
	}
	c.setActiveSP(base)
	return nil
}

func (c *CPU) pop(inst Instruction, next *uint32) error {
	count := bits.OnesCount8(inst.RegList)
	if inst.R {
		count++
	}
	if count == 0 {
		return errors.New(errors.IllegalInstruction, errors.EmptyRegisterListMsg, "POP")
	}

	addr := c.activeSP()
	for i := 0; i < 8; i++ {
		if inst.RegList&(1<<i) != 0 {
			v, err := c.fabric.Load(addr, 4, false)
			if err != nil {
				return err
			}
			c.r[i] = v
			addr += 4
		}
	}
	if inst.R {
		v, err := c.fabric.Load(addr, 4, false)
		if err != nil {
			return err
		}
		addr += 4

		if isExcReturn(v) {
			c.setActiveSP(addr)
			return c.exceptionReturn(v, next)
		}
		if v&1 == 0 {
			return errors.New(errors.IllegalThumbState, errors.IllegalThumbStateMsg, v)
		}
		*next = v &^ 1
	}
	c.setActiveSP(addr)
	return nil
}

func (c *CPU) ldm(inst Instruction) error {
	if inst.RegList == 0 {
		return errors.New(errors.IllegalInstruction, errors.EmptyRegisterListMsg, "LDM")
	}
	addr := c.r[inst.Rn]
	baseInList := inst.RegList&(1<<inst.Rn) != 0
	for i := 0; i < 8; i++ {
		if inst.RegList&(1<<i) != 0 {
			v, err := c.fabric.Load(addr, 4, false)
			if err != nil {
				return err
			}
			c.r[i] = v
			addr += 4
		}
	}
	if !baseInList {
		c.r[inst.Rn] = addr
	}
	return nil
}

func (c *CPU) stm(inst Instruction) error {
	if inst.RegList == 0 {
		return errors.New(errors.IllegalInstruction, errors.EmptyRegisterListMsg, "STM")
	}
	addr := c.r[inst.Rn]
	for i := 0; i < 8; i++ {
		if inst.RegList&(1<<i) != 0 {
			if err := c.fabric.Store(addr, c.r[i], 4); err != nil {
				return err
			}
			addr += 4
		}
	}
	c.r[inst.Rn] = addr
	return nil
}

// isExcReturn reports whether v is in the EXC_RETURN range 0xFFFFFFF0 to
// 0xFFFFFFFF (every bit above the low nibble set).
func isExcReturn(v uint32) bool {
	return v&0xfffffff0 == 0xfffffff0
}

// branchExchange implements BX's target-address semantics: bit 0 selects
// Thumb state and must be set; a target in the 0xFFFFFFF0-0xFFFFFFFF range
// triggers exception return instead of a plain branch.
func (c *CPU) branchExchange(target uint32, next *uint32) error {
	if isExcReturn(target) {
		return c.exceptionReturn(target, next)
	}
	if target&1 == 0 {
		return errors.New(errors.IllegalThumbState, errors.IllegalThumbStateMsg, target)
	}
	*next = target &^ 1
	return nil
}
