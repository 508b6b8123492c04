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
	"github.com/jetsetilly/armv6m-sim/errors"
)

// Op identifies an instruction's operation. Decode produces a tagged
// Instruction value rather than a closure, so tests can build one directly
// without going through bit patterns.
type Op int

const (
	OpLSL_IMM Op = iota
	OpLSR_IMM
	OpASR_IMM
	OpADD_REG
	OpSUB_REG
	OpADD_IMM3
	OpSUB_IMM3
	OpMOV_IMM8
	OpCMP_IMM8
	OpADD_IMM8
	OpSUB_IMM8
	OpAND
	OpEOR
	OpLSL_REG
	OpLSR_REG
	OpASR_REG
	OpADC
	OpSBC
	OpROR
	OpTST
	OpNEG
	OpCMP_REG
	OpCMN
	OpORR
	OpMUL
	OpBIC
	OpMVN
	OpADD_HI
	OpCMP_HI
	OpMOV_HI
	OpBX
	OpBLX
	OpLDR_LIT
	OpSTR_REG
	OpSTRH_REG
	OpSTRB_REG
	OpLDRSB_REG
	OpLDR_REG
	OpLDRH_REG
	OpLDRB_REG
	OpLDRSH_REG
	OpSTR_IMM
	OpLDR_IMM
	OpSTRB_IMM
	OpLDRB_IMM
	OpSTRH_IMM
	OpLDRH_IMM
	OpSTR_SP
	OpLDR_SP
	OpADR
	OpADD_SP_IMM
	OpSUB_SP_IMM
	OpSXTH
	OpSXTB
	OpUXTH
	OpUXTB
	OpPUSH
	OpPOP
	OpREV
	OpREV16
	OpREVSH
	OpCPS
	OpHINT
	OpLDM
	OpSTM
	OpB_COND
	OpSVC
	OpUNDEF
	OpB
	OpBL
	OpBKPT
)

// Instruction is the decoded, tagged representation of one opcode. Fields
// not used by a particular Op are left at their zero value.
type Instruction struct {
	Op Op

	Rd, Rn, Rm, Rt int
	Imm            uint32 // unsigned immediate / offset magnitude
	SImm           int32  // signed immediate / branch offset
	Cond           uint8
	RegList        uint8 // low 8 register bits (r0-r7), used by PUSH/POP/LDM/STM
	R              bool  // PUSH: store LR: POP: load PC
	SPBase         bool  // ADR: base register is SP instead of PC
	Size           int   // encoded width in bytes: 2 for 16-bit, 4 for BL
}

func signExtend32(v uint32, bits uint8) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// Decode decodes one instruction. word1 is only consulted when word0's top
// five bits require a second half-word (the BL pair); otherwise pass 0.
func Decode(word0, word1 uint16) (Instruction, error) {
	switch {
	case word0&0xe000 == 0x0000 && word0&0x1800 != 0x1800:
		// Format 1: move shifted register (LSL/LSR/ASR immediate). op==11
		// (bits 12:11) is reserved for format 2, add/subtract, below.
		op := (word0 >> 11) & 0x3
		imm5 := uint32((word0 >> 6) & 0x1f)
		rs := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		var o Op
		switch op {
		case 0b00:
			o = OpLSL_IMM
		case 0b01:
			o = OpLSR_IMM
		default:
			o = OpASR_IMM
		}
		return Instruction{Op: o, Rd: rd, Rm: rs, Imm: imm5, Size: 2}, nil

	case word0&0xf800 == 0x1800:
		// Format 2: add/subtract
		immFlag := word0&0x0400 != 0
		isSub := word0&0x0200 != 0
		rnOrImm := uint32((word0 >> 6) & 0x7)
		rs := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		o := OpADD_REG
		if isSub {
			o = OpSUB_REG
		}
		if immFlag {
			if isSub {
				o = OpSUB_IMM3
			} else {
				o = OpADD_IMM3
			}
			return Instruction{Op: o, Rd: rd, Rn: rs, Imm: rnOrImm, Size: 2}, nil
		}
		return Instruction{Op: o, Rd: rd, Rn: rs, Rm: int(rnOrImm), Size: 2}, nil

	case word0&0xe000 == 0x2000:
		// Format 3: MOV/CMP/ADD/SUB immediate
		op := (word0 >> 11) & 0x3
		rd := int((word0 >> 8) & 0x7)
		imm8 := uint32(word0 & 0xff)
		var o Op
		switch op {
		case 0b00:
			o = OpMOV_IMM8
		case 0b01:
			o = OpCMP_IMM8
		case 0b10:
			o = OpADD_IMM8
		default:
			o = OpSUB_IMM8
		}
		return Instruction{Op: o, Rd: rd, Imm: imm8, Size: 2}, nil

	case word0&0xfc00 == 0x4000:
		// Format 4: ALU operations
		op := (word0 >> 6) & 0xf
		rs := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		ops := [...]Op{OpAND, OpEOR, OpLSL_REG, OpLSR_REG, OpASR_REG, OpADC, OpSBC, OpROR,
			OpTST, OpNEG, OpCMP_REG, OpCMN, OpORR, OpMUL, OpBIC, OpMVN}
		return Instruction{Op: ops[op], Rd: rd, Rm: rs, Size: 2}, nil

	case word0&0xfc00 == 0x4400:
		// Format 5: hi register operations / BX / BLX
		op := (word0 >> 8) & 0x3
		h1 := word0&0x0080 != 0
		h2 := word0&0x0040 != 0
		rs := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		if h2 {
			rs += 8
		}
		if h1 {
			rd += 8
		}
		switch op {
		case 0b00:
			return Instruction{Op: OpADD_HI, Rd: rd, Rm: rs, Size: 2}, nil
		case 0b01:
			return Instruction{Op: OpCMP_HI, Rd: rd, Rm: rs, Size: 2}, nil
		case 0b10:
			return Instruction{Op: OpMOV_HI, Rd: rd, Rm: rs, Size: 2}, nil
		default:
			if h1 {
				return Instruction{Op: OpBLX, Rm: rs, Size: 2}, nil
			}
			return Instruction{Op: OpBX, Rm: rs, Size: 2}, nil
		}

	case word0&0xf800 == 0x4800:
		// Format 6: PC-relative load
		rd := int((word0 >> 8) & 0x7)
		imm8 := uint32(word0&0xff) << 2
		return Instruction{Op: OpLDR_LIT, Rd: rd, Imm: imm8, Size: 2}, nil

	case word0&0xf200 == 0x5000:
		// Format 7: load/store with register offset
		l := word0&0x0800 != 0
		b := word0&0x0400 != 0
		rm := int((word0 >> 6) & 0x7)
		rn := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		var o Op
		switch {
		case !l && !b:
			o = OpSTR_REG
		case !l && b:
			o = OpSTRB_REG
		case l && !b:
			o = OpLDR_REG
		default:
			o = OpLDRB_REG
		}
		return Instruction{Op: o, Rt: rd, Rn: rn, Rm: rm, Size: 2}, nil

	case word0&0xf200 == 0x5200:
		// Format 8: load/store sign-extended byte/halfword
		h := word0&0x0800 != 0
		s := word0&0x0400 != 0
		rm := int((word0 >> 6) & 0x7)
		rn := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		var o Op
		switch {
		case !h && !s:
			o = OpSTRH_REG
		case !h && s:
			o = OpLDRSB_REG
		case h && !s:
			o = OpLDRH_REG
		default:
			o = OpLDRSH_REG
		}
		return Instruction{Op: o, Rt: rd, Rn: rn, Rm: rm, Size: 2}, nil

	case word0&0xe000 == 0x6000:
		// Format 9: load/store immediate offset, word or byte
		b := word0&0x1000 != 0
		l := word0&0x0800 != 0
		imm5 := uint32((word0 >> 6) & 0x1f)
		rn := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		if !b {
			imm5 <<= 2
		}
		var o Op
		switch {
		case !b && !l:
			o = OpSTR_IMM
		case !b && l:
			o = OpLDR_IMM
		case b && !l:
			o = OpSTRB_IMM
		default:
			o = OpLDRB_IMM
		}
		return Instruction{Op: o, Rt: rd, Rn: rn, Imm: imm5, Size: 2}, nil

	case word0&0xf000 == 0x8000:
		// Format 10: load/store halfword
		l := word0&0x0800 != 0
		imm5 := uint32((word0>>6)&0x1f) << 1
		rn := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		o := OpSTRH_IMM
		if l {
			o = OpLDRH_IMM
		}
		return Instruction{Op: o, Rt: rd, Rn: rn, Imm: imm5, Size: 2}, nil

	case word0&0xf000 == 0x9000:
		// Format 11: SP-relative load/store
		l := word0&0x0800 != 0
		rd := int((word0 >> 8) & 0x7)
		imm8 := uint32(word0&0xff) << 2
		o := OpSTR_SP
		if l {
			o = OpLDR_SP
		}
		return Instruction{Op: o, Rt: rd, Imm: imm8, Size: 2}, nil

	case word0&0xf000 == 0xa000:
		// Format 12: load address (ADR or ADD Rd, SP, #imm)
		sp := word0&0x0800 != 0
		rd := int((word0 >> 8) & 0x7)
		imm8 := uint32(word0&0xff) << 2
		return Instruction{Op: OpADR, Rd: rd, Imm: imm8, SPBase: sp, Size: 2}, nil

	case word0&0xff00 == 0xb000:
		// Format 13: add offset to SP
		sub := word0&0x0080 != 0
		imm7 := uint32(word0&0x7f) << 2
		o := OpADD_SP_IMM
		if sub {
			o = OpSUB_SP_IMM
		}
		return Instruction{Op: o, Imm: imm7, Size: 2}, nil

	case word0&0xff00 == 0xb200:
		// SXTH/SXTB/UXTH/UXTB (miscellaneous subgroup)
		op := (word0 >> 6) & 0x3
		rm := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		ops := [...]Op{OpSXTH, OpSXTB, OpUXTH, OpUXTB}
		return Instruction{Op: ops[op], Rd: rd, Rm: rm, Size: 2}, nil

	case word0&0xf600 == 0xb400:
		// Format 14: push/pop registers
		l := word0&0x0800 != 0
		r := word0&0x0100 != 0
		regList := uint8(word0 & 0xff)
		o := OpPUSH
		if l {
			o = OpPOP
		}
		return Instruction{Op: o, RegList: regList, R: r, Size: 2}, nil

	case word0&0xffe8 == 0xb660:
		// CPS (change processor state) -- only the enable/disable
		// interrupts form is architecturally defined for ARMv6-M
		return Instruction{Op: OpCPS, Imm: uint32(word0 & 0x10), Size: 2}, nil

	case word0&0xffc0 == 0xba00:
		// REV/REV16/REVSH (miscellaneous subgroup)
		op := (word0 >> 6) & 0x3
		rm := int((word0 >> 3) & 0x7)
		rd := int(word0 & 0x7)
		switch op {
		case 0b00:
			return Instruction{Op: OpREV, Rd: rd, Rm: rm, Size: 2}, nil
		case 0b01:
			return Instruction{Op: OpREV16, Rd: rd, Rm: rm, Size: 2}, nil
		case 0b11:
			return Instruction{Op: OpREVSH, Rd: rd, Rm: rm, Size: 2}, nil
		}
		return Instruction{}, errors.New(errors.IllegalInstruction, errors.IllegalInstructionMsg, word0, 0)

	case word0&0xff00 == 0xbf00:
		// hints: NOP, YIELD, WFE, WFI, SEV and friends -- all treated alike
		return Instruction{Op: OpHINT, Imm: uint32(word0 & 0xff), Size: 2}, nil

	case word0&0xff00 == 0xbe00:
		// BKPT
		return Instruction{Op: OpBKPT, Imm: uint32(word0 & 0xff), Size: 2}, nil

	case word0&0xf000 == 0xc000:
		// Format 15: load/store multiple
		l := word0&0x0800 != 0
		rn := int((word0 >> 8) & 0x7)
		regList := uint8(word0 & 0xff)
		o := OpSTM
		if l {
			o = OpLDM
		}
		return Instruction{Op: o, Rn: rn, RegList: regList, Size: 2}, nil

	case word0&0xff00 == 0xdf00:
		// SVC
		return Instruction{Op: OpSVC, Size: 2}, nil

	case word0&0xff00 == 0xde00:
		// undefined encoding
		return Instruction{Op: OpUNDEF, Size: 2}, nil

	case word0&0xf000 == 0xd000:
		// Format 16: conditional branch
		cond := uint8((word0 >> 8) & 0xf)
		offset := signExtend32(uint32(word0&0xff)<<1, 9)
		return Instruction{Op: OpB_COND, Cond: cond, SImm: offset, Size: 2}, nil

	case word0&0xf800 == 0xe000:
		// Format 18: unconditional branch
		offset := signExtend32(uint32(word0&0x7ff)<<1, 12)
		return Instruction{Op: OpB, SImm: offset, Size: 2}, nil

	case word0&0xf800 == 0xf000:
		// Format 19, first half-word: BL high
		high := uint32(word0 & 0x7ff)
		if word1&0xf800 != 0xf800 {
			return Instruction{}, errors.New(errors.IllegalInstruction, errors.Illegal32BitEncodingMsg, word0, word1, 0)
		}
		low := uint32(word1 & 0x7ff)
		offset := signExtend32((high<<12)|(low<<1), 23)
		return Instruction{Op: OpBL, SImm: offset, Size: 4}, nil
	}

	return Instruction{}, errors.New(errors.IllegalInstruction, errors.IllegalInstructionMsg, word0, 0)
}

// is32BitPrefix reports whether a half-word's top five bits require a
// second half-word to be fetched and combined, per the Fetch rules in §4.3.
func is32BitPrefix(word0 uint16) bool {
	top5 := word0 >> 11
	return top5 == 0b11101 || top5 == 0b11110 || top5 == 0b11111
}
