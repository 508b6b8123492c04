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

// Package cpu implements an ARMv6-M Thumb instruction interpreter: register
// file, condition flags, the Thumb decoder and executor, and the exception
// model (entry, return, and the debug-facing step/breakpoint surface).
package cpu

import (
	"github.com/jetsetilly/armv6m-sim/hardware/memory"
	"github.com/jetsetilly/armv6m-sim/logger"
)

// CPU is an ARMv6-M processor core attached to a memory fabric.
type CPU struct {
	r  [13]uint32 // r0-r12
	lr uint32
	pc uint32

	msp uint32
	psp uint32

	apsr    Status
	ipsr    uint32
	primask uint32
	control uint32
	mode    Mode

	fault    bool
	faultErr error
	halted   bool

	breakpoints map[uint32]struct{}

	// skipBreakpointOnce suppresses exactly one breakpoint check, at the PC
	// Resume was called with. Without it, continuing from a halt caused by a
	// breakpoint would immediately re-trip the same breakpoint and Step
	// could never advance past it.
	skipBreakpointOnce bool

	// tracePermission gates the trace line Step emits for every retired
	// instruction. See trace.go.
	tracePermission logger.Permission

	// stepCallback, if set, is invoked at the end of every Step call that
	// executes an instruction without faulting, after everything else
	// (instruction execute, trace line, device tick). Used by the standalone
	// host to count executed instructions for -c (instruction budget).
	stepCallback func()

	fabric *memory.Fabric

	// vectorTable is the base address the exception vector table is read
	// from. It is 0 unless relocated with SetVectorTable (the standalone
	// host does so for an ELF image that defines a "vectors" symbol).
	vectorTable uint32
}

// NewCPU returns a CPU wired to fabric, halted until Reset is called.
func NewCPU(fabric *memory.Fabric) *CPU {
	return &CPU{
		fabric:          fabric,
		breakpoints:     make(map[uint32]struct{}),
		halted:          true,
		tracePermission: denyTrace{},
	}
}

// SetStepCallback installs a function invoked at the end of every Step
// call that executes an instruction without faulting, after instruction
// execute, tracing and device ticking. It is not invoked when Step stops at
// a breakpoint, is called while halted or faulted, or faults.
func (c *CPU) SetStepCallback(f func()) {
	c.stepCallback = f
}

// SetVectorTable relocates the address Reset reads MSP and the entry point
// from. Used when an ELF image supplies a "vectors" symbol instead of the
// default address 0.
func (c *CPU) SetVectorTable(address uint32) {
	c.vectorTable = address
}

// Reset performs the architectural reset sequence: MSP is loaded from the
// word at the vector table base, PC from the following word with bit 0
// cleared, and the core enters Thread mode with a clear fault/halt state.
// The caller (the loader) is responsible for having already written the
// initial stack pointer and entry point into the vector table before
// calling Reset.
func (c *CPU) Reset() error {
	msp, err := c.fabric.Load(c.vectorTable, 4, false)
	if err != nil {
		return err
	}
	entry, err := c.fabric.Load(c.vectorTable+4, 4, false)
	if err != nil {
		return err
	}

	c.r = [13]uint32{}
	c.lr = 0
	c.msp = msp
	c.psp = 0
	c.pc = entry &^ 1
	c.apsr = Status{}
	c.ipsr = 0
	c.primask = 0
	c.control = 0
	c.mode = ModeThread
	c.fault = false
	c.faultErr = nil
	c.halted = false
	c.skipBreakpointOnce = false

	logger.Logf(logger.Allow, "cpu", "reset: msp=%#08x pc=%#08x", c.msp, c.pc)
	return nil
}

// Halted reports whether the core has stopped executing, either because it
// hit a breakpoint, executed BKPT, or is paused by the debug surface.
func (c *CPU) Halted() bool {
	return c.halted
}

// Faulted reports whether the core has taken an unrecoverable fault, and the
// error that caused it.
func (c *CPU) Faulted() (bool, error) {
	return c.fault, c.faultErr
}

// Resume clears a halted state without affecting register contents, used by
// the debug surface's continue/step commands. If the core is sitting at an
// armed breakpoint, the next Step is allowed to execute that one instruction
// rather than re-tripping the same breakpoint immediately.
func (c *CPU) Resume() {
	c.halted = false
	if c.CheckBreakpoint(c.pc) {
		c.skipBreakpointOnce = true
	}
}

// SetBreakpoint arms a breakpoint at address.
func (c *CPU) SetBreakpoint(address uint32) {
	c.breakpoints[address] = struct{}{}
}

// ClearBreakpoint disarms a breakpoint at address.
func (c *CPU) ClearBreakpoint(address uint32) {
	delete(c.breakpoints, address)
}

// ClearAllBreakpoints disarms every breakpoint, used when a debug session
// starts.
func (c *CPU) ClearAllBreakpoints() {
	c.breakpoints = make(map[uint32]struct{})
}

// CheckBreakpoint reports whether address carries an armed breakpoint.
func (c *CPU) CheckBreakpoint(address uint32) bool {
	_, ok := c.breakpoints[address]
	return ok
}

// ReadByte reads a single byte from the attached fabric, for debug-surface
// memory inspection that doesn't want width/alignment semantics.
func (c *CPU) ReadByte(address uint32) (byte, error) {
	v, err := c.fabric.Load(address, 1, false)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

// WriteByte writes a single byte via the attached fabric.
func (c *CPU) WriteByte(address uint32, v byte) error {
	return c.fabric.Store(address, uint32(v), 1)
}

// APSR returns the current condition flags.
func (c *CPU) APSR() Status {
	return c.apsr
}

// Mode returns the current execution mode.
func (c *CPU) Mode() Mode {
	return c.mode
}

// Step fetches, decodes and executes exactly one instruction, then ticks
// every clocked device on the fabric and raises an exception if one of them
// asserted an IRQ. Step is a no-op returning nil if the core is halted or
// faulted.
func (c *CPU) Step() error {
	if c.halted || c.fault {
		return nil
	}

	if c.skipBreakpointOnce {
		c.skipBreakpointOnce = false
	} else if c.CheckBreakpoint(c.pc) {
		c.halted = true
		return nil
	}

	fetchPC := c.pc
	word0, err := c.fabric.Load(fetchPC, 2, false)
	if err != nil {
		return c.enterFault(err)
	}

	var word1 uint32
	size := 2
	if is32BitPrefix(uint16(word0)) {
		word1, err = c.fabric.Load(fetchPC+2, 2, false)
		if err != nil {
			return c.enterFault(err)
		}
		size = 4
	}

	inst, err := Decode(uint16(word0), uint16(word1))
	if err != nil {
		return c.enterFault(err)
	}

	next := fetchPC + uint32(size)
	if err := c.execute(inst, fetchPC, &next); err != nil {
		return c.enterFault(err)
	}
	c.traceStep(fetchPC, inst)
	c.pc = next

	if irq, ok := c.fabric.Tick(); ok && c.primask&0x1 == 0 && c.mode != ModeHandler {
		if err := c.raiseException(irq); err != nil {
			return c.enterFault(err)
		}
	}

	if c.stepCallback != nil {
		c.stepCallback()
	}

	return nil
}

func (c *CPU) enterFault(err error) error {
	c.fault = true
	c.faultErr = err
	c.halted = true
	logger.Logf(logger.Allow, "cpu", "fault at pc=%#08x: %v", c.pc, err)
	return err
}
