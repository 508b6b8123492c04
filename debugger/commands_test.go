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
	"testing"

	"github.com/jetsetilly/armv6m-sim/hardware/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTarget is a minimal in-memory stand-in for *cpu.CPU, letting command
// dispatch be tested without wiring a real fabric.
type fakeTarget struct {
	regs        [cpu.NumRegisters]uint32
	mem         map[uint32]byte
	breakpoints map[uint32]bool
	halted      bool
	fault       bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{mem: make(map[uint32]byte), breakpoints: make(map[uint32]bool)}
}

func (f *fakeTarget) GetRegister(i int) uint32     { return f.regs[i] }
func (f *fakeTarget) SetRegister(i int, v uint32)  { f.regs[i] = v }
func (f *fakeTarget) ReadByte(a uint32) (byte, error) {
	return f.mem[a], nil
}
func (f *fakeTarget) WriteByte(a uint32, v byte) error {
	f.mem[a] = v
	return nil
}
func (f *fakeTarget) SetBreakpoint(a uint32)        { f.breakpoints[a] = true }
func (f *fakeTarget) ClearBreakpoint(a uint32)      { delete(f.breakpoints, a) }
func (f *fakeTarget) CheckBreakpoint(a uint32) bool { return f.breakpoints[a] }
func (f *fakeTarget) ClearAllBreakpoints()          { f.breakpoints = make(map[uint32]bool) }
func (f *fakeTarget) Step() error                   { return nil }
func (f *fakeTarget) Resume()                       { f.halted = false }
func (f *fakeTarget) Halted() bool                  { return f.halted }
func (f *fakeTarget) Faulted() (bool, error)         { return f.fault, nil }

func TestDispatchHaltQuery(t *testing.T) {
	tg := newFakeTarget()
	assert.Equal(t, "S05", dispatch(parsePacket("?"), tg))
}

func TestDispatchReadAllRegisters(t *testing.T) {
	tg := newFakeTarget()
	tg.regs[0] = 0xdeadbeef
	reply := dispatch(parsePacket("g"), tg)
	require.Len(t, reply, cpu.NumRegisters*8)
	assert.Equal(t, "efbeadde", reply[:8])
}

func TestDispatchWriteAllRegisters(t *testing.T) {
	tg := newFakeTarget()
	payload := "G"
	for i := 0; i < cpu.NumRegisters; i++ {
		payload += encodeRegisterLE(uint32(i + 1))
	}
	reply := dispatch(parsePacket(payload), tg)
	assert.Equal(t, "OK", reply)
	assert.Equal(t, uint32(1), tg.regs[0])
	assert.Equal(t, uint32(16), tg.regs[15])
}

func TestDispatchReadOneRegister(t *testing.T) {
	tg := newFakeTarget()
	tg.regs[3] = 0x01020304
	reply := dispatch(parsePacket("p3"), tg)
	assert.Equal(t, "04030201", reply)
}

func TestDispatchReadMemory(t *testing.T) {
	tg := newFakeTarget()
	tg.mem[0x1000] = 0xab
	tg.mem[0x1001] = 0xcd
	reply := dispatch(parsePacket("m1000,2"), tg)
	assert.Equal(t, "abcd", reply)
}

func TestDispatchWriteMemory(t *testing.T) {
	tg := newFakeTarget()
	reply := dispatch(parsePacket("M1000,2:abcd"), tg)
	assert.Equal(t, "OK", reply)
	assert.Equal(t, byte(0xab), tg.mem[0x1000])
	assert.Equal(t, byte(0xcd), tg.mem[0x1001])
}

func TestDispatchWriteMemoryLengthMismatch(t *testing.T) {
	tg := newFakeTarget()
	reply := dispatch(parsePacket("M1000,2:ab"), tg)
	assert.Equal(t, "E00", reply)
}

func TestDispatchBreakpoints(t *testing.T) {
	tg := newFakeTarget()
	assert.Equal(t, "OK", dispatch(parsePacket("Z0,1000,2"), tg))
	assert.True(t, tg.CheckBreakpoint(0x1000))
	assert.Equal(t, "OK", dispatch(parsePacket("z0,1000,2"), tg))
	assert.False(t, tg.CheckBreakpoint(0x1000))
}

func TestDispatchQueries(t *testing.T) {
	tg := newFakeTarget()
	assert.Equal(t, qSupportedReply, dispatch(parsePacket("qSupported:multiprocess+"), tg))
	assert.Equal(t, qOffsetsReply, dispatch(parsePacket("qOffsets"), tg))
	assert.Equal(t, "E00", dispatch(parsePacket("qRcmd,1234"), tg))
}

func TestDispatchUnknownCommandIsEmpty(t *testing.T) {
	tg := newFakeTarget()
	assert.Equal(t, "", dispatch(parsePacket("Tdeadbeef"), tg))
}

func TestDispatchThreadSelectionIgnored(t *testing.T) {
	tg := newFakeTarget()
	assert.Equal(t, "OK", dispatch(parsePacket("Hg0"), tg))
}
