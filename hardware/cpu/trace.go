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
	"github.com/davecgh/go-spew/spew"
	"github.com/jetsetilly/armv6m-sim/logger"
)

// denyTrace is the tracePermission a CPU is created with: no trace line is
// ever emitted until a host installs a real permission with
// SetTracePermission.
type denyTrace struct{}

func (denyTrace) AllowLogging() bool { return false }

// SetTracePermission installs the gate Step consults before formatting a
// trace line for the instruction it just retired. The standalone host
// derives this from its -t/-v/-e flags (see cmd/armsim); a debug session
// left without a call to this method never traces.
func (c *CPU) SetTracePermission(p logger.Permission) {
	c.tracePermission = p
}

// traceStep logs one line naming the address and opcode of the instruction
// just retired, together with a go-spew dump of the general-purpose register
// file, gated by tracePermission. Output is free-form and meant to be read,
// not parsed (spec.md §6, "Trace output").
func (c *CPU) traceStep(fetchPC uint32, inst Instruction) {
	if !c.tracePermission.AllowLogging() {
		return
	}
	logger.Logf(c.tracePermission, "trace", "%#08x op=%d lr=%#08x %s",
		fetchPC, inst.Op, c.lr, spew.Sdump(c.r))
}
