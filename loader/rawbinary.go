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

// Package loader stages a program image into a memory fabric and reports
// the address execution should start at. Two collaborators return a
// Result: a flat raw-binary reader and an ELF program-header walker.
package loader

import (
	"os"

	"github.com/jetsetilly/armv6m-sim/errors"
	"github.com/jetsetilly/armv6m-sim/hardware/memory"
	"github.com/jetsetilly/armv6m-sim/logger"
)

// DefaultBase and DefaultSize are the raw-binary loader's region defaults
// when the host doesn't override them.
const (
	DefaultBase = 0x20000000
	DefaultSize = 64 * 1024 * 1024
)

// Result is what a loader reports once a program image has been staged.
type Result struct {
	// Entry is the address execution should begin at.
	Entry uint32

	// VectorTable is the base address of the exception vector table, if the
	// image supplied one. Raw binaries never do; ELF images may, located
	// via the "vectors" symbol.
	VectorTable uint32
}

// LoadRawBinary reads the whole of path and maps it as one region
// [base, base+size) on fabric, streaming the file's bytes to the start of
// the region. The entry point is always base.
func LoadRawBinary(fabric *memory.Fabric, path string, base, size uint32) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, errors.New(errors.ConfigError, errors.ConfigErrorMsg, err)
	}
	if uint32(len(data)) > size {
		return Result{}, errors.New(errors.ConfigError, errors.ConfigErrorMsg,
			"binary larger than the region reserved for it")
	}

	store := memory.NewBackingStore(size)
	store.CopyIn(0, data)

	if err := fabric.Map(base, size, store); err != nil {
		return Result{}, err
	}

	logger.Logf(logger.Allow, "loader", "raw binary %s staged at 0x%08x (%d bytes)", path, base, len(data))

	return Result{Entry: base}, nil
}
