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

package loader

import (
	"debug/elf"

	"github.com/jetsetilly/armv6m-sim/errors"
	"github.com/jetsetilly/armv6m-sim/hardware/memory"
	"github.com/jetsetilly/armv6m-sim/logger"
)

// LoadELF walks path's program headers, mapping one region per PT_LOAD
// segment and staging its bytes, then returns the image's entry point. If
// the image defines a symbol named "vectors", its address is also reported
// so the host can use it as the vector table base instead of address 0.
func LoadELF(fabric *memory.Fabric, path string) (Result, error) {
	f, err := elf.Open(path)
	if err != nil {
		return Result{}, errors.New(errors.ConfigError, errors.ConfigErrorMsg, err)
	}
	defer f.Close()

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if prog.Memsz == 0 {
			continue
		}

		store := memory.NewBackingStore(uint32(prog.Memsz))
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return Result{}, errors.New(errors.ConfigError, errors.ConfigErrorMsg, err)
		}
		store.CopyIn(0, data)

		if err := fabric.Map(uint32(prog.Vaddr), uint32(prog.Memsz), store); err != nil {
			return Result{}, err
		}

		logger.Logf(logger.Allow, "loader", "ELF segment staged at 0x%08x (%d bytes, %d file bytes)",
			prog.Vaddr, prog.Memsz, prog.Filesz)
	}

	result := Result{Entry: uint32(f.Entry)}

	if addr, ok := lookupSymbol(f, "vectors"); ok {
		result.VectorTable = addr
	}

	return result, nil
}

// lookupSymbol searches an ELF file's symbol table for name, reporting its
// value (address) if found.
func lookupSymbol(f *elf.File, name string) (uint32, bool) {
	syms, err := f.Symbols()
	if err != nil {
		return 0, false
	}
	for _, sym := range syms {
		if sym.Name == name {
			return uint32(sym.Value), true
		}
	}
	return 0, false
}
