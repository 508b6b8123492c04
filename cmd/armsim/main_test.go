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

package main

import (
	"os"
	"testing"

	"github.com/jetsetilly/armv6m-sim/hardware/cpu"
	"github.com/jetsetilly/armv6m-sim/hardware/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUintFlagDefaults(t *testing.T) {
	v, err := parseUintFlag("", 0x20000000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20000000), v)
}

func TestParseUintFlagHexAndDecimal(t *testing.T) {
	v, err := parseUintFlag("0x1000", 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1000), v)

	v, err = parseUintFlag("4096", 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(4096), v)
}

func TestParseUintFlagInvalid(t *testing.T) {
	_, err := parseUintFlag("not-a-number", 0)
	assert.Error(t, err)
}

func TestLoadImageDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/image.bin"
	require.NoError(t, os.WriteFile(path, []byte{0xaa, 0xbb}, 0o644))

	fabric := memory.NewFabric()
	result, err := loadImage(fabric, path, 0x20000000, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20000000), result.Entry)
}

func TestTracePermissionArmsAtThreshold(t *testing.T) {
	fabric := memory.NewFabric()
	store := memory.NewBackingStore(0x1000)
	require.NoError(t, fabric.Map(0, 0x1000, store))

	core := cpu.NewCPU(fabric)
	require.NoError(t, core.Reset())

	tp, err := newTracePermission(core, "", 0x100, 0xffffffff)
	require.NoError(t, err)

	core.SetRegister(cpu.RegPC, 0x50)
	assert.False(t, tp.AllowLogging())

	core.SetRegister(cpu.RegPC, 0x100)
	assert.True(t, tp.AllowLogging())
}

func TestTracePermissionZeroMaskNeverAllows(t *testing.T) {
	fabric := memory.NewFabric()
	store := memory.NewBackingStore(0x1000)
	require.NoError(t, fabric.Map(0, 0x1000, store))

	core := cpu.NewCPU(fabric)
	require.NoError(t, core.Reset())

	tp, err := newTracePermission(core, "", 0, 0)
	require.NoError(t, err)
	assert.False(t, tp.AllowLogging())
}
