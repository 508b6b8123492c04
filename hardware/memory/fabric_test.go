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

package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetilly/armv6m-sim/errors"
	"github.com/jetsetilly/armv6m-sim/hardware/memory"
)

func TestMapOverlapRejected(t *testing.T) {
	f := memory.NewFabric()
	require.NoError(t, f.Map(0x1000, 0x100, memory.NewBackingStore(0x100)))

	err := f.Map(0x1050, 0x100, memory.NewBackingStore(0x100))
	require.Error(t, err)
	assert.True(t, errors.OfKind(err, errors.ConfigError))
}

func TestMapTableFull(t *testing.T) {
	f := memory.NewFabric()
	for i := 0; i < memory.MaxRegions; i++ {
		require.NoError(t, f.Map(uint32(i)*0x100, 0x100, memory.NewBackingStore(0x100)))
	}
	err := f.Map(uint32(memory.MaxRegions)*0x100, 0x100, memory.NewBackingStore(0x100))
	require.Error(t, err)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	f := memory.NewFabric()
	require.NoError(t, f.Map(0x2000_0000, 0x1000, memory.NewBackingStore(0x1000)))

	for _, width := range []int{1, 2, 4} {
		require.NoError(t, f.Store(0x2000_0010, 0xdeadbeef, width))
		v, err := f.Load(0x2000_0010, width, false)
		require.NoError(t, err)

		var want uint32
		switch width {
		case 1:
			want = 0xef
		case 2:
			want = 0xbeef
		case 4:
			want = 0xdeadbeef
		}
		assert.Equal(t, want, v, "width %d", width)
	}
}

func TestSignedLoad(t *testing.T) {
	f := memory.NewFabric()
	require.NoError(t, f.Map(0x0, 0x10, memory.NewBackingStore(0x10)))

	require.NoError(t, f.Store(0x0, 0xff, 1))
	v, err := f.Load(0x0, 1, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xffffffff), v)

	v, err = f.Load(0x0, 1, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xff), v)
}

func TestMisalignedAccessFaults(t *testing.T) {
	f := memory.NewFabric()
	require.NoError(t, f.Map(0x0, 0x10, memory.NewBackingStore(0x10)))

	_, err := f.Load(0x1, 2, false)
	require.Error(t, err)
	assert.True(t, errors.OfKind(err, errors.MisalignedAccess))

	_, err = f.Load(0x2, 4, false)
	require.Error(t, err)
	assert.True(t, errors.OfKind(err, errors.MisalignedAccess))

	// byte access is never misaligned
	_, err = f.Load(0x1, 1, false)
	require.NoError(t, err)
}

func TestUnmappedAccessFaults(t *testing.T) {
	f := memory.NewFabric()
	require.NoError(t, f.Map(0x0, 0x10, memory.NewBackingStore(0x10)))

	_, err := f.Load(0x100, 4, false)
	require.Error(t, err)
	assert.True(t, errors.OfKind(err, errors.UnmappedAccess))
	assert.False(t, f.Valid(0x100))
	assert.True(t, f.Valid(0x8))
}

func TestAccessStraddlingRegionEndFaults(t *testing.T) {
	f := memory.NewFabric()
	require.NoError(t, f.Map(0x0, 0x10, memory.NewBackingStore(0x10)))

	_, err := f.Load(0xe, 4, false)
	require.Error(t, err)
	assert.True(t, errors.OfKind(err, errors.UnmappedAccess))

	err = f.Store(0xe, 0xdeadbeef, 4)
	require.Error(t, err)
	assert.True(t, errors.OfKind(err, errors.UnmappedAccess))

	// a word access ending exactly on the region's boundary still fits
	require.NoError(t, f.Store(0xc, 0xdeadbeef, 4))
}

func TestTickWithoutTickersReturnsNoIRQ(t *testing.T) {
	f := memory.NewFabric()
	require.NoError(t, f.Map(0x0, 0x10, memory.NewBackingStore(0x10)))

	_, ok := f.Tick()
	assert.False(t, ok)
}
