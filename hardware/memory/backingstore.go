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

package memory

// BackingStore is a plain mutable byte array handler: RAM, ROM, or any flat
// region with no side effects on access.
type BackingStore struct {
	bytes []byte
}

// NewBackingStore creates a BackingStore of the given length, zero filled.
func NewBackingStore(length uint32) *BackingStore {
	return &BackingStore{bytes: make([]byte, length)}
}

// Load reads width (1, 2 or 4) bytes little-endian starting at offset.
func (b *BackingStore) Load(offset uint32, width int) (uint32, error) {
	var v uint32
	for i := 0; i < width; i++ {
		v |= uint32(b.bytes[int(offset)+i]) << (8 * i)
	}
	return v, nil
}

// Store writes the low width (1, 2 or 4) bytes of value little-endian
// starting at offset.
func (b *BackingStore) Store(offset uint32, value uint32, width int) error {
	for i := 0; i < width; i++ {
		b.bytes[int(offset)+i] = byte(value >> (8 * i))
	}
	return nil
}

// CopyIn streams src into the backing store starting at offset, as used by
// the raw-binary loader to stage a whole file in one call.
func (b *BackingStore) CopyIn(offset uint32, src []byte) {
	copy(b.bytes[offset:], src)
}
