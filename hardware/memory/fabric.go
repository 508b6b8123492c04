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

import (
	"github.com/jetsetilly/armv6m-sim/errors"
)

// MaxRegions bounds the region table, matching the reference simulator this
// design was distilled from.
const MaxRegions = 16

type region struct {
	base    uint32
	length  uint32
	handler Handler
}

func (r region) contains(address uint32) bool {
	return address >= r.base && address < r.base+r.length
}

// fits reports whether a width-byte access starting at address stays
// entirely within r, so a multi-byte access straddling a region's end is
// rejected rather than routed to the handler with an out-of-range offset.
func (r region) fits(address uint32, width int) bool {
	return address+uint32(width) <= r.base+r.length
}

func (r region) overlaps(base, length uint32) bool {
	end := base + length
	rend := r.base + r.length
	return base < rend && r.base < end
}

// Fabric routes loads and stores to the region that claims the target
// address, enforces alignment, and drives every Ticker-implementing handler
// once per step.
type Fabric struct {
	regions []region
}

// NewFabric creates an empty fabric.
func NewFabric() *Fabric {
	return &Fabric{}
}

// Map adds a new region. It fails if the region overlaps an existing one or
// the table is full.
func (f *Fabric) Map(base, length uint32, handler Handler) error {
	if len(f.regions) >= MaxRegions {
		return errors.New(errors.ConfigError, errors.RegionTableFullMsg)
	}
	for _, r := range f.regions {
		if r.overlaps(base, length) {
			return errors.New(errors.ConfigError, errors.RegionOverlapMsg, base, base+length)
		}
	}
	f.regions = append(f.regions, region{base: base, length: length, handler: handler})
	return nil
}

func (f *Fabric) find(address uint32) (*region, bool) {
	for i := range f.regions {
		if f.regions[i].contains(address) {
			return &f.regions[i], true
		}
	}
	return nil, false
}

// Valid reports whether address lies within some mapped region.
func (f *Fabric) Valid(address uint32) bool {
	_, ok := f.find(address)
	return ok
}

func checkAlignment(address uint32, width int) error {
	switch width {
	case 2:
		if address&0x1 != 0 {
			return errors.New(errors.MisalignedAccess, errors.MisalignedAccessMsg, width, address)
		}
	case 4:
		if address&0x3 != 0 {
			return errors.New(errors.MisalignedAccess, errors.MisalignedAccessMsg, width, address)
		}
	}
	return nil
}

func signExtend(v uint32, width int) uint32 {
	switch width {
	case 1:
		if v&0x80 != 0 {
			return v | 0xffffff00
		}
	case 2:
		if v&0x8000 != 0 {
			return v | 0xffff0000
		}
	}
	return v
}

// Load reads width (1, 2 or 4) bytes at address. If signed, the result is
// sign-extended to 32 bits; otherwise it is zero-extended.
func (f *Fabric) Load(address uint32, width int, signed bool) (uint32, error) {
	if err := checkAlignment(address, width); err != nil {
		return 0, err
	}
	r, ok := f.find(address)
	if !ok || !r.fits(address, width) {
		return 0, errors.New(errors.UnmappedAccess, errors.UnmappedAccessMsg, address)
	}
	v, err := r.handler.Load(address-r.base, width)
	if err != nil {
		return 0, err
	}
	if signed {
		v = signExtend(v, width)
	}
	return v, nil
}

// Store writes the low width (1, 2 or 4) bytes of value at address.
func (f *Fabric) Store(address uint32, value uint32, width int) error {
	if err := checkAlignment(address, width); err != nil {
		return err
	}
	r, ok := f.find(address)
	if !ok || !r.fits(address, width) {
		return errors.New(errors.UnmappedAccess, errors.UnmappedAccessMsg, address)
	}
	return r.handler.Store(address-r.base, value, width)
}

// Tick invokes Clock() on every Ticker-implementing handler, in registration
// order, and returns the first interrupt number produced, if any.
func (f *Fabric) Tick() (irq int, ok bool) {
	for _, r := range f.regions {
		t, isTicker := r.handler.(Ticker)
		if !isTicker {
			continue
		}
		if n, fired := t.Clock(); fired && !ok {
			irq, ok = n, true
		}
	}
	return irq, ok
}
