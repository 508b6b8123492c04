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

// Package memory implements the address-routing fabric described in §4.1 of
// the design notes: an ordered, pairwise-disjoint list of regions, each
// backed by a Handler. A Handler is either a plain backing store or a
// memory-mapped device; devices additionally implement Ticker so the fabric
// can drive their per-step clock.
package memory

// Handler services loads and stores within the span of a single mapped
// region. offset is relative to the region's base address, never the
// absolute address.
type Handler interface {
	Load(offset uint32, width int) (uint32, error)
	Store(offset uint32, value uint32, width int) error
}

// Ticker is implemented by Handlers that need to run logic once per CPU
// step, such as a timer counting down. Clock returns an IRQ number and true
// if the tick should assert an interrupt line, or ok=false otherwise. This
// is the inverted protocol noted in the design: devices never call back
// into the CPU, they only report an IRQ number for the fabric to surface.
type Ticker interface {
	Clock() (irq int, ok bool)
}
