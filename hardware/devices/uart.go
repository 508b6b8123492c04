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

package devices

import (
	"bufio"
	"io"
)

// UART is a write-only console: any store emits the low byte of the value
// as a character on its output and flushes; loads always return zero. It
// never asserts an interrupt.
type UART struct {
	out *bufio.Writer
}

// NewUART creates a UART that writes to w.
func NewUART(w io.Writer) *UART {
	return &UART{out: bufio.NewWriter(w)}
}

// Load implements memory.Handler.
func (u *UART) Load(offset uint32, width int) (uint32, error) {
	return 0, nil
}

// Store implements memory.Handler.
func (u *UART) Store(offset uint32, value uint32, width int) error {
	if err := u.out.WriteByte(byte(value)); err != nil {
		return err
	}
	return u.out.Flush()
}
