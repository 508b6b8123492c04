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

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0), checksum(nil))
	assert.Equal(t, byte('g'), checksum([]byte("g")))
}

func TestFrame(t *testing.T) {
	f := frame("g")
	assert.Equal(t, "$g#67", f)
}

func TestParsePacket(t *testing.T) {
	pk := parsePacket("g")
	assert.Equal(t, byte('g'), pk.command)
	assert.Equal(t, "", pk.args)

	pk = parsePacket("m1000,4")
	assert.Equal(t, byte('m'), pk.command)
	assert.Equal(t, "1000,4", pk.args)

	pk = parsePacket("")
	assert.Equal(t, byte(0), pk.command)
}
