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
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/jetsetilly/armv6m-sim/hardware/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBadChecksumThenGood exercises the framing handshake described by
// scenario 6: a peer sends "$g#00" (a wrong checksum for "g", whose real
// checksum is 0x67; the server must reject it), gets '-', retries with the
// correct checksum ("$g#67"), gets '+' followed by a 128-hex-char register
// dump, and only then sends the final '+' the server is waiting for.
func TestBadChecksumThenGood(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	tg := newFakeTarget()
	srv := NewServer(tg)

	done := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			done <- err
			return
		}
		done <- srv.serve(conn)
	}()

	peer, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer peer.Close()

	r := bufio.NewReader(peer)

	// deliberately wrong checksum
	_, err = peer.Write([]byte("$g#00"))
	require.NoError(t, err)

	ack, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('-'), ack)

	_, err = peer.Write([]byte(frame("g")))
	require.NoError(t, err)

	ack, err = r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('+'), ack)

	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := r.ReadBytes('#')
	require.NoError(t, err)
	assert.True(t, len(line) > 0 && line[0] == '$')

	cksum := make([]byte, 2)
	_, err = r.Read(cksum)
	require.NoError(t, err)

	_, err = peer.Write([]byte("+"))
	require.NoError(t, err)

	payload := string(line[1 : len(line)-1])
	assert.Len(t, payload, cpu.NumRegisters*8)

	peer.Close()
	<-done
}
