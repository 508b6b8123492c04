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
	"context"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/jetsetilly/armv6m-sim/errors"
	"github.com/jetsetilly/armv6m-sim/hardware/cpu"
	"github.com/jetsetilly/armv6m-sim/logger"
	"golang.org/x/sys/unix"
)

// DefaultPort is the port the standalone host listens on when given -g.
const DefaultPort = 3333

// ackRetries bounds how many times the server re-sends a reply while
// waiting for the peer's '+'. A cooperative peer acknowledges promptly; this
// guards against one that never does.
const ackRetries = 8

// Server drives one debug session over a single accepted TCP peer.
type Server struct {
	target Target
}

// NewServer wraps t as a debug session target. t is typically *cpu.CPU.
func NewServer(t Target) *Server {
	return &Server{target: t}
}

// reuseAddrControl sets SO_REUSEADDR on the listening socket so a restarted
// host doesn't stall behind TIME_WAIT from a previous session.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var ctrlErr error
	err := c.Control(func(fd uintptr) {
		ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return ctrlErr
}

// ListenAndServe binds port, accepts exactly one peer, clears every
// breakpoint, then serves packets from that peer until it disconnects or an
// I/O error occurs.
func (s *Server) ListenAndServe(port int) error {
	lc := net.ListenConfig{Control: reuseAddrControl}
	l, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errors.New(errors.PeerIO, errors.PeerIOMsg, err)
	}

	logger.Logf(logger.Allow, "debugger", "listening on port %d", port)
	conn, err := l.Accept()
	l.Close()
	if err != nil {
		return errors.New(errors.PeerIO, errors.PeerIOMsg, err)
	}
	defer conn.Close()

	logger.Logf(logger.Allow, "debugger", "peer connected from %s", conn.RemoteAddr())

	s.target.ClearAllBreakpoints()

	return s.serve(conn)
}

func (s *Server) serve(conn net.Conn) error {
	r := bufio.NewReader(conn)

	for {
		payload, err := readPacket(conn, r)
		if err != nil {
			return errors.New(errors.PeerIO, errors.PeerIOMsg, err)
		}

		pk := parsePacket(payload)

		if pk.command == 'c' || pk.command == 's' {
			if err := s.runExecution(conn, r, pk); err != nil {
				return err
			}
			continue
		}

		reply := dispatch(pk, s.target)
		if err := s.sendWithAck(conn, r, reply); err != nil {
			return err
		}
	}
}

// readPacket reads bytes until a complete, checksum-valid packet arrives,
// sending '-' and retrying on a checksum mismatch and '+' once one matches.
func readPacket(conn net.Conn, r *bufio.Reader) (string, error) {
	for {
		if _, err := r.ReadBytes('$'); err != nil {
			return "", err
		}
		payload, err := r.ReadBytes('#')
		if err != nil {
			return "", err
		}
		payload = payload[:len(payload)-1]

		cksumHex := make([]byte, 2)
		if _, err := io.ReadFull(r, cksumHex); err != nil {
			return "", err
		}

		var want byte
		if _, err := fmt.Sscanf(string(cksumHex), "%02x", &want); err != nil {
			return "", err
		}

		if checksum(payload) != want {
			if _, err := conn.Write([]byte("-")); err != nil {
				return "", err
			}
			continue
		}

		if _, err := conn.Write([]byte("+")); err != nil {
			return "", err
		}
		return string(payload), nil
	}
}

// sendWithAck frames reply and resends it until the peer replies '+', or
// until ackRetries is exhausted.
func (s *Server) sendWithAck(conn net.Conn, r *bufio.Reader, reply string) error {
	framed := frame(reply)
	for attempt := 0; attempt < ackRetries; attempt++ {
		if _, err := conn.Write([]byte(framed)); err != nil {
			return errors.New(errors.PeerIO, errors.PeerIOMsg, err)
		}
		ack, err := r.ReadByte()
		if err != nil {
			return errors.New(errors.PeerIO, errors.PeerIOMsg, err)
		}
		if ack == '+' {
			return nil
		}
	}
	return errors.New(errors.PeerIO, errors.PeerIOMsg, "peer never acknowledged reply")
}

// runExecution implements "c" and "s": c repeats Step until halted or a
// byte arrives on the peer socket; s takes exactly one step.
func (s *Server) runExecution(conn net.Conn, r *bufio.Reader, pk packet) error {
	if pk.args != "" {
		addr, err := parseHexAddress(pk.args)
		if err == nil {
			s.target.SetRegister(cpu.RegPC, addr)
		}
	}

	s.target.Resume()

	if pk.command == 's' {
		s.target.Step()
		return s.sendWithAck(conn, r, haltReply)
	}

	for {
		if s.target.Halted() {
			break
		}
		if fault, _ := s.target.Faulted(); fault {
			break
		}
		if peerByteWaiting(conn, r) {
			break
		}
		if err := s.target.Step(); err != nil {
			break
		}
	}

	return s.sendWithAck(conn, r, haltReply)
}

// peerByteWaiting polls r non-blockingly for an incoming byte, treating its
// arrival as a user break request during continue. It peeks rather than
// consumes, so a stray break byte is simply skipped over by the next
// readPacket's scan for '$' rather than lost to a second, unbuffered reader
// racing the same connection.
func peerByteWaiting(conn net.Conn, r *bufio.Reader) bool {
	if r.Buffered() > 0 {
		return true
	}

	conn.SetReadDeadline(time.Now().Add(time.Millisecond))
	defer conn.SetReadDeadline(time.Time{})

	_, err := r.Peek(1)
	return err == nil
}
