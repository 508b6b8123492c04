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

// Package logger implements a small capacity-bounded ring buffer of log
// entries, gated by a caller-supplied Permission. The CPU interpreter logs
// instruction traces through it (§9.1 of the design notes) and the debug
// server logs its listen and peer-connect events; packet traffic is not
// logged.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Permission decides whether a particular Log/Logf call is allowed to
// proceed. Call sites pass a permission derived from the trace mask so that
// logging can be gated without an import cycle back to the trace
// configuration.
type Permission interface {
	AllowLogging() bool
}

type allowAll struct{}

func (allowAll) AllowLogging() bool { return true }

// Allow is a Permission that always allows logging.
var Allow = allowAll{}

type entry struct {
	tag    string
	detail string
}

func (e entry) String() string {
	return e.tag + ": " + e.detail
}

// Logger is a capacity-bounded ring buffer of log entries.
type Logger struct {
	crit     sync.Mutex
	capacity int
	entries  []entry
	head     int
	count    int
}

// NewLogger creates a Logger with room for capacity entries. Once full, the
// oldest entry is discarded to make room for the newest.
func NewLogger(capacity int) *Logger {
	return &Logger{
		capacity: capacity,
		entries:  make([]entry, capacity),
	}
}

func formatDetail(detail any) string {
	switch v := detail.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Log appends an entry if permission allows it. detail is formatted
// specially for error and fmt.Stringer values, otherwise via %v.
func (l *Logger) Log(permission Permission, tag string, detail any) {
	if !permission.AllowLogging() {
		return
	}
	l.append(tag, formatDetail(detail))
}

// Logf is like Log but the detail is built with a format string, the way
// fmt.Sprintf would.
func (l *Logger) Logf(permission Permission, tag string, format string, args ...any) {
	if !permission.AllowLogging() {
		return
	}
	l.append(tag, fmt.Sprintf(format, args...))
}

func (l *Logger) append(tag, detail string) {
	l.crit.Lock()
	defer l.crit.Unlock()

	idx := (l.head + l.count) % l.capacity
	l.entries[idx] = entry{tag: tag, detail: detail}
	if l.count < l.capacity {
		l.count++
	} else {
		l.head = (l.head + 1) % l.capacity
	}
}

// Write writes every retained entry, oldest first, one per line.
func (l *Logger) Write(w io.Writer) {
	l.crit.Lock()
	defer l.crit.Unlock()

	var s strings.Builder
	for i := 0; i < l.count; i++ {
		idx := (l.head + i) % l.capacity
		s.WriteString(l.entries[idx].String())
		s.WriteString("\n")
	}
	io.WriteString(w, s.String())
}

// Tail writes at most the n most recently retained entries, oldest first. If
// n is greater than the number of retained entries, every entry is written.
func (l *Logger) Tail(w io.Writer, n int) {
	l.crit.Lock()
	defer l.crit.Unlock()

	if n > l.count {
		n = l.count
	}

	var s strings.Builder
	start := l.count - n
	for i := start; i < l.count; i++ {
		idx := (l.head + i) % l.capacity
		s.WriteString(l.entries[idx].String())
		s.WriteString("\n")
	}
	io.WriteString(w, s.String())
}

// Clear discards every retained entry.
func (l *Logger) Clear() {
	l.crit.Lock()
	defer l.crit.Unlock()

	l.head = 0
	l.count = 0
}

// central is the default logger used by the package-level convenience
// functions below.
var central = NewLogger(1024)

// Log appends to the central logger.
func Log(permission Permission, tag string, detail any) { central.Log(permission, tag, detail) }

// Logf appends to the central logger using a format string.
func Logf(permission Permission, tag string, format string, args ...any) {
	central.Logf(permission, tag, format, args...)
}

// Write writes every entry retained by the central logger.
func Write(w io.Writer) { central.Write(w) }

// Tail writes the n most recent entries retained by the central logger.
func Tail(w io.Writer, n int) { central.Tail(w, n) }

// Clear discards every entry retained by the central logger.
func Clear() { central.Clear() }
