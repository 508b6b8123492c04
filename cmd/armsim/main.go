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

// Command armsim is the standalone host for the ARMv6-M Thumb simulator: it
// stages a program image into a memory fabric, wires up the SysTick and
// UART devices, and either runs the core to completion or hands it to a
// gdb-remote-protocol debug server.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jetsetilly/armv6m-sim/debugger"
	"github.com/jetsetilly/armv6m-sim/hardware/cpu"
	"github.com/jetsetilly/armv6m-sim/hardware/devices"
	"github.com/jetsetilly/armv6m-sim/hardware/memory"
	"github.com/jetsetilly/armv6m-sim/loader"
	"github.com/jetsetilly/armv6m-sim/logger"
)

// systickBase is SysTick's architectural address in the ARMv6-M System
// Control Space, and systickIRQ its exception number. uartBase has no
// architectural address; 0x40000000 (the start of the peripheral region) is
// this host's convention.
const (
	systickIRQ  = 15
	systickBase = 0xe000e010
	systickSize = 0x10
	uartBase    = 0x40000000
	uartSize    = 0x4
)

// opts collates every flag in spec.md §6.
type opts struct {
	file      string
	trace     int
	traceMask uint32
	maxInsn   int64
	stopAddr  string
	base      uint32
	size      uint32
	startAddr string
	traceFrom string
	debug     bool
}

func main() {
	var o opts
	var stopAddrStr, startAddrStr, traceFromStr, baseStr, sizeStr string

	root := &cobra.Command{
		Use:           "armsim",
		Short:         "ARMv6-M Thumb instruction-set simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if stopAddrStr != "" {
				o.stopAddr = stopAddrStr
			}
			if startAddrStr != "" {
				o.startAddr = startAddrStr
			}
			if traceFromStr != "" {
				o.traceFrom = traceFromStr
			}
			o.base, err = parseUintFlag(baseStr, loader.DefaultBase)
			if err != nil {
				return err
			}
			o.size, err = parseUintFlag(sizeStr, loader.DefaultSize)
			if err != nil {
				return err
			}
			return run(o)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&o.file, "file", "f", "", "program image to load, .bin or ELF (required)")
	flags.IntVarP(&o.trace, "trace", "t", 0, "enable instruction trace when non-zero")
	flags.Uint32VarP(&o.traceMask, "verbose", "v", 0xffffffff, "trace category mask")
	flags.Int64VarP(&o.maxInsn, "count", "c", 0, "max instructions before exit (0: unbounded)")
	flags.StringVarP(&stopAddrStr, "stop", "r", "", "stop when PC equals ADDR")
	flags.StringVarP(&traceFromStr, "trace-from", "e", "", "enable trace starting from ADDR")
	flags.StringVarP(&baseStr, "base", "b", "", "memory base for raw-binary loads (default 0x20000000)")
	flags.StringVarP(&sizeStr, "region-size", "s", "", "memory size for raw-binary loads (default 64 MiB)")
	flags.StringVarP(&startAddrStr, "start", "X", "", "override start address")
	flags.BoolVarP(&o.debug, "gdb", "g", false, "launch debug server on port 3333 and wait for connection")

	if err := root.MarkFlagRequired("file"); err != nil {
		panic(err)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "armsim: %v\n", err)
		os.Exit(1)
	}
}

// parseUintFlag parses a hex ("0x...") or decimal string flag value,
// falling back to def when s is empty.
func parseUintFlag(s string, def uint32) (uint32, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), hexOrDec(s), 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address/size %q: %w", s, err)
	}
	return uint32(v), nil
}

func hexOrDec(s string) int {
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		return 16
	}
	return 10
}

// run stages the image, wires the fabric, and either drives the core
// standalone or hands it to the debug server. It returns an error for
// configuration problems (image load, bad flags) and, under -g, for a debug
// session that ends with an I/O error; a CPU fault is reported via the
// process exit code, not an error return.
func run(o opts) error {
	fabric := memory.NewFabric()

	st := devices.NewSysTick(systickIRQ)
	if err := fabric.Map(systickBase, systickSize, st); err != nil {
		return err
	}

	uart := devices.NewUART(os.Stdout)
	if err := fabric.Map(uartBase, uartSize, uart); err != nil {
		return err
	}

	result, err := loadImage(fabric, o.file, o.base, o.size)
	if err != nil {
		return err
	}

	core := cpu.NewCPU(fabric)
	if result.VectorTable != 0 {
		core.SetVectorTable(result.VectorTable)
	}
	if err := core.Reset(); err != nil {
		return err
	}

	if o.startAddr != "" {
		addr, err := parseUintFlag(o.startAddr, result.Entry)
		if err != nil {
			return err
		}
		core.SetRegister(cpu.RegPC, addr)
	}

	if o.trace != 0 {
		tp, err := newTracePermission(core, o.traceFrom, result.Entry, o.traceMask)
		if err != nil {
			return err
		}
		core.SetTracePermission(tp)
	}

	if o.debug {
		srv := debugger.NewServer(core)
		err := srv.ListenAndServe(debugger.DefaultPort)
		if o.trace != 0 {
			logger.Write(os.Stdout)
		}
		return err
	}

	return runStandalone(core, o)
}

// loadImage dispatches to the raw-binary or ELF loader by file extension.
func loadImage(fabric *memory.Fabric, path string, base, size uint32) (loader.Result, error) {
	if strings.EqualFold(filepath.Ext(path), ".elf") {
		return loader.LoadELF(fabric, path)
	}
	return loader.LoadRawBinary(fabric, path, base, size)
}

// runStandalone steps the core until it halts, faults, hits the optional
// stop address, or exhausts the optional instruction budget, then exits the
// process itself: exit code 1 on fault, 0 otherwise. It returns only when
// the -r stop address cannot be parsed.
func runStandalone(core *cpu.CPU, o opts) error {
	var stopAddr uint32
	var haveStop bool
	if o.stopAddr != "" {
		addr, err := parseUintFlag(o.stopAddr, 0)
		if err != nil {
			return err
		}
		stopAddr, haveStop = addr, true
	}

	var stepped int64
	core.SetStepCallback(func() {
		stepped++
	})

	for !core.Halted() {
		if fault, _ := core.Faulted(); fault {
			break
		}
		if haveStop && core.GetRegister(cpu.RegPC) == stopAddr {
			break
		}
		if o.maxInsn > 0 && stepped >= o.maxInsn {
			break
		}
		if err := core.Step(); err != nil {
			break
		}
	}

	if o.trace != 0 {
		logger.Write(os.Stdout)
	}

	if fault, err := core.Faulted(); fault {
		fmt.Fprintf(os.Stderr, "armsim: %v\n", err)
		os.Exit(1)
	}

	os.Exit(0)
	return nil
}

// tracePermission gates trace lines on the instruction trace mask (-v) and
// the enable-from address (-e): tracing is live only once PC has reached
// fromAddr, and only while the mask is non-zero. The mask is not decoded
// bit by bit; any non-zero value allows every trace line.
type tracePermission struct {
	core     *cpu.CPU
	fromAddr uint32
	mask     uint32
	armed    bool
}

func newTracePermission(core *cpu.CPU, fromAddrStr string, defaultFrom uint32, mask uint32) (*tracePermission, error) {
	from := defaultFrom
	if fromAddrStr != "" {
		var err error
		from, err = parseUintFlag(fromAddrStr, defaultFrom)
		if err != nil {
			return nil, err
		}
	}
	return &tracePermission{core: core, fromAddr: from, mask: mask}, nil
}

func (t *tracePermission) AllowLogging() bool {
	if t.mask == 0 {
		return false
	}
	if !t.armed && t.core.GetRegister(cpu.RegPC) >= t.fromAddr {
		t.armed = true
		logger.Logf(logger.Allow, "armsim", "trace armed at pc=%#08x", t.fromAddr)
	}
	return t.armed
}
