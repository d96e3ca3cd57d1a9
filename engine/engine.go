// Package engine wraps the CPU core and memory map into a drivable session:
// ROM loading, the per-step timer tick the core itself does not own, and a
// frame-level loop for headless/batch runs. It is the thin layer a frontend
// (TUI, GUI, test harness) sits on top of; it owns no rendering or input.
package engine

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kallenhart/dmgcore/addr"
	"github.com/kallenhart/dmgcore/cpu"
	"github.com/kallenhart/dmgcore/memory"
)

// cyclesPerFrame is the machine-cycle length of one 59.7Hz DMG frame
// (70224 CPU ticks / 4 ticks per machine cycle).
const cyclesPerFrame = 17556

// Engine is the root session object: a CPU bound to a memory map, plus the
// bookkeeping a driver needs (instruction/frame counters) that the core
// itself does not track.
type Engine struct {
	cpu *cpu.CPU
	mem *memory.MMU

	instructionCount uint64
	frameCount       uint64
}

// New creates an Engine with an empty cartridge, reset to the post-boot-ROM
// state.
func New() *Engine {
	mem := memory.New()
	return &Engine{cpu: cpu.New(mem).Reset(), mem: mem}
}

// NewWithFile creates an Engine with the ROM at path loaded as cartridge
// data.
func NewWithFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: reading ROM %q: %w", path, err)
	}
	slog.Debug("loaded ROM", "path", path, "size", len(data))

	mem := memory.NewWithCartridge(memory.NewCartridgeWithData(data))
	return &Engine{cpu: cpu.New(mem).Reset(), mem: mem}, nil
}

// Step advances the CPU by one instruction (or one interrupt dispatch), then
// advances the timer by the consumed machine cycles, per spec's driver
// contract: "the driver advances the timer by the consumed machine cycles".
func (e *Engine) Step() (int, error) {
	cycles, err := e.cpu.Step()
	e.mem.Tick(cycles)
	e.instructionCount++
	return cycles, err
}

// RunFrame steps until at least one frame's worth of cycles has elapsed, or
// an error is raised. Returns the number of machine cycles actually
// consumed and the first error encountered, if any.
func (e *Engine) RunFrame() (int, error) {
	total := 0
	for total < cyclesPerFrame {
		cycles, err := e.Step()
		total += cycles
		if err != nil {
			return total, err
		}
	}
	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.PC()))
	}
	return total, nil
}

// RunFrames runs n frames, stopping early on the first error.
func (e *Engine) RunFrames(n int) error {
	for i := 0; i < n; i++ {
		if _, err := e.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}

// PC exposes the program counter, used only for logging/diagnostics.
func (e *Engine) PC() uint16 { return e.cpu.PC() }

// InstructionCount and FrameCount report session progress, used by the
// driver for progress logging.
func (e *Engine) InstructionCount() uint64 { return e.instructionCount }
func (e *Engine) FrameCount() uint64       { return e.frameCount }

// CPU and Memory expose the underlying components for callers (debuggers,
// test harnesses) that need direct access beyond Step/RunFrame.
func (e *Engine) CPU() *cpu.CPU       { return e.cpu }
func (e *Engine) Memory() *memory.MMU { return e.mem }

// ReadByte, WriteByte, ReadWord, WriteWord and the interrupt setters forward
// to the CPU, satisfying the same driver-facing surface spec.md §6 assigns
// to the core itself.
func (e *Engine) ReadByte(address uint16) (byte, error)   { return e.cpu.ReadByte(address) }
func (e *Engine) WriteByte(address uint16, v byte) error  { return e.cpu.WriteByte(address, v) }
func (e *Engine) ReadWord(address uint16) (uint16, error) { return e.cpu.ReadWord(address) }
func (e *Engine) WriteWord(address uint16, v uint16) error {
	return e.cpu.WriteWord(address, v)
}
func (e *Engine) RequestInterrupt(i addr.Interrupt) { e.cpu.RequestInterrupt(i) }
func (e *Engine) EnableInterrupt(i addr.Interrupt)  { e.cpu.EnableInterrupt(i) }
