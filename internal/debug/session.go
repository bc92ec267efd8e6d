package debug

import (
	"fmt"
	"io"

	"github.com/bradleyjkemp/memviz"
	"github.com/pkg/errors"

	"qnes/internal/console"
	"qnes/internal/cpu"
	"qnes/internal/graphics/screenshot"
	"qnes/internal/logger"
)

// ErrNotAttached is returned when the session has no console.
var ErrNotAttached = errors.New("debugger is not attached to a console")

// BreakEvent describes why execution stopped.
type BreakEvent struct {
	Reason Mask
	Addr   uint16
	Value  uint8
	PC     uint16
}

func (ev BreakEvent) String() string {
	switch ev.Reason {
	case BreakRead:
		return fmt.Sprintf("read $%02X from $%04X (PC $%04X)", ev.Value, ev.Addr, ev.PC)
	case BreakWrite:
		return fmt.Sprintf("write $%02X to $%04X (PC $%04X)", ev.Value, ev.Addr, ev.PC)
	default:
		return fmt.Sprintf("execute $%04X", ev.Addr)
	}
}

// Session is a debugger attached to one console. It sees every executed
// instruction through the CPU exec hook and every bus access through the
// bus watcher.
type Session struct {
	Breakpoints *Breakpoints

	console *console.Console
	history *History
	trace   io.Writer

	// pc of the instruction being executed, for access events
	current uint16

	// an access breakpoint fired; the stop happens at the next boundary
	pending *BreakEvent

	// the event that paused the CPU
	hit *BreakEvent

	// let the next instruction run past an execute breakpoint
	stepOver bool
}

// NewSession creates a session with a history of historySize instructions.
func NewSession(historySize int) *Session {
	return &Session{
		Breakpoints: NewBreakpoints(),
		history:     NewHistory(historySize),
	}
}

// Attach hooks the session into c, replacing any previous attachment.
func (s *Session) Attach(c *console.Console) {
	s.Detach()
	s.console = c
	c.CPU().SetExecHook(s.execHook)
	c.Bus().SetWatcher(s)
}

// Detach removes the hooks and resumes a paused CPU.
func (s *Session) Detach() {
	if s.console == nil {
		return
	}
	s.console.CPU().SetExecHook(nil)
	s.console.Bus().SetWatcher(nil)
	s.console.CPU().Resume()
	s.console = nil
	s.pending = nil
	s.hit = nil
}

// SetTrace sends one line per executed instruction to w, or stops tracing
// when w is nil.
func (s *Session) SetTrace(w io.Writer) {
	s.trace = w
}

// History returns the executed instruction ring.
func (s *Session) History() *History {
	return s.history
}

// Recent returns the last n executed instructions, oldest first.
func (s *Session) Recent(n int) []cpu.DisassemblyEntry {
	return s.history.Recent(n)
}

func (s *Session) execHook(pc uint16) bool {
	if s.pending != nil {
		s.hit, s.pending = s.pending, nil
		return false
	}
	if s.stepOver {
		s.stepOver = false
	} else if s.Breakpoints.Has(pc, BreakExecute) {
		s.hit = &BreakEvent{Reason: BreakExecute, Addr: pc, PC: pc}
		return false
	}
	s.record(pc)
	return true
}

// record logs the instruction at pc before it executes.
func (s *Session) record(pc uint16) {
	s.current = pc
	entry := cpu.DisassembleOne(pc, s.console.Bus().Peek)
	s.history.Push(entry)

	if s.trace != nil {
		c := s.console.CPU()
		p := s.console.PPU()
		fmt.Fprintf(s.trace, "%-47s A:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d\n",
			entry.String(), c.A, c.X, c.Y, c.Status(), c.SP, p.Scanline(), p.Cycle(), c.Cycles())
	}
}

// BusRead implements bus.Watcher.
func (s *Session) BusRead(address uint16, value uint8) {
	if s.pending == nil && s.Breakpoints.Has(address, BreakRead) {
		s.pending = &BreakEvent{Reason: BreakRead, Addr: address, Value: value, PC: s.current}
	}
}

// BusWrite implements bus.Watcher.
func (s *Session) BusWrite(address uint16, value uint8) {
	if s.pending == nil && s.Breakpoints.Has(address, BreakWrite) {
		s.pending = &BreakEvent{Reason: BreakWrite, Addr: address, Value: value, PC: s.current}
	}
}

// resume lets a paused CPU continue. The hook is skipped for the refused
// instruction so it is recorded here.
func (s *Session) resume() {
	c := s.console.CPU()
	if !c.Paused() {
		return
	}
	s.record(c.PC)
	c.Resume()
}

// Run emulates up to frames whole frames. It returns the event that
// stopped it, or nil when all frames completed.
func (s *Session) Run(frames int) (*BreakEvent, error) {
	if s.console == nil {
		return nil, ErrNotAttached
	}
	s.resume()

	target := s.console.GetFrameCount() + uint64(frames)
	for s.console.GetFrameCount() < target {
		if err := s.console.StepFrame(); err != nil {
			return nil, err
		}
		if s.console.CPU().Paused() {
			ev := s.hit
			s.hit = nil
			logger.Logf("DEBUG", "break: %v", ev)
			return ev, nil
		}
	}
	return nil, nil
}

// Step executes exactly one instruction, even one with an execute
// breakpoint. An access breakpoint hit by that instruction is returned.
func (s *Session) Step() (*BreakEvent, error) {
	if s.console == nil {
		return nil, ErrNotAttached
	}

	if s.console.CPU().Paused() {
		s.hit = nil
		s.resume()
	} else {
		s.stepOver = true
	}

	if _, err := s.console.StepInstruction(); err != nil {
		return nil, err
	}
	s.stepOver = false

	ev := s.pending
	s.pending = nil
	return ev, nil
}

// Disassemble decodes count instructions from addr without side effects.
func (s *Session) Disassemble(addr uint16, count int) ([]cpu.DisassemblyEntry, error) {
	if s.console == nil {
		return nil, ErrNotAttached
	}
	return cpu.Disassemble(addr, count, s.console.Bus().Peek), nil
}

// DumpState writes a Graphviz rendering of the machine snapshot to w.
func (s *Session) DumpState(w io.Writer) error {
	if s.console == nil {
		return ErrNotAttached
	}
	state, err := s.console.Snapshot()
	if err != nil {
		return err
	}
	memviz.Map(w, &state)
	return nil
}

// DumpFrame saves the current frame as a PNG captioned with the frame
// number.
func (s *Session) DumpFrame(path string, scale int) error {
	if s.console == nil {
		return ErrNotAttached
	}
	caption := fmt.Sprintf("frame %d", s.console.GetFrameCount())
	err := screenshot.Save(path, s.console.GetFrameBuffer(), screenshot.Options{Scale: scale, Caption: caption})
	return errors.Wrap(err, "dump frame")
}
