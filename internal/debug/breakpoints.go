// Package debug implements a debugger session on top of a console:
// breakpoints, an execution history, CPU trace output and state dumps.
package debug

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Mask selects the kinds of access a breakpoint triggers on.
type Mask uint8

const (
	BreakRead Mask = 1 << iota
	BreakWrite
	BreakExecute
)

// BreakAny matches every kind of access.
const BreakAny = BreakRead | BreakWrite | BreakExecute

func (m Mask) String() string {
	s := ""
	if m&BreakRead != 0 {
		s += "r"
	}
	if m&BreakWrite != 0 {
		s += "w"
	}
	if m&BreakExecute != 0 {
		s += "x"
	}
	if s == "" {
		return "-"
	}
	return s
}

// Breakpoint is an address and the accesses that stop on it.
type Breakpoint struct {
	Addr uint16
	Mask Mask
}

func (bp Breakpoint) String() string {
	return fmt.Sprintf("$%04X:%v", bp.Addr, bp.Mask)
}

// ErrBadBreakpoint is returned by ParseBreakpoint.
var ErrBadBreakpoint = errors.New("bad breakpoint")

// ParseBreakpoint reads "ADDR" or "ADDR:MODES" where ADDR is hex with an
// optional "$" or "0x" prefix and MODES is any of r, w and x. A bare
// address is an execute breakpoint.
func ParseBreakpoint(s string) (Breakpoint, error) {
	addr, modes, hasModes := strings.Cut(strings.TrimSpace(s), ":")
	addr = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(addr), "$"), "0x")

	v, err := strconv.ParseUint(addr, 16, 16)
	if err != nil {
		return Breakpoint{}, errors.Wrapf(ErrBadBreakpoint, "address %q", s)
	}

	bp := Breakpoint{Addr: uint16(v), Mask: BreakExecute}
	if !hasModes {
		return bp, nil
	}

	bp.Mask = 0
	for _, c := range strings.ToLower(modes) {
		switch c {
		case 'r':
			bp.Mask |= BreakRead
		case 'w':
			bp.Mask |= BreakWrite
		case 'x':
			bp.Mask |= BreakExecute
		default:
			return Breakpoint{}, errors.Wrapf(ErrBadBreakpoint, "mode %q in %q", c, s)
		}
	}
	if bp.Mask == 0 {
		return Breakpoint{}, errors.Wrapf(ErrBadBreakpoint, "no modes in %q", s)
	}
	return bp, nil
}

// Breakpoints is a set of breakpoints keyed by address.
type Breakpoints struct {
	points map[uint16]Mask
}

// NewBreakpoints creates an empty set.
func NewBreakpoints() *Breakpoints {
	return &Breakpoints{points: make(map[uint16]Mask)}
}

// Add sets the mask bits for addr.
func (b *Breakpoints) Add(addr uint16, mask Mask) {
	if mask == 0 {
		return
	}
	b.points[addr] |= mask
}

// Remove clears the mask bits for addr, dropping the address when no bits
// remain.
func (b *Breakpoints) Remove(addr uint16, mask Mask) {
	m, ok := b.points[addr]
	if !ok {
		return
	}
	m &^= mask
	if m == 0 {
		delete(b.points, addr)
		return
	}
	b.points[addr] = m
}

// Has reports whether addr has a breakpoint sharing any bit with filter.
func (b *Breakpoints) Has(addr uint16, filter Mask) bool {
	return b.points[addr]&filter != 0
}

// Clear removes every breakpoint.
func (b *Breakpoints) Clear() {
	b.points = make(map[uint16]Mask)
}

// Len is the number of addresses with breakpoints.
func (b *Breakpoints) Len() int {
	return len(b.points)
}

// All returns the breakpoints sorted by address.
func (b *Breakpoints) All() []Breakpoint {
	out := make([]Breakpoint, 0, len(b.points))
	for addr, mask := range b.points {
		out = append(out, Breakpoint{Addr: addr, Mask: mask})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
