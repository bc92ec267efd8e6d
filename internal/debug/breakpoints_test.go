package debug

import (
	"testing"

	"github.com/pkg/errors"

	"qnes/internal/cpu"
)

func TestParseBreakpoint(t *testing.T) {
	tests := []struct {
		input    string
		expected Breakpoint
	}{
		{"8000", Breakpoint{0x8000, BreakExecute}},
		{"$C5F5", Breakpoint{0xC5F5, BreakExecute}},
		{"0x2002:r", Breakpoint{0x2002, BreakRead}},
		{"0300:WR", Breakpoint{0x0300, BreakRead | BreakWrite}},
		{" 10:rwx ", Breakpoint{0x0010, BreakAny}},
	}

	for _, tt := range tests {
		got, err := ParseBreakpoint(tt.input)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%q: expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestParseBreakpoint_Errors(t *testing.T) {
	for _, input := range []string{"", "xyz", "10000", "8000:", "8000:q"} {
		if _, err := ParseBreakpoint(input); !errors.Is(err, ErrBadBreakpoint) {
			t.Errorf("%q: expected ErrBadBreakpoint, got %v", input, err)
		}
	}
}

func TestBreakpoints_AddRemoveHas(t *testing.T) {
	b := NewBreakpoints()
	b.Add(0x8000, BreakExecute)
	b.Add(0x0300, BreakRead)
	b.Add(0x0300, BreakWrite)

	if !b.Has(0x0300, BreakWrite) || !b.Has(0x0300, BreakRead) {
		t.Error("Expected read and write on $0300")
	}
	if b.Has(0x0300, BreakExecute) {
		t.Error("Expected no execute on $0300")
	}
	if !b.Has(0x8000, BreakAny) {
		t.Error("Expected BreakAny to match $8000")
	}

	b.Remove(0x0300, BreakRead)
	if b.Has(0x0300, BreakRead) || !b.Has(0x0300, BreakWrite) {
		t.Error("Expected only the read bit removed")
	}
	b.Remove(0x0300, BreakWrite)
	if b.Len() != 1 {
		t.Errorf("Expected address dropped once empty, got %d entries", b.Len())
	}

	b.Add(0x1234, 0)
	if b.Len() != 1 {
		t.Error("Expected an empty mask to be ignored")
	}
}

func TestBreakpoints_AllSorted(t *testing.T) {
	b := NewBreakpoints()
	for _, addr := range []uint16{0xC000, 0x0010, 0x8000} {
		b.Add(addr, BreakExecute)
	}

	all := b.All()
	if len(all) != 3 || all[0].Addr != 0x0010 || all[1].Addr != 0x8000 || all[2].Addr != 0xC000 {
		t.Errorf("Expected sorted breakpoints, got %v", all)
	}
	if s := all[0].String(); s != "$0010:x" {
		t.Errorf("Expected $0010:x, got %s", s)
	}

	b.Clear()
	if b.Len() != 0 {
		t.Error("Expected Clear to empty the set")
	}
}

func TestHistory_Ring(t *testing.T) {
	h := NewHistory(4)
	if got := h.Recent(10); got != nil {
		t.Errorf("Expected nothing from an empty ring, got %v", got)
	}

	for pc := uint16(1); pc <= 6; pc++ {
		h.Push(cpu.DisassemblyEntry{PC: pc})
	}
	if h.Len() != 4 {
		t.Errorf("Expected 4 entries, got %d", h.Len())
	}

	recent := h.Recent(10)
	for i, e := range recent {
		if e.PC != uint16(3+i) {
			t.Errorf("Entry %d: expected PC %d, got %d", i, 3+i, e.PC)
		}
	}
	if last := h.Recent(1); last[0].PC != 6 {
		t.Errorf("Expected newest PC 6, got %d", last[0].PC)
	}

	h.Clear()
	if h.Len() != 0 {
		t.Error("Expected Clear to empty the ring")
	}
}

func TestHistory_DefaultSize(t *testing.T) {
	if h := NewHistory(0); len(h.entries) != DefaultHistorySize {
		t.Errorf("Expected %d entries, got %d", DefaultHistorySize, len(h.entries))
	}
}
