package cpu

import (
	"fmt"
	"strings"
)

// DisassemblyEntry is one decoded instruction.
type DisassemblyEntry struct {
	PC    uint16
	Bytes []uint8
	Text  string
}

func (e DisassemblyEntry) String() string {
	hex := make([]string, len(e.Bytes))
	for i, b := range e.Bytes {
		hex[i] = fmt.Sprintf("%02X", b)
	}
	return fmt.Sprintf("%04X  %-8s  %s", e.PC, strings.Join(hex, " "), e.Text)
}

// Disassemble decodes count instructions starting at start. read must be
// free of side effects; the bus Peek method is the usual choice.
func Disassemble(start uint16, count int, read func(uint16) uint8) []DisassemblyEntry {
	entries := make([]DisassemblyEntry, 0, count)
	pc := start
	for i := 0; i < count; i++ {
		entry := DisassembleOne(pc, read)
		entries = append(entries, entry)
		pc += uint16(len(entry.Bytes))
	}
	return entries
}

// DisassembleOne decodes the instruction at pc.
func DisassembleOne(pc uint16, read func(uint16) uint8) DisassemblyEntry {
	inst := instructions[read(pc)]
	n := inst.Bytes()

	raw := make([]uint8, n)
	for i := uint16(0); i < n; i++ {
		raw[i] = read(pc + i)
	}

	var lo, word uint16
	if n > 1 {
		lo = uint16(raw[1])
		word = lo
	}
	if n > 2 {
		word |= uint16(raw[2]) << 8
	}

	var operand string
	switch inst.Mode {
	case Accumulator:
		operand = "A"
	case Immediate:
		operand = fmt.Sprintf("#$%02X", lo)
	case ZeroPage:
		operand = fmt.Sprintf("$%02X", lo)
	case ZeroPageX:
		operand = fmt.Sprintf("$%02X,X", lo)
	case ZeroPageY:
		operand = fmt.Sprintf("$%02X,Y", lo)
	case Relative:
		target := pc + 2 + uint16(int8(raw[1]))
		operand = fmt.Sprintf("$%04X", target)
	case Absolute:
		operand = fmt.Sprintf("$%04X", word)
	case AbsoluteX:
		operand = fmt.Sprintf("$%04X,X", word)
	case AbsoluteY:
		operand = fmt.Sprintf("$%04X,Y", word)
	case Indirect:
		operand = fmt.Sprintf("($%04X)", word)
	case IndexedIndirect:
		operand = fmt.Sprintf("($%02X,X)", lo)
	case IndirectIndexed:
		operand = fmt.Sprintf("($%02X),Y", lo)
	}

	name := inst.Name
	if inst.Unofficial {
		name = "*" + name
	}
	text := name
	if operand != "" {
		text += " " + operand
	}

	return DisassemblyEntry{PC: pc, Bytes: raw, Text: text}
}
