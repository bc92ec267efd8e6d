package cpu

// AddressingMode selects how an instruction locates its operand.
type AddressingMode uint8

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// operandBytes is the instruction length minus the opcode byte.
func (m AddressingMode) operandBytes() uint16 {
	switch m {
	case Implied, Accumulator:
		return 0
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 2
	default:
		return 1
	}
}

type operation uint8

const (
	opILL operation = iota
	opADC
	opAND
	opASL
	opBCC
	opBCS
	opBEQ
	opBIT
	opBMI
	opBNE
	opBPL
	opBRK
	opBVC
	opBVS
	opCLC
	opCLD
	opCLI
	opCLV
	opCMP
	opCPX
	opCPY
	opDEC
	opDEX
	opDEY
	opEOR
	opINC
	opINX
	opINY
	opJMP
	opJSR
	opLDA
	opLDX
	opLDY
	opLSR
	opNOP
	opORA
	opPHA
	opPHP
	opPLA
	opPLP
	opROL
	opROR
	opRTI
	opRTS
	opSBC
	opSEC
	opSED
	opSEI
	opSTA
	opSTX
	opSTY
	opTAX
	opTAY
	opTSX
	opTXA
	opTXS
	opTYA

	// unofficial
	opLAX
	opSAX
	opDCP
	opISB
	opSLO
	opRLA
	opSRE
	opRRA
)

// Instruction is one row of the opcode table.
type Instruction struct {
	Name       string
	op         operation
	Mode       AddressingMode
	Cycles     uint8
	Unofficial bool
}

// Bytes is the encoded length including the opcode.
func (i Instruction) Bytes() uint16 {
	return 1 + i.Mode.operandBytes()
}

// Lookup returns the table entry for an opcode byte.
func Lookup(opcode uint8) Instruction {
	return instructions[opcode]
}

// instructions covers every opcode byte. Undefined opcodes decode as opILL,
// which executes as a logged NOP.
var instructions = [256]Instruction{
	0x00: {"BRK", opBRK, Implied, 7, false},
	0x01: {"ORA", opORA, IndexedIndirect, 6, false},
	0x02: {"???", opILL, Implied, 2, false},
	0x03: {"SLO", opSLO, IndexedIndirect, 8, true},
	0x04: {"NOP", opNOP, ZeroPage, 3, true},
	0x05: {"ORA", opORA, ZeroPage, 3, false},
	0x06: {"ASL", opASL, ZeroPage, 5, false},
	0x07: {"SLO", opSLO, ZeroPage, 5, true},
	0x08: {"PHP", opPHP, Implied, 3, false},
	0x09: {"ORA", opORA, Immediate, 2, false},
	0x0A: {"ASL", opASL, Accumulator, 2, false},
	0x0B: {"???", opILL, Implied, 2, false},
	0x0C: {"NOP", opNOP, Absolute, 4, true},
	0x0D: {"ORA", opORA, Absolute, 4, false},
	0x0E: {"ASL", opASL, Absolute, 6, false},
	0x0F: {"SLO", opSLO, Absolute, 6, true},
	0x10: {"BPL", opBPL, Relative, 2, false},
	0x11: {"ORA", opORA, IndirectIndexed, 5, false},
	0x12: {"???", opILL, Implied, 2, false},
	0x13: {"SLO", opSLO, IndirectIndexed, 8, true},
	0x14: {"NOP", opNOP, ZeroPageX, 4, true},
	0x15: {"ORA", opORA, ZeroPageX, 4, false},
	0x16: {"ASL", opASL, ZeroPageX, 6, false},
	0x17: {"SLO", opSLO, ZeroPageX, 6, true},
	0x18: {"CLC", opCLC, Implied, 2, false},
	0x19: {"ORA", opORA, AbsoluteY, 4, false},
	0x1A: {"NOP", opNOP, Implied, 2, true},
	0x1B: {"SLO", opSLO, AbsoluteY, 7, true},
	0x1C: {"NOP", opNOP, AbsoluteX, 4, true},
	0x1D: {"ORA", opORA, AbsoluteX, 4, false},
	0x1E: {"ASL", opASL, AbsoluteX, 7, false},
	0x1F: {"SLO", opSLO, AbsoluteX, 7, true},
	0x20: {"JSR", opJSR, Absolute, 6, false},
	0x21: {"AND", opAND, IndexedIndirect, 6, false},
	0x22: {"???", opILL, Implied, 2, false},
	0x23: {"RLA", opRLA, IndexedIndirect, 8, true},
	0x24: {"BIT", opBIT, ZeroPage, 3, false},
	0x25: {"AND", opAND, ZeroPage, 3, false},
	0x26: {"ROL", opROL, ZeroPage, 5, false},
	0x27: {"RLA", opRLA, ZeroPage, 5, true},
	0x28: {"PLP", opPLP, Implied, 4, false},
	0x29: {"AND", opAND, Immediate, 2, false},
	0x2A: {"ROL", opROL, Accumulator, 2, false},
	0x2B: {"???", opILL, Implied, 2, false},
	0x2C: {"BIT", opBIT, Absolute, 4, false},
	0x2D: {"AND", opAND, Absolute, 4, false},
	0x2E: {"ROL", opROL, Absolute, 6, false},
	0x2F: {"RLA", opRLA, Absolute, 6, true},
	0x30: {"BMI", opBMI, Relative, 2, false},
	0x31: {"AND", opAND, IndirectIndexed, 5, false},
	0x32: {"???", opILL, Implied, 2, false},
	0x33: {"RLA", opRLA, IndirectIndexed, 8, true},
	0x34: {"NOP", opNOP, ZeroPageX, 4, true},
	0x35: {"AND", opAND, ZeroPageX, 4, false},
	0x36: {"ROL", opROL, ZeroPageX, 6, false},
	0x37: {"RLA", opRLA, ZeroPageX, 6, true},
	0x38: {"SEC", opSEC, Implied, 2, false},
	0x39: {"AND", opAND, AbsoluteY, 4, false},
	0x3A: {"NOP", opNOP, Implied, 2, true},
	0x3B: {"RLA", opRLA, AbsoluteY, 7, true},
	0x3C: {"NOP", opNOP, AbsoluteX, 4, true},
	0x3D: {"AND", opAND, AbsoluteX, 4, false},
	0x3E: {"ROL", opROL, AbsoluteX, 7, false},
	0x3F: {"RLA", opRLA, AbsoluteX, 7, true},
	0x40: {"RTI", opRTI, Implied, 6, false},
	0x41: {"EOR", opEOR, IndexedIndirect, 6, false},
	0x42: {"???", opILL, Implied, 2, false},
	0x43: {"SRE", opSRE, IndexedIndirect, 8, true},
	0x44: {"NOP", opNOP, ZeroPage, 3, true},
	0x45: {"EOR", opEOR, ZeroPage, 3, false},
	0x46: {"LSR", opLSR, ZeroPage, 5, false},
	0x47: {"SRE", opSRE, ZeroPage, 5, true},
	0x48: {"PHA", opPHA, Implied, 3, false},
	0x49: {"EOR", opEOR, Immediate, 2, false},
	0x4A: {"LSR", opLSR, Accumulator, 2, false},
	0x4B: {"???", opILL, Implied, 2, false},
	0x4C: {"JMP", opJMP, Absolute, 3, false},
	0x4D: {"EOR", opEOR, Absolute, 4, false},
	0x4E: {"LSR", opLSR, Absolute, 6, false},
	0x4F: {"SRE", opSRE, Absolute, 6, true},
	0x50: {"BVC", opBVC, Relative, 2, false},
	0x51: {"EOR", opEOR, IndirectIndexed, 5, false},
	0x52: {"???", opILL, Implied, 2, false},
	0x53: {"SRE", opSRE, IndirectIndexed, 8, true},
	0x54: {"NOP", opNOP, ZeroPageX, 4, true},
	0x55: {"EOR", opEOR, ZeroPageX, 4, false},
	0x56: {"LSR", opLSR, ZeroPageX, 6, false},
	0x57: {"SRE", opSRE, ZeroPageX, 6, true},
	0x58: {"CLI", opCLI, Implied, 2, false},
	0x59: {"EOR", opEOR, AbsoluteY, 4, false},
	0x5A: {"NOP", opNOP, Implied, 2, true},
	0x5B: {"SRE", opSRE, AbsoluteY, 7, true},
	0x5C: {"NOP", opNOP, AbsoluteX, 4, true},
	0x5D: {"EOR", opEOR, AbsoluteX, 4, false},
	0x5E: {"LSR", opLSR, AbsoluteX, 7, false},
	0x5F: {"SRE", opSRE, AbsoluteX, 7, true},
	0x60: {"RTS", opRTS, Implied, 6, false},
	0x61: {"ADC", opADC, IndexedIndirect, 6, false},
	0x62: {"???", opILL, Implied, 2, false},
	0x63: {"RRA", opRRA, IndexedIndirect, 8, true},
	0x64: {"NOP", opNOP, ZeroPage, 3, true},
	0x65: {"ADC", opADC, ZeroPage, 3, false},
	0x66: {"ROR", opROR, ZeroPage, 5, false},
	0x67: {"RRA", opRRA, ZeroPage, 5, true},
	0x68: {"PLA", opPLA, Implied, 4, false},
	0x69: {"ADC", opADC, Immediate, 2, false},
	0x6A: {"ROR", opROR, Accumulator, 2, false},
	0x6B: {"???", opILL, Implied, 2, false},
	0x6C: {"JMP", opJMP, Indirect, 5, false},
	0x6D: {"ADC", opADC, Absolute, 4, false},
	0x6E: {"ROR", opROR, Absolute, 6, false},
	0x6F: {"RRA", opRRA, Absolute, 6, true},
	0x70: {"BVS", opBVS, Relative, 2, false},
	0x71: {"ADC", opADC, IndirectIndexed, 5, false},
	0x72: {"???", opILL, Implied, 2, false},
	0x73: {"RRA", opRRA, IndirectIndexed, 8, true},
	0x74: {"NOP", opNOP, ZeroPageX, 4, true},
	0x75: {"ADC", opADC, ZeroPageX, 4, false},
	0x76: {"ROR", opROR, ZeroPageX, 6, false},
	0x77: {"RRA", opRRA, ZeroPageX, 6, true},
	0x78: {"SEI", opSEI, Implied, 2, false},
	0x79: {"ADC", opADC, AbsoluteY, 4, false},
	0x7A: {"NOP", opNOP, Implied, 2, true},
	0x7B: {"RRA", opRRA, AbsoluteY, 7, true},
	0x7C: {"NOP", opNOP, AbsoluteX, 4, true},
	0x7D: {"ADC", opADC, AbsoluteX, 4, false},
	0x7E: {"ROR", opROR, AbsoluteX, 7, false},
	0x7F: {"RRA", opRRA, AbsoluteX, 7, true},
	0x80: {"NOP", opNOP, Immediate, 2, true},
	0x81: {"STA", opSTA, IndexedIndirect, 6, false},
	0x82: {"NOP", opNOP, Immediate, 2, true},
	0x83: {"SAX", opSAX, IndexedIndirect, 6, true},
	0x84: {"STY", opSTY, ZeroPage, 3, false},
	0x85: {"STA", opSTA, ZeroPage, 3, false},
	0x86: {"STX", opSTX, ZeroPage, 3, false},
	0x87: {"SAX", opSAX, ZeroPage, 3, true},
	0x88: {"DEY", opDEY, Implied, 2, false},
	0x89: {"NOP", opNOP, Immediate, 2, true},
	0x8A: {"TXA", opTXA, Implied, 2, false},
	0x8B: {"???", opILL, Implied, 2, false},
	0x8C: {"STY", opSTY, Absolute, 4, false},
	0x8D: {"STA", opSTA, Absolute, 4, false},
	0x8E: {"STX", opSTX, Absolute, 4, false},
	0x8F: {"SAX", opSAX, Absolute, 4, true},
	0x90: {"BCC", opBCC, Relative, 2, false},
	0x91: {"STA", opSTA, IndirectIndexed, 6, false},
	0x92: {"???", opILL, Implied, 2, false},
	0x93: {"???", opILL, Implied, 6, false},
	0x94: {"STY", opSTY, ZeroPageX, 4, false},
	0x95: {"STA", opSTA, ZeroPageX, 4, false},
	0x96: {"STX", opSTX, ZeroPageY, 4, false},
	0x97: {"SAX", opSAX, ZeroPageY, 4, true},
	0x98: {"TYA", opTYA, Implied, 2, false},
	0x99: {"STA", opSTA, AbsoluteY, 5, false},
	0x9A: {"TXS", opTXS, Implied, 2, false},
	0x9B: {"???", opILL, Implied, 5, false},
	0x9C: {"???", opILL, Implied, 5, false},
	0x9D: {"STA", opSTA, AbsoluteX, 5, false},
	0x9E: {"???", opILL, Implied, 5, false},
	0x9F: {"???", opILL, Implied, 5, false},
	0xA0: {"LDY", opLDY, Immediate, 2, false},
	0xA1: {"LDA", opLDA, IndexedIndirect, 6, false},
	0xA2: {"LDX", opLDX, Immediate, 2, false},
	0xA3: {"LAX", opLAX, IndexedIndirect, 6, true},
	0xA4: {"LDY", opLDY, ZeroPage, 3, false},
	0xA5: {"LDA", opLDA, ZeroPage, 3, false},
	0xA6: {"LDX", opLDX, ZeroPage, 3, false},
	0xA7: {"LAX", opLAX, ZeroPage, 3, true},
	0xA8: {"TAY", opTAY, Implied, 2, false},
	0xA9: {"LDA", opLDA, Immediate, 2, false},
	0xAA: {"TAX", opTAX, Implied, 2, false},
	0xAB: {"???", opILL, Implied, 2, false},
	0xAC: {"LDY", opLDY, Absolute, 4, false},
	0xAD: {"LDA", opLDA, Absolute, 4, false},
	0xAE: {"LDX", opLDX, Absolute, 4, false},
	0xAF: {"LAX", opLAX, Absolute, 4, true},
	0xB0: {"BCS", opBCS, Relative, 2, false},
	0xB1: {"LDA", opLDA, IndirectIndexed, 5, false},
	0xB2: {"???", opILL, Implied, 2, false},
	0xB3: {"LAX", opLAX, IndirectIndexed, 5, true},
	0xB4: {"LDY", opLDY, ZeroPageX, 4, false},
	0xB5: {"LDA", opLDA, ZeroPageX, 4, false},
	0xB6: {"LDX", opLDX, ZeroPageY, 4, false},
	0xB7: {"LAX", opLAX, ZeroPageY, 4, true},
	0xB8: {"CLV", opCLV, Implied, 2, false},
	0xB9: {"LDA", opLDA, AbsoluteY, 4, false},
	0xBA: {"TSX", opTSX, Implied, 2, false},
	0xBB: {"???", opILL, Implied, 4, false},
	0xBC: {"LDY", opLDY, AbsoluteX, 4, false},
	0xBD: {"LDA", opLDA, AbsoluteX, 4, false},
	0xBE: {"LDX", opLDX, AbsoluteY, 4, false},
	0xBF: {"LAX", opLAX, AbsoluteY, 4, true},
	0xC0: {"CPY", opCPY, Immediate, 2, false},
	0xC1: {"CMP", opCMP, IndexedIndirect, 6, false},
	0xC2: {"NOP", opNOP, Immediate, 2, true},
	0xC3: {"DCP", opDCP, IndexedIndirect, 8, true},
	0xC4: {"CPY", opCPY, ZeroPage, 3, false},
	0xC5: {"CMP", opCMP, ZeroPage, 3, false},
	0xC6: {"DEC", opDEC, ZeroPage, 5, false},
	0xC7: {"DCP", opDCP, ZeroPage, 5, true},
	0xC8: {"INY", opINY, Implied, 2, false},
	0xC9: {"CMP", opCMP, Immediate, 2, false},
	0xCA: {"DEX", opDEX, Implied, 2, false},
	0xCB: {"???", opILL, Implied, 2, false},
	0xCC: {"CPY", opCPY, Absolute, 4, false},
	0xCD: {"CMP", opCMP, Absolute, 4, false},
	0xCE: {"DEC", opDEC, Absolute, 6, false},
	0xCF: {"DCP", opDCP, Absolute, 6, true},
	0xD0: {"BNE", opBNE, Relative, 2, false},
	0xD1: {"CMP", opCMP, IndirectIndexed, 5, false},
	0xD2: {"???", opILL, Implied, 2, false},
	0xD3: {"DCP", opDCP, IndirectIndexed, 8, true},
	0xD4: {"NOP", opNOP, ZeroPageX, 4, true},
	0xD5: {"CMP", opCMP, ZeroPageX, 4, false},
	0xD6: {"DEC", opDEC, ZeroPageX, 6, false},
	0xD7: {"DCP", opDCP, ZeroPageX, 6, true},
	0xD8: {"CLD", opCLD, Implied, 2, false},
	0xD9: {"CMP", opCMP, AbsoluteY, 4, false},
	0xDA: {"NOP", opNOP, Implied, 2, true},
	0xDB: {"DCP", opDCP, AbsoluteY, 7, true},
	0xDC: {"NOP", opNOP, AbsoluteX, 4, true},
	0xDD: {"CMP", opCMP, AbsoluteX, 4, false},
	0xDE: {"DEC", opDEC, AbsoluteX, 7, false},
	0xDF: {"DCP", opDCP, AbsoluteX, 7, true},
	0xE0: {"CPX", opCPX, Immediate, 2, false},
	0xE1: {"SBC", opSBC, IndexedIndirect, 6, false},
	0xE2: {"NOP", opNOP, Immediate, 2, true},
	0xE3: {"ISB", opISB, IndexedIndirect, 8, true},
	0xE4: {"CPX", opCPX, ZeroPage, 3, false},
	0xE5: {"SBC", opSBC, ZeroPage, 3, false},
	0xE6: {"INC", opINC, ZeroPage, 5, false},
	0xE7: {"ISB", opISB, ZeroPage, 5, true},
	0xE8: {"INX", opINX, Implied, 2, false},
	0xE9: {"SBC", opSBC, Immediate, 2, false},
	0xEA: {"NOP", opNOP, Implied, 2, false},
	0xEB: {"SBC", opSBC, Immediate, 2, true},
	0xEC: {"CPX", opCPX, Absolute, 4, false},
	0xED: {"SBC", opSBC, Absolute, 4, false},
	0xEE: {"INC", opINC, Absolute, 6, false},
	0xEF: {"ISB", opISB, Absolute, 6, true},
	0xF0: {"BEQ", opBEQ, Relative, 2, false},
	0xF1: {"SBC", opSBC, IndirectIndexed, 5, false},
	0xF2: {"???", opILL, Implied, 2, false},
	0xF3: {"ISB", opISB, IndirectIndexed, 8, true},
	0xF4: {"NOP", opNOP, ZeroPageX, 4, true},
	0xF5: {"SBC", opSBC, ZeroPageX, 4, false},
	0xF6: {"INC", opINC, ZeroPageX, 6, false},
	0xF7: {"ISB", opISB, ZeroPageX, 6, true},
	0xF8: {"SED", opSED, Implied, 2, false},
	0xF9: {"SBC", opSBC, AbsoluteY, 4, false},
	0xFA: {"NOP", opNOP, Implied, 2, true},
	0xFB: {"ISB", opISB, AbsoluteY, 7, true},
	0xFC: {"NOP", opNOP, AbsoluteX, 4, true},
	0xFD: {"SBC", opSBC, AbsoluteX, 4, false},
	0xFE: {"INC", opINC, AbsoluteX, 7, false},
	0xFF: {"ISB", opISB, AbsoluteX, 7, true},
}
