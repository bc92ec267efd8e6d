package cpu

// resolveAddress consumes the operand bytes for mode and sets addrAbs (or
// addrRel for branches). It reports whether an index crossed a page.
func (cpu *CPU) resolveAddress(mode AddressingMode) bool {
	switch mode {
	case Implied, Accumulator:
		return false

	case Immediate:
		cpu.addrAbs = cpu.PC
		cpu.PC++

	case ZeroPage:
		cpu.addrAbs = uint16(cpu.read(cpu.PC))
		cpu.PC++

	case ZeroPageX:
		cpu.addrAbs = uint16(cpu.read(cpu.PC) + cpu.X)
		cpu.PC++

	case ZeroPageY:
		cpu.addrAbs = uint16(cpu.read(cpu.PC) + cpu.Y)
		cpu.PC++

	case Relative:
		offset := uint16(cpu.read(cpu.PC))
		cpu.PC++
		if offset&0x80 != 0 {
			offset |= 0xFF00
		}
		cpu.addrRel = offset

	case Absolute:
		cpu.addrAbs = cpu.readWord(cpu.PC)
		cpu.PC += 2

	case AbsoluteX:
		base := cpu.readWord(cpu.PC)
		cpu.PC += 2
		cpu.addrAbs = base + uint16(cpu.X)
		return base&0xFF00 != cpu.addrAbs&0xFF00

	case AbsoluteY:
		base := cpu.readWord(cpu.PC)
		cpu.PC += 2
		cpu.addrAbs = base + uint16(cpu.Y)
		return base&0xFF00 != cpu.addrAbs&0xFF00

	case Indirect:
		ptr := cpu.readWord(cpu.PC)
		cpu.PC += 2
		cpu.addrAbs = cpu.readWordBug(ptr)

	case IndexedIndirect:
		zp := cpu.read(cpu.PC) + cpu.X
		cpu.PC++
		cpu.addrAbs = cpu.readZeroPageWord(zp)

	case IndirectIndexed:
		zp := cpu.read(cpu.PC)
		cpu.PC++
		base := cpu.readZeroPageWord(zp)
		cpu.addrAbs = base + uint16(cpu.Y)
		return base&0xFF00 != cpu.addrAbs&0xFF00
	}
	return false
}

// readWordBug reproduces the JMP ($xxFF) bug: the high byte comes from the
// start of the same page.
func (cpu *CPU) readWordBug(ptr uint16) uint16 {
	lo := uint16(cpu.read(ptr))
	hi := uint16(cpu.read(ptr&0xFF00 | (ptr+1)&0x00FF))
	return hi<<8 | lo
}

func (cpu *CPU) readZeroPageWord(zp uint8) uint16 {
	lo := uint16(cpu.read(uint16(zp)))
	hi := uint16(cpu.read(uint16(zp + 1)))
	return hi<<8 | lo
}

// fetch returns the operand: the accumulator in accumulator/implied modes,
// memory otherwise.
func (cpu *CPU) fetch() uint8 {
	if cpu.mode == Accumulator || cpu.mode == Implied {
		return cpu.A
	}
	return cpu.read(cpu.addrAbs)
}

// store writes a read-modify-write result back to where fetch found it.
func (cpu *CPU) store(value uint8) {
	if cpu.mode == Accumulator || cpu.mode == Implied {
		cpu.A = value
		return
	}
	cpu.write(cpu.addrAbs, value)
}

// penalty is the extra cycle a read instruction pays on a page crossing.
func (cpu *CPU) penalty() uint8 {
	if cpu.pageCrossed {
		return 1
	}
	return 0
}

// run executes inst and returns extra cycles beyond the table's base count.
func (cpu *CPU) run(inst *Instruction) uint8 {
	switch inst.op {
	// Loads and stores
	case opLDA:
		cpu.A = cpu.fetch()
		cpu.setZN(cpu.A)
		return cpu.penalty()
	case opLDX:
		cpu.X = cpu.fetch()
		cpu.setZN(cpu.X)
		return cpu.penalty()
	case opLDY:
		cpu.Y = cpu.fetch()
		cpu.setZN(cpu.Y)
		return cpu.penalty()
	case opSTA:
		cpu.write(cpu.addrAbs, cpu.A)
	case opSTX:
		cpu.write(cpu.addrAbs, cpu.X)
	case opSTY:
		cpu.write(cpu.addrAbs, cpu.Y)

	// Arithmetic and logic
	case opADC:
		cpu.add(cpu.fetch())
		return cpu.penalty()
	case opSBC:
		cpu.add(^cpu.fetch())
		return cpu.penalty()
	case opAND:
		cpu.A &= cpu.fetch()
		cpu.setZN(cpu.A)
		return cpu.penalty()
	case opORA:
		cpu.A |= cpu.fetch()
		cpu.setZN(cpu.A)
		return cpu.penalty()
	case opEOR:
		cpu.A ^= cpu.fetch()
		cpu.setZN(cpu.A)
		return cpu.penalty()
	case opCMP:
		cpu.compare(cpu.A, cpu.fetch())
		return cpu.penalty()
	case opCPX:
		cpu.compare(cpu.X, cpu.fetch())
	case opCPY:
		cpu.compare(cpu.Y, cpu.fetch())
	case opBIT:
		value := cpu.fetch()
		cpu.SetFlag(FlagZero, cpu.A&value == 0)
		cpu.SetFlag(FlagOverflow, value&0x40 != 0)
		cpu.SetFlag(FlagNegative, value&0x80 != 0)

	// Shifts and rotates
	case opASL:
		cpu.store(cpu.asl(cpu.fetch()))
	case opLSR:
		cpu.store(cpu.lsr(cpu.fetch()))
	case opROL:
		cpu.store(cpu.rol(cpu.fetch()))
	case opROR:
		cpu.store(cpu.ror(cpu.fetch()))

	// Increments and decrements
	case opINC:
		value := cpu.fetch() + 1
		cpu.write(cpu.addrAbs, value)
		cpu.setZN(value)
	case opDEC:
		value := cpu.fetch() - 1
		cpu.write(cpu.addrAbs, value)
		cpu.setZN(value)
	case opINX:
		cpu.X++
		cpu.setZN(cpu.X)
	case opINY:
		cpu.Y++
		cpu.setZN(cpu.Y)
	case opDEX:
		cpu.X--
		cpu.setZN(cpu.X)
	case opDEY:
		cpu.Y--
		cpu.setZN(cpu.Y)

	// Transfers
	case opTAX:
		cpu.X = cpu.A
		cpu.setZN(cpu.X)
	case opTAY:
		cpu.Y = cpu.A
		cpu.setZN(cpu.Y)
	case opTXA:
		cpu.A = cpu.X
		cpu.setZN(cpu.A)
	case opTYA:
		cpu.A = cpu.Y
		cpu.setZN(cpu.A)
	case opTSX:
		cpu.X = cpu.SP
		cpu.setZN(cpu.X)
	case opTXS:
		cpu.SP = cpu.X

	// Stack
	case opPHA:
		cpu.push(cpu.A)
	case opPHP:
		cpu.push(cpu.P | FlagBreak | FlagUnused)
	case opPLA:
		cpu.A = cpu.pop()
		cpu.setZN(cpu.A)
	case opPLP:
		cpu.SetStatus(cpu.pop())

	// Flags
	case opCLC:
		cpu.SetFlag(FlagCarry, false)
	case opSEC:
		cpu.SetFlag(FlagCarry, true)
	case opCLI:
		cpu.SetFlag(FlagInterrupt, false)
	case opSEI:
		cpu.SetFlag(FlagInterrupt, true)
	case opCLV:
		cpu.SetFlag(FlagOverflow, false)
	case opCLD:
		cpu.SetFlag(FlagDecimal, false)
	case opSED:
		cpu.SetFlag(FlagDecimal, true)

	// Branches
	case opBCC:
		return cpu.branch(!cpu.GetFlag(FlagCarry))
	case opBCS:
		return cpu.branch(cpu.GetFlag(FlagCarry))
	case opBNE:
		return cpu.branch(!cpu.GetFlag(FlagZero))
	case opBEQ:
		return cpu.branch(cpu.GetFlag(FlagZero))
	case opBPL:
		return cpu.branch(!cpu.GetFlag(FlagNegative))
	case opBMI:
		return cpu.branch(cpu.GetFlag(FlagNegative))
	case opBVC:
		return cpu.branch(!cpu.GetFlag(FlagOverflow))
	case opBVS:
		return cpu.branch(cpu.GetFlag(FlagOverflow))

	// Jumps and subroutines
	case opJMP:
		cpu.PC = cpu.addrAbs
	case opJSR:
		cpu.pushWord(cpu.PC - 1)
		cpu.PC = cpu.addrAbs
	case opRTS:
		cpu.PC = cpu.popWord() + 1
	case opBRK:
		cpu.PC++
		cpu.pushWord(cpu.PC)
		cpu.push(cpu.P | FlagBreak | FlagUnused)
		cpu.SetFlag(FlagInterrupt, true)
		cpu.PC = cpu.readWord(irqVector)
	case opRTI:
		cpu.SetStatus(cpu.pop())
		cpu.PC = cpu.popWord()

	case opNOP:
		// unofficial NOPs still perform their operand read
		if inst.Mode != Implied {
			cpu.read(cpu.addrAbs)
		}
		return cpu.penalty()

	// Unofficial combinations
	case opLAX:
		cpu.A = cpu.fetch()
		cpu.X = cpu.A
		cpu.setZN(cpu.A)
		return cpu.penalty()
	case opSAX:
		cpu.write(cpu.addrAbs, cpu.A&cpu.X)
	case opDCP:
		value := cpu.fetch() - 1
		cpu.write(cpu.addrAbs, value)
		cpu.compare(cpu.A, value)
	case opISB:
		value := cpu.fetch() + 1
		cpu.write(cpu.addrAbs, value)
		cpu.add(^value)
	case opSLO:
		value := cpu.asl(cpu.fetch())
		cpu.write(cpu.addrAbs, value)
		cpu.A |= value
		cpu.setZN(cpu.A)
	case opRLA:
		value := cpu.rol(cpu.fetch())
		cpu.write(cpu.addrAbs, value)
		cpu.A &= value
		cpu.setZN(cpu.A)
	case opSRE:
		value := cpu.lsr(cpu.fetch())
		cpu.write(cpu.addrAbs, value)
		cpu.A ^= value
		cpu.setZN(cpu.A)
	case opRRA:
		value := cpu.ror(cpu.fetch())
		cpu.write(cpu.addrAbs, value)
		cpu.add(value)

	default:
		cpu.logIllegal(cpu.PC - 1)
	}
	return 0
}

// add is ADC: a 9-bit sum for carry, and overflow when both inputs share a
// sign that the result does not.
func (cpu *CPU) add(value uint8) {
	carry := uint16(cpu.P & FlagCarry)
	sum := uint16(cpu.A) + uint16(value) + carry
	result := uint8(sum)

	cpu.SetFlag(FlagCarry, sum > 0xFF)
	cpu.SetFlag(FlagOverflow, (cpu.A^result)&(value^result)&0x80 != 0)
	cpu.A = result
	cpu.setZN(result)
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.SetFlag(FlagCarry, register >= value)
	cpu.setZN(register - value)
}

func (cpu *CPU) asl(value uint8) uint8 {
	cpu.SetFlag(FlagCarry, value&0x80 != 0)
	value <<= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) lsr(value uint8) uint8 {
	cpu.SetFlag(FlagCarry, value&0x01 != 0)
	value >>= 1
	cpu.setZN(value)
	return value
}

func (cpu *CPU) rol(value uint8) uint8 {
	carryIn := cpu.P & FlagCarry
	cpu.SetFlag(FlagCarry, value&0x80 != 0)
	value = value<<1 | carryIn
	cpu.setZN(value)
	return value
}

func (cpu *CPU) ror(value uint8) uint8 {
	carryIn := (cpu.P & FlagCarry) << 7
	cpu.SetFlag(FlagCarry, value&0x01 != 0)
	value = value>>1 | carryIn
	cpu.setZN(value)
	return value
}

// branch takes the branch when cond holds: one extra cycle, plus one more
// if the target lies on a different page from the next instruction.
func (cpu *CPU) branch(cond bool) uint8 {
	if !cond {
		return 0
	}
	target := cpu.PC + cpu.addrRel
	extra := uint8(1)
	if target&0xFF00 != cpu.PC&0xFF00 {
		extra++
	}
	cpu.PC = target
	return extra
}
