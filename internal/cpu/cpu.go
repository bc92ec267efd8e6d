// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

import (
	"qnes/internal/logger"
)

// Status register bit masks
const (
	FlagCarry     uint8 = 0x01
	FlagZero      uint8 = 0x02
	FlagInterrupt uint8 = 0x04
	FlagDecimal   uint8 = 0x08
	FlagBreak     uint8 = 0x10
	FlagUnused    uint8 = 0x20
	FlagOverflow  uint8 = 0x40
	FlagNegative  uint8 = 0x80
)

const (
	stackBase = 0x0100

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	resetCycles     = 7
	interruptCycles = 7

	// DMACycles is the stall charged for an OAM DMA transfer.
	DMACycles = 513
)

// MemoryInterface is the bus as seen by the CPU.
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// ExecHook is called at every instruction boundary with the address of the
// instruction about to execute. Returning false pauses the CPU before the
// instruction runs.
type ExecHook func(pc uint16) bool

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter
	P  uint8  // Status

	memory MemoryInterface

	// total clock count since power-on
	cycles uint64
	// cycles left in the instruction or interrupt sequence in flight
	remaining uint8
	// cycles left in an OAM DMA stall
	dmaStall uint16

	// decode state of the current instruction
	opcode      uint8
	mode        AddressingMode
	addrAbs     uint16
	addrRel     uint16
	pageCrossed bool

	execHook ExecHook
	paused   bool
	skipHook bool

	illegalSeen [256]bool
}

// New creates a new CPU instance
func New(memory MemoryInterface) *CPU {
	return &CPU{
		memory: memory,
		SP:     0xFD,
		P:      FlagUnused | FlagInterrupt,
	}
}

// Reset loads the power-on register values and the reset vector. The reset
// sequence is charged to the cycle counter but leaves nothing in flight.
func (cpu *CPU) Reset() {
	cpu.A = 0
	cpu.X = 0
	cpu.Y = 0
	cpu.SP = 0xFD
	cpu.P = FlagUnused | FlagInterrupt
	cpu.PC = cpu.readWord(resetVector)

	cpu.remaining = 0
	cpu.dmaStall = 0
	cpu.paused = false
	cpu.skipHook = false
	cpu.cycles = resetCycles
}

// GetFlag reports whether a status bit is set.
func (cpu *CPU) GetFlag(flag uint8) bool {
	return cpu.P&flag != 0
}

// SetFlag sets or clears a status bit.
func (cpu *CPU) SetFlag(flag uint8, on bool) {
	if on {
		cpu.P |= flag
	} else {
		cpu.P &^= flag
	}
}

// Status returns the live status register. Unused always reads 1 and Break
// never appears outside a pushed copy.
func (cpu *CPU) Status() uint8 {
	return cpu.P&^FlagBreak | FlagUnused
}

// SetStatus loads the status register, normalising Break and Unused.
func (cpu *CPU) SetStatus(value uint8) {
	cpu.P = value&^FlagBreak | FlagUnused
}

// Cycles returns the number of CPU clocks since power-on.
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// SetPC moves execution to address, abandoning any in-flight cycles.
func (cpu *CPU) SetPC(address uint16) {
	cpu.PC = address
	cpu.remaining = 0
}

// SetExecHook installs hook, or removes it when nil.
func (cpu *CPU) SetExecHook(hook ExecHook) {
	cpu.execHook = hook
}

// Paused reports whether the exec hook has halted the CPU.
func (cpu *CPU) Paused() bool {
	return cpu.paused
}

// Resume clears a pause. The instruction the hook refused runs without
// consulting the hook again.
func (cpu *CPU) Resume() {
	if cpu.paused {
		cpu.paused = false
		cpu.skipHook = true
	}
}

// StallDMA starts the OAM DMA stall. No instruction progress happens until
// the stall has been clocked out.
func (cpu *CPU) StallDMA() {
	cpu.dmaStall = DMACycles
}

// Clock advances the CPU by one cycle. A new instruction is fetched and
// executed on the first cycle of its slot; the remaining cycles are idle.
func (cpu *CPU) Clock() {
	if cpu.remaining == 0 {
		if cpu.dmaStall > 0 {
			cpu.dmaStall--
			cpu.cycles++
			return
		}
		if cpu.paused {
			return
		}
		if cpu.execHook != nil && !cpu.skipHook && !cpu.execHook(cpu.PC) {
			cpu.paused = true
			return
		}
		cpu.skipHook = false
		// a PPUCTRL write inside execute may already have queued an NMI
		n := cpu.execute()
		cpu.remaining += n
	}
	cpu.remaining--
	cpu.cycles++
}

// Step finishes any in-flight cycles, executes exactly one instruction and
// clocks out any DMA stall it started. It returns the cycles consumed, or
// only the drained cycles if the CPU is paused.
func (cpu *CPU) Step() int {
	n := cpu.drain()
	if cpu.paused {
		return n
	}

	before := cpu.cycles
	cpu.Clock()
	if cpu.paused {
		return n
	}
	n += int(cpu.cycles - before)
	return n + cpu.drain()
}

func (cpu *CPU) drain() int {
	n := 0
	for cpu.remaining > 0 || cpu.dmaStall > 0 {
		cpu.Clock()
		n++
	}
	return n
}

// Idle reports whether the CPU sits on an instruction boundary.
func (cpu *CPU) Idle() bool {
	return cpu.remaining == 0 && cpu.dmaStall == 0
}

// TriggerNMI runs the non-maskable interrupt sequence: push PC and status
// with Break clear, set InterruptDisable and jump through 0xFFFA.
func (cpu *CPU) TriggerNMI() {
	cpu.interrupt(nmiVector)
}

// TriggerIRQ runs the maskable interrupt sequence when InterruptDisable is
// clear.
func (cpu *CPU) TriggerIRQ() {
	if cpu.GetFlag(FlagInterrupt) {
		return
	}
	cpu.interrupt(irqVector)
}

func (cpu *CPU) interrupt(vector uint16) {
	cpu.pushWord(cpu.PC)
	cpu.push(cpu.P&^FlagBreak | FlagUnused)
	cpu.SetFlag(FlagInterrupt, true)
	cpu.PC = cpu.readWord(vector)
	cpu.remaining += interruptCycles
}

func (cpu *CPU) read(address uint16) uint8 {
	return cpu.memory.Read(address)
}

func (cpu *CPU) write(address uint16, value uint8) {
	cpu.memory.Write(address, value)
}

func (cpu *CPU) readWord(address uint16) uint16 {
	lo := uint16(cpu.read(address))
	hi := uint16(cpu.read(address + 1))
	return hi<<8 | lo
}

// push writes to the stack page; SP wraps modulo 256.
func (cpu *CPU) push(value uint8) {
	cpu.write(stackBase|uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.read(stackBase | uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value))
}

func (cpu *CPU) popWord() uint16 {
	lo := uint16(cpu.pop())
	hi := uint16(cpu.pop())
	return hi<<8 | lo
}

func (cpu *CPU) setZN(value uint8) {
	cpu.SetFlag(FlagZero, value == 0)
	cpu.SetFlag(FlagNegative, value&0x80 != 0)
}

// execute fetches, decodes and runs one instruction and returns its cycle
// count: base cycles plus page-crossing and branch penalties.
func (cpu *CPU) execute() uint8 {
	cpu.opcode = cpu.read(cpu.PC)
	cpu.PC++

	inst := &instructions[cpu.opcode]
	cpu.mode = inst.Mode
	cpu.pageCrossed = cpu.resolveAddress(inst.Mode)

	return inst.Cycles + cpu.run(inst)
}

func (cpu *CPU) logIllegal(pc uint16) {
	if cpu.illegalSeen[cpu.opcode] {
		return
	}
	cpu.illegalSeen[cpu.opcode] = true
	logger.Logf("CPU", "illegal opcode $%02X at $%04X executed as NOP", cpu.opcode, pc)
}

// State is a serialisable copy of the CPU registers and timing.
type State struct {
	A         uint8  `json:"a"`
	X         uint8  `json:"x"`
	Y         uint8  `json:"y"`
	SP        uint8  `json:"sp"`
	P         uint8  `json:"p"`
	PC        uint16 `json:"pc"`
	Cycles    uint64 `json:"cycles"`
	Remaining uint8  `json:"remaining"`
	DMAStall  uint16 `json:"dma_stall"`
}

// State captures the CPU.
func (cpu *CPU) State() State {
	return State{
		A:         cpu.A,
		X:         cpu.X,
		Y:         cpu.Y,
		SP:        cpu.SP,
		P:         cpu.Status(),
		PC:        cpu.PC,
		Cycles:    cpu.cycles,
		Remaining: cpu.remaining,
		DMAStall:  cpu.dmaStall,
	}
}

// SetState restores a State. A pause in progress is cleared.
func (cpu *CPU) SetState(s State) {
	cpu.A = s.A
	cpu.X = s.X
	cpu.Y = s.Y
	cpu.SP = s.SP
	cpu.SetStatus(s.P)
	cpu.PC = s.PC
	cpu.cycles = s.Cycles
	cpu.remaining = s.Remaining
	cpu.dmaStall = s.DMAStall
	cpu.paused = false
	cpu.skipHook = false
}
