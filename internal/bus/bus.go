// Package bus implements the CPU address space and the wiring between NES
// components. It is the only place where the CPU, PPU, cartridge and
// controllers meet.
package bus

import (
	"qnes/internal/cartridge"
	"qnes/internal/cpu"
	"qnes/internal/input"
	"qnes/internal/logger"
	"qnes/internal/memory"
	"qnes/internal/ppu"
)

// RAMSize is the amount of internal CPU RAM, mirrored up to 0x1FFF.
const RAMSize = 0x800

// Watcher observes every CPU bus access after it completes. The debugger
// uses it for read and write breakpoints.
type Watcher interface {
	BusRead(address uint16, value uint8)
	BusWrite(address uint16, value uint8)
}

// Bus connects all NES components together
type Bus struct {
	CPU         *cpu.CPU
	PPU         *ppu.PPU
	VRAM        *memory.PPUMemory
	Controllers *input.Controllers
	Cartridge   *cartridge.Cartridge

	ram     [RAMSize]uint8
	watcher Watcher

	// writes to the APU registers are reported once per register
	apuLogged [0x18]bool
}

// New creates a bus with a CPU, PPU and controllers attached and no
// cartridge inserted.
func New() *Bus {
	b := &Bus{
		VRAM:        memory.NewPPUMemory(nil),
		Controllers: input.NewControllers(),
	}
	b.PPU = ppu.New(b.VRAM)
	b.CPU = cpu.New(b)
	b.PPU.SetNMICallback(b.TriggerNMI)
	return b
}

// LoadCartridge inserts cart, replacing any previous one. The caller resets
// the machine afterwards.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cartridge = cart
	if cart == nil {
		b.VRAM.SetCartridge(nil)
		return
	}
	b.VRAM.SetCartridge(cart)
}

// Reset clears RAM and resets every attached component.
func (b *Bus) Reset() {
	b.ram = [RAMSize]uint8{}
	b.VRAM.Reset()
	b.PPU.Reset()
	b.Controllers.Reset()
	b.CPU.Reset()
}

// SetWatcher installs w, or removes the watcher when nil.
func (b *Bus) SetWatcher(w Watcher) {
	b.watcher = w
}

// TriggerNMI forwards the PPU's vertical blank interrupt to the CPU.
func (b *Bus) TriggerNMI() {
	b.CPU.TriggerNMI()
}

// Read performs a CPU read with all of its side effects.
func (b *Bus) Read(address uint16) uint8 {
	value := b.read(address)
	if b.watcher != nil {
		b.watcher.BusRead(address, value)
	}
	return value
}

func (b *Bus) read(address uint16) uint8 {
	if b.Cartridge != nil {
		if value, ok := b.Cartridge.CPURead(address); ok {
			return value
		}
	}

	switch {
	case address < 0x2000:
		return b.ram[address&(RAMSize-1)]
	case address < 0x4000:
		return b.PPU.ReadRegister(address)
	case address == 0x4016 || address == 0x4017:
		return b.Controllers.Read(address)
	case address < 0x4018:
		// APU and OAMDMA are write-only here
		return 0
	case address < 0x4020:
		// CPU test mode
		return 0
	}
	return 0
}

// Peek reads without side effects: PPU flags stay set, controllers do not
// shift and the watcher is not told.
func (b *Bus) Peek(address uint16) uint8 {
	if b.Cartridge != nil {
		if value, ok := b.Cartridge.CPURead(address); ok {
			return value
		}
	}

	switch {
	case address < 0x2000:
		return b.ram[address&(RAMSize-1)]
	case address < 0x4000:
		return b.PPU.PeekRegister(address)
	case address == 0x4016 || address == 0x4017:
		return b.Controllers.Peek(address)
	}
	return 0
}

// Write performs a CPU write.
func (b *Bus) Write(address uint16, value uint8) {
	b.write(address, value)
	if b.watcher != nil {
		b.watcher.BusWrite(address, value)
	}
}

func (b *Bus) write(address uint16, value uint8) {
	if b.Cartridge != nil && b.Cartridge.CPUWrite(address, value) {
		return
	}

	switch {
	case address < 0x2000:
		b.ram[address&(RAMSize-1)] = value
	case address < 0x4000:
		b.PPU.WriteRegister(address, value)
	case address == 0x4014:
		b.oamDMA(value)
	case address == 0x4016 || address == 0x4017:
		b.Controllers.Write(address, value)
	case address < 0x4018:
		if !b.apuLogged[address-0x4000] {
			b.apuLogged[address-0x4000] = true
			logger.Logf("BUS", "APU register $%04X not implemented, write $%02X ignored", address, value)
		}
	case address < 0x4020:
		// CPU test mode
	default:
		logger.Logf("BUS", "write $%02X to unmapped $%04X ignored", value, address)
	}
}

// oamDMA copies a RAM page into OAM and stalls the CPU for the transfer.
func (b *Bus) oamDMA(page uint8) {
	b.PPU.OAMDMA(page, b.read)
	b.CPU.StallDMA()
}

// RAM returns a copy of internal RAM.
func (b *Bus) RAM() []uint8 {
	out := make([]uint8, RAMSize)
	copy(out, b.ram[:])
	return out
}

// LoadRAM overwrites internal RAM with data, which is truncated or zero
// padded to RAMSize.
func (b *Bus) LoadRAM(data []uint8) {
	b.ram = [RAMSize]uint8{}
	copy(b.ram[:], data)
}
