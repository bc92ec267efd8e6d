// Package console ties the NES components into one machine and drives them
// in lock step: one CPU instruction, then three PPU dots per CPU cycle.
package console

import (
	"io"

	"github.com/pkg/errors"

	"qnes/internal/bus"
	"qnes/internal/cartridge"
	"qnes/internal/cpu"
	"qnes/internal/input"
	"qnes/internal/logger"
	"qnes/internal/ppu"
)

// PPUDotsPerCPUCycle is the NTSC clock ratio.
const PPUDotsPerCPUCycle = 3

// ErrNoCartridge is returned by operations that need a loaded ROM.
var ErrNoCartridge = errors.New("no cartridge loaded")

// Console is the whole machine. It owns every component; the bus holds the
// cross references between them.
type Console struct {
	bus  *bus.Bus
	cart *cartridge.Cartridge
	path string
}

// New creates a console with no cartridge inserted.
func New() *Console {
	return &Console{bus: bus.New()}
}

// LoadROM reads an iNES file, inserts it and hard resets the machine.
func (c *Console) LoadROM(path string) error {
	cart, err := cartridge.LoadFromFile(path)
	if err != nil {
		return errors.Wrap(err, "load ROM")
	}
	c.Insert(cart)
	c.path = path
	return nil
}

// LoadROMFromReader is LoadROM for an image that is not on disk.
func (c *Console) LoadROMFromReader(r io.Reader) error {
	cart, err := cartridge.LoadFromReader(r)
	if err != nil {
		return errors.Wrap(err, "load ROM")
	}
	c.Insert(cart)
	c.path = ""
	return nil
}

// Insert places an already loaded cartridge in the machine and hard resets
// it.
func (c *Console) Insert(cart *cartridge.Cartridge) {
	c.cart = cart
	c.bus.LoadCartridge(cart)
	c.bus.Reset()

	d := cart.Description()
	logger.Logf("CONSOLE", "inserted mapper %d cartridge, %d PRG / %d CHR banks, %v mirroring",
		d.MapperNumber, d.PRGBanks, d.CHRBanks, d.Mirroring)
}

// HardReset is a power cycle: RAM is cleared and every component returns
// to its power-on state. The cartridge stays inserted.
func (c *Console) HardReset() error {
	if c.cart == nil {
		return ErrNoCartridge
	}
	c.bus.Reset()
	return nil
}

// SoftReset presses the reset button, which only reaches the CPU.
func (c *Console) SoftReset() error {
	if c.cart == nil {
		return ErrNoCartridge
	}
	c.bus.CPU.Reset()
	return nil
}

// StepFrame runs until the PPU completes the current frame. It returns
// early, without error, when a debugger hook pauses the CPU.
func (c *Console) StepFrame() error {
	if c.cart == nil {
		return ErrNoCartridge
	}

	start := c.bus.PPU.FrameCount()
	for c.bus.PPU.FrameCount() == start {
		cycles := c.bus.CPU.Step()
		c.clockPPU(cycles)
		if c.bus.CPU.Paused() {
			return nil
		}
	}
	return nil
}

// StepInstruction executes one CPU instruction, including any interrupt or
// DMA stall in flight, and keeps the PPU in step. It returns the CPU cycles
// consumed.
func (c *Console) StepInstruction() (int, error) {
	if c.cart == nil {
		return 0, ErrNoCartridge
	}
	cycles := c.bus.CPU.Step()
	c.clockPPU(cycles)
	return cycles, nil
}

func (c *Console) clockPPU(cycles int) {
	for i := 0; i < cycles*PPUDotsPerCPUCycle; i++ {
		c.bus.PPU.Clock()
	}
}

// GetFrameBuffer returns the 256x240 RGB frame, 3 bytes per pixel. The
// slice is owned by the PPU and changes as emulation continues.
func (c *Console) GetFrameBuffer() []uint8 {
	return c.bus.PPU.FrameBuffer()
}

// GetFrameCount returns the number of frames completed since reset.
func (c *Console) GetFrameCount() uint64 {
	return c.bus.PPU.FrameCount()
}

// Cycles returns the CPU cycles elapsed since reset.
func (c *Console) Cycles() uint64 {
	return c.bus.CPU.Cycles()
}

// Bus returns the system bus.
func (c *Console) Bus() *bus.Bus {
	return c.bus
}

// CPU returns the processor.
func (c *Console) CPU() *cpu.CPU {
	return c.bus.CPU
}

// PPU returns the picture processor.
func (c *Console) PPU() *ppu.PPU {
	return c.bus.PPU
}

// Controllers returns the controller ports.
func (c *Console) Controllers() *input.Controllers {
	return c.bus.Controllers
}

// Cartridge returns the inserted cartridge, or nil.
func (c *Console) Cartridge() *cartridge.Cartridge {
	return c.cart
}

// ROMPath returns the file the cartridge came from, empty when it was
// loaded from a reader.
func (c *Console) ROMPath() string {
	return c.path
}
