// Package ppu implements the Picture Processing Unit for the NES.
package ppu

import (
	"qnes/internal/logger"
	"qnes/internal/memory"
)

// Frame geometry
const (
	Width  = 256
	Height = 240

	// FrameBufferSize is the RGB frame in bytes, three per pixel.
	FrameBufferSize = Width * Height * 3

	CyclesPerScanline = 341
	ScanlinesPerFrame = 262
)

// Scanline landmarks
const (
	postRenderScanline = 240
	vblankScanline     = 241
	preRenderScanline  = 261
)

// PPUCTRL bits
const (
	ctrlNametable       uint8 = 0x03
	ctrlIncrement32     uint8 = 0x04
	ctrlSpritePattern   uint8 = 0x08
	ctrlBackgroundTable uint8 = 0x10
	ctrlTallSprites     uint8 = 0x20
	ctrlNMIEnable       uint8 = 0x80
)

// PPUMASK bits
const (
	maskGreyscale      uint8 = 0x01
	maskBackgroundLeft uint8 = 0x02
	maskSpritesLeft    uint8 = 0x04
	maskBackground     uint8 = 0x08
	maskSprites        uint8 = 0x10
)

// PPUSTATUS bits
const (
	statusOverflow   uint8 = 0x20
	statusSpriteZero uint8 = 0x40
	statusVBlank     uint8 = 0x80
)

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	// CPU-visible registers
	ppuCtrl   uint8 // $2000
	ppuMask   uint8 // $2001
	ppuStatus uint8 // $2002, top three bits only
	oamAddr   uint8 // $2003

	// write toggle shared by PPUSCROLL and PPUADDR; false expects the
	// first write
	addressLatch bool
	scrollX      uint8
	scrollY      uint8
	vramAddr     uint16 // 14-bit
	tempAddr     uint16 // high byte staged by the first PPUADDR write
	readBuffer   uint8  // PPUDATA delayed read
	busLatch     uint8  // last value written to any register

	// set when an NMI has been raised for the current vblank
	nmiLatch bool

	pixelX int // 0-340
	pixelY int // 0-261

	frameCount uint64

	memory *memory.PPUMemory
	oam    [256]uint8

	// sprites whose rows cover the scanline being drawn, in OAM order
	lineSprites []uint8

	frameBuffer [FrameBufferSize]uint8

	nmiCallback           func()
	frameCompleteCallback func()
}

// New creates a PPU drawing from mem.
func New(mem *memory.PPUMemory) *PPU {
	p := &PPU{
		memory:      mem,
		lineSprites: make([]uint8, 0, 64),
	}
	p.Reset()
	return p
}

// Reset returns registers and counters to power-on values. VRAM and OAM
// are left alone.
func (p *PPU) Reset() {
	p.ppuCtrl = 0
	p.ppuMask = 0
	p.ppuStatus = 0
	p.oamAddr = 0
	p.addressLatch = false
	p.scrollX = 0
	p.scrollY = 0
	p.vramAddr = 0
	p.tempAddr = 0
	p.readBuffer = 0
	p.busLatch = 0
	p.nmiLatch = false
	p.pixelX = 0
	p.pixelY = 0
	p.frameCount = 0
	p.lineSprites = p.lineSprites[:0]
}

// SetMemory replaces the PPU address space
func (p *PPU) SetMemory(mem *memory.PPUMemory) {
	p.memory = mem
}

// SetNMICallback sets the function raised when an NMI should reach the CPU
func (p *PPU) SetNMICallback(callback func()) {
	p.nmiCallback = callback
}

// SetFrameCompleteCallback sets the function called once per frame
func (p *PPU) SetFrameCompleteCallback(callback func()) {
	p.frameCompleteCallback = callback
}

func (p *PPU) raiseNMI() {
	p.nmiLatch = true
	if p.nmiCallback != nil {
		p.nmiCallback()
	}
}

// Clock advances the PPU by one dot. It returns true on the dot that wraps
// the scanline counter from 261 back to 0, which happens exactly once per
// 341*262 dots.
func (p *PPU) Clock() bool {
	if p.pixelX == 1 {
		switch p.pixelY {
		case vblankScanline:
			p.ppuStatus |= statusVBlank
			if p.ppuCtrl&ctrlNMIEnable != 0 && !p.nmiLatch {
				p.raiseNMI()
			}
		case preRenderScanline:
			p.ppuStatus &^= statusVBlank | statusSpriteZero | statusOverflow
			p.nmiLatch = false
		}
	}

	if p.pixelY < postRenderScanline {
		if p.pixelX == 0 {
			p.evaluateSprites(p.pixelY)
		} else if p.pixelX <= Width {
			p.renderPixel(p.pixelX-1, p.pixelY)
		}
	}

	p.pixelX++
	if p.pixelX < CyclesPerScanline {
		return false
	}
	p.pixelX = 0
	p.pixelY++
	if p.pixelY < ScanlinesPerFrame {
		return false
	}

	p.pixelY = 0
	p.frameCount++
	if p.frameCompleteCallback != nil {
		p.frameCompleteCallback()
	}
	return true
}

// ReadRegister reads from a PPU register (CPU $2000-$2007)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch 0x2000 | address&0x0007 {
	case 0x2002: // PPUSTATUS
		result := p.ppuStatus&0xE0 | p.busLatch&0x1F
		p.ppuStatus &^= statusVBlank
		p.addressLatch = false
		return result
	case 0x2004: // OAMDATA
		return p.oam[p.oamAddr]
	case 0x2007: // PPUDATA
		return p.readData()
	default:
		// write-only registers return the open bus value
		return p.busLatch
	}
}

// PeekRegister returns what ReadRegister would without side effects.
func (p *PPU) PeekRegister(address uint16) uint8 {
	switch 0x2000 | address&0x0007 {
	case 0x2000:
		return p.ppuCtrl
	case 0x2001:
		return p.ppuMask
	case 0x2002:
		return p.ppuStatus&0xE0 | p.busLatch&0x1F
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		if p.vramAddr&0x3FFF >= 0x3F00 {
			return p.memory.Read(p.vramAddr)
		}
		return p.readBuffer
	default:
		return p.busLatch
	}
}

// WriteRegister writes to a PPU register (CPU $2000-$2007)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.busLatch = value

	switch 0x2000 | address&0x0007 {
	case 0x2000: // PPUCTRL
		enabling := p.ppuCtrl&ctrlNMIEnable == 0 && value&ctrlNMIEnable != 0
		p.ppuCtrl = value
		if enabling && p.ppuStatus&statusVBlank != 0 && !p.nmiLatch {
			p.raiseNMI()
		}
	case 0x2001: // PPUMASK
		p.ppuMask = value
	case 0x2002: // PPUSTATUS
		logger.Logf("PPU", "write $%02X to read-only PPUSTATUS ignored", value)
	case 0x2003: // OAMADDR
		p.oamAddr = value
	case 0x2004: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005: // PPUSCROLL
		if !p.addressLatch {
			p.scrollX = value
		} else {
			p.scrollY = value
		}
		p.addressLatch = !p.addressLatch
	case 0x2006: // PPUADDR
		if !p.addressLatch {
			p.tempAddr = uint16(value&0x3F) << 8
		} else {
			p.vramAddr = p.tempAddr | uint16(value)
		}
		p.addressLatch = !p.addressLatch
	case 0x2007: // PPUDATA
		p.memory.Write(p.vramAddr, value)
		p.incrementAddress()
	}
}

// readData returns the delayed PPUDATA value. Palette reads bypass the
// delay; either way the buffer is refilled with the byte just read.
func (p *PPU) readData() uint8 {
	address := p.vramAddr & 0x3FFF
	value := p.memory.Read(address)

	result := p.readBuffer
	if address >= 0x3F00 {
		result = value
	}
	p.readBuffer = value
	p.incrementAddress()
	return result
}

func (p *PPU) incrementAddress() {
	if p.ppuCtrl&ctrlIncrement32 != 0 {
		p.vramAddr += 32
	} else {
		p.vramAddr++
	}
	p.vramAddr &= 0x3FFF
}

// OAMDMA copies a 256-byte CPU page into OAM starting at OAMADDR, which
// wraps and ends where it started.
func (p *PPU) OAMDMA(page uint8, read func(address uint16) uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		p.oam[p.oamAddr] = read(base | i)
		p.oamAddr++
	}
}

// FrameBuffer returns the RGB frame. The slice aliases PPU memory and is
// rewritten as the next frame renders.
func (p *PPU) FrameBuffer() []uint8 {
	return p.frameBuffer[:]
}

// FrameCount returns the number of completed frames
func (p *PPU) FrameCount() uint64 {
	return p.frameCount
}

// Scanline returns the current scanline (0-261)
func (p *PPU) Scanline() int {
	return p.pixelY
}

// Cycle returns the current dot within the scanline (0-340)
func (p *PPU) Cycle() int {
	return p.pixelX
}

// IsVBlank reports the VerticalBlank status bit.
func (p *PPU) IsVBlank() bool {
	return p.ppuStatus&statusVBlank != 0
}

// OAM returns a copy of sprite memory.
func (p *PPU) OAM() []uint8 {
	out := make([]uint8, len(p.oam))
	copy(out, p.oam[:])
	return out
}

// State is a serialisable copy of the PPU registers, counters, OAM and
// VRAM.
type State struct {
	PixelX       int     `json:"pixel_x"`
	PixelY       int     `json:"pixel_y"`
	Ctrl         uint8   `json:"ctrl"`
	Mask         uint8   `json:"mask"`
	Status       uint8   `json:"status"`
	OAMAddr      uint8   `json:"oam_addr"`
	AddressLatch bool    `json:"address_latch"`
	NMILatch     bool    `json:"nmi_latch"`
	ScrollX      uint8   `json:"scroll_x"`
	ScrollY      uint8   `json:"scroll_y"`
	VRAMAddr     uint16  `json:"vram_addr"`
	TempAddr     uint16  `json:"temp_addr"`
	ReadBuffer   uint8   `json:"read_buffer"`
	FrameCount   uint64  `json:"frame_count"`
	OAM          []uint8 `json:"oam"`
	Nametables   []uint8 `json:"nametables"`
	Palette      []uint8 `json:"palette"`
}

// State captures the PPU.
func (p *PPU) State() State {
	return State{
		PixelX:       p.pixelX,
		PixelY:       p.pixelY,
		Ctrl:         p.ppuCtrl,
		Mask:         p.ppuMask,
		Status:       p.ppuStatus,
		OAMAddr:      p.oamAddr,
		AddressLatch: p.addressLatch,
		NMILatch:     p.nmiLatch,
		ScrollX:      p.scrollX,
		ScrollY:      p.scrollY,
		VRAMAddr:     p.vramAddr,
		TempAddr:     p.tempAddr,
		ReadBuffer:   p.readBuffer,
		FrameCount:   p.frameCount,
		OAM:          p.OAM(),
		Nametables:   p.memory.Nametables(),
		Palette:      p.memory.Palette(),
	}
}

// SetState restores a State. Counters are clamped into range.
func (p *PPU) SetState(s State) {
	p.pixelX = clamp(s.PixelX, CyclesPerScanline-1)
	p.pixelY = clamp(s.PixelY, ScanlinesPerFrame-1)
	p.ppuCtrl = s.Ctrl
	p.ppuMask = s.Mask
	p.ppuStatus = s.Status & 0xE0
	p.oamAddr = s.OAMAddr
	p.addressLatch = s.AddressLatch
	p.nmiLatch = s.NMILatch
	p.scrollX = s.ScrollX
	p.scrollY = s.ScrollY
	p.vramAddr = s.VRAMAddr & 0x3FFF
	p.tempAddr = s.TempAddr & 0x3FFF
	p.readBuffer = s.ReadBuffer
	p.frameCount = s.FrameCount
	p.oam = [256]uint8{}
	copy(p.oam[:], s.OAM)
	p.memory.Load(s.Nametables, s.Palette)

	// rebuild the sprite list for the line in progress
	if p.pixelY < postRenderScanline {
		p.evaluateSprites(p.pixelY)
	}
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
