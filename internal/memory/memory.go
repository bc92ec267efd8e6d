// Package memory implements the PPU address space: pattern tables served by
// the cartridge, 2KB of nametable RAM folded by the board's mirroring, and
// 32 bytes of palette RAM.
package memory

import (
	"qnes/internal/cartridge"
)

const (
	nametableSize = 0x0800
	paletteSize   = 0x20
)

// CHRSource is the cartridge side of the PPU bus.
type CHRSource interface {
	PPURead(address uint16) (uint8, bool)
	PPUWrite(address uint16, value uint8) bool
	Mirroring() cartridge.Mirroring
}

// PPUMemory is the 14-bit address space seen by the PPU
type PPUMemory struct {
	nametables [nametableSize]uint8
	palette    [paletteSize]uint8
	cart       CHRSource
}

// NewPPUMemory creates PPU memory backed by cart. A nil cart reads as zero
// pattern data and uses horizontal mirroring.
func NewPPUMemory(cart CHRSource) *PPUMemory {
	return &PPUMemory{cart: cart}
}

// SetCartridge swaps the board that answers pattern-table accesses.
func (pm *PPUMemory) SetCartridge(cart CHRSource) {
	pm.cart = cart
}

// Reset clears nametable and palette RAM.
func (pm *PPUMemory) Reset() {
	pm.nametables = [nametableSize]uint8{}
	pm.palette = [paletteSize]uint8{}
}

// NametableMirroring folds an address in 0x2000-0x3EFF onto the lowest
// logical nametable address that shares its physical RAM. The result is a
// fixed point: folding it again returns the same address.
func NametableMirroring(address uint16, mode cartridge.Mirroring) uint16 {
	address = 0x2000 | address&0x0FFF

	switch mode {
	case cartridge.MirrorHorizontal:
		// $2000=$2400, $2800=$2C00
		return address &^ 0x0400
	case cartridge.MirrorSingleScreenLow:
		return address &^ 0x0C00
	case cartridge.MirrorSingleScreenHigh:
		return address&^0x0C00 | 0x0400
	default:
		// vertical: $2000=$2800, $2400=$2C00. Four-screen boards carry
		// their own extra RAM which is not modelled, so they fold the
		// same way.
		return address &^ 0x0800
	}
}

// PaletteIndex maps 0x3F00-0x3FFF onto the 32 palette slots. The sprite
// backdrop entries 0x10/0x14/0x18/0x1C alias 0x00/0x04/0x08/0x0C.
func PaletteIndex(address uint16) uint8 {
	index := uint8(address & 0x1F)
	if index&0x13 == 0x10 {
		index &^= 0x10
	}
	return index
}

func (pm *PPUMemory) mirroring() cartridge.Mirroring {
	if pm.cart == nil {
		return cartridge.MirrorHorizontal
	}
	return pm.cart.Mirroring()
}

// nametableIndex returns the offset into the 2KB nametable RAM.
func (pm *PPUMemory) nametableIndex(address uint16) int {
	folded := NametableMirroring(address, pm.mirroring())
	offset := int(folded & 0x03FF)
	if folded&0x0C00 != 0 {
		offset += 0x0400
	}
	return offset
}

// Read reads from PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		if pm.cart != nil {
			if value, ok := pm.cart.PPURead(address); ok {
				return value
			}
		}
		return 0
	case address < 0x3F00:
		return pm.nametables[pm.nametableIndex(address)]
	default:
		return pm.palette[PaletteIndex(address)]
	}
}

// Write writes to PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		// CHR ROM refuses the write
		if pm.cart != nil {
			pm.cart.PPUWrite(address, value)
		}
	case address < 0x3F00:
		pm.nametables[pm.nametableIndex(address)] = value
	default:
		pm.palette[PaletteIndex(address)] = value
	}
}

// ReadPalette returns palette slot index (0-31) without address decoding.
func (pm *PPUMemory) ReadPalette(index uint8) uint8 {
	return pm.palette[PaletteIndex(uint16(index))]
}

// Nametables returns a copy of the nametable RAM.
func (pm *PPUMemory) Nametables() []uint8 {
	out := make([]uint8, nametableSize)
	copy(out, pm.nametables[:])
	return out
}

// Palette returns a copy of the palette RAM.
func (pm *PPUMemory) Palette() []uint8 {
	out := make([]uint8, paletteSize)
	copy(out, pm.palette[:])
	return out
}

// Load restores nametable and palette RAM from copies produced by
// Nametables and Palette. Short slices leave the remaining bytes zeroed.
func (pm *PPUMemory) Load(nametables, palette []uint8) {
	pm.Reset()
	copy(pm.nametables[:], nametables)
	copy(pm.palette[:], palette)
}
