package cartridge

import "fmt"

// ROMBuilder assembles iNES images in memory. Tests across the module use
// it instead of shipping binary fixtures.
type ROMBuilder struct {
	prgBanks  uint8
	chrBanks  uint8
	mapper    uint8
	mirroring Mirroring
	battery   bool
	trainer   bool
	prg       []uint8
	chr       []uint8
}

// NewROMBuilder returns a builder for a 16KB PRG / 8KB CHR NROM image whose
// reset, NMI and IRQ vectors all point at 0x8000.
func NewROMBuilder() *ROMBuilder {
	b := &ROMBuilder{prgBanks: 1, chrBanks: 1}
	b.resize()
	b.WithResetVector(0x8000).WithNMIVector(0x8000).WithIRQVector(0x8000)
	return b
}

func (b *ROMBuilder) resize() {
	prg := make([]uint8, int(b.prgBanks)*prgBankSize)
	chr := make([]uint8, int(b.chrBanks)*chrBankSize)

	// keep the vectors and code at the end of the image where the fixed
	// bank lives
	if len(b.prg) > 0 {
		tail := b.prg[len(b.prg)-prgBankSize:]
		copy(prg[len(prg)-prgBankSize:], tail)
		copy(prg, b.prg[:prgBankSize])
	}
	copy(chr, b.chr)
	b.prg, b.chr = prg, chr
}

// WithPRGBanks sets the PRG-ROM size in 16KB units.
func (b *ROMBuilder) WithPRGBanks(n uint8) *ROMBuilder {
	b.prgBanks = n
	b.resize()
	return b
}

// WithCHRBanks sets the CHR-ROM size in 8KB units, 0 selects CHR RAM.
func (b *ROMBuilder) WithCHRBanks(n uint8) *ROMBuilder {
	b.chrBanks = n
	b.resize()
	return b
}

// WithMapper sets the mapper number.
func (b *ROMBuilder) WithMapper(id uint8) *ROMBuilder {
	b.mapper = id
	return b
}

// WithMirroring sets the header mirroring bits.
func (b *ROMBuilder) WithMirroring(m Mirroring) *ROMBuilder {
	b.mirroring = m
	return b
}

// WithBattery sets the battery flag.
func (b *ROMBuilder) WithBattery() *ROMBuilder {
	b.battery = true
	return b
}

// WithTrainer sets the trainer flag and inserts a 512-byte block.
func (b *ROMBuilder) WithTrainer() *ROMBuilder {
	b.trainer = true
	return b
}

// prgOffset translates a CPU address into an offset inside the image,
// assuming bank 0 at 0x8000 and the last bank at 0xC000.
func (b *ROMBuilder) prgOffset(address uint16) int {
	if address >= 0xC000 {
		return len(b.prg) - prgBankSize + int(address-0xC000)
	}
	return int(address-0x8000) % prgBankSize
}

// WithCode writes bytes starting at a CPU address in 0x8000-0xFFFF.
func (b *ROMBuilder) WithCode(address uint16, code ...uint8) *ROMBuilder {
	for i, v := range code {
		b.prg[b.prgOffset(address+uint16(i))] = v
	}
	return b
}

// WithPRGByte writes a raw byte at an offset of the PRG image.
func (b *ROMBuilder) WithPRGByte(offset int, value uint8) *ROMBuilder {
	b.prg[offset] = value
	return b
}

// WithCHR copies pattern data into the CHR image starting at offset.
func (b *ROMBuilder) WithCHR(offset int, data ...uint8) *ROMBuilder {
	copy(b.chr[offset:], data)
	return b
}

func (b *ROMBuilder) withVector(vector, target uint16) *ROMBuilder {
	return b.WithCode(vector, uint8(target), uint8(target>>8))
}

// WithResetVector points 0xFFFC at target.
func (b *ROMBuilder) WithResetVector(target uint16) *ROMBuilder {
	return b.withVector(0xFFFC, target)
}

// WithNMIVector points 0xFFFA at target.
func (b *ROMBuilder) WithNMIVector(target uint16) *ROMBuilder {
	return b.withVector(0xFFFA, target)
}

// WithIRQVector points 0xFFFE at target.
func (b *ROMBuilder) WithIRQVector(target uint16) *ROMBuilder {
	return b.withVector(0xFFFE, target)
}

// Build returns the iNES bytes.
func (b *ROMBuilder) Build() []byte {
	flags6 := (b.mapper & 0x0F) << 4
	switch b.mirroring {
	case MirrorVertical:
		flags6 |= 0x01
	case MirrorFourScreen:
		flags6 |= 0x08
	}
	if b.battery {
		flags6 |= 0x02
	}
	if b.trainer {
		flags6 |= 0x04
	}

	out := []byte{'N', 'E', 'S', 0x1A, b.prgBanks, b.chrBanks, flags6, b.mapper & 0xF0, 0, 0, 0, 0, 0, 0, 0, 0}
	if b.trainer {
		out = append(out, make([]byte, 512)...)
	}
	out = append(out, b.prg...)
	if b.chrBanks > 0 {
		out = append(out, b.chr...)
	}
	return out
}

// BuildCartridge builds and loads the image.
func (b *ROMBuilder) BuildCartridge() (*Cartridge, error) {
	cart, err := LoadFromBytes(b.Build())
	if err != nil {
		return nil, fmt.Errorf("test ROM: %w", err)
	}
	return cart, nil
}
