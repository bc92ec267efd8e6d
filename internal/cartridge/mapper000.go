package cartridge

import "github.com/pkg/errors"

// Mapper000 implements NROM (mapper 0).
// NROM has no bank switching:
// - 16KB or 32KB PRG ROM at 0x8000-0xFFFF (16KB is mirrored into 0xC000)
// - 8KB CHR ROM, or CHR RAM when the header declares none
// - 8KB PRG RAM at 0x6000-0x7FFF
type Mapper000 struct {
	cart   *Cartridge
	prgRAM [prgRAMSize]uint8
}

// NewMapper000 creates a new NROM mapper
func NewMapper000(cart *Cartridge) *Mapper000 {
	return &Mapper000{cart: cart}
}

// CPURead maps PRG RAM and PRG ROM.
func (m *Mapper000) CPURead(address uint16) (uint8, bool) {
	switch {
	case address >= 0x8000:
		// len(prgROM) is 16KB or 32KB, both powers of two
		offset := int(address-0x8000) & (len(m.cart.prgROM) - 1)
		return m.cart.prgROM[offset], true
	case address >= 0x6000:
		return m.prgRAM[address-0x6000], true
	}
	return 0, false
}

// CPUWrite stores into PRG RAM. Writes into ROM space are claimed and
// dropped.
func (m *Mapper000) CPUWrite(address uint16, value uint8) bool {
	switch {
	case address >= 0x8000:
		return true
	case address >= 0x6000:
		m.prgRAM[address-0x6000] = value
		return true
	}
	return false
}

// PPURead maps the 8KB pattern area.
func (m *Mapper000) PPURead(address uint16) (uint8, bool) {
	if address < 0x2000 {
		return m.cart.chrROM[int(address)%len(m.cart.chrROM)], true
	}
	return 0, false
}

// PPUWrite only lands when the board carries CHR RAM.
func (m *Mapper000) PPUWrite(address uint16, value uint8) bool {
	if address < 0x2000 && m.cart.chrRAM {
		m.cart.chrROM[address] = value
		return true
	}
	return false
}

// Mirroring is fixed by the header.
func (m *Mapper000) Mirroring() Mirroring {
	return m.cart.desc.Mirroring
}

// State captures PRG RAM and CHR RAM.
func (m *Mapper000) State() MapperState {
	return MapperState{
		Number: 0,
		PRGRAM: append([]uint8(nil), m.prgRAM[:]...),
		CHRRAM: chrRAMState(m.cart),
	}
}

// Restore loads a state produced by State.
func (m *Mapper000) Restore(state MapperState) error {
	if state.Number != 0 {
		return errors.Wrapf(ErrMapperState, "state for mapper %d, not 0", state.Number)
	}
	copy(m.prgRAM[:], state.PRGRAM)
	restoreCHRRAM(m.cart, state.CHRRAM)
	return nil
}

func chrRAMState(cart *Cartridge) []uint8 {
	if !cart.chrRAM {
		return nil
	}
	return append([]uint8(nil), cart.chrROM...)
}

func restoreCHRRAM(cart *Cartridge, data []uint8) {
	if cart.chrRAM {
		copy(cart.chrROM, data)
	}
}
