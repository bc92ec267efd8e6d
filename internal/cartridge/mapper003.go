package cartridge

import "github.com/pkg/errors"

// Mapper003 implements CNROM (mapper 3): NROM-style fixed PRG and an 8KB
// CHR bank chosen by any write to 0x8000-0xFFFF.
type Mapper003 struct {
	cart     *Cartridge
	selected uint8
}

// NewMapper003 creates a new CNROM mapper
func NewMapper003(cart *Cartridge) *Mapper003 {
	return &Mapper003{cart: cart}
}

// CPURead maps PRG ROM, mirroring a single 16KB bank.
func (m *Mapper003) CPURead(address uint16) (uint8, bool) {
	if address < 0x8000 {
		return 0, false
	}
	offset := int(address-0x8000) & (len(m.cart.prgROM) - 1)
	return m.cart.prgROM[offset], true
}

// CPUWrite selects the CHR bank.
func (m *Mapper003) CPUWrite(address uint16, value uint8) bool {
	if address < 0x8000 {
		return false
	}
	m.selected = value
	return true
}

func (m *Mapper003) chrOffset() int {
	banks := len(m.cart.chrROM) / chrBankSize
	return (int(m.selected) % banks) * chrBankSize
}

// PPURead maps the selected 8KB CHR bank.
func (m *Mapper003) PPURead(address uint16) (uint8, bool) {
	if address < 0x2000 {
		return m.cart.chrROM[m.chrOffset()+int(address)], true
	}
	return 0, false
}

// PPUWrite lands in CHR RAM when the board has it.
func (m *Mapper003) PPUWrite(address uint16, value uint8) bool {
	if address < 0x2000 && m.cart.chrRAM {
		m.cart.chrROM[m.chrOffset()+int(address)] = value
		return true
	}
	return false
}

// Mirroring is fixed by the header.
func (m *Mapper003) Mirroring() Mirroring {
	return m.cart.desc.Mirroring
}

// State captures the bank select and CHR RAM.
func (m *Mapper003) State() MapperState {
	return MapperState{
		Number:    3,
		Registers: []uint8{m.selected},
		CHRRAM:    chrRAMState(m.cart),
	}
}

// Restore loads a state produced by State.
func (m *Mapper003) Restore(state MapperState) error {
	if state.Number != 3 || len(state.Registers) != 1 {
		return errors.Wrapf(ErrMapperState, "state for mapper %d, not 3", state.Number)
	}
	m.selected = state.Registers[0]
	restoreCHRRAM(m.cart, state.CHRRAM)
	return nil
}
