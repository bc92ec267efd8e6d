package cartridge

import "github.com/pkg/errors"

// Mapper002 implements UNROM (mapper 2): a switchable 16KB bank at 0x8000
// and the last bank hard-wired at 0xC000. Any write to 0x8000-0xFFFF
// selects the low bank. Boards of this family usually carry CHR RAM.
type Mapper002 struct {
	cart     *Cartridge
	selected uint8
}

// NewMapper002 creates a new UNROM mapper
func NewMapper002(cart *Cartridge) *Mapper002 {
	return &Mapper002{cart: cart}
}

func (m *Mapper002) banks() int {
	return len(m.cart.prgROM) / prgBankSize
}

// CPURead maps the switchable and fixed windows.
func (m *Mapper002) CPURead(address uint16) (uint8, bool) {
	if address < 0x8000 {
		return 0, false
	}
	bank := int(m.selected) % m.banks()
	if address >= 0xC000 {
		bank = m.banks() - 1
	}
	return m.cart.prgROM[bank*prgBankSize+int(address&0x3FFF)], true
}

// CPUWrite selects the bank mapped at 0x8000.
func (m *Mapper002) CPUWrite(address uint16, value uint8) bool {
	if address < 0x8000 {
		return false
	}
	m.selected = value
	return true
}

// PPURead maps the fixed 8KB pattern area.
func (m *Mapper002) PPURead(address uint16) (uint8, bool) {
	if address < 0x2000 {
		return m.cart.chrROM[int(address)%len(m.cart.chrROM)], true
	}
	return 0, false
}

// PPUWrite lands in CHR RAM when the board has it.
func (m *Mapper002) PPUWrite(address uint16, value uint8) bool {
	if address < 0x2000 && m.cart.chrRAM {
		m.cart.chrROM[address] = value
		return true
	}
	return false
}

// Mirroring is fixed by the header.
func (m *Mapper002) Mirroring() Mirroring {
	return m.cart.desc.Mirroring
}

// State captures the bank select and CHR RAM.
func (m *Mapper002) State() MapperState {
	return MapperState{
		Number:    2,
		Registers: []uint8{m.selected},
		CHRRAM:    chrRAMState(m.cart),
	}
}

// Restore loads a state produced by State.
func (m *Mapper002) Restore(state MapperState) error {
	if state.Number != 2 || len(state.Registers) != 1 {
		return errors.Wrapf(ErrMapperState, "state for mapper %d, not 2", state.Number)
	}
	m.selected = state.Registers[0]
	restoreCHRRAM(m.cart, state.CHRRAM)
	return nil
}
