package cartridge

import "github.com/pkg/errors"

// Mapper001 implements MMC1 (mapper 1).
//
// CPU writes to 0x8000-0xFFFF feed a 5-bit serial shift register. The fifth
// write latches the collected value into the register picked by address:
//
//	0x8000-0x9FFF  control   (mirroring, PRG mode, CHR mode)
//	0xA000-0xBFFF  CHR bank 0
//	0xC000-0xDFFF  CHR bank 1
//	0xE000-0xFFFF  PRG bank
//
// A write with bit 7 set clears the shift register and forces PRG mode 3.
type Mapper001 struct {
	cart   *Cartridge
	prgRAM [prgRAMSize]uint8

	shift      uint8
	shiftCount uint8

	control    uint8
	chr0Select uint8
	chr1Select uint8
	prgSelect  uint8

	prgOffsets [2]int
	chrOffsets [2]int
}

// NewMapper001 creates an MMC1 board in PRG mode 3, with the header's
// mirroring encoded into the control register.
func NewMapper001(cart *Cartridge) *Mapper001 {
	m := &Mapper001{cart: cart, control: 0x0C}
	switch cart.desc.Mirroring {
	case MirrorVertical:
		m.control |= 0x02
	default:
		m.control |= 0x03
	}
	m.updateOffsets()
	return m
}

// CPURead maps PRG RAM and the two 16KB PRG windows.
func (m *Mapper001) CPURead(address uint16) (uint8, bool) {
	switch {
	case address >= 0x8000:
		bank := (address - 0x8000) / 0x4000
		offset := m.prgOffsets[bank] + int(address&0x3FFF)
		return m.cart.prgROM[offset], true
	case address >= 0x6000:
		return m.prgRAM[address-0x6000], true
	}
	return 0, false
}

// CPUWrite handles PRG RAM and the serial register port.
func (m *Mapper001) CPUWrite(address uint16, value uint8) bool {
	if address < 0x6000 {
		return false
	}

	if address < 0x8000 {
		m.prgRAM[address-0x6000] = value
		return true
	}

	if value&0x80 != 0 {
		m.shift = 0
		m.shiftCount = 0
		m.control |= 0x0C
		m.updateOffsets()
		return true
	}

	m.shift >>= 1
	m.shift |= (value & 1) << 4
	m.shiftCount++

	if m.shiftCount == 5 {
		m.writeRegister(address, m.shift&0x1F)
		m.shift = 0
		m.shiftCount = 0
	}
	return true
}

func (m *Mapper001) writeRegister(address uint16, value uint8) {
	switch {
	case address < 0xA000:
		m.control = value
	case address < 0xC000:
		m.chr0Select = value
	case address < 0xE000:
		m.chr1Select = value
	default:
		// bit 4 is the PRG RAM chip enable, which this board ignores
		m.prgSelect = value & 0x0F
	}
	m.updateOffsets()
}

// updateOffsets recomputes the byte offsets of every window from the
// control and bank registers. Bank numbers are reduced modulo the number of
// banks present so offsets never leave the ROM.
func (m *Mapper001) updateOffsets() {
	chr4KBanks := len(m.cart.chrROM) / 0x1000
	if m.control&0x10 == 0 {
		// one 8KB bank, low bit ignored
		bank := int(m.chr0Select&0x1E) % chr4KBanks
		m.chrOffsets[0] = bank * 0x1000
		m.chrOffsets[1] = m.chrOffsets[0] + 0x1000
		if m.chrOffsets[1] >= len(m.cart.chrROM) {
			m.chrOffsets[1] = 0x1000 * (chr4KBanks - 1)
		}
	} else {
		m.chrOffsets[0] = 0x1000 * (int(m.chr0Select&0x1F) % chr4KBanks)
		m.chrOffsets[1] = 0x1000 * (int(m.chr1Select&0x1F) % chr4KBanks)
	}

	prgBanks := len(m.cart.prgROM) / prgBankSize
	switch (m.control >> 2) & 0x03 {
	case 0, 1:
		// 32KB at 0x8000, low bit ignored
		bank := int(m.prgSelect&0x0E) % prgBanks
		m.prgOffsets[0] = bank * prgBankSize
		m.prgOffsets[1] = m.prgOffsets[0] + prgBankSize
		if m.prgOffsets[1] >= len(m.cart.prgROM) {
			m.prgOffsets[1] = m.prgOffsets[0]
		}
	case 2:
		// first bank fixed at 0x8000, switch 0xC000
		m.prgOffsets[0] = 0
		m.prgOffsets[1] = prgBankSize * (int(m.prgSelect) % prgBanks)
	case 3:
		// switch 0x8000, last bank fixed at 0xC000
		m.prgOffsets[0] = prgBankSize * (int(m.prgSelect) % prgBanks)
		m.prgOffsets[1] = prgBankSize * (prgBanks - 1)
	}
}

// PPURead maps the two 4KB pattern windows.
func (m *Mapper001) PPURead(address uint16) (uint8, bool) {
	if address < 0x2000 {
		bank := address / 0x1000
		return m.cart.chrROM[m.chrOffsets[bank]+int(address&0x0FFF)], true
	}
	return 0, false
}

// PPUWrite lands in CHR RAM when the board has it.
func (m *Mapper001) PPUWrite(address uint16, value uint8) bool {
	if address < 0x2000 && m.cart.chrRAM {
		bank := address / 0x1000
		m.cart.chrROM[m.chrOffsets[bank]+int(address&0x0FFF)] = value
		return true
	}
	return false
}

// Mirroring follows the low two bits of the control register.
func (m *Mapper001) Mirroring() Mirroring {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleScreenLow
	case 1:
		return MirrorSingleScreenHigh
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

// State captures the serial port, the four registers and PRG/CHR RAM.
func (m *Mapper001) State() MapperState {
	return MapperState{
		Number:    1,
		Registers: []uint8{m.shift, m.shiftCount, m.control, m.chr0Select, m.chr1Select, m.prgSelect},
		PRGRAM:    append([]uint8(nil), m.prgRAM[:]...),
		CHRRAM:    chrRAMState(m.cart),
	}
}

// Restore loads a state produced by State.
func (m *Mapper001) Restore(state MapperState) error {
	if state.Number != 1 {
		return errors.Wrapf(ErrMapperState, "state for mapper %d, not 1", state.Number)
	}
	if len(state.Registers) != 6 {
		return errors.Wrapf(ErrMapperState, "mapper 1 state has %d registers, expected 6", len(state.Registers))
	}
	r := state.Registers
	m.shift, m.shiftCount = r[0], r[1]
	m.control, m.chr0Select, m.chr1Select, m.prgSelect = r[2], r[3], r[4], r[5]
	copy(m.prgRAM[:], state.PRGRAM)
	restoreCHRRAM(m.cart, state.CHRRAM)
	m.updateOffsets()
	return nil
}
