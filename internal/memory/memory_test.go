package memory

import (
	"testing"

	"qnes/internal/cartridge"
)

// MockCartridge is a minimal CHR source with 8KB of writable pattern data.
type MockCartridge struct {
	chr       [0x2000]uint8
	mirroring cartridge.Mirroring
	readOnly  bool
}

func (m *MockCartridge) PPURead(address uint16) (uint8, bool) {
	if address < 0x2000 {
		return m.chr[address], true
	}
	return 0, false
}

func (m *MockCartridge) PPUWrite(address uint16, value uint8) bool {
	if address < 0x2000 && !m.readOnly {
		m.chr[address] = value
		return true
	}
	return false
}

func (m *MockCartridge) Mirroring() cartridge.Mirroring {
	return m.mirroring
}

var allModes = []cartridge.Mirroring{
	cartridge.MirrorHorizontal,
	cartridge.MirrorVertical,
	cartridge.MirrorSingleScreenLow,
	cartridge.MirrorSingleScreenHigh,
	cartridge.MirrorFourScreen,
}

func TestNametableMirroring_Idempotent(t *testing.T) {
	for _, mode := range allModes {
		for address := uint16(0x2000); address < 0x3F00; address++ {
			once := NametableMirroring(address, mode)
			twice := NametableMirroring(once, mode)
			if once != twice {
				t.Fatalf("%v: folding 0x%04X gave 0x%04X then 0x%04X", mode, address, once, twice)
			}
			if once < 0x2000 || once >= 0x3000 {
				t.Fatalf("%v: 0x%04X folded outside nametable space to 0x%04X", mode, address, once)
			}
		}
	}
}

func TestNametableMirroring_TwoPhysicalRegions(t *testing.T) {
	tests := []struct {
		mode     cartridge.Mirroring
		expected [4]uint16
	}{
		{cartridge.MirrorHorizontal, [4]uint16{0x2000, 0x2000, 0x2800, 0x2800}},
		{cartridge.MirrorVertical, [4]uint16{0x2000, 0x2400, 0x2000, 0x2400}},
		{cartridge.MirrorSingleScreenLow, [4]uint16{0x2000, 0x2000, 0x2000, 0x2000}},
		{cartridge.MirrorSingleScreenHigh, [4]uint16{0x2400, 0x2400, 0x2400, 0x2400}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			for i, base := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
				if got := NametableMirroring(base+0x123, tt.mode); got != tt.expected[i]+0x123 {
					t.Errorf("Nametable %d: expected 0x%04X, got 0x%04X", i, tt.expected[i]+0x123, got)
				}
			}
		})
	}

	for _, mode := range []cartridge.Mirroring{cartridge.MirrorHorizontal, cartridge.MirrorVertical} {
		pm := NewPPUMemory(&MockCartridge{mirroring: mode})
		regions := map[int]bool{}
		for _, base := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
			regions[pm.nametableIndex(base)/0x400] = true
		}
		if len(regions) != 2 {
			t.Errorf("%v: expected 2 physical regions, got %d", mode, len(regions))
		}
	}
}

func TestPPUMemory_NametableWritesShareRAM(t *testing.T) {
	tests := []struct {
		name   string
		mode   cartridge.Mirroring
		write  uint16
		mirror uint16
		other  uint16
	}{
		{"horizontal top", cartridge.MirrorHorizontal, 0x2010, 0x2410, 0x2810},
		{"horizontal bottom", cartridge.MirrorHorizontal, 0x2C10, 0x2810, 0x2410},
		{"vertical left", cartridge.MirrorVertical, 0x2010, 0x2810, 0x2410},
		{"vertical right", cartridge.MirrorVertical, 0x2C10, 0x2410, 0x2010},
		{"0x3000 mirror", cartridge.MirrorVertical, 0x3010, 0x2010, 0x2410},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := NewPPUMemory(&MockCartridge{mirroring: tt.mode})
			pm.Write(tt.write, 0xA5)

			if v := pm.Read(tt.mirror); v != 0xA5 {
				t.Errorf("Expected mirror 0x%04X to read 0xA5, got 0x%02X", tt.mirror, v)
			}
			if v := pm.Read(tt.other); v != 0x00 {
				t.Errorf("Expected 0x%04X untouched, got 0x%02X", tt.other, v)
			}
		})
	}
}

func TestPaletteIndex_BackdropAliases(t *testing.T) {
	tests := []struct {
		address  uint16
		expected uint8
	}{
		{0x3F00, 0x00},
		{0x3F10, 0x00},
		{0x3F14, 0x04},
		{0x3F18, 0x08},
		{0x3F1C, 0x0C},
		{0x3F11, 0x11},
		{0x3F1F, 0x1F},
		{0x3F20, 0x00},
		{0x3FFF, 0x1F},
	}

	for _, tt := range tests {
		if got := PaletteIndex(tt.address); got != tt.expected {
			t.Errorf("PaletteIndex(0x%04X): expected 0x%02X, got 0x%02X", tt.address, tt.expected, got)
		}
	}

	pm := NewPPUMemory(nil)
	pm.Write(0x3F10, 0x21)
	if v := pm.Read(0x3F00); v != 0x21 {
		t.Errorf("Expected 0x3F00 to alias 0x3F10, got 0x%02X", v)
	}
	pm.Write(0x3F24, 0x16)
	if v := pm.ReadPalette(0x04); v != 0x16 {
		t.Errorf("Expected palette slot 4 to be 0x16, got 0x%02X", v)
	}
}

func TestPPUMemory_PatternTables(t *testing.T) {
	cart := &MockCartridge{}
	pm := NewPPUMemory(cart)

	pm.Write(0x1FFF, 0x3C)
	if cart.chr[0x1FFF] != 0x3C {
		t.Errorf("Expected CHR write to reach cartridge, got 0x%02X", cart.chr[0x1FFF])
	}
	if v := pm.Read(0x5FFF); v != 0x3C {
		t.Errorf("Expected 14-bit address wrap to 0x1FFF, got 0x%02X", v)
	}

	cart.readOnly = true
	pm.Write(0x1FFF, 0x00)
	if v := pm.Read(0x1FFF); v != 0x3C {
		t.Errorf("Expected refused CHR write to leave 0x3C, got 0x%02X", v)
	}

	if v := NewPPUMemory(nil).Read(0x0000); v != 0 {
		t.Errorf("Expected 0 without a cartridge, got 0x%02X", v)
	}
}

func TestPPUMemory_LoadRoundTrip(t *testing.T) {
	pm := NewPPUMemory(&MockCartridge{mirroring: cartridge.MirrorVertical})
	pm.Write(0x2401, 0x11)
	pm.Write(0x3F05, 0x22)

	other := NewPPUMemory(&MockCartridge{mirroring: cartridge.MirrorVertical})
	other.Load(pm.Nametables(), pm.Palette())

	if v := other.Read(0x2C01); v != 0x11 {
		t.Errorf("Expected nametable byte 0x11, got 0x%02X", v)
	}
	if v := other.Read(0x3F05); v != 0x22 {
		t.Errorf("Expected palette byte 0x22, got 0x%02X", v)
	}

	other.Reset()
	if v := other.Read(0x2C01); v != 0 {
		t.Errorf("Expected Reset to clear nametables, got 0x%02X", v)
	}
}
