package ppu

import (
	"testing"

	"qnes/internal/cartridge"
	"qnes/internal/memory"
)

// MockCartridge implements memory.CHRSource with 8KB of pattern RAM
type MockCartridge struct {
	chrData   [0x2000]uint8
	mirroring cartridge.Mirroring
}

func (m *MockCartridge) PPURead(address uint16) (uint8, bool) {
	if address < 0x2000 {
		return m.chrData[address], true
	}
	return 0, false
}

func (m *MockCartridge) PPUWrite(address uint16, value uint8) bool {
	if address < 0x2000 {
		m.chrData[address] = value
		return true
	}
	return false
}

func (m *MockCartridge) Mirroring() cartridge.Mirroring {
	return m.mirroring
}

// SetTileRow sets both bit planes of one row of a tile.
func (m *MockCartridge) SetTileRow(table uint16, tile uint8, row int, lo, hi uint8) {
	base := table + uint16(tile)*16 + uint16(row)
	m.chrData[base] = lo
	m.chrData[base+8] = hi
}

// SetTileSolid fills a tile with a single 2-bit colour.
func (m *MockCartridge) SetTileSolid(table uint16, tile uint8, colour uint8) {
	var lo, hi uint8
	if colour&1 != 0 {
		lo = 0xFF
	}
	if colour&2 != 0 {
		hi = 0xFF
	}
	for row := 0; row < 8; row++ {
		m.SetTileRow(table, tile, row, lo, hi)
	}
}

// PPUTestHelper bundles a PPU with its memory and cartridge
type PPUTestHelper struct {
	PPU    *PPU
	Memory *memory.PPUMemory
	Cart   *MockCartridge
	NMIs   int
}

func NewPPUTestHelper() *PPUTestHelper {
	cart := &MockCartridge{}
	mem := memory.NewPPUMemory(cart)
	h := &PPUTestHelper{PPU: New(mem), Memory: mem, Cart: cart}
	h.PPU.SetNMICallback(func() { h.NMIs++ })
	return h
}

// SetAddress performs the two PPUADDR writes
func (h *PPUTestHelper) SetAddress(address uint16) {
	h.PPU.WriteRegister(0x2006, uint8(address>>8))
	h.PPU.WriteRegister(0x2006, uint8(address))
}

// WriteData writes bytes through PPUDATA starting at address
func (h *PPUTestHelper) WriteData(address uint16, values ...uint8) {
	h.SetAddress(address)
	for _, v := range values {
		h.PPU.WriteRegister(0x2007, v)
	}
}

// RunTo clocks until the PPU sits on (scanline, dot) without processing it
func (h *PPUTestHelper) RunTo(scanline, dot int) {
	for h.PPU.Scanline() != scanline || h.PPU.Cycle() != dot {
		h.PPU.Clock()
	}
}

// PixelRGB returns the frame buffer colour at (x, y)
func (h *PPUTestHelper) PixelRGB(x, y int) uint32 {
	fb := h.PPU.FrameBuffer()
	o := (y*Width + x) * 3
	return uint32(fb[o])<<16 | uint32(fb[o+1])<<8 | uint32(fb[o+2])
}

func (h *PPUTestHelper) AssertPixel(t *testing.T, x, y int, expected uint32) {
	t.Helper()
	if got := h.PixelRGB(x, y); got != expected {
		t.Errorf("Pixel (%d,%d): expected 0x%06X, got 0x%06X", x, y, expected, got)
	}
}

func TestFrameTiming_ExactlyOnePerFrame(t *testing.T) {
	h := NewPPUTestHelper()
	callbacks := 0
	h.PPU.SetFrameCompleteCallback(func() { callbacks++ })

	const dots = CyclesPerScanline * ScanlinesPerFrame
	for frame := 1; frame <= 2; frame++ {
		completions := 0
		for i := 0; i < dots; i++ {
			if h.PPU.Clock() {
				completions++
				if i != dots-1 {
					t.Errorf("Frame %d completed early at dot %d", frame, i)
				}
			}
		}
		if completions != 1 {
			t.Errorf("Frame %d: expected 1 completion, got %d", frame, completions)
		}
		if h.PPU.FrameCount() != uint64(frame) {
			t.Errorf("Expected frame count %d, got %d", frame, h.PPU.FrameCount())
		}
	}
	if callbacks != 2 {
		t.Errorf("Expected 2 frame callbacks, got %d", callbacks)
	}
	if h.PPU.Scanline() != 0 || h.PPU.Cycle() != 0 {
		t.Errorf("Expected counters at (0,0), got (%d,%d)", h.PPU.Scanline(), h.PPU.Cycle())
	}
}

func TestVBlank_SetAndCleared(t *testing.T) {
	h := NewPPUTestHelper()

	h.RunTo(241, 1)
	if h.PPU.IsVBlank() {
		t.Fatal("Expected VerticalBlank clear before (241,1)")
	}
	h.PPU.Clock()
	if !h.PPU.IsVBlank() {
		t.Fatal("Expected VerticalBlank set at (241,1)")
	}

	h.PPU.ppuStatus |= statusSpriteZero
	h.RunTo(261, 1)
	if !h.PPU.IsVBlank() {
		t.Fatal("Expected VerticalBlank to last until pre-render")
	}
	h.PPU.Clock()
	if h.PPU.IsVBlank() || h.PPU.ppuStatus&statusSpriteZero != 0 {
		t.Errorf("Expected pre-render to clear flags, status 0x%02X", h.PPU.ppuStatus)
	}
}

func TestNMI_OnVBlankEnter(t *testing.T) {
	h := NewPPUTestHelper()
	h.PPU.WriteRegister(0x2000, 0x80)

	for frame := 0; frame < 3; frame++ {
		for !h.PPU.Clock() {
		}
	}
	if h.NMIs != 3 {
		t.Errorf("Expected one NMI per frame, got %d over 3 frames", h.NMIs)
	}

	h.PPU.WriteRegister(0x2000, 0x00)
	for !h.PPU.Clock() {
	}
	if h.NMIs != 3 {
		t.Errorf("Expected no NMI with NMI-enable clear, got %d", h.NMIs)
	}
}

func TestNMI_EnableDuringVBlank(t *testing.T) {
	h := NewPPUTestHelper()
	h.RunTo(241, 2)
	if h.NMIs != 0 {
		t.Fatalf("Expected no NMI while disabled, got %d", h.NMIs)
	}

	h.PPU.WriteRegister(0x2000, 0x80)
	if h.NMIs != 1 {
		t.Fatalf("Expected exactly one NMI on enable, got %d", h.NMIs)
	}

	h.PPU.WriteRegister(0x2000, 0x80)
	h.PPU.WriteRegister(0x2000, 0x00)
	h.PPU.WriteRegister(0x2000, 0x80)
	if h.NMIs != 1 {
		t.Errorf("Expected no second NMI in the same vblank, got %d", h.NMIs)
	}

	// latch resets at pre-render; the next vblank fires again
	h.RunTo(0, 0)
	h.RunTo(241, 2)
	if h.NMIs != 2 {
		t.Errorf("Expected NMI on the next vblank, got %d", h.NMIs)
	}
}

func TestNMI_StatusReadPreventsLateEnable(t *testing.T) {
	h := NewPPUTestHelper()
	h.RunTo(241, 2)

	h.PPU.ReadRegister(0x2002)
	h.PPU.WriteRegister(0x2000, 0x80)
	if h.NMIs != 0 {
		t.Errorf("Expected no NMI after VerticalBlank was read, got %d", h.NMIs)
	}
}

func TestPPUSTATUS_ReadClearsVBlankAndLatch(t *testing.T) {
	h := NewPPUTestHelper()
	h.RunTo(241, 2)

	h.PPU.WriteRegister(0x2006, 0x12) // leaves the toggle expecting the low byte
	status := h.PPU.ReadRegister(0x2002)
	if status&0x80 == 0 {
		t.Errorf("Expected VerticalBlank in status read, got 0x%02X", status)
	}
	if h.PPU.IsVBlank() {
		t.Error("Expected VerticalBlank cleared by the read")
	}
	if again := h.PPU.ReadRegister(0x2002); again&0x80 != 0 {
		t.Errorf("Expected second read to see VerticalBlank clear, got 0x%02X", again)
	}

	// the next PPUADDR write is the high byte again
	h.PPU.WriteRegister(0x2006, 0x23)
	h.PPU.WriteRegister(0x2006, 0x45)
	if h.PPU.vramAddr != 0x2345 {
		t.Errorf("Expected VRAM address 0x2345, got 0x%04X", h.PPU.vramAddr)
	}
}

func TestPPUADDR_HighByteMasked(t *testing.T) {
	h := NewPPUTestHelper()
	h.SetAddress(0xFFFF)
	if h.PPU.vramAddr != 0x3FFF {
		t.Errorf("Expected 0x3FFF, got 0x%04X", h.PPU.vramAddr)
	}
}

func TestPPUSCROLL_Toggle(t *testing.T) {
	h := NewPPUTestHelper()
	h.PPU.WriteRegister(0x2005, 0x10)
	h.PPU.WriteRegister(0x2005, 0x20)
	h.PPU.WriteRegister(0x2005, 0x30)

	if h.PPU.scrollX != 0x30 || h.PPU.scrollY != 0x20 {
		t.Errorf("Expected X=0x30 Y=0x20, got X=0x%02X Y=0x%02X", h.PPU.scrollX, h.PPU.scrollY)
	}
}

func TestPPUDATA_BufferedRead(t *testing.T) {
	h := NewPPUTestHelper()
	h.WriteData(0x2000, 0xAA, 0xBB)

	h.SetAddress(0x2000)
	if v := h.PPU.ReadRegister(0x2007); v != 0x00 {
		t.Errorf("Expected stale buffer 0x00, got 0x%02X", v)
	}
	if v := h.PPU.ReadRegister(0x2007); v != 0xAA {
		t.Errorf("Expected 0xAA, got 0x%02X", v)
	}
	if v := h.PPU.ReadRegister(0x2007); v != 0xBB {
		t.Errorf("Expected 0xBB, got 0x%02X", v)
	}
	if h.PPU.vramAddr != 0x2003 {
		t.Errorf("Expected address 0x2003, got 0x%04X", h.PPU.vramAddr)
	}
}

func TestPPUDATA_PaletteReadImmediate(t *testing.T) {
	h := NewPPUTestHelper()
	h.WriteData(0x3F00, 0x21, 0x22)

	h.SetAddress(0x3F01)
	if v := h.PPU.ReadRegister(0x2007); v != 0x22 {
		t.Errorf("Expected immediate palette value 0x22, got 0x%02X", v)
	}
	if h.PPU.readBuffer != 0x22 {
		t.Errorf("Expected buffer refilled with 0x22, got 0x%02X", h.PPU.readBuffer)
	}
	if h.PPU.vramAddr != 0x3F02 {
		t.Errorf("Expected address 0x3F02, got 0x%04X", h.PPU.vramAddr)
	}
}

func TestPPUDATA_Increment32(t *testing.T) {
	h := NewPPUTestHelper()
	h.PPU.WriteRegister(0x2000, 0x04)
	h.WriteData(0x2000, 0x01, 0x02)

	if h.PPU.vramAddr != 0x2040 {
		t.Errorf("Expected address 0x2040, got 0x%04X", h.PPU.vramAddr)
	}
	if v := h.Memory.Read(0x2020); v != 0x02 {
		t.Errorf("Expected second byte at 0x2020, got 0x%02X", v)
	}

	h.PPU.ReadRegister(0x2007)
	if h.PPU.vramAddr != 0x2060 {
		t.Errorf("Expected read to increment by 32, got 0x%04X", h.PPU.vramAddr)
	}
}

func TestOAMDATA_WriteIncrements(t *testing.T) {
	h := NewPPUTestHelper()
	h.PPU.WriteRegister(0x2003, 0xFF)
	h.PPU.WriteRegister(0x2004, 0x11)
	h.PPU.WriteRegister(0x2004, 0x22)

	if h.PPU.oam[0xFF] != 0x11 || h.PPU.oam[0x00] != 0x22 {
		t.Errorf("Expected wrap to OAM[0], got OAM[FF]=0x%02X OAM[0]=0x%02X", h.PPU.oam[0xFF], h.PPU.oam[0])
	}
	h.PPU.WriteRegister(0x2003, 0x00)
	if v := h.PPU.ReadRegister(0x2004); v != 0x22 {
		t.Errorf("Expected OAMDATA read 0x22, got 0x%02X", v)
	}
}

func TestOAMDMA_StartsAtOAMADDR(t *testing.T) {
	h := NewPPUTestHelper()
	page := make(map[uint16]uint8)
	for i := 0; i < 256; i++ {
		page[0x0200+uint16(i)] = uint8(i)
	}

	h.PPU.WriteRegister(0x2003, 0x10)
	h.PPU.OAMDMA(0x02, func(address uint16) uint8 { return page[address] })

	if h.PPU.oam[0x10] != 0x00 || h.PPU.oam[0xFF] != 0xEF || h.PPU.oam[0x0F] != 0xFF {
		t.Errorf("Unexpected OAM after DMA: [10]=0x%02X [FF]=0x%02X [0F]=0x%02X",
			h.PPU.oam[0x10], h.PPU.oam[0xFF], h.PPU.oam[0x0F])
	}
	if h.PPU.oamAddr != 0x10 {
		t.Errorf("Expected OAMADDR to wrap back to 0x10, got 0x%02X", h.PPU.oamAddr)
	}
}

func TestPeekRegister_NoSideEffects(t *testing.T) {
	h := NewPPUTestHelper()
	h.RunTo(241, 2)
	h.PPU.WriteRegister(0x2006, 0x20)

	if v := h.PPU.PeekRegister(0x2002); v&0x80 == 0 {
		t.Errorf("Expected VerticalBlank visible, got 0x%02X", v)
	}
	if !h.PPU.IsVBlank() || !h.PPU.addressLatch {
		t.Error("Expected peek to leave VerticalBlank and the toggle alone")
	}
}

func TestState_RoundTrip(t *testing.T) {
	h := NewPPUTestHelper()
	h.WriteData(0x2005, 0x77)
	h.WriteData(0x3F01, 0x2A)
	h.PPU.WriteRegister(0x2003, 0x04)
	h.PPU.WriteRegister(0x2004, 0x99)
	h.PPU.WriteRegister(0x2000, 0x90)
	h.RunTo(100, 50)

	state := h.PPU.State()

	other := NewPPUTestHelper()
	other.PPU.SetState(state)

	if other.PPU.Scanline() != 100 || other.PPU.Cycle() != 50 {
		t.Errorf("Expected (100,50), got (%d,%d)", other.PPU.Scanline(), other.PPU.Cycle())
	}
	if other.Memory.Read(0x2005) != 0x77 || other.Memory.Read(0x3F01) != 0x2A {
		t.Error("Expected VRAM restored")
	}
	if other.PPU.oam[0x04] != 0x99 || other.PPU.ppuCtrl != 0x90 {
		t.Error("Expected OAM and PPUCTRL restored")
	}
}
