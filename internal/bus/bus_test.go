package bus

import (
	"strings"
	"testing"

	"qnes/internal/cartridge"
	"qnes/internal/input"
	"qnes/internal/logger"
)

// access is one observed bus transaction
type access struct {
	write   bool
	address uint16
	value   uint8
}

// recordingWatcher collects every access it is told about
type recordingWatcher struct {
	accesses []access
}

func (w *recordingWatcher) BusRead(address uint16, value uint8) {
	w.accesses = append(w.accesses, access{false, address, value})
}

func (w *recordingWatcher) BusWrite(address uint16, value uint8) {
	w.accesses = append(w.accesses, access{true, address, value})
}

// newTestBus returns a reset bus holding a cartridge built from builder
func newTestBus(t *testing.T, builder *cartridge.ROMBuilder) *Bus {
	t.Helper()
	cart, err := builder.BuildCartridge()
	if err != nil {
		t.Fatalf("Failed to create test cartridge: %v", err)
	}
	b := New()
	b.LoadCartridge(cart)
	b.Reset()
	return b
}

func TestRAM_MirroredEvery2KB(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	b.Write(0x0001, 0x42)

	for _, mirror := range []uint16{0x0001, 0x0801, 0x1001, 0x1801} {
		if v := b.Read(mirror); v != 0x42 {
			t.Errorf("Read $%04X: expected 0x42, got 0x%02X", mirror, v)
		}
	}

	b.Write(0x1FFF, 0x99)
	if v := b.Read(0x07FF); v != 0x99 {
		t.Errorf("Expected $1FFF to alias $07FF, got 0x%02X", v)
	}
}

func TestPPURegisters_MirroredEvery8Bytes(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())

	// $3FFE decodes to PPUADDR, $2FFF to PPUDATA
	b.Write(0x3FFE, 0x21)
	b.Write(0x3FFE, 0x00)
	b.Write(0x2FFF, 0x55)

	if v := b.VRAM.Read(0x2100); v != 0x55 {
		t.Errorf("Expected VRAM $2100 = 0x55, got 0x%02X", v)
	}
}

func TestCartridge_PRGSpace(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().WithCode(0x8000, 0xA9, 0x42))

	if v := b.Read(0x8000); v != 0xA9 {
		t.Errorf("Expected 0xA9 at $8000, got 0x%02X", v)
	}
	// a single 16KB bank appears twice
	if v := b.Read(0xC001); v != 0x42 {
		t.Errorf("Expected 0x42 at $C001, got 0x%02X", v)
	}
	if v := b.Read(0xFFFC); v != 0x00 || b.Read(0xFFFD) != 0x80 {
		t.Errorf("Expected reset vector $8000")
	}
}

func TestCartridge_PRGRAM(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	b.Write(0x6000, 0x12)
	b.Write(0x7FFF, 0x34)

	if b.Read(0x6000) != 0x12 || b.Read(0x7FFF) != 0x34 {
		t.Error("Expected PRG RAM to hold written values")
	}

	b.Write(0x8000, 0xFF)
	if v := b.Read(0x8000); v == 0xFF {
		t.Error("Expected PRG ROM to ignore writes")
	}
}

func TestStubRanges_ReadZero(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())

	for _, address := range []uint16{0x4000, 0x4013, 0x4014, 0x4015, 0x4018, 0x401F, 0x5000} {
		if v := b.Read(address); v != 0 {
			t.Errorf("Read $%04X: expected 0, got 0x%02X", address, v)
		}
	}
}

func TestAPUWrite_LoggedOncePerRegister(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	logger.Clear()

	b.Write(0x4000, 0x01)
	b.Write(0x4000, 0x02)
	b.Write(0x4015, 0x0F)

	count := 0
	for _, e := range logger.Entries() {
		if e.Tag == "BUS" && strings.Contains(e.Detail, "APU") {
			count++
		}
	}
	if count != 2 {
		t.Errorf("Expected 2 APU log entries, got %d", count)
	}
}

func TestControllers_ReadThroughBus(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	b.Controllers.SetButtonPressed(0, input.ButtonA|input.ButtonStart, true)

	b.Write(0x4016, 1)
	b.Write(0x4016, 0)

	expected := []uint8{1, 0, 0, 1, 0, 0, 0, 0}
	for i, e := range expected {
		if v := b.Read(0x4016); v != e {
			t.Errorf("Bit %d: expected %d, got %d", i, e, v)
		}
	}
}

func TestOAMDMA_CopiesPageAndStallsCPU(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	for i := 0; i < 256; i++ {
		b.Write(0x0200+uint16(i), uint8(255-i))
	}

	b.Write(0x4014, 0x02)

	oam := b.PPU.OAM()
	if oam[0] != 0xFF || oam[255] != 0x00 {
		t.Errorf("Expected OAM copied from $0200, got [0]=0x%02X [255]=0x%02X", oam[0], oam[255])
	}
	if b.CPU.Idle() {
		t.Error("Expected CPU to be stalled by DMA")
	}
}

func TestOAMDMA_StallLength(t *testing.T) {
	// STA $4014 (4 cycles) followed by the 513-cycle stall
	b := newTestBus(t, cartridge.NewROMBuilder().WithCode(0x8000,
		0xA9, 0x02, // LDA #$02
		0x8D, 0x14, 0x40, // STA $4014
	))
	b.CPU.Step()

	if cycles := b.CPU.Step(); cycles != 4+513 {
		t.Errorf("Expected 517 cycles, got %d", cycles)
	}
}

func TestPeek_HasNoSideEffects(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	for !(b.PPU.Scanline() == 241 && b.PPU.Cycle() == 2) {
		b.PPU.Clock()
	}

	if v := b.Peek(0x2002); v&0x80 == 0 {
		t.Errorf("Expected VerticalBlank in peeked status, got 0x%02X", v)
	}
	if !b.PPU.IsVBlank() {
		t.Error("Expected Peek to leave VerticalBlank set")
	}

	b.Controllers.SetButtonPressed(0, input.ButtonA, true)
	b.Write(0x4016, 1)
	b.Write(0x4016, 0)
	b.Peek(0x4016)
	b.Peek(0x4016)
	if v := b.Read(0x4016); v != 1 {
		t.Errorf("Expected first real read to return A, got %d", v)
	}

	if v := b.Read(0x2002); v&0x80 == 0 {
		t.Errorf("Expected real read to see VerticalBlank, got 0x%02X", v)
	}
	if b.PPU.IsVBlank() {
		t.Error("Expected real read to clear VerticalBlank")
	}
}

func TestWatcher_SeesReadsAndWrites(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	w := &recordingWatcher{}
	b.SetWatcher(w)

	b.Write(0x0010, 0x77)
	b.Read(0x0810)
	b.Peek(0x0010)

	expected := []access{{true, 0x0010, 0x77}, {false, 0x0810, 0x77}}
	if len(w.accesses) != len(expected) {
		t.Fatalf("Expected %d accesses, got %d: %+v", len(expected), len(w.accesses), w.accesses)
	}
	for i := range expected {
		if w.accesses[i] != expected[i] {
			t.Errorf("Access %d: expected %+v, got %+v", i, expected[i], w.accesses[i])
		}
	}

	b.SetWatcher(nil)
	b.Read(0x0010)
	if len(w.accesses) != len(expected) {
		t.Error("Expected no accesses after removing the watcher")
	}
}

func TestTriggerNMI_ForwardsToCPU(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().WithNMIVector(0x9000))

	b.TriggerNMI()
	if b.CPU.PC != 0x9000 {
		t.Errorf("Expected PC=$9000 after NMI, got $%04X", b.CPU.PC)
	}
}

func TestNMI_FromPPUCTRLWriteDuringVBlank(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder().
		WithNMIVector(0x9000).
		WithCode(0x8000,
			0xA9, 0x80, // LDA #$80
			0x8D, 0x00, 0x20, // STA $2000
		))
	for !(b.PPU.Scanline() == 241 && b.PPU.Cycle() == 2) {
		b.PPU.Clock()
	}

	b.CPU.Step()
	b.CPU.Step()
	if b.CPU.PC != 0x9000 {
		t.Errorf("Expected NMI to be taken after STA, PC=$%04X", b.CPU.PC)
	}
	// return address on the stack is the instruction after STA
	lo, hi := b.Read(0x01FC), b.Read(0x01FD)
	if ret := uint16(hi)<<8 | uint16(lo); ret != 0x8005 {
		t.Errorf("Expected pushed PC $8005, got $%04X", ret)
	}
}

func TestReset_ClearsRAM(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	b.Write(0x0300, 0xAB)
	b.Reset()

	if v := b.Read(0x0300); v != 0 {
		t.Errorf("Expected RAM cleared, got 0x%02X", v)
	}
}

func TestRAM_SnapshotRoundTrip(t *testing.T) {
	b := newTestBus(t, cartridge.NewROMBuilder())
	b.Write(0x0123, 0x45)

	other := New()
	other.LoadRAM(b.RAM())
	if v := other.Read(0x0123); v != 0x45 {
		t.Errorf("Expected restored RAM, got 0x%02X", v)
	}
}

func TestNoCartridge_ReadsZero(t *testing.T) {
	b := New()
	if v := b.Read(0x8000); v != 0 {
		t.Errorf("Expected 0 with no cartridge, got 0x%02X", v)
	}
	b.Write(0x8000, 0x01)
}
