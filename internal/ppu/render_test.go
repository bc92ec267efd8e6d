package ppu

import (
	"testing"
)

const (
	black = 0x000000 // colour 0x0F
	white = 0xFFFFFF // colour 0x30
	red   = 0xC72E00 // colour 0x16
	green = 0x26EF7E // colour 0x2B
)

// newRenderHelper sets up tile 1 as solid colour 1 in both pattern tables,
// a black backdrop, white background colour 1 and red sprite colour 1.
func newRenderHelper() *PPUTestHelper {
	h := NewPPUTestHelper()
	h.Cart.SetTileSolid(0x0000, 1, 1)
	h.Cart.SetTileSolid(0x1000, 1, 1)
	h.WriteData(0x3F00, 0x0F, 0x30)
	h.WriteData(0x3F11, 0x16)
	h.WriteData(0x3F15, 0x2B)
	return h
}

func (h *PPUTestHelper) SetSprite(index int, y, tile, attributes, x uint8) {
	h.PPU.oam[index*4] = y
	h.PPU.oam[index*4+1] = tile
	h.PPU.oam[index*4+2] = attributes
	h.PPU.oam[index*4+3] = x
}

func TestRender_BackgroundTile(t *testing.T) {
	h := newRenderHelper()
	h.WriteData(0x2000, 0x01)
	h.PPU.WriteRegister(0x2001, 0x0A)
	h.RunTo(20, 0)

	h.AssertPixel(t, 0, 0, white)
	h.AssertPixel(t, 7, 7, white)
	h.AssertPixel(t, 8, 0, black)
	h.AssertPixel(t, 0, 8, black)
}

func TestRender_AttributeSelectsPalette(t *testing.T) {
	h := newRenderHelper()
	h.WriteData(0x2002, 0x01) // tile (2,0)
	h.WriteData(0x23C0, 0x02) // group 2 for the top-left quadrant only
	h.WriteData(0x3F09, 0x2B) // group 2 colour 1
	h.PPU.WriteRegister(0x2001, 0x0A)
	h.RunTo(20, 0)

	// tile (2,0) lies in the top-right 2x2 quadrant, bits 3-2 of the byte
	h.AssertPixel(t, 16, 0, white)

	h.WriteData(0x23C0, 0x08)
	h.RunTo(0, 0)
	h.RunTo(20, 0)
	h.AssertPixel(t, 16, 0, green)
}

func TestRender_LeftColumnClip(t *testing.T) {
	h := newRenderHelper()
	h.WriteData(0x2000, 0x01)
	h.PPU.WriteRegister(0x2001, 0x08)
	h.RunTo(20, 0)

	h.AssertPixel(t, 0, 0, black)
}

func TestRender_ScrollWrapsAcrossNametables(t *testing.T) {
	h := newRenderHelper()
	h.WriteData(0x2000, 0x01)
	h.PPU.WriteRegister(0x2005, 8)
	h.PPU.WriteRegister(0x2005, 0)
	h.PPU.WriteRegister(0x2001, 0x0A)
	h.RunTo(20, 0)

	// scrolled one tile: tile (0,0) of the right-hand nametable, which
	// mirrors the left one horizontally, appears at x=248
	h.AssertPixel(t, 0, 0, black)
	h.AssertPixel(t, 248, 0, white)
}

func TestRender_SpriteOverTransparentBackground(t *testing.T) {
	h := newRenderHelper()
	h.SetSprite(0, 9, 1, 0x00, 16)
	h.PPU.WriteRegister(0x2001, 0x1E)
	h.RunTo(20, 0)

	h.AssertPixel(t, 16, 10, red)
	h.AssertPixel(t, 23, 17, red)
	h.AssertPixel(t, 16, 9, black)
	h.AssertPixel(t, 24, 10, black)
}

func TestRender_SpritePriority(t *testing.T) {
	tests := []struct {
		name       string
		attributes uint8
		expected   uint32
	}{
		{"in front", 0x00, red},
		{"behind", 0x20, white},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRenderHelper()
			h.WriteData(0x2022, 0x01) // tile (2,1)
			h.SetSprite(0, 7, 1, tt.attributes, 16)
			h.PPU.WriteRegister(0x2001, 0x1E)
			h.RunTo(20, 0)

			h.AssertPixel(t, 16, 8, tt.expected)
			h.AssertPixel(t, 16, 7, black)
		})
	}
}

func TestRender_LowestIndexSpriteWins(t *testing.T) {
	h := newRenderHelper()
	h.SetSprite(3, 9, 1, 0x01, 16) // group 1
	h.SetSprite(5, 9, 1, 0x00, 16)
	h.PPU.WriteRegister(0x2001, 0x1E)
	h.RunTo(20, 0)

	h.AssertPixel(t, 16, 10, green)
}

func TestRender_SpriteFlip(t *testing.T) {
	h := newRenderHelper()
	// tile 2: only the top-left pixel is set
	h.Cart.SetTileRow(0x0000, 2, 0, 0x80, 0x00)
	h.SetSprite(0, 9, 2, 0xC0, 16)
	h.PPU.WriteRegister(0x2001, 0x1E)
	h.RunTo(20, 0)

	h.AssertPixel(t, 16, 10, black)
	h.AssertPixel(t, 23, 17, red)
}

func TestRender_TallSprites(t *testing.T) {
	h := newRenderHelper()
	// odd tile: pattern table 0x1000, top half tile 2, bottom half tile 3
	h.Cart.SetTileSolid(0x1000, 3, 1)
	h.SetSprite(0, 9, 0x03, 0x00, 16)
	h.PPU.WriteRegister(0x2000, 0x20)
	h.PPU.WriteRegister(0x2001, 0x1E)
	h.RunTo(30, 0)

	h.AssertPixel(t, 16, 10, black)
	h.AssertPixel(t, 16, 18, red)
	h.AssertPixel(t, 16, 25, red)
	h.AssertPixel(t, 16, 26, black)
}

func TestRender_SpriteZeroHit(t *testing.T) {
	tests := []struct {
		name     string
		tileX    uint16
		spriteX  uint8
		mask     uint8
		expected bool
	}{
		{"overlap", 2, 16, 0x1E, true},
		{"no background", 3, 16, 0x1E, false},
		{"rightmost column", 31, 255, 0x1E, false},
		{"background disabled", 2, 16, 0x16, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRenderHelper()
			h.WriteData(0x2020+tt.tileX, 0x01)
			h.SetSprite(0, 7, 1, 0x00, tt.spriteX)
			h.PPU.WriteRegister(0x2001, tt.mask)
			h.RunTo(20, 0)

			hit := h.PPU.ReadRegister(0x2002)&statusSpriteZero != 0
			if hit != tt.expected {
				t.Errorf("Expected sprite zero hit=%v, got %v", tt.expected, hit)
			}
		})
	}
}

func TestRender_Greyscale(t *testing.T) {
	h := newRenderHelper()
	h.WriteData(0x3F01, 0x16)
	h.WriteData(0x2000, 0x01)
	h.PPU.WriteRegister(0x2001, 0x0B)
	h.RunTo(20, 0)

	h.AssertPixel(t, 0, 0, ColourToRGB(0x10))
}

func TestRender_DisabledShowsBackdrop(t *testing.T) {
	h := newRenderHelper()
	h.WriteData(0x3F00, 0x30)
	h.WriteData(0x2000, 0x01)
	h.SetSprite(0, 0, 1, 0, 0)
	h.RunTo(20, 0)

	h.AssertPixel(t, 0, 0, white)
	h.AssertPixel(t, 100, 10, white)
}

func TestPatternTable(t *testing.T) {
	h := newRenderHelper()
	img := h.PPU.PatternTable(0, 0)

	if len(img) != 128*128*3 {
		t.Fatalf("Expected 128x128 RGB, got %d bytes", len(img))
	}
	// tile 1 sits at (8,0)
	at := func(x, y int) uint32 {
		o := (y*128 + x) * 3
		return uint32(img[o])<<16 | uint32(img[o+1])<<8 | uint32(img[o+2])
	}
	if at(8, 0) != white || at(0, 0) != black {
		t.Errorf("Unexpected pattern colours: tile1=0x%06X tile0=0x%06X", at(8, 0), at(0, 0))
	}
}
