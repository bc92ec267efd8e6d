package ppu

// evaluateSprites collects every sprite covering scanline. There is no
// eight-sprite limit and no overflow flag.
func (p *PPU) evaluateSprites(scanline int) {
	p.lineSprites = p.lineSprites[:0]

	height := 8
	if p.ppuCtrl&ctrlTallSprites != 0 {
		height = 16
	}

	for i := 0; i < 64; i++ {
		// sprites are drawn one line below their OAM Y
		row := scanline - (int(p.oam[i*4]) + 1)
		if row >= 0 && row < height {
			p.lineSprites = append(p.lineSprites, uint8(i))
		}
	}
}

// patternPixel returns the 2-bit colour of one pixel of a tile.
func (p *PPU) patternPixel(table uint16, tile uint8, row, col int) uint8 {
	address := table + uint16(tile)*16 + uint16(row)
	lo := p.memory.Read(address)
	hi := p.memory.Read(address + 8)
	shift := 7 - col
	return (lo>>shift)&1 | ((hi>>shift)&1)<<1
}

// backgroundPixel returns the palette group and 2-bit pixel of the
// scrolled background at screen position (x, y).
func (p *PPU) backgroundPixel(x, y int) (palette, pixel uint8) {
	// the four nametables form a 512x480 plane
	sx := x + int(p.scrollX) + int(p.ppuCtrl&0x01)*Width
	sy := y + int(p.scrollY) + int((p.ppuCtrl>>1)&0x01)*Height
	sx %= 2 * Width
	sy %= 2 * Height

	nametable := uint16(sy/Height*2 + sx/Width)
	base := 0x2000 + nametable*0x400

	tileX := (sx % Width) / 8
	tileY := (sy % Height) / 8
	tile := p.memory.Read(base + uint16(tileY*32+tileX))

	attribute := p.memory.Read(base + 0x3C0 + uint16((tileY/4)*8+tileX/4))
	shift := ((tileY%4)/2)*4 + ((tileX%4)/2)*2
	palette = (attribute >> shift) & 0x03

	table := uint16(0)
	if p.ppuCtrl&ctrlBackgroundTable != 0 {
		table = 0x1000
	}
	pixel = p.patternPixel(table, tile, sy%8, sx%8)
	return palette, pixel
}

// spritePixel finds the first sprite in OAM order with an opaque pixel at
// (x, y). index is the OAM slot of that sprite.
func (p *PPU) spritePixel(x, y int) (index int, palette, pixel uint8, behind bool) {
	tall := p.ppuCtrl&ctrlTallSprites != 0

	for _, slot := range p.lineSprites {
		s := int(slot) * 4
		left := int(p.oam[s+3])
		if x < left || x >= left+8 {
			continue
		}

		tile := p.oam[s+1]
		attributes := p.oam[s+2]
		row := y - (int(p.oam[s]) + 1)
		col := x - left

		if attributes&0x40 != 0 {
			col = 7 - col
		}

		var table uint16
		if tall {
			if attributes&0x80 != 0 {
				row = 15 - row
			}
			// bit 0 selects the pattern table, the pair starts at the even tile
			table = uint16(tile&0x01) * 0x1000
			tile &= 0xFE
			if row >= 8 {
				tile++
				row -= 8
			}
		} else {
			if attributes&0x80 != 0 {
				row = 7 - row
			}
			if p.ppuCtrl&ctrlSpritePattern != 0 {
				table = 0x1000
			}
		}

		px := p.patternPixel(table, tile, row, col)
		if px == 0 {
			continue
		}
		return int(slot), attributes & 0x03, px, attributes&0x20 != 0
	}
	return -1, 0, 0, false
}

// renderPixel composites background and sprites for one visible pixel and
// stores its RGB value.
func (p *PPU) renderPixel(x, y int) {
	showBackground := p.ppuMask&maskBackground != 0
	showSprites := p.ppuMask&maskSprites != 0

	var bgPalette, bgPixel uint8
	if showBackground && (x >= 8 || p.ppuMask&maskBackgroundLeft != 0) {
		bgPalette, bgPixel = p.backgroundPixel(x, y)
	}

	spriteIndex := -1
	var spPalette, spPixel uint8
	var behind bool
	if showSprites && (x >= 8 || p.ppuMask&maskSpritesLeft != 0) {
		spriteIndex, spPalette, spPixel, behind = p.spritePixel(x, y)
	}

	if spriteIndex == 0 && bgPixel != 0 && showBackground && showSprites && x != Width-1 {
		p.ppuStatus |= statusSpriteZero
	}

	paletteAddress := uint16(0x3F00)
	switch {
	case spPixel != 0 && (bgPixel == 0 || !behind):
		paletteAddress = 0x3F10 + uint16(spPalette)*4 + uint16(spPixel)
	case bgPixel != 0:
		paletteAddress = 0x3F00 + uint16(bgPalette)*4 + uint16(bgPixel)
	}

	colour := p.memory.Read(paletteAddress)
	if p.ppuMask&maskGreyscale != 0 {
		colour &= 0x30
	}

	rgb := systemPalette[colour&0x3F]
	offset := (y*Width + x) * 3
	p.frameBuffer[offset] = uint8(rgb >> 16)
	p.frameBuffer[offset+1] = uint8(rgb >> 8)
	p.frameBuffer[offset+2] = uint8(rgb)
}

// PatternTable renders one 4KB pattern table (0 or 1) as a 16x16 grid of
// tiles, 128x128 RGB pixels, coloured with background palette group
// palette (0-7, 4-7 being the sprite groups).
func (p *PPU) PatternTable(index int, palette uint8) []uint8 {
	const size = 128
	out := make([]uint8, size*size*3)
	table := uint16(index&1) * 0x1000

	for tileY := 0; tileY < 16; tileY++ {
		for tileX := 0; tileX < 16; tileX++ {
			tile := uint8(tileY*16 + tileX)
			for row := 0; row < 8; row++ {
				for col := 0; col < 8; col++ {
					px := p.patternPixel(table, tile, row, col)
					colour := p.memory.Read(0x3F00 + uint16(palette&0x07)*4 + uint16(px))
					rgb := systemPalette[colour&0x3F]

					offset := ((tileY*8+row)*size + tileX*8 + col) * 3
					out[offset] = uint8(rgb >> 16)
					out[offset+1] = uint8(rgb >> 8)
					out[offset+2] = uint8(rgb)
				}
			}
		}
	}
	return out
}
