package ppu

// renderBGScanline returns the 160 background color indices of screen line
// ly. The map is 256x256 pixels and wraps in both directions.
func renderBGScanline(mem VRAMReader, mapBase uint16, unsigned bool, scx, scy, ly byte) [160]byte {
	var out [160]byte
	f := newTileFetcher(mem, mapBase, unsigned, ly+scy, uint16(scx>>3))
	f.skip(int(scx & 7))
	for x := range out {
		out[x] = f.next()
	}
	return out
}

// renderWindowScanline renders window pixels starting at screen column startX
// (WX-7, may be negative) for the given internal window line. Columns left of
// startX stay 0.
func renderWindowScanline(mem VRAMReader, mapBase uint16, unsigned bool, startX int, winLine byte) [160]byte {
	var out [160]byte
	if startX >= 160 {
		return out
	}
	f := newTileFetcher(mem, mapBase, unsigned, winLine, 0)
	if startX < 0 {
		f.skip(-startX)
		startX = 0
	}
	for x := startX; x < len(out); x++ {
		out[x] = f.next()
	}
	return out
}

// shade maps a color index through a DMG palette register.
func shade(palette, ci byte) byte {
	return (palette >> (ci * 2)) & 0x03
}

// renderLine composes background, window and sprites for the current LY into the frame.
func (p *PPU) renderLine() {
	ly := p.ly
	if ly >= VisibleLines {
		return
	}
	tileData8000 := p.lcdc&lcdcTileData8000 != 0

	// raw color indices, kept for the sprite behind-BG test
	var bgci [160]byte
	if p.lcdc&lcdcBGEnable != 0 {
		bgMap := uint16(0x9800)
		if p.lcdc&lcdcBGMap != 0 {
			bgMap = 0x9C00
		}
		bgci = renderBGScanline(&p.vram, bgMap, tileData8000, p.scx, p.scy, ly)

		if p.lcdc&lcdcWinEnable != 0 && ly >= p.wy && p.wx <= 166 {
			winMap := uint16(0x9800)
			if p.lcdc&lcdcWinMap != 0 {
				winMap = 0x9C00
			}
			startX := int(p.wx) - 7
			win := renderWindowScanline(&p.vram, winMap, tileData8000, startX, p.winLine)
			if startX < 0 {
				startX = 0
			}
			copy(bgci[startX:], win[startX:])
			p.winLine++
		}
	}

	row := p.frame.Row(int(ly))
	for x := range row {
		row[x] = shade(p.bgp, bgci[x])
	}

	if p.lcdc&lcdcOBJEnable == 0 {
		return
	}
	tall := p.lcdc&lcdcOBJTall != 0
	sprites := p.lineSprites(int(ly), tall)
	ci, pal := ComposeSpriteLineExt(&p.vram, sprites, int(ly), bgci, tall)
	for x := range row {
		if ci[x] == 0 {
			continue
		}
		obp := p.obp0
		if pal[x] == 1 {
			obp = p.obp1
		}
		row[x] = shade(obp, ci[x])
	}
}
