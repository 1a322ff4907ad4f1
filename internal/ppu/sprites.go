package ppu

import "sort"

// maxSpritesPerLine is the hardware limit of objects selected per scanline.
const maxSpritesPerLine = 10

// Sprite is one OAM entry resolved to screen coordinates: X and Y are the
// top-left pixel (OAM X-8, OAM Y-16).
type Sprite struct {
	X, Y     int
	Tile     byte
	Attr     byte
	OAMIndex int
}

// Attribute bits.
const (
	attrBehindBG = 1 << 7
	attrFlipY    = 1 << 6
	attrFlipX    = 1 << 5
	attrPalette  = 1 << 4
)

// lineSprites scans OAM in order and returns up to ten objects covering line ly.
func (p *PPU) lineSprites(ly int, tall bool) []Sprite {
	h := 8
	if tall {
		h = 16
	}
	out := make([]Sprite, 0, maxSpritesPerLine)
	for i := 0; i < 40 && len(out) < maxSpritesPerLine; i++ {
		e := p.oam[i*4 : i*4+4]
		y := int(e[0]) - 16
		if ly < y || ly >= y+h {
			continue
		}
		out = append(out, Sprite{X: int(e[1]) - 8, Y: y, Tile: e[2], Attr: e[3], OAMIndex: i})
	}
	return out
}

// ComposeSpriteLine returns the sprite color indices (0 = no sprite) for line ly.
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly int, bgci [160]byte, tall bool) [160]byte {
	ci, _ := ComposeSpriteLineExt(mem, sprites, ly, bgci, tall)
	return ci
}

// ComposeSpriteLineExt composites sprites for line ly and also reports which
// object palette (0 or 1) each pixel uses. Sprites are ordered by X, then OAM
// index, and painted back to front so the lowest X (then lowest index) ends on
// top. Color 0 is transparent; behind-BG sprites are hidden where bgci is non-zero.
func ComposeSpriteLineExt(mem VRAMReader, sprites []Sprite, ly int, bgci [160]byte, tall bool) (ci, pal [160]byte) {
	h := 8
	if tall {
		h = 16
	}
	order := make([]Sprite, len(sprites))
	copy(order, sprites)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].X != order[j].X {
			return order[i].X < order[j].X
		}
		return order[i].OAMIndex < order[j].OAMIndex
	})

	for i := len(order) - 1; i >= 0; i-- {
		s := order[i]
		row := ly - s.Y
		if row < 0 || row >= h {
			continue
		}
		if s.Attr&attrFlipY != 0 {
			row = h - 1 - row
		}
		tile := s.Tile
		if tall {
			tile &= 0xFE
		}
		// rows 8-15 of a tall sprite run on into the next tile
		lo, hi := tileRow(mem, 0x8000+uint16(tile)*16, byte(row))
		for px := 0; px < 8; px++ {
			x := s.X + px
			if x < 0 || x >= 160 {
				continue
			}
			bit := byte(7 - px)
			if s.Attr&attrFlipX != 0 {
				bit = byte(px)
			}
			c := pixel(lo, hi, bit)
			if c == 0 {
				continue
			}
			if s.Attr&attrBehindBG != 0 && bgci[x] != 0 {
				continue
			}
			ci[x] = c
			pal[x] = 0
			if s.Attr&attrPalette != 0 {
				pal[x] = 1
			}
		}
	}
	return ci, pal
}
