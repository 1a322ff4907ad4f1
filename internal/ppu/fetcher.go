package ppu

// VRAMReader gives the scanline helpers read access to VRAM.
type VRAMReader interface {
	Read(addr uint16) byte
}

// tileFetcher walks one row of a 32x32 tile map and emits one 2-bit color
// index per call. The current tile's bitplanes sit in lo/hi and are refilled
// from the next map column when they run dry; columns wrap at 32.
type tileFetcher struct {
	mem      VRAMReader
	rowBase  uint16 // map address of column 0 of this row
	col      uint16 // next map column to fetch
	fineY    byte
	unsigned bool // 0x8000 addressing when set, signed 0x8800 otherwise
	lo, hi   byte
	left     int // pixels still in lo/hi
}

// newTileFetcher positions a fetcher on map pixel line and map column col.
func newTileFetcher(mem VRAMReader, mapBase uint16, unsigned bool, line byte, col uint16) *tileFetcher {
	return &tileFetcher{
		mem:      mem,
		rowBase:  mapBase + uint16(line>>3)*32,
		col:      col & 31,
		fineY:    line & 7,
		unsigned: unsigned,
	}
}

func (f *tileFetcher) fetch() {
	num := f.mem.Read(f.rowBase + f.col)
	f.lo, f.hi = tileRow(f.mem, tileAddr(num, f.unsigned), f.fineY)
	f.left = 8
	f.col = (f.col + 1) & 31
}

// next returns the color index of the next pixel.
func (f *tileFetcher) next() byte {
	if f.left == 0 {
		f.fetch()
	}
	f.left--
	return pixel(f.lo, f.hi, byte(f.left))
}

// skip discards n pixels.
func (f *tileFetcher) skip(n int) {
	for ; n > 0; n-- {
		f.next()
	}
}

// tileAddr resolves a tile number to the address of its first row. In 0x8800
// mode the number is signed and tile 0 sits at 0x9000.
func tileAddr(num byte, unsigned bool) uint16 {
	if unsigned {
		return 0x8000 + uint16(num)*16
	}
	return uint16(0x9000 + int(int8(num))*16)
}

// tileRow returns the two bitplanes of one 8-pixel row.
func tileRow(mem VRAMReader, base uint16, row byte) (lo, hi byte) {
	addr := base + uint16(row)*2
	return mem.Read(addr), mem.Read(addr + 1)
}

// pixel extracts the 2-bit color index at bit position bit (7 is leftmost).
func pixel(lo, hi, bit byte) byte {
	return ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
}
