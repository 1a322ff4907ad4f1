package ppu

import "testing"

// sequentialMap fills map 0x9800 with tile n at column n of every row and
// gives tile n the bitplanes lo=n, hi=^n on every row.
func sequentialMap() mockVRAM {
	mem := mockVRAM{}
	for r := uint16(0); r < 32; r++ {
		for c := uint16(0); c < 32; c++ {
			mem[0x9800+r*32+c] = byte(c)
		}
	}
	for n := 0; n < 32; n++ {
		for fy := 0; fy < 8; fy++ {
			base := uint16(0x8000 + n*16 + fy*2)
			mem[base] = byte(n)
			mem[base+1] = ^byte(n)
		}
	}
	return mem
}

func TestRenderBGScanline_ScrollAndWrap(t *testing.T) {
	mem := sequentialMap()
	for _, c := range []struct{ scx, scy, ly byte }{
		{13, 0, 0},
		{250, 250, 10}, // wraps both ways
		{0, 4, 143},
	} {
		out := renderBGScanline(mem, 0x9800, true, c.scx, c.scy, c.ly)
		for x := 0; x < 160; x++ {
			mx := (x + int(c.scx)) & 0xFF
			col := byte(mx >> 3)
			want := pixel(col, ^col, byte(7-mx&7))
			if out[x] != want {
				t.Fatalf("scx=%d scy=%d ly=%d px %d got %d want %d", c.scx, c.scy, c.ly, x, out[x], want)
			}
		}
	}
}
