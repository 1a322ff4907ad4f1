package ppu

import "testing"

func TestRenderWindowScanline_StartColumn(t *testing.T) {
	mem := mockVRAM{}
	mem[0x9C00] = 0
	mem[0x9C01] = 1
	mem[0x9C02] = 0
	mem[0x8000] = 0xFF   // tile 0 row 0: color 1
	mem[0x8010+1] = 0xFF // tile 1 row 0: color 2

	cases := []struct {
		startX int
		check  map[int]byte
	}{
		{20, map[int]byte{0: 0, 19: 0, 20: 1, 27: 1, 28: 2, 35: 2, 36: 1}},
		{-4, map[int]byte{0: 1, 3: 1, 4: 2, 11: 2, 12: 1}}, // WX=3
		{159, map[int]byte{158: 0, 159: 1}},
		{160, map[int]byte{0: 0, 159: 0}},
	}
	for _, c := range cases {
		out := renderWindowScanline(mem, 0x9C00, true, c.startX, 0)
		for x, want := range c.check {
			if out[x] != want {
				t.Errorf("startX=%d px %d got %d want %d", c.startX, x, out[x], want)
			}
		}
	}
}

func TestRenderWindowScanline_UsesWindowLine(t *testing.T) {
	mem := mockVRAM{}
	// window line 9: map row 1, tile row 1
	mem[0x9800+32] = 3
	mem[0x8000+3*16+2] = 0x80
	mem[0x8000+3*16+3] = 0x80
	out := renderWindowScanline(mem, 0x9800, true, 0, 9)
	if out[0] != 3 || out[1] != 0 {
		t.Fatalf("got %d %d want 3 0", out[0], out[1])
	}
}
