package ppu

import "testing"

type mockVRAM map[uint16]byte

func (m mockVRAM) Read(addr uint16) byte { return m[addr] }

func TestTileAddr(t *testing.T) {
	cases := []struct {
		num      byte
		unsigned bool
		want     uint16
	}{
		{0x00, true, 0x8000},
		{0xFF, true, 0x8FF0},
		{0x00, false, 0x9000},
		{0x7F, false, 0x97F0},
		{0x80, false, 0x8800},
		{0xFF, false, 0x8FF0},
	}
	for _, c := range cases {
		if got := tileAddr(c.num, c.unsigned); got != c.want {
			t.Errorf("tileAddr(%02X, %v) = %04X want %04X", c.num, c.unsigned, got, c.want)
		}
	}
}

func TestTileFetcher_StreamsAndWrapsColumns(t *testing.T) {
	mem := mockVRAM{}
	// map line 10: map row 1, tile row 2
	row := uint16(0x9800 + 32)
	mem[row+31] = 5
	mem[row+0] = 6
	mem[0x8000+5*16+4] = 0xF0 // lo
	mem[0x8000+6*16+5] = 0xFF // hi

	f := newTileFetcher(mem, 0x9800, true, 10, 31)
	want := []byte{1, 1, 1, 1, 0, 0, 0, 0, 2, 2, 2, 2, 2, 2, 2, 2}
	for i, w := range want {
		if got := f.next(); got != w {
			t.Fatalf("px %d got %d want %d", i, got, w)
		}
	}
}

func TestTileFetcher_SignedModeAndSkip(t *testing.T) {
	mem := mockVRAM{}
	mem[0x9C00] = 0xFF // tile -1 at 0x8FF0
	mem[0x8FF0+2*5] = 0xA5
	mem[0x8FF0+2*5+1] = 0x5A

	f := newTileFetcher(mem, 0x9C00, false, 5, 0)
	f.skip(3)
	for bit := 4; bit >= 0; bit-- {
		want := pixel(0xA5, 0x5A, byte(bit))
		if got := f.next(); got != want {
			t.Fatalf("bit %d got %d want %d", bit, got, want)
		}
	}
}
