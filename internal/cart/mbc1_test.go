package cart

import "testing"

// bankedROM returns an image of n banks whose first byte is the bank number.
func bankedROM(n int) []byte {
	rom := make([]byte, n*0x4000)
	for bank := 0; bank < n; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	return rom
}

type bankWrite struct {
	addr  uint16
	value byte
}

func TestMBC1_ROMWindows(t *testing.T) {
	cases := []struct {
		name      string
		banks     int
		writes    []bankWrite
		low, high byte // bank seen at 0000 and 4000
	}{
		{"power on", 8, nil, 0, 1},
		{"select 3", 8, []bankWrite{{0x2000, 0x03}}, 0, 3},
		{"zero maps to one", 8, []bankWrite{{0x2000, 0x00}}, 0, 1},
		{"only five bits", 8, []bankWrite{{0x3FFF, 0xE2}}, 0, 2},
		{"wraps past image", 8, []bankWrite{{0x2000, 0x09}}, 0, 1},
		{"bank2 extends", 128, []bankWrite{{0x2000, 0x02}, {0x4000, 0x01}}, 0, 0x22},
		{"0x20 unreachable", 128, []bankWrite{{0x2000, 0x00}, {0x4000, 0x01}}, 0, 0x21},
		{"0x60 unreachable", 128, []bankWrite{{0x4000, 0x03}}, 0, 0x61},
		{"mode 1 lower window", 128, []bankWrite{{0x4000, 0x02}, {0x6000, 0x01}}, 0x40, 0x41},
		{"mode 1 then 0", 128, []bankWrite{{0x4000, 0x02}, {0x6000, 0x01}, {0x7FFF, 0x00}}, 0, 0x41},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMBC1(bankedROM(tc.banks), 0)
			for _, w := range tc.writes {
				m.Write(w.addr, w.value)
			}
			if got := m.Read(0x0000); got != tc.low {
				t.Fatalf("0000 window bank %02X want %02X", got, tc.low)
			}
			if got := m.Read(0x4000); got != tc.high {
				t.Fatalf("4000 window bank %02X want %02X", got, tc.high)
			}
		})
	}
}

func TestMBC1_RAMBanks(t *testing.T) {
	m := NewMBC1(bankedROM(8), 32*1024)
	m.Write(0x0000, 0x0A)
	m.Write(0x6000, 0x01)
	for bank := byte(0); bank < 4; bank++ {
		m.Write(0x4000, bank)
		m.WriteRAM(0xA123, 0xB0|bank)
	}
	for bank := 0; bank < 4; bank++ {
		if got := m.ram[bank*0x2000+0x123]; got != 0xB0|byte(bank) {
			t.Fatalf("RAM bank %d holds %02X", bank, got)
		}
	}
	// mode 0 pins RAM bank 0 regardless of BANK2
	m.Write(0x6000, 0x00)
	if got := m.ReadRAM(0xA123); got != 0xB0 {
		t.Fatalf("mode 0 read got %02X want B0", got)
	}
}

func TestMBC1_RAMEnableGate(t *testing.T) {
	m := NewMBC1(bankedROM(4), 8*1024)
	m.WriteRAM(0xA000, 0x12)
	if got := m.ReadRAM(0xA000); got != 0xFF {
		t.Fatalf("disabled RAM read got %02X want FF", got)
	}
	for _, v := range []byte{0x0A, 0x1A, 0xFA} {
		m.Write(0x0000, 0x00)
		m.Write(0x1FFF, v)
		m.WriteRAM(0xA000, v)
		if got := m.ReadRAM(0xA000); got != v {
			t.Fatalf("enable %02X: read got %02X", v, got)
		}
	}
	m.Write(0x0000, 0x0B)
	if got := m.ReadRAM(0xA000); got != 0xFF {
		t.Fatalf("0x0B should disable RAM, read got %02X", got)
	}
	if got := m.SaveRAM()[0]; got != 0xFA {
		t.Fatalf("SaveRAM got %02X want FA", got)
	}
}

func TestMBC1_StateRoundTrip(t *testing.T) {
	m := NewMBC1(bankedROM(128), 32*1024)
	m.Write(0x0000, 0x0A)
	m.Write(0x2000, 0x05)
	m.Write(0x4000, 0x02)
	m.Write(0x6000, 0x01)
	m.WriteRAM(0xA000, 0x99)
	snap, err := m.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	n := NewMBC1(bankedROM(128), 32*1024)
	if err := n.LoadState(snap); err != nil {
		t.Fatal(err)
	}
	if n.Read(0x4000) != 0x45 || n.Read(0x0000) != 0x40 || n.ReadRAM(0xA000) != 0x99 {
		t.Fatalf("restored state reads %02X %02X %02X", n.Read(0x4000), n.Read(0x0000), n.ReadRAM(0xA000))
	}
}
