package cart

import "testing"

func TestMBC3_ROMBankSevenBits(t *testing.T) {
	rom := make([]byte, 128*0x4000)
	for bank := 0; bank < 128; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC3(rom, 0)

	m.Write(0x2000, 0x7F)
	if got := m.Read(0x4000); got != 0x7F {
		t.Fatalf("bank 0x7F read got %02X", got)
	}
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("bank 0 should map to 1, got %02X", got)
	}
	// bit 7 is ignored
	m.Write(0x2000, 0x85)
	if got := m.Read(0x4000); got != 0x05 {
		t.Fatalf("bank 0x85 read got %02X want 05", got)
	}
}

func TestMBC3_RAMBanksAndRTCSelect(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 0x8000)

	m.Write(0x0000, 0x0A)
	for bank := byte(0); bank < 4; bank++ {
		m.Write(0x4000, bank)
		m.WriteRAM(0xA123, 0x40+bank)
	}
	for bank := byte(0); bank < 4; bank++ {
		m.Write(0x4000, bank)
		if got := m.ReadRAM(0xA123); got != 0x40+bank {
			t.Fatalf("RAM bank %d got %02X", bank, got)
		}
	}

	// RTC register select maps the register instead of RAM
	m.Write(0x4000, 0x08)
	m.WriteRAM(0xA000, 0x2A)
	if got := m.ReadRAM(0xA000); got != 0x2A {
		t.Fatalf("RTC seconds register got %02X want 2A", got)
	}
	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01)
	if got := m.ReadRAM(0xA000); got != 0x2A {
		t.Fatalf("latch must not alter stub register, got %02X", got)
	}

	// back to RAM bank 3, RAM untouched by RTC writes
	m.Write(0x4000, 0x03)
	if got := m.ReadRAM(0xA123); got != 0x43 {
		t.Fatalf("RAM bank 3 after RTC access got %02X", got)
	}
}

func TestMBC3_DisabledRAM(t *testing.T) {
	m := NewMBC3(make([]byte, 0x8000), 0x2000)
	m.WriteRAM(0xA000, 0x11)
	if got := m.ReadRAM(0xA000); got != 0xFF {
		t.Fatalf("disabled RAM read got %02X want FF", got)
	}
	m.Write(0x0000, 0x0A)
	if got := m.ReadRAM(0xA000); got != 0x00 {
		t.Fatalf("write while disabled leaked: got %02X", got)
	}
}

func TestMBC3_StateRoundTrip(t *testing.T) {
	m := NewMBC3(make([]byte, 8*0x4000), 0x2000)
	m.Write(0x0000, 0x0A)
	m.Write(0x2000, 0x05)
	m.WriteRAM(0xA010, 0x99)

	snap, err := m.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	n := NewMBC3(make([]byte, 8*0x4000), 0x2000)
	if err := n.LoadState(snap); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if n.romBank != 5 || !n.ramEnabled || n.ReadRAM(0xA010) != 0x99 {
		t.Fatalf("state not restored: bank=%d enabled=%v ram=%02X", n.romBank, n.ramEnabled, n.ReadRAM(0xA010))
	}
}
