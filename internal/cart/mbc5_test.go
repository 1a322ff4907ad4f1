package cart

import "testing"

func TestMBC5_NineBitBank(t *testing.T) {
	rom := make([]byte, 512*0x4000)
	for bank := 0; bank < 512; bank++ {
		rom[bank*0x4000] = byte(bank)
		rom[bank*0x4000+1] = byte(bank >> 8)
	}
	m := NewMBC5(rom, 0)

	m.Write(0x2000, 0x34)
	m.Write(0x3000, 0x01)
	if lo, hi := m.Read(0x4000), m.Read(0x4001); lo != 0x34 || hi != 0x01 {
		t.Fatalf("bank 0x134 read got %02X%02X", hi, lo)
	}
	m.Write(0x3000, 0x00)
	if got := m.Read(0x4000); got != 0x34 {
		t.Fatalf("bank 0x034 read got %02X", got)
	}
	// bank 0 is addressable on this mapper
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 0x00 {
		t.Fatalf("bank 0 read got %02X want 00", got)
	}
}

func TestMBC5_RAMBank(t *testing.T) {
	m := NewMBC5(make([]byte, 0x8000), 128*1024)
	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x0F)
	m.WriteRAM(0xBFFF, 0x5A)
	if m.ram[15*0x2000+0x1FFF] != 0x5A {
		t.Fatalf("write did not land in RAM bank 15")
	}
	m.Write(0x4000, 0x00)
	if got := m.ReadRAM(0xBFFF); got != 0x00 {
		t.Fatalf("bank 0 read got %02X", got)
	}
}

func TestMBC5_RumbleMotorBit(t *testing.T) {
	m := NewMBC5Rumble(make([]byte, 0x8000), 32*1024)
	m.Write(0x0000, 0x0A)

	m.Write(0x4000, 0x0B) // motor on, RAM bank 3
	if !m.Rumbling() {
		t.Fatal("motor should be on")
	}
	m.WriteRAM(0xA000, 0x77)
	if m.ram[3*0x2000] != 0x77 {
		t.Fatal("bit 3 leaked into the RAM bank number")
	}

	m.Write(0x4000, 0x03)
	if m.Rumbling() {
		t.Fatal("motor should be off")
	}
	if got := m.ReadRAM(0xA000); got != 0x77 {
		t.Fatalf("bank 3 read got %02X", got)
	}
}

func TestMBC5_StateRoundTrip(t *testing.T) {
	rom := make([]byte, 8*0x4000)
	for bank := 0; bank < 8; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC5Rumble(rom, 8*1024)
	m.Write(0x0000, 0x0A)
	m.Write(0x2000, 0x05)
	m.Write(0x4000, 0x08)
	m.WriteRAM(0xA010, 0x42)
	snap, err := m.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	m.Write(0x2000, 0x02)
	m.Write(0x4000, 0x00)
	m.WriteRAM(0xA010, 0x00)
	if err := m.LoadState(snap); err != nil {
		t.Fatal(err)
	}
	if got := m.Read(0x4000); got != 5 {
		t.Fatalf("ROM bank after restore got %d want 5", got)
	}
	if !m.Rumbling() || m.ReadRAM(0xA010) != 0x42 {
		t.Fatalf("restore lost motor=%v ram=%02X", m.Rumbling(), m.ReadRAM(0xA010))
	}
	if err := m.LoadState([]byte("junk")); err == nil {
		t.Fatal("junk state should fail")
	}
}
