package apu

import "testing"

func TestRegisters_PoweredOffIgnoresWrites(t *testing.T) {
	r := New()
	r.Write(NR50, 0x77)
	if got := r.Read(NR50); got != 0x00 {
		t.Fatalf("NR50 written while off reads %02X want 00", got)
	}
	if got := r.Read(NR52); got != 0x70 {
		t.Fatalf("NR52 off reads %02X want 70", got)
	}
	r.Write(0xFF30, 0xA5)
	if got := r.Read(0xFF30); got != 0xA5 {
		t.Fatalf("wave RAM should accept writes while off, got %02X", got)
	}
}

func TestRegisters_ReadMasks(t *testing.T) {
	r := New()
	r.Write(NR52, 0x80)
	cases := []struct {
		addr uint16
		want byte
	}{
		{NR10, 0x80},
		{NR11, 0x3F},
		{NR12, 0x00},
		{0xFF13, 0xFF},
		{NR14, 0xBF},
		{0xFF15, 0xFF},
		{NR30, 0x7F},
		{0xFF1C, 0x9F},
		{NR41, 0xFF},
		{NR50, 0x00},
		{0xFF27, 0xFF},
	}
	for _, tc := range cases {
		r.Write(tc.addr, 0x00)
		if got := r.Read(tc.addr); got != tc.want {
			t.Fatalf("read %04X after writing 00 got %02X want %02X", tc.addr, got, tc.want)
		}
	}
	r.Write(NR11, 0xC5)
	if got := r.Read(NR11); got != 0xFF {
		t.Fatalf("NR11 duty bits got %02X want FF", got)
	}
	r.Write(NR51, 0xF3)
	if got := r.Read(NR51); got != 0xF3 {
		t.Fatalf("NR51 got %02X want F3", got)
	}
}

func TestRegisters_TriggerAndDAC(t *testing.T) {
	r := New()
	r.Write(NR52, 0x80)

	r.Write(NR14, 0x80) // DAC off, trigger does nothing
	if got := r.Read(NR52); got != 0xF0 {
		t.Fatalf("trigger with DAC off: NR52 %02X want F0", got)
	}
	r.Write(NR12, 0xF3)
	r.Write(NR14, 0x87)
	r.Write(NR30, 0x80)
	r.Write(NR34, 0x80)
	if got := r.Read(NR52); got != 0xF5 {
		t.Fatalf("ch1+ch3 on: NR52 %02X want F5", got)
	}
	r.Write(NR12, 0x07) // DAC off
	if got := r.Read(NR52); got != 0xF4 {
		t.Fatalf("ch1 DAC off: NR52 %02X want F4", got)
	}
}

func TestRegisters_PowerOffClears(t *testing.T) {
	r := New()
	r.Write(NR52, 0x80)
	r.Write(NR50, 0x77)
	r.Write(NR22, 0xF0)
	r.Write(NR24, 0x80)
	r.Write(0xFF3F, 0x12)
	r.Write(NR52, 0x00)
	if r.Powered() || r.Read(NR52) != 0x70 {
		t.Fatalf("power off: NR52 %02X", r.Read(NR52))
	}
	r.Write(NR52, 0x80)
	if got := r.Read(NR50); got != 0x00 {
		t.Fatalf("NR50 after power cycle %02X want 00", got)
	}
	if got := r.Read(0xFF3F); got != 0x12 {
		t.Fatalf("wave RAM lost on power off: %02X", got)
	}
}

func TestRegisters_SnapshotRestore(t *testing.T) {
	r := New()
	r.Write(NR52, 0x80)
	r.Write(NR51, 0xF3)
	r.Write(0xFF31, 0x9A)
	s := r.Snapshot()

	o := New()
	o.Restore(s)
	if o.Read(NR51) != 0xF3 || o.Read(0xFF31) != 0x9A || !o.Powered() {
		t.Fatalf("restored NR51=%02X wave=%02X powered=%v", o.Read(NR51), o.Read(0xFF31), o.Powered())
	}
}
