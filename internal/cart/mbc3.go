package cart

// MBC3 implements ROM/RAM banking. Banking behavior:
//   - 0000-1FFF: RAM and RTC enable (0x0A in low nibble)
//   - 2000-3FFF: ROM bank low 7 bits (0 maps to 1)
//   - 4000-5FFF: RAM bank (00-03) or RTC register select (08-0C)
//   - 6000-7FFF: latch clock (accepted, no effect)
//   - A000-BFFF: external RAM, or the selected RTC register
//
// The RTC registers are plain storage: they do not tick, latch or persist.
type MBC3 struct {
	rom []byte
	ram []byte

	ramEnabled bool
	romBank    byte
	ramBank    byte
	rtcSelect  byte // 0 when a RAM bank is mapped, else 0x08..0x0C
	rtc        [5]byte
}

func NewMBC3(rom []byte, ramSize int) *MBC3 {
	m := &MBC3{rom: rom}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBank = 1
	return m
}

func (m *MBC3) Read(addr uint16) byte {
	if addr < 0x4000 {
		return readBank(m.rom, 0, addr)
	}
	return readBank(m.rom, int(m.romBank), addr)
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		switch {
		case value <= 0x03:
			m.ramBank = value
			m.rtcSelect = 0
		case value >= 0x08 && value <= 0x0C:
			m.rtcSelect = value
		}
	}
}

func (m *MBC3) ReadRAM(addr uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	if m.rtcSelect != 0 {
		return m.rtc[m.rtcSelect-0x08]
	}
	if off, ok := ramOffset(m.ram, int(m.ramBank), addr); ok {
		return m.ram[off]
	}
	return 0xFF
}

func (m *MBC3) WriteRAM(addr uint16, value byte) {
	if !m.ramEnabled {
		return
	}
	if m.rtcSelect != 0 {
		m.rtc[m.rtcSelect-0x08] = value
		return
	}
	if off, ok := ramOffset(m.ram, int(m.ramBank), addr); ok {
		m.ram[off] = value
	}
}

// SaveRAM persists external RAM only; RTC registers are not saved.
func (m *MBC3) SaveRAM() []byte { return copyRAM(m.ram) }

func (m *MBC3) LoadRAM(data []byte) { copy(m.ram, data) }

type mbc3State struct {
	RAM        []byte
	RomBank    byte
	RamBank    byte
	RamEnabled bool
	RTCSelect  byte
	RTC        [5]byte
}

func (m *MBC3) SaveState() ([]byte, error) {
	return encodeState(mbc3State{RAM: copyRAM(m.ram), RomBank: m.romBank, RamBank: m.ramBank, RamEnabled: m.ramEnabled, RTCSelect: m.rtcSelect, RTC: m.rtc})
}

func (m *MBC3) LoadState(data []byte) error {
	var s mbc3State
	if err := decodeState(data, &s); err != nil {
		return err
	}
	copy(m.ram, s.RAM)
	m.romBank, m.ramBank, m.ramEnabled = s.RomBank, s.RamBank, s.RamEnabled
	m.rtcSelect, m.rtc = s.RTCSelect, s.RTC
	return nil
}
