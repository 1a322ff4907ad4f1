package cart

// MBC2 implements MBC2 banking (up to 256 KiB ROM) with its built-in 512x4-bit RAM.
// Writes to 0000-3FFF are routed by address bit 8: clear selects RAM enable,
// set selects the 4-bit ROM bank (0 maps to 1). The RAM window mirrors every 512 bytes.
type MBC2 struct {
	rom []byte
	ram [512]byte

	romBank    byte
	ramEnabled bool
}

func NewMBC2(rom []byte) *MBC2 {
	return &MBC2{rom: rom, romBank: 1}
}

func (m *MBC2) Read(addr uint16) byte {
	if addr < 0x4000 {
		return readBank(m.rom, 0, addr)
	}
	return readBank(m.rom, int(m.romBank), addr)
}

func (m *MBC2) Write(addr uint16, value byte) {
	if addr >= 0x4000 {
		return
	}
	if addr&0x0100 != 0 {
		m.romBank = value & 0x0F
		if m.romBank == 0 {
			m.romBank = 1
		}
		return
	}
	m.ramEnabled = (value & 0x0F) == 0x0A
}

// ReadRAM returns the stored nibble with the upper four bits floating high.
func (m *MBC2) ReadRAM(addr uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	return 0xF0 | m.ram[addr&0x01FF]
}

func (m *MBC2) WriteRAM(addr uint16, value byte) {
	if !m.ramEnabled {
		return
	}
	m.ram[addr&0x01FF] = value & 0x0F
}

func (m *MBC2) SaveRAM() []byte { return copyRAM(m.ram[:]) }

func (m *MBC2) LoadRAM(data []byte) {
	for i := 0; i < len(data) && i < len(m.ram); i++ {
		m.ram[i] = data[i] & 0x0F
	}
}

type mbc2State struct {
	RAM        []byte
	RomBank    byte
	RamEnabled bool
}

func (m *MBC2) SaveState() ([]byte, error) {
	return encodeState(mbc2State{RAM: copyRAM(m.ram[:]), RomBank: m.romBank, RamEnabled: m.ramEnabled})
}

func (m *MBC2) LoadState(data []byte) error {
	var s mbc2State
	if err := decodeState(data, &s); err != nil {
		return err
	}
	copy(m.ram[:], s.RAM)
	m.romBank, m.ramEnabled = s.RomBank, s.RamEnabled
	return nil
}
