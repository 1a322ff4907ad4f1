package cart

// MBC1 implements MBC1 ROM/RAM banking (up to 2 MiB ROM, 32 KiB RAM).
//
//	0000-1FFF  RAM enable (0x0A in low nibble)
//	2000-3FFF  BANK1: ROM bank low 5 bits, 0 maps to 1
//	4000-5FFF  BANK2: 2 bits, ROM bank bits 5-6 or RAM bank
//	6000-7FFF  MODE: 0 = BANK2 only extends the 4000 window, 1 = BANK2 also
//	           applies to the 0000 window and selects the RAM bank
type MBC1 struct {
	rom []byte
	ram []byte

	bank1      byte
	bank2      byte
	advanced   bool // MODE = 1
	ramEnabled bool
}

func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{rom: rom, bank1: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

func (m *MBC1) Read(addr uint16) byte {
	if addr >= 0x4000 {
		// the zero check only covers BANK1, so 0x20/0x40/0x60 read as 0x21/0x41/0x61
		return readBank(m.rom, int(m.bank2<<5|m.bank1), addr)
	}
	if m.advanced {
		return readBank(m.rom, int(m.bank2<<5), addr)
	}
	return readBank(m.rom, 0, addr)
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch addr >> 13 {
	case 0:
		m.ramEnabled = value&0x0F == 0x0A
	case 1:
		m.bank1 = value & 0x1F
		if m.bank1 == 0 {
			m.bank1 = 1
		}
	case 2:
		m.bank2 = value & 0x03
	case 3:
		m.advanced = value&0x01 != 0
	}
}

func (m *MBC1) ReadRAM(addr uint16) byte {
	off, ok := m.ramIndex(addr)
	if !ok {
		return 0xFF
	}
	return m.ram[off]
}

func (m *MBC1) WriteRAM(addr uint16, value byte) {
	if off, ok := m.ramIndex(addr); ok {
		m.ram[off] = value
	}
}

// ramIndex resolves a RAM window address; BANK2 picks the bank in mode 1 only.
func (m *MBC1) ramIndex(addr uint16) (int, bool) {
	if !m.ramEnabled {
		return 0, false
	}
	bank := 0
	if m.advanced {
		bank = int(m.bank2)
	}
	return ramOffset(m.ram, bank, addr)
}

func (m *MBC1) SaveRAM() []byte { return copyRAM(m.ram) }

func (m *MBC1) LoadRAM(data []byte) { copy(m.ram, data) }

type mbc1State struct {
	RAM          []byte
	Bank1, Bank2 byte
	Advanced     bool
	RAMEnabled   bool
}

func (m *MBC1) SaveState() ([]byte, error) {
	return encodeState(mbc1State{
		RAM:        copyRAM(m.ram),
		Bank1:      m.bank1,
		Bank2:      m.bank2,
		Advanced:   m.advanced,
		RAMEnabled: m.ramEnabled,
	})
}

func (m *MBC1) LoadState(data []byte) error {
	var s mbc1State
	if err := decodeState(data, &s); err != nil {
		return err
	}
	copy(m.ram, s.RAM)
	m.bank1, m.bank2, m.advanced, m.ramEnabled = s.Bank1, s.Bank2, s.Advanced, s.RAMEnabled
	return nil
}
