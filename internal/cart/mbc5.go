package cart

// MBC5 supports up to 8 MiB ROM and 128 KiB RAM. Unlike the older mappers,
// ROM bank 0 can be mapped into the switchable window.
//
//	0000-1FFF  RAM enable (0x0A in low nibble)
//	2000-2FFF  ROM bank bits 0-7
//	3000-3FFF  ROM bank bit 8
//	4000-5FFF  RAM bank (0-15); on rumble carts bit 3 drives the motor
type MBC5 struct {
	rom []byte
	ram []byte

	romBank    uint16
	ramBank    byte
	ramEnabled bool

	rumble bool // cartridge has a motor wired to RAM bank bit 3
	motor  bool
}

func NewMBC5(rom []byte, ramSize int) *MBC5 {
	m := &MBC5{rom: rom, romBank: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

// NewMBC5Rumble returns an MBC5 whose RAM bank register also switches the
// rumble motor, leaving three bits for RAM banking.
func NewMBC5Rumble(rom []byte, ramSize int) *MBC5 {
	m := NewMBC5(rom, ramSize)
	m.rumble = true
	return m
}

// Rumbling reports whether the motor is switched on.
func (m *MBC5) Rumbling() bool { return m.motor }

func (m *MBC5) Read(addr uint16) byte {
	bank := int(m.romBank)
	if addr < 0x4000 {
		bank = 0
	}
	return readBank(m.rom, bank, addr)
}

func (m *MBC5) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x3000:
		m.romBank = m.romBank&0x100 | uint16(value)
	case addr < 0x4000:
		m.romBank = m.romBank&0x0FF | uint16(value&0x01)<<8
	case addr < 0x6000:
		if m.rumble {
			m.motor = value&0x08 != 0
			m.ramBank = value & 0x07
			return
		}
		m.ramBank = value & 0x0F
	}
}

func (m *MBC5) ReadRAM(addr uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	off, ok := ramOffset(m.ram, int(m.ramBank), addr)
	if !ok {
		return 0xFF
	}
	return m.ram[off]
}

func (m *MBC5) WriteRAM(addr uint16, value byte) {
	if !m.ramEnabled {
		return
	}
	if off, ok := ramOffset(m.ram, int(m.ramBank), addr); ok {
		m.ram[off] = value
	}
}

func (m *MBC5) SaveRAM() []byte { return copyRAM(m.ram) }

func (m *MBC5) LoadRAM(data []byte) { copy(m.ram, data) }

type mbc5State struct {
	RAM        []byte
	ROMBank    uint16
	RAMBank    byte
	RAMEnabled bool
	Motor      bool
}

func (m *MBC5) SaveState() ([]byte, error) {
	return encodeState(mbc5State{
		RAM:        copyRAM(m.ram),
		ROMBank:    m.romBank,
		RAMBank:    m.ramBank,
		RAMEnabled: m.ramEnabled,
		Motor:      m.motor,
	})
}

func (m *MBC5) LoadState(data []byte) error {
	var s mbc5State
	if err := decodeState(data, &s); err != nil {
		return err
	}
	copy(m.ram, s.RAM)
	m.romBank, m.ramBank, m.ramEnabled, m.motor = s.ROMBank, s.RAMBank, s.RAMEnabled, s.Motor
	return nil
}
