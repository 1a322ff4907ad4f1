package cart

// ROMOnly is a 32 KiB cartridge without a mapper. The ROM+RAM variants carry
// up to 8 KiB of external RAM that is always enabled.
type ROMOnly struct {
	rom []byte
	ram []byte
}

func NewROMOnly(rom []byte) *ROMOnly {
	return &ROMOnly{rom: rom}
}

func NewROMOnlyWithRAM(rom []byte, ramSize int) *ROMOnly {
	c := &ROMOnly{rom: rom}
	if ramSize > 0 {
		c.ram = make([]byte, ramSize)
	}
	return c
}

func (c *ROMOnly) Read(addr uint16) byte {
	if addr < 0x4000 {
		return readBank(c.rom, 0, addr)
	}
	return readBank(c.rom, 1, addr)
}

// Write is ignored: there are no bank registers.
func (c *ROMOnly) Write(addr uint16, value byte) {}

func (c *ROMOnly) ReadRAM(addr uint16) byte {
	if off, ok := ramOffset(c.ram, 0, addr); ok {
		return c.ram[off]
	}
	return 0xFF
}

func (c *ROMOnly) WriteRAM(addr uint16, value byte) {
	if off, ok := ramOffset(c.ram, 0, addr); ok {
		c.ram[off] = value
	}
}

func (c *ROMOnly) SaveRAM() []byte { return copyRAM(c.ram) }

func (c *ROMOnly) LoadRAM(data []byte) { copy(c.ram, data) }

type romOnlyState struct {
	RAM []byte
}

func (c *ROMOnly) SaveState() ([]byte, error) {
	return encodeState(romOnlyState{RAM: copyRAM(c.ram)})
}

func (c *ROMOnly) LoadState(data []byte) error {
	var s romOnlyState
	if err := decodeState(data, &s); err != nil {
		return err
	}
	copy(c.ram, s.RAM)
	return nil
}
