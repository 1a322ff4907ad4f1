package cpu

// Bits of F. The low nibble is always zero.
const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

func (c *CPU) setZNHC(z, n, h, carry bool) {
	var f byte
	if z {
		f |= flagZ
	}
	if n {
		f |= flagN
	}
	if h {
		f |= flagH
	}
	if carry {
		f |= flagC
	}
	c.F = f
}

func (c *CPU) flag(f byte) bool { return c.F&f != 0 }

func (c *CPU) carryBit() byte {
	if c.flag(flagC) {
		return 1
	}
	return 0
}

// reg8 reads the operand encoded in opcode bits: B C D E H L (HL) A.
func (c *CPU) reg8(idx byte) byte {
	switch idx {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.read8(c.getHL())
	}
	return c.A
}

func (c *CPU) setReg8(idx byte, v byte) {
	switch idx {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.write8(c.getHL(), v)
	default:
		c.A = v
	}
}

// reg16 reads BC DE HL SP by pair index.
func (c *CPU) reg16(idx byte) uint16 {
	switch idx {
	case 0:
		return c.getBC()
	case 1:
		return c.getDE()
	case 2:
		return c.getHL()
	}
	return c.SP
}

func (c *CPU) setReg16(idx byte, v uint16) {
	switch idx {
	case 0:
		c.setBC(v)
	case 1:
		c.setDE(v)
	case 2:
		c.setHL(v)
	default:
		c.SP = v
	}
}

// Pair views. Writing AF masks the low nibble of F.
func (c *CPU) getAF() uint16  { return uint16(c.A)<<8 | uint16(c.F&0xF0) }
func (c *CPU) setAF(v uint16) { c.A = byte(v >> 8); c.F = byte(v) & 0xF0 }
func (c *CPU) getBC() uint16  { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU) getDE() uint16  { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }
func (c *CPU) getHL() uint16  { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }

// Registers is a copy of the register file.
type Registers struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
	IME                    bool
}

func (c *CPU) Registers() Registers {
	return Registers{
		A: c.A, F: c.F, B: c.B, C: c.C, D: c.D, E: c.E, H: c.H, L: c.L,
		SP: c.SP, PC: c.PC, IME: c.IME,
	}
}

func (r Registers) AF() uint16 { return uint16(r.A)<<8 | uint16(r.F&0xF0) }
func (r Registers) BC() uint16 { return uint16(r.B)<<8 | uint16(r.C) }
func (r Registers) DE() uint16 { return uint16(r.D)<<8 | uint16(r.E) }
func (r Registers) HL() uint16 { return uint16(r.H)<<8 | uint16(r.L) }
