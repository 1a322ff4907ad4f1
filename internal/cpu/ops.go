package cpu

import "github.com/FabianRolfMatthiasNoll/dmgemu/internal/irq"

// opTable and cbTable map opcodes to handlers returning the cycle cost.
// A nil entry is an illegal opcode. Both tables are filled once in init
// and never modified afterwards.
var (
	opTable [256]func(*CPU) int
	cbTable [256]func(*CPU) int
)

func init() {
	buildOps()
	buildCB()
}

func buildOps() {
	t := &opTable

	t[0x00] = func(c *CPU) int { return 4 } // NOP
	t[0x08] = func(c *CPU) int { // LD (a16),SP
		c.write16(c.fetch16(), c.SP)
		return 20
	}
	t[0x10] = opSTOP
	t[0x18] = func(c *CPU) int { // JR e8
		c.jr(true)
		return 12
	}
	for cc := byte(0); cc < 4; cc++ {
		// per-iteration copy for the closures below (pre-Go 1.22 loop semantics)
		cc := cc
		t[0x20+cc*8] = func(c *CPU) int { // JR cc,e8
			if c.jr(c.cond(cc)) {
				return 12
			}
			return 8
		}
	}

	for rr := byte(0); rr < 4; rr++ {
		// per-iteration copy for the closures below (pre-Go 1.22 loop semantics)
		rr := rr
		t[0x01+rr<<4] = func(c *CPU) int { // LD rr,d16
			c.setReg16(rr, c.fetch16())
			return 12
		}
		t[0x09+rr<<4] = func(c *CPU) int { // ADD HL,rr
			c.addHL(c.reg16(rr))
			return 8
		}
		t[0x03+rr<<4] = func(c *CPU) int { // INC rr
			c.setReg16(rr, c.reg16(rr)+1)
			return 8
		}
		t[0x0B+rr<<4] = func(c *CPU) int { // DEC rr
			c.setReg16(rr, c.reg16(rr)-1)
			return 8
		}
	}

	// LD (BC),A / (DE),A / (HL+),A / (HL-),A and the A,(..) forms
	t[0x02] = func(c *CPU) int { c.write8(c.getBC(), c.A); return 8 }
	t[0x12] = func(c *CPU) int { c.write8(c.getDE(), c.A); return 8 }
	t[0x22] = func(c *CPU) int {
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl + 1)
		return 8
	}
	t[0x32] = func(c *CPU) int {
		hl := c.getHL()
		c.write8(hl, c.A)
		c.setHL(hl - 1)
		return 8
	}
	t[0x0A] = func(c *CPU) int { c.A = c.read8(c.getBC()); return 8 }
	t[0x1A] = func(c *CPU) int { c.A = c.read8(c.getDE()); return 8 }
	t[0x2A] = func(c *CPU) int {
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl + 1)
		return 8
	}
	t[0x3A] = func(c *CPU) int {
		hl := c.getHL()
		c.A = c.read8(hl)
		c.setHL(hl - 1)
		return 8
	}

	for r := byte(0); r < 8; r++ {
		// per-iteration copy for the closures below (pre-Go 1.22 loop semantics)
		r := r
		memOp := r == 6
		t[0x04+r<<3] = func(c *CPU) int { // INC r
			c.setReg8(r, c.inc8(c.reg8(r)))
			if memOp {
				return 12
			}
			return 4
		}
		t[0x05+r<<3] = func(c *CPU) int { // DEC r
			c.setReg8(r, c.dec8(c.reg8(r)))
			if memOp {
				return 12
			}
			return 4
		}
		t[0x06+r<<3] = func(c *CPU) int { // LD r,d8
			c.setReg8(r, c.fetch8())
			if memOp {
				return 12
			}
			return 8
		}
	}

	t[0x07] = func(c *CPU) int { c.A = c.rlc(c.A); c.F &^= flagZ; return 4 } // RLCA
	t[0x0F] = func(c *CPU) int { c.A = c.rrc(c.A); c.F &^= flagZ; return 4 } // RRCA
	t[0x17] = func(c *CPU) int { c.A = c.rl(c.A); c.F &^= flagZ; return 4 }  // RLA
	t[0x1F] = func(c *CPU) int { c.A = c.rr(c.A); c.F &^= flagZ; return 4 }  // RRA
	t[0x27] = func(c *CPU) int { c.daa(); return 4 }
	t[0x2F] = func(c *CPU) int { // CPL
		c.A = ^c.A
		// N and H set, C unchanged, Z unchanged
		c.F = (c.F & (flagZ | flagC)) | flagN | flagH
		return 4
	}
	t[0x37] = func(c *CPU) int { // SCF
		c.F = (c.F & flagZ) | flagC
		return 4
	}
	t[0x3F] = func(c *CPU) int { // CCF
		c.F = (c.F & flagZ) | (c.F&flagC ^ flagC)
		return 4
	}

	// LD r,r' and LD (HL),r / LD r,(HL)
	for op := 0x40; op < 0x80; op++ {
		d, s := byte(op>>3)&7, byte(op)&7
		cost := 4
		if d == 6 || s == 6 {
			cost = 8
		}
		t[op] = func(c *CPU) int {
			c.setReg8(d, c.reg8(s))
			return cost
		}
	}
	t[0x76] = func(c *CPU) int { // HALT
		c.halted = true
		return 4
	}

	// ADD ADC SUB SBC AND XOR OR CP against r, (HL) and d8
	for op := 0x80; op < 0xC0; op++ {
		kind, s := byte(op>>3)&7, byte(op)&7
		cost := 4
		if s == 6 {
			cost = 8
		}
		t[op] = func(c *CPU) int {
			c.alu(kind, c.reg8(s))
			return cost
		}
	}
	for kind := byte(0); kind < 8; kind++ {
		// per-iteration copy for the closures below (pre-Go 1.22 loop semantics)
		kind := kind
		t[0xC6+kind<<3] = func(c *CPU) int {
			c.alu(kind, c.fetch8())
			return 8
		}
	}

	for cc := byte(0); cc < 4; cc++ {
		// per-iteration copy for the closures below (pre-Go 1.22 loop semantics)
		cc := cc
		t[0xC0+cc<<3] = func(c *CPU) int { // RET cc
			if c.cond(cc) {
				c.PC = c.pop16()
				return 20
			}
			return 8
		}
		t[0xC2+cc<<3] = func(c *CPU) int { // JP cc,a16
			addr := c.fetch16()
			if c.cond(cc) {
				c.PC = addr
				return 16
			}
			return 12
		}
		t[0xC4+cc<<3] = func(c *CPU) int { // CALL cc,a16
			addr := c.fetch16()
			if c.cond(cc) {
				c.push16(c.PC)
				c.PC = addr
				return 24
			}
			return 12
		}
	}
	t[0xC9] = func(c *CPU) int { c.PC = c.pop16(); return 16 } // RET
	t[0xD9] = func(c *CPU) int { // RETI
		c.PC = c.pop16()
		c.IME = true
		return 16
	}
	t[0xC3] = func(c *CPU) int { c.PC = c.fetch16(); return 16 } // JP a16
	t[0xE9] = func(c *CPU) int { c.PC = c.getHL(); return 4 }    // JP HL
	t[0xCD] = func(c *CPU) int { // CALL a16
		addr := c.fetch16()
		c.push16(c.PC)
		c.PC = addr
		return 24
	}
	for n := byte(0); n < 8; n++ {
		vec := uint16(n) * 8
		t[0xC7+n<<3] = func(c *CPU) int { // RST
			c.push16(c.PC)
			c.PC = vec
			return 16
		}
	}

	t[0xC1] = func(c *CPU) int { c.setBC(c.pop16()); return 12 }
	t[0xD1] = func(c *CPU) int { c.setDE(c.pop16()); return 12 }
	t[0xE1] = func(c *CPU) int { c.setHL(c.pop16()); return 12 }
	t[0xF1] = func(c *CPU) int { c.setAF(c.pop16()); return 12 }
	t[0xC5] = func(c *CPU) int { c.push16(c.getBC()); return 16 }
	t[0xD5] = func(c *CPU) int { c.push16(c.getDE()); return 16 }
	t[0xE5] = func(c *CPU) int { c.push16(c.getHL()); return 16 }
	t[0xF5] = func(c *CPU) int { c.push16(c.getAF()); return 16 }

	// LDH (FF00+n),A and A,(FF00+n); LD (FF00+C),A and A,(FF00+C)
	t[0xE0] = func(c *CPU) int { c.write8(0xFF00+uint16(c.fetch8()), c.A); return 12 }
	t[0xF0] = func(c *CPU) int { c.A = c.read8(0xFF00 + uint16(c.fetch8())); return 12 }
	t[0xE2] = func(c *CPU) int { c.write8(0xFF00+uint16(c.C), c.A); return 8 }
	t[0xF2] = func(c *CPU) int { c.A = c.read8(0xFF00 + uint16(c.C)); return 8 }
	t[0xEA] = func(c *CPU) int { c.write8(c.fetch16(), c.A); return 16 }
	t[0xFA] = func(c *CPU) int { c.A = c.read8(c.fetch16()); return 16 }

	t[0xE8] = func(c *CPU) int { c.SP = c.addSPe8(); return 16 }   // ADD SP,e8
	t[0xF8] = func(c *CPU) int { c.setHL(c.addSPe8()); return 12 } // LD HL,SP+e8
	t[0xF9] = func(c *CPU) int { c.SP = c.getHL(); return 8 }      // LD SP,HL

	t[0xF3] = func(c *CPU) int { // DI
		c.IME = false
		c.eiPending = false
		return 4
	}
	t[0xFB] = func(c *CPU) int { // EI
		c.eiPending = true
		return 4
	}

	t[0xCB] = func(c *CPU) int { return cbTable[c.fetch8()](c) }
}

// jr reads the displacement and jumps relative to the following instruction when taken.
func (c *CPU) jr(taken bool) bool {
	e := int8(c.fetch8())
	if taken {
		c.PC = uint16(int32(c.PC) + int32(e))
	}
	return taken
}

// opSTOP consumes the padding byte. With the joypad interrupt enabled the
// CPU sleeps until an interrupt is pending; otherwise it is a NOP.
func opSTOP(c *CPU) int {
	c.fetch8()
	if c.irq.ReadIE()&irq.Joypad.Mask() != 0 {
		c.halted = true
	}
	return 4
}

func buildCB() {
	shifts := [8]func(*CPU, byte) byte{
		(*CPU).rlc, (*CPU).rrc, (*CPU).rl, (*CPU).rr,
		(*CPU).sla, (*CPU).sra, (*CPU).swap, (*CPU).srl,
	}
	for op := 0; op < 256; op++ {
		y, r := byte(op>>3)&7, byte(op)&7
		memOp := r == 6
		mask := byte(1) << y
		switch op >> 6 {
		case 0:
			shift := shifts[y]
			cbTable[op] = func(c *CPU) int {
				c.setReg8(r, shift(c, c.reg8(r)))
				return cbCost(memOp, 16)
			}
		case 1: // BIT
			cbTable[op] = func(c *CPU) int {
				c.setZNHC(c.reg8(r)&mask == 0, false, true, c.flag(flagC))
				return cbCost(memOp, 12)
			}
		case 2: // RES
			cbTable[op] = func(c *CPU) int {
				c.setReg8(r, c.reg8(r)&^mask)
				return cbCost(memOp, 16)
			}
		case 3: // SET
			cbTable[op] = func(c *CPU) int {
				c.setReg8(r, c.reg8(r)|mask)
				return cbCost(memOp, 16)
			}
		}
	}
}

// cbCost is the total cost including the prefix: 8 for registers, memCost for (HL).
func cbCost(memOp bool, memCost int) int {
	if memOp {
		return memCost
	}
	return 8
}
