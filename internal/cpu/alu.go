package cpu

// cond evaluates NZ Z NC C by index.
func (c *CPU) cond(idx byte) bool {
	switch idx {
	case 0:
		return !c.flag(flagZ)
	case 1:
		return c.flag(flagZ)
	case 2:
		return !c.flag(flagC)
	}
	return c.flag(flagC)
}

func (c *CPU) add8(a, b byte) (res byte, z, n, h, cy bool) {
	r := uint16(a) + uint16(b)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F)) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) adc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res = byte(r)
	z = res == 0
	n = false
	h = ((a & 0x0F) + (b & 0x0F) + ci) > 0x0F
	cy = r > 0xFF
	return
}

func (c *CPU) sub8(a, b byte) (res byte, z, n, h, cy bool) {
	r := int16(a) - int16(b)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < (b & 0x0F)
	cy = int16(a) < int16(b)
	return
}

func (c *CPU) sbc8(a, b byte, carryIn bool) (res byte, z, n, h, cy bool) {
	ci := byte(0)
	if carryIn {
		ci = 1
	}
	r := int16(a) - int16(b) - int16(ci)
	res = byte(r)
	z = res == 0
	n = true
	h = (a & 0x0F) < ((b & 0x0F) + ci)
	cy = int16(a) < int16(b)+int16(ci)
	return
}

func (c *CPU) and8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a & b
	z = res == 0
	h = true
	return
}

func (c *CPU) xor8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a ^ b
	z = res == 0
	return
}

func (c *CPU) or8(a, b byte) (res byte, z, n, h, cy bool) {
	res = a | b
	z = res == 0
	return
}

// alu applies one of ADD ADC SUB SBC AND XOR OR CP to A.
func (c *CPU) alu(op byte, v byte) {
	var (
		res         byte
		z, n, h, cy bool
	)
	switch op {
	case 0:
		res, z, n, h, cy = c.add8(c.A, v)
	case 1:
		res, z, n, h, cy = c.adc8(c.A, v, c.flag(flagC))
	case 2:
		res, z, n, h, cy = c.sub8(c.A, v)
	case 3:
		res, z, n, h, cy = c.sbc8(c.A, v, c.flag(flagC))
	case 4:
		res, z, n, h, cy = c.and8(c.A, v)
	case 5:
		res, z, n, h, cy = c.xor8(c.A, v)
	case 6:
		res, z, n, h, cy = c.or8(c.A, v)
	default:
		// CP discards the result
		_, z, n, h, cy = c.sub8(c.A, v)
		c.setZNHC(z, n, h, cy)
		return
	}
	c.A = res
	c.setZNHC(z, n, h, cy)
}

func (c *CPU) inc8(v byte) byte {
	r := v + 1
	c.setZNHC(r == 0, false, (v&0x0F) == 0x0F, c.flag(flagC))
	return r
}

func (c *CPU) dec8(v byte) byte {
	r := v - 1
	c.setZNHC(r == 0, true, (v&0x0F) == 0x00, c.flag(flagC))
	return r
}

// addHL adds v to HL. Z is preserved; H and C come from bits 11 and 15.
func (c *CPU) addHL(v uint16) {
	hl := c.getHL()
	r := uint32(hl) + uint32(v)
	h := (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF
	c.setZNHC(c.flag(flagZ), false, h, r > 0xFFFF)
	c.setHL(uint16(r))
}

// addSPe8 returns SP plus a signed immediate. H and C come from the low byte,
// Z and N are cleared.
func (c *CPU) addSPe8() uint16 {
	e := uint16(int16(int8(c.fetch8())))
	h := (c.SP&0x000F)+(e&0x000F) > 0x000F
	cy := (c.SP&0x00FF)+(e&0x00FF) > 0x00FF
	c.setZNHC(false, false, h, cy)
	return c.SP + e
}

func (c *CPU) daa() {
	a := c.A
	cf := c.flag(flagC)
	if !c.flag(flagN) { // after addition
		if cf || a > 0x99 {
			a += 0x60
			cf = true
		}
		if c.flag(flagH) || (a&0x0F) > 9 {
			a += 0x06
		}
	} else { // after subtraction
		if cf {
			a -= 0x60
		}
		if c.flag(flagH) {
			a -= 0x06
		}
	}
	c.A = a
	c.setZNHC(c.A == 0, c.flag(flagN), false, cf)
}

// Rotates and shifts shared by the accumulator forms and the CB page.
// They set Z from the result; the accumulator forms clear it afterwards.

func (c *CPU) rlc(v byte) byte {
	r := v<<1 | v>>7
	c.setZNHC(r == 0, false, false, v&0x80 != 0)
	return r
}

func (c *CPU) rrc(v byte) byte {
	r := v>>1 | v<<7
	c.setZNHC(r == 0, false, false, v&0x01 != 0)
	return r
}

func (c *CPU) rl(v byte) byte {
	r := v<<1 | c.carryBit()
	c.setZNHC(r == 0, false, false, v&0x80 != 0)
	return r
}

func (c *CPU) rr(v byte) byte {
	r := v>>1 | c.carryBit()<<7
	c.setZNHC(r == 0, false, false, v&0x01 != 0)
	return r
}

func (c *CPU) sla(v byte) byte {
	r := v << 1
	c.setZNHC(r == 0, false, false, v&0x80 != 0)
	return r
}

func (c *CPU) sra(v byte) byte {
	r := v>>1 | v&0x80
	c.setZNHC(r == 0, false, false, v&0x01 != 0)
	return r
}

func (c *CPU) swap(v byte) byte {
	r := v<<4 | v>>4
	c.setZNHC(r == 0, false, false, false)
	return r
}

func (c *CPU) srl(v byte) byte {
	r := v >> 1
	c.setZNHC(r == 0, false, false, v&0x01 != 0)
	return r
}
