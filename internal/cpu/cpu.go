package cpu

import (
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/irq"
)

// Memory is the address space as the CPU sees it.
type Memory interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
}

// Interrupts is the part of the interrupt controller the CPU drives.
type Interrupts interface {
	Pending() byte
	Next() (irq.Source, bool)
	Acknowledge(i irq.Interrupt)
	ReadIE() byte
}

// CPU implements the SM83 core. Every opcode runs to completion inside one
// Step and reports its cycle cost; the caller advances the rest of the
// machine by that amount.
type CPU struct {
	// 8-bit registers
	A, F byte
	B, C byte
	D, E byte
	H, L byte

	SP uint16
	PC uint16

	IME    bool
	halted bool
	// EI enables IME after the following instruction
	eiPending bool

	mem  Memory
	irq  Interrupts
	hist history
}

// New creates a CPU with PC at 0 and SP at the top of HRAM, the state the
// boot ROM starts from.
func New(mem Memory, ints Interrupts) *CPU {
	return &CPU{mem: mem, irq: ints, SP: 0xFFFE, PC: 0x0000}
}

// SetPC allows tests or a boot stub to set the program counter.
func (c *CPU) SetPC(pc uint16) { c.PC = pc }

// Halted reports whether the CPU is waiting for an interrupt.
func (c *CPU) Halted() bool { return c.halted }

// ResetNoBoot sets registers to the DMG post-boot state and jumps to the
// cartridge entry point. Useful when running without a boot ROM.
func (c *CPU) ResetNoBoot() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.IME = false
	c.halted = false
	c.eiPending = false
}

func (c *CPU) read8(addr uint16) byte     { return c.mem.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.mem.Write(addr, v) }

func (c *CPU) fetch8() byte {
	b := c.read8(c.PC)
	c.PC++
	return b
}

func (c *CPU) fetch16() uint16 {
	lo := uint16(c.fetch8())
	hi := uint16(c.fetch8())
	return lo | (hi << 8)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read8(addr))
	hi := uint16(c.read8(addr + 1))
	return lo | (hi << 8)
}

func (c *CPU) write16(addr uint16, v uint16) {
	c.write8(addr, byte(v&0x00FF))
	c.write8(addr+1, byte(v>>8))
}

func (c *CPU) push16(v uint16) {
	c.SP -= 2
	c.write16(c.SP, v)
}

func (c *CPU) pop16() uint16 {
	v := c.read16(c.SP)
	c.SP += 2
	return v
}

// Step executes one instruction, or services one interrupt, and returns the
// cycles it took. The only error is *IllegalOpcodeError; the CPU cannot
// continue after it.
func (c *CPU) Step() (int, error) {
	if c.halted {
		if c.irq.Pending() == 0 {
			return 4, nil
		}
		c.halted = false
	}

	if c.IME {
		if src, ok := c.irq.Next(); ok {
			return c.service(src), nil
		}
	}

	eiArmed := c.eiPending
	pc := c.PC
	op := c.fetch8()
	c.hist.record(pc, op)

	fn := opTable[op]
	if fn == nil {
		c.PC = pc
		return 0, c.illegal(pc, op)
	}
	cycles := fn(c)

	// DI inside the instruction clears eiPending
	if eiArmed && c.eiPending {
		c.IME = true
		c.eiPending = false
	}
	return cycles, nil
}

// service dispatches one interrupt: IME off, flag acknowledged, PC pushed,
// jump to the vector.
func (c *CPU) service(src irq.Source) int {
	c.IME = false
	c.irq.Acknowledge(src.Interrupt)
	c.push16(c.PC)
	c.PC = src.Vector
	return 20
}

// State is the serializable snapshot of the CPU.
type State struct {
	Regs      Registers
	Halted    bool
	EIPending bool
}

func (c *CPU) Snapshot() State {
	return State{Regs: c.Registers(), Halted: c.halted, EIPending: c.eiPending}
}

func (c *CPU) Restore(s State) {
	r := s.Regs
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = r.A, r.F&0xF0, r.B, r.C, r.D, r.E, r.H, r.L
	c.SP, c.PC, c.IME = r.SP, r.PC, r.IME
	c.halted, c.eiPending = s.Halted, s.EIPending
}
