package cpu

import (
	"fmt"
	"strings"
)

const historyLen = 32

// Trace is one executed instruction: where it was fetched and its first byte.
type Trace struct {
	PC     uint16
	Opcode byte
}

// history is a ring of the most recently fetched instructions.
type history struct {
	buf [historyLen]Trace
	pos int
	n   int
}

func (h *history) record(pc uint16, op byte) {
	h.buf[h.pos] = Trace{PC: pc, Opcode: op}
	h.pos = (h.pos + 1) % historyLen
	if h.n < historyLen {
		h.n++
	}
}

// entries returns the recorded instructions, oldest first.
func (h *history) entries() []Trace {
	out := make([]Trace, 0, h.n)
	start := (h.pos - h.n + historyLen) % historyLen
	for i := 0; i < h.n; i++ {
		out = append(out, h.buf[(start+i)%historyLen])
	}
	return out
}

// History returns up to the last 32 executed instructions, oldest first.
func (c *CPU) History() []Trace { return c.hist.entries() }

// IllegalOpcodeError reports an opcode the SM83 does not define. The CPU
// state is left as it was before the fetch.
type IllegalOpcodeError struct {
	PC      uint16
	Opcode  byte
	Regs    Registers
	Stack   [16]byte // bytes at SP upwards
	History []Trace  // oldest first, the failing fetch last
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("cpu: illegal opcode %#02x at %#04x", e.Opcode, e.PC)
}

// Dump renders the registers, stack window and history for a crash log.
func (e *IllegalOpcodeError) Dump() string {
	var sb strings.Builder
	r := e.Regs
	fmt.Fprintf(&sb, "illegal opcode %02X at %04X\n", e.Opcode, e.PC)
	fmt.Fprintf(&sb, "AF=%02X%02X BC=%02X%02X DE=%02X%02X HL=%02X%02X SP=%04X PC=%04X IME=%t\n",
		r.A, r.F, r.B, r.C, r.D, r.E, r.H, r.L, r.SP, r.PC, r.IME)
	sb.WriteString("stack:")
	for _, b := range e.Stack {
		fmt.Fprintf(&sb, " %02X", b)
	}
	sb.WriteString("\nhistory:\n")
	for _, t := range e.History {
		fmt.Fprintf(&sb, "  %04X: %02X\n", t.PC, t.Opcode)
	}
	return sb.String()
}

func (c *CPU) illegal(pc uint16, op byte) *IllegalOpcodeError {
	e := &IllegalOpcodeError{
		PC:      pc,
		Opcode:  op,
		Regs:    c.Registers(),
		History: c.hist.entries(),
	}
	for i := range e.Stack {
		e.Stack[i] = c.read8(c.SP + uint16(i))
	}
	return e
}
