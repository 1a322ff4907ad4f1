// Package timer implements the divider (DIV) and the programmable
// timer (TIMA/TMA/TAC). Both are driven only by the cycle counts the
// CPU reports for each executed instruction.
package timer

import "github.com/FabianRolfMatthiasNoll/dmgemu/internal/irq"

// Register addresses.
const (
	DIV  = 0xFF04
	TIMA = 0xFF05
	TMA  = 0xFF06
	TAC  = 0xFF07
)

// divPeriod is the number of cycles between DIV increments.
const divPeriod = 256

// periods maps TAC bits 0-1 to the number of cycles per TIMA increment.
var periods = [4]int{1024, 16, 64, 256}

// Requester receives the timer interrupt on TIMA overflow.
type Requester interface {
	Request(irq.Interrupt)
}

// Timer is the DIV/TIMA unit. DIV counts regardless of TAC; TIMA only
// counts while TAC bit 2 is set.
type Timer struct {
	div  byte
	tima byte
	tma  byte
	tac  byte

	divCycles  int
	timaCycles int

	irq Requester
}

// New returns a timer that raises its interrupt through r.
func New(r Requester) *Timer {
	return &Timer{irq: r}
}

// Tick advances the counters by the given number of cycles.
func (t *Timer) Tick(cycles int) {
	t.divCycles += cycles
	for t.divCycles >= divPeriod {
		t.divCycles -= divPeriod
		t.div++
	}

	if t.tac&0x04 == 0 {
		return
	}
	period := periods[t.tac&0x03]
	t.timaCycles += cycles
	for t.timaCycles >= period {
		t.timaCycles -= period
		t.tima++
		if t.tima == 0 {
			t.tima = t.tma
			if t.irq != nil {
				t.irq.Request(irq.Timer)
			}
		}
	}
}

// Read returns the register at addr (FF04-FF07).
func (t *Timer) Read(addr uint16) byte {
	switch addr {
	case DIV:
		return t.div
	case TIMA:
		return t.tima
	case TMA:
		return t.tma
	case TAC:
		return 0xF8 | t.tac
	}
	return 0xFF
}

// Write stores v into the register at addr. Any write to DIV clears it
// along with the internal divider accumulator.
func (t *Timer) Write(addr uint16, v byte) {
	switch addr {
	case DIV:
		t.div = 0
		t.divCycles = 0
	case TIMA:
		t.tima = v
	case TMA:
		t.tma = v
	case TAC:
		if v&0x03 != t.tac&0x03 {
			t.timaCycles = 0
		}
		t.tac = v & 0x07
	}
}

// State is the serializable snapshot of the timer.
type State struct {
	DIV, TIMA, TMA, TAC   byte
	DivCycles, TimaCycles int
}

func (t *Timer) Snapshot() State {
	return State{t.div, t.tima, t.tma, t.tac, t.divCycles, t.timaCycles}
}

func (t *Timer) Restore(s State) {
	t.div, t.tima, t.tma, t.tac = s.DIV, s.TIMA, s.TMA, s.TAC
	t.divCycles, t.timaCycles = s.DivCycles, s.TimaCycles
}
