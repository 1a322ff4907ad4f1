// Package irq holds the interrupt enable (IE) and interrupt flag (IF)
// registers and the fixed priority order in which pending interrupts
// are dispatched.
package irq

// Interrupt identifies one of the five interrupt sources by its bit
// position in IE and IF.
type Interrupt uint8

const (
	// VBlank is requested every time the PPU enters vertical blank.
	VBlank Interrupt = 0
	// LCDStat is requested by the STAT register sources (mode entry or
	// LY=LYC coincidence) when they are enabled.
	LCDStat Interrupt = 1
	// Timer is requested when TIMA overflows.
	Timer Interrupt = 2
	// Serial is requested when a serial transfer completes.
	Serial Interrupt = 3
	// Joypad is requested when a selected button goes from released to pressed.
	Joypad Interrupt = 4
)

// Mask returns the IE/IF bit for the interrupt.
func (i Interrupt) Mask() byte { return 1 << i }

func (i Interrupt) String() string {
	switch i {
	case VBlank:
		return "vblank"
	case LCDStat:
		return "stat"
	case Timer:
		return "timer"
	case Serial:
		return "serial"
	case Joypad:
		return "joypad"
	}
	return "unknown"
}

// Source pairs an interrupt with the address its handler lives at.
type Source struct {
	Interrupt Interrupt
	Vector    uint16
}

// Sources lists every interrupt in dispatch priority order. When more than
// one interrupt is pending, the earliest entry wins.
var Sources = [...]Source{
	{VBlank, 0x0040},
	{LCDStat, 0x0048},
	{Timer, 0x0050},
	{Serial, 0x0058},
	{Joypad, 0x0060},
}

// Controller holds the IE and IF registers.
//
// Requesting an interrupt sets its bit in IF. An interrupt is pending when
// its bit is set in both IF and IE; the CPU services pending interrupts in
// Sources order whenever its master enable (IME) is set.
type Controller struct {
	IE byte
	IF byte
}

// New returns a controller with no interrupts enabled or requested.
func New() *Controller { return &Controller{} }

// Request sets the flag bit for i.
func (c *Controller) Request(i Interrupt) { c.IF |= i.Mask() }

// RequestBit sets flag bit n. It matches the callback shape used by
// peripherals that only know a bit number.
func (c *Controller) RequestBit(n int) { c.Request(Interrupt(n)) }

// Acknowledge clears the flag bit for i.
func (c *Controller) Acknowledge(i Interrupt) { c.IF &^= i.Mask() }

// Pending returns the requested and enabled interrupt bits.
func (c *Controller) Pending() byte { return c.IE & c.IF & 0x1F }

// Next returns the highest priority pending interrupt, if any.
func (c *Controller) Next() (Source, bool) {
	p := c.Pending()
	if p == 0 {
		return Source{}, false
	}
	for _, s := range Sources {
		if p&s.Interrupt.Mask() != 0 {
			return s, true
		}
	}
	return Source{}, false
}

// ReadIF returns IF as the CPU sees it: the upper three bits read as 1.
func (c *Controller) ReadIF() byte { return 0xE0 | c.IF&0x1F }

// WriteIF stores the low five bits of v.
func (c *Controller) WriteIF(v byte) { c.IF = v & 0x1F }

// ReadIE returns IE. All eight bits are stored.
func (c *Controller) ReadIE() byte { return c.IE }

// WriteIE stores v.
func (c *Controller) WriteIE(v byte) { c.IE = v }
