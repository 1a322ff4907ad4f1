package bus

import "github.com/FabianRolfMatthiasNoll/dmgemu/internal/irq"

// Joypad owns the FF00 register. Read and Write are called on every CPU access.
type Joypad interface {
	Read() byte
	Write(v byte)
}

// Buttons is a bitmask of pressed buttons.
type Buttons byte

const (
	JoypRight Buttons = 1 << iota
	JoypLeft
	JoypUp
	JoypDown
	JoypA
	JoypB
	JoypSelect
	JoypStart
)

// Keypad is the DMG button matrix. Writing bit 4 low selects the d-pad,
// bit 5 low selects the buttons; selected pressed keys read as 0 in bits 0-3.
type Keypad struct {
	sel     byte // bits 4-5 as last written
	pressed Buttons
	irq     *irq.Controller
}

func NewKeypad(ic *irq.Controller) *Keypad {
	return &Keypad{sel: 0x30, irq: ic}
}

func (k *Keypad) Read() byte {
	return 0xC0 | k.sel | k.lines()
}

func (k *Keypad) Write(v byte) {
	before := k.lines()
	k.sel = v & 0x30
	k.raiseOnFall(before)
}

// SetButtons replaces the pressed set. A key going down in a selected group
// requests the joypad interrupt.
func (k *Keypad) SetButtons(pressed Buttons) {
	before := k.lines()
	k.pressed = pressed
	k.raiseOnFall(before)
}

// Pressed returns the current pressed set.
func (k *Keypad) Pressed() Buttons { return k.pressed }

// lines returns the active-low state of P10-P13 for the current selection.
func (k *Keypad) lines() byte {
	low := byte(0)
	if k.sel&0x10 == 0 {
		low |= byte(k.pressed) & 0x0F
	}
	if k.sel&0x20 == 0 {
		low |= byte(k.pressed>>4) & 0x0F
	}
	return 0x0F &^ low
}

func (k *Keypad) raiseOnFall(before byte) {
	if before&^k.lines() != 0 && k.irq != nil {
		k.irq.Request(irq.Joypad)
	}
}
