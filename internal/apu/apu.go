// Package apu models the register file of the DMG audio unit (FF10–FF3F).
// Software reads back what it wrote through the hardware read masks, and
// NR52 reports power and channel status. No samples are produced.
package apu

// Register addresses.
const (
	NR10 uint16 = 0xFF10
	NR11 uint16 = 0xFF11
	NR12 uint16 = 0xFF12
	NR14 uint16 = 0xFF14
	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR24 uint16 = 0xFF19
	NR30 uint16 = 0xFF1A
	NR34 uint16 = 0xFF1E
	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR44 uint16 = 0xFF23
	NR50 uint16 = 0xFF24
	NR51 uint16 = 0xFF25
	NR52 uint16 = 0xFF26

	waveStart uint16 = 0xFF30
	waveEnd   uint16 = 0xFF3F
)

// readMask holds the bits that always read as 1 for FF10–FF2F. Write-only
// fields (lengths, frequency low bytes) are fully masked; unmapped slots read 0xFF.
var readMask = [0x20]byte{
	0x80, 0x3F, 0x00, 0xFF, 0xBF, // NR10-NR14
	0xFF, 0x3F, 0x00, 0xFF, 0xBF, // unused, NR21-NR24
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF, // NR30-NR34
	0xFF, 0xFF, 0x00, 0x00, 0xBF, // unused, NR41-NR44
	0x00, 0x00, 0x70, // NR50-NR52
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
}

// channel describes where each channel's DAC and trigger bits live.
type channel struct {
	dacReg  uint16
	dacMask byte
	trigger uint16
}

var channels = [4]channel{
	{NR12, 0xF8, NR14},
	{NR22, 0xF8, NR24},
	{NR30, 0x80, NR34},
	{NR42, 0xF8, NR44},
}

// Registers is the audio register surface. It starts powered off, as the
// hardware does before the boot ROM enables sound.
type Registers struct {
	regs    [0x20]byte // FF10–FF2F as written
	wave    [16]byte   // FF30–FF3F
	powered bool
	active  byte // NR52 bits 0-3
}

func New() *Registers { return &Registers{} }

// Read returns the register value as the CPU sees it.
func (r *Registers) Read(addr uint16) byte {
	switch {
	case addr >= waveStart && addr <= waveEnd:
		return r.wave[addr-waveStart]
	case addr == NR52:
		return readMask[NR52-NR10] | boolToByte(r.powered)<<7 | r.active
	case addr >= NR10 && addr < waveStart:
		i := addr - NR10
		return r.regs[i] | readMask[i]
	}
	return 0xFF
}

// Write stores a register. While powered off only NR52 and wave RAM accept writes.
func (r *Registers) Write(addr uint16, v byte) {
	switch {
	case addr >= waveStart && addr <= waveEnd:
		r.wave[addr-waveStart] = v
		return
	case addr == NR52:
		r.setPower(v&0x80 != 0)
		return
	case addr < NR10 || addr >= waveStart:
		return
	}
	if !r.powered {
		return
	}
	r.regs[addr-NR10] = v
	for i, ch := range channels {
		bit := byte(1) << i
		switch addr {
		case ch.dacReg:
			// DAC off silences the channel
			if v&ch.dacMask == 0 {
				r.active &^= bit
			}
		case ch.trigger:
			if v&0x80 != 0 && r.regs[ch.dacReg-NR10]&ch.dacMask != 0 {
				r.active |= bit
			}
		}
	}
}

// setPower switches the unit. Powering off clears every register except wave RAM.
func (r *Registers) setPower(on bool) {
	if !on && r.powered {
		r.regs = [0x20]byte{}
		r.active = 0
	}
	r.powered = on
}

// Powered reports NR52 bit 7.
func (r *Registers) Powered() bool { return r.powered }

// State is the serializable snapshot of the register file.
type State struct {
	Regs    [0x20]byte
	Wave    [16]byte
	Powered bool
	Active  byte
}

func (r *Registers) Snapshot() State {
	return State{Regs: r.regs, Wave: r.wave, Powered: r.powered, Active: r.active}
}

func (r *Registers) Restore(s State) {
	r.regs, r.wave, r.powered, r.active = s.Regs, s.Wave, s.Powered, s.Active
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
