package bus

import (
	"io"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/irq"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/timer"
)

// AudioPort is the register surface of an audio unit (FF10–FF3F).
type AudioPort interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
}

// Bus routes every CPU address to its backing store:
//
//	0000-7FFF  cartridge ROM (boot ROM over 0000-00FF until FF50 is written)
//	8000-9FFF  VRAM (PPU)
//	A000-BFFF  cartridge RAM
//	C000-DFFF  WRAM, mirrored at E000-FDFF
//	FE00-FE9F  OAM (PPU)
//	FEA0-FEFF  unusable, reads 0xFF
//	FF00-FF7F  IO registers
//	FF80-FFFE  HRAM
//	FFFF       IE
type Bus struct {
	cart cart.Cartridge
	ppu  *ppu.PPU
	irq  *irq.Controller
	tmr  *timer.Timer

	wram [0x2000]byte
	hram [0x7F]byte
	io   [0x80]byte // raw storage for registers without an owner

	boot        []byte
	bootEnabled bool

	joy    Joypad
	keypad *Keypad
	serial serialPort
	audio  AudioPort

	stubLY bool
}

// New wires a bus around the cartridge together with fresh interrupt,
// timer and PPU units. c may be nil, in which case the cartridge ranges read 0xFF.
func New(c cart.Cartridge) *Bus {
	b := &Bus{cart: c}
	b.irq = irq.New()
	b.tmr = timer.New(b.irq)
	b.ppu = ppu.New(b.irq.RequestBit)
	b.keypad = NewKeypad(b.irq)
	b.joy = b.keypad
	b.serial.irq = b.irq
	for i := range b.io {
		b.io[i] = 0xFF
	}
	return b
}

func (b *Bus) PPU() *ppu.PPU { return b.ppu }

func (b *Bus) IRQ() *irq.Controller { return b.irq }

func (b *Bus) Timer() *timer.Timer { return b.tmr }

func (b *Bus) Cartridge() cart.Cartridge { return b.cart }

func (b *Bus) Keypad() *Keypad { return b.keypad }

// SetJoypad replaces the built-in keypad as the owner of FF00.
func (b *Bus) SetJoypad(j Joypad) { b.joy = j }

// SetJoypadState sets the pressed buttons on the built-in keypad.
func (b *Bus) SetJoypadState(pressed Buttons) { b.keypad.SetButtons(pressed) }

// SetSerialWriter receives every byte shifted out through the serial port.
func (b *Bus) SetSerialWriter(w io.Writer) { b.serial.out = w }

// SetAudio routes FF10–FF3F to a. Without an audio unit the range is raw storage.
func (b *Bus) SetAudio(a AudioPort) { b.audio = a }

// SetBootROM maps rom over 0000–00FF until FF50 is written.
func (b *Bus) SetBootROM(rom []byte) {
	b.boot = rom
	b.bootEnabled = len(rom) > 0
}

// BootROMEnabled reports whether the boot overlay is still mapped.
func (b *Bus) BootROMEnabled() bool { return b.bootEnabled }

// StubLY makes LY read as 0x90, the value trace comparison logs are recorded with.
func (b *Bus) StubLY(on bool) { b.stubLY = on }

// Tick advances the timer and then the PPU by the cycles of one CPU step.
func (b *Bus) Tick(cycles int) {
	b.tmr.Tick(cycles)
	b.ppu.Tick(cycles)
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x0100 && b.bootEnabled:
		if int(addr) < len(b.boot) {
			return b.boot[addr]
		}
		return 0xFF
	case addr < 0x8000:
		if b.cart == nil {
			return 0xFF
		}
		return b.cart.Read(addr)
	case addr < 0xA000:
		return b.ppu.CPURead(addr)
	case addr < 0xC000:
		if b.cart == nil {
			return 0xFF
		}
		return b.cart.ReadRAM(addr)
	case addr < 0xE000:
		return b.wram[addr-0xC000]
	case addr < 0xFE00:
		return b.wram[addr-0xE000]
	case addr < 0xFEA0:
		return b.ppu.CPURead(addr)
	case addr < 0xFF00:
		return 0xFF
	case addr < 0xFF80:
		return b.readIO(addr)
	case addr < 0xFFFF:
		return b.hram[addr-0xFF80]
	default:
		return b.irq.ReadIE()
	}
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		if b.cart != nil {
			b.cart.Write(addr, value)
		}
	case addr < 0xA000:
		b.ppu.CPUWrite(addr, value)
	case addr < 0xC000:
		if b.cart != nil {
			b.cart.WriteRAM(addr, value)
		}
	case addr < 0xE000:
		b.wram[addr-0xC000] = value
	case addr < 0xFE00:
		b.wram[addr-0xE000] = value
	case addr < 0xFEA0:
		b.ppu.CPUWrite(addr, value)
	case addr < 0xFF00:
		// unusable
	case addr < 0xFF80:
		b.writeIO(addr, value)
	case addr < 0xFFFF:
		b.hram[addr-0xFF80] = value
	default:
		b.irq.WriteIE(value)
	}
}

func (b *Bus) readIO(addr uint16) byte {
	switch {
	case addr == 0xFF00:
		return b.joy.Read()
	case addr == 0xFF01 || addr == 0xFF02:
		return b.serial.read(addr)
	case addr >= timer.DIV && addr <= timer.TAC:
		return b.tmr.Read(addr)
	case addr == 0xFF0F:
		return b.irq.ReadIF()
	case addr >= 0xFF10 && addr <= 0xFF3F && b.audio != nil:
		return b.audio.Read(addr)
	case addr == 0xFF44 && b.stubLY:
		return 0x90
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF50:
		return 0xFF
	}
	return b.io[addr-0xFF00]
}

func (b *Bus) writeIO(addr uint16, v byte) {
	switch {
	case addr == 0xFF00:
		b.joy.Write(v)
	case addr == 0xFF01 || addr == 0xFF02:
		b.serial.write(addr, v)
	case addr >= timer.DIV && addr <= timer.TAC:
		b.tmr.Write(addr, v)
	case addr == 0xFF0F:
		b.irq.WriteIF(v)
	case addr >= 0xFF10 && addr <= 0xFF3F && b.audio != nil:
		b.audio.Write(addr, v)
	case addr == 0xFF46:
		b.ppu.DMA(v, b.dmaRead)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		b.ppu.CPUWrite(addr, v)
	case addr == 0xFF50:
		b.bootEnabled = false
	default:
		b.io[addr-0xFF00] = v
	}
}

// dmaRead reads a DMA source byte, bypassing the PPU's VRAM/OAM locks.
func (b *Bus) dmaRead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr < 0xA000:
		return b.ppu.RawVRAM(addr)
	case addr >= 0xFE00:
		// sources above FDFF land in the WRAM mirror
		return b.wram[(addr-0xE000)&0x1FFF]
	}
	return b.Read(addr)
}

// Read16 reads a little-endian word.
func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.Read(addr)) | uint16(b.Read(addr+1))<<8
}

// Write16 writes a little-endian word.
func (b *Bus) Write16(addr uint16, v uint16) {
	b.Write(addr, byte(v))
	b.Write(addr+1, byte(v>>8))
}

// State holds the bus-owned memories and port registers.
type State struct {
	WRAM        [0x2000]byte
	HRAM        [0x7F]byte
	IO          [0x80]byte
	BootEnabled bool
	JoypSelect  byte
	SB, SC      byte
}

func (b *Bus) Snapshot() State {
	return State{
		WRAM: b.wram, HRAM: b.hram, IO: b.io, BootEnabled: b.bootEnabled,
		JoypSelect: b.keypad.sel, SB: b.serial.sb, SC: b.serial.sc,
	}
}

func (b *Bus) Restore(s State) {
	b.wram, b.hram, b.io = s.WRAM, s.HRAM, s.IO
	b.bootEnabled = s.BootEnabled && len(b.boot) > 0
	b.keypad.sel = s.JoypSelect
	b.serial.sb, b.serial.sc = s.SB, s.SC
}
