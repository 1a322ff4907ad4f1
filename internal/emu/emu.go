package emu

import (
	"context"
	"errors"
	"fmt"

	"github.com/cespare/xxhash"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/apu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/bus"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/romfile"
)

// ErrNoCartridge is returned when stepping a machine that has nothing loaded.
var ErrNoCartridge = errors.New("emu: no cartridge loaded")

type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// Machine owns one emulated console: CPU, bus and everything behind it.
// It is driven synchronously; the only asynchronous output is the frame
// sinks registered through OnFrame and FrameChan.
type Machine struct {
	cfg Config
	log logrus.FieldLogger

	bus    *bus.Bus
	cpu    *cpu.CPU
	apu    *apu.Registers
	cart   cart.Cartridge
	header *cart.Header
	rom    []byte

	romPath string
	bootROM []byte

	// cycles the previous frame overran its budget by
	frameCarry int
	frames     uint64
	// sticky fatal error; once set the machine no longer steps
	err error

	palette Palette
	fb      []byte // RGBA 160x144*4

	sinks []func(*ppu.Frame)
	chans []chan ppu.Frame
}

func New(cfg Config) *Machine {
	m := &Machine{
		cfg:     cfg,
		log:     cfg.logger(),
		fb:      make([]byte, ppu.Width*ppu.Height*4),
		palette: Palettes[0],
	}
	if p, ok := PaletteByName(cfg.Palette); ok {
		m.palette = p
	}
	return m
}

// LoadCartridge builds a fresh machine around rom. With a boot ROM of at
// least 256 bytes (and SkipBoot unset) execution starts at 0x0000 under the
// overlay; otherwise the CPU and IO registers start in the post-boot state.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	c, h, err := cart.NewCartridge(rom, m.log)
	if err != nil {
		return fmt.Errorf("load cartridge: %w", err)
	}
	m.cart, m.header, m.rom = c, h, rom

	b := bus.New(c)
	m.apu = apu.New()
	b.SetAudio(m.apu)
	if m.cfg.SerialOut != nil {
		b.SetSerialWriter(m.cfg.SerialOut)
	}
	b.StubLY(m.cfg.DoctorLog != nil)
	m.bus = b
	m.cpu = cpu.New(b, b.IRQ())

	m.bootROM = nil
	if len(boot) >= 0x100 {
		m.bootROM = make([]byte, 0x100)
		copy(m.bootROM, boot[:0x100])
	}
	if m.bootROM != nil && !m.cfg.SkipBoot {
		b.SetBootROM(m.bootROM)
		m.cpu.SP = 0xFFFE
		m.cpu.PC = 0x0000
	} else {
		m.cpu.ResetNoBoot()
		m.applyDMGPostBootIO()
	}

	if _, ok := PaletteByName(m.cfg.Palette); !ok {
		m.palette = paletteForHeader(h)
	}
	m.frameCarry, m.frames, m.err = 0, 0, nil
	for i := range m.fb {
		m.fb[i] = 0xFF
	}
	return nil
}

// LoadROMFromFile reads a ROM (raw or archived) and loads it, keeping the
// configured boot ROM.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := romfile.Load(path)
	if err != nil {
		return err
	}
	if err := m.LoadCartridge(data, m.bootROM); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

// ROMPath returns the currently loaded ROM file path, if any.
func (m *Machine) ROMPath() string { return m.romPath }

// Header returns the parsed header of the loaded cartridge, or nil.
func (m *Machine) Header() *cart.Header { return m.header }

// ROMTitle returns the cartridge title, or "" with nothing loaded.
func (m *Machine) ROMTitle() string {
	if m.header == nil {
		return ""
	}
	return m.header.Title
}

// SetBootROM sets the DMG boot ROM used by the next load or ResetWithBoot.
func (m *Machine) SetBootROM(data []byte) {
	if len(data) >= 0x100 {
		m.bootROM = make([]byte, 0x100)
		copy(m.bootROM, data[:0x100])
	} else {
		m.bootROM = nil
	}
}

// HasBootROM reports whether a DMG boot ROM is configured on this machine.
func (m *Machine) HasBootROM() bool { return len(m.bootROM) >= 0x100 }

// CPU exposes the processor for tools and tests.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Bus exposes the memory bus for tools and tests.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// Err returns the fatal error that stopped the machine, if any.
func (m *Machine) Err() error { return m.err }

// ResetPostBoot reloads the current cartridge and starts from the post-boot state.
// Cartridge RAM survives the reset.
func (m *Machine) ResetPostBoot() error { return m.reset(false) }

// ResetWithBoot restarts under the boot ROM when one is configured.
func (m *Machine) ResetWithBoot() error { return m.reset(true) }

func (m *Machine) reset(withBoot bool) error {
	if m.cart == nil {
		return ErrNoCartridge
	}
	ram, hasRAM := m.cart.(cart.BatteryBacked)
	var saved []byte
	if hasRAM {
		saved = ram.SaveRAM()
	}
	rom := m.rom
	var boot []byte
	if withBoot {
		boot = m.bootROM
	}
	skip := m.cfg.SkipBoot
	m.cfg.SkipBoot = !withBoot
	err := m.LoadCartridge(rom, boot)
	m.cfg.SkipBoot = skip
	if err != nil {
		return err
	}
	if ram, ok := m.cart.(cart.BatteryBacked); ok && saved != nil {
		ram.LoadRAM(saved)
	}
	return nil
}

// applyDMGPostBootIO sets the IO registers the boot ROM leaves behind, so
// ROMs can start from PC=0x0100 without a boot ROM and still have LCD enabled.
func (m *Machine) applyDMGPostBootIO() {
	b := m.bus
	b.Write(0xFF00, 0xCF) // joypad: both groups selected, nothing pressed
	b.Write(0xFF05, 0x00) // TIMA
	b.Write(0xFF06, 0x00) // TMA
	b.Write(0xFF07, 0x00) // TAC
	// sound: powered with channel 1 left on by the boot chime
	b.Write(0xFF26, 0x80)
	b.Write(0xFF11, 0xBF)
	b.Write(0xFF12, 0xF3)
	b.Write(0xFF14, 0xBF)
	b.Write(0xFF24, 0x77)
	b.Write(0xFF25, 0xF3)
	b.Write(0xFF40, 0x91) // LCDC: LCD on, BG on, tile data 8000, BG map 9800
	b.Write(0xFF42, 0x00) // SCY
	b.Write(0xFF43, 0x00) // SCX
	b.Write(0xFF45, 0x00) // LYC
	b.Write(0xFF47, 0xFC) // BGP
	b.Write(0xFF48, 0xFF) // OBP0
	b.Write(0xFF49, 0xFF) // OBP1
	b.Write(0xFF4A, 0x00) // WY
	b.Write(0xFF4B, 0x00) // WX
	b.Write(0xFF0F, 0xE1) // IF: VBlank left pending
	b.Write(0xFFFF, 0x00) // IE
}

// trace logs at trace level when the logger supports it, debug otherwise.
func (m *Machine) trace(line string) {
	if l, ok := m.log.(logrus.Ext1FieldLogger); ok {
		l.Trace(line)
		return
	}
	m.log.Debug(line)
}

// Step executes one CPU step and advances the timer and PPU by its cycles.
// After an illegal opcode the dump is logged and every later call returns
// the same error.
func (m *Machine) Step() (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.cpu == nil {
		return 0, ErrNoCartridge
	}
	if !m.cpu.Halted() {
		if m.cfg.DoctorLog != nil {
			fmt.Fprintln(m.cfg.DoctorLog, m.cpu.DoctorLine())
		}
		if m.cfg.Trace {
			m.trace(m.cpu.DoctorLine())
		}
	}
	cycles, err := m.cpu.Step()
	if err != nil {
		var ill *cpu.IllegalOpcodeError
		if errors.As(err, &ill) {
			m.log.WithFields(logrus.Fields{
				"pc":     fmt.Sprintf("%04X", ill.PC),
				"opcode": fmt.Sprintf("%02X", ill.Opcode),
			}).Errorf("CPU stopped\n%s", ill.Dump())
		}
		m.err = err
		return 0, err
	}
	m.bus.Tick(cycles)
	return cycles, nil
}

// StepFrame runs one frame's worth of cycles (70224). An instruction that
// crosses the budget finishes, and the overrun is taken from the next frame.
// Frame sinks are notified afterwards.
func (m *Machine) StepFrame() error {
	budget := ppu.FrameCycles - m.frameCarry
	spent := 0
	for spent < budget {
		c, err := m.Step()
		if err != nil {
			return err
		}
		spent += c
	}
	m.frameCarry = spent - budget
	m.frames++
	m.renderFramebuffer()
	m.notify()
	return nil
}

// Run steps frames until ctx is cancelled or the CPU stops. With a pacer
// frames are released at the hardware rate.
func (m *Machine) Run(ctx context.Context, p *Pacer) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := m.StepFrame(); err != nil {
			return err
		}
		if p != nil {
			if err := p.Wait(ctx); err != nil {
				return nil
			}
		}
	}
}

// Frames returns how many frames StepFrame has completed.
func (m *Machine) Frames() uint64 { return m.frames }

// Frame returns the PPU's shade buffer.
func (m *Machine) Frame() *ppu.Frame {
	if m.bus == nil {
		return &ppu.Frame{}
	}
	return m.bus.PPU().Frame()
}

// FrameDigest hashes the current shade buffer. It does not depend on the
// display palette, so it identifies a picture across runs.
func (m *Machine) FrameDigest() uint64 {
	return xxhash.Sum64(m.Frame().Pix[:])
}

// OnFrame registers fn to receive every completed frame. fn runs on the
// stepping goroutine and must not keep the pointer.
func (m *Machine) OnFrame(fn func(*ppu.Frame)) { m.sinks = append(m.sinks, fn) }

// FrameChan returns a channel that receives a copy of each completed frame.
// Frames are dropped while the channel is full.
func (m *Machine) FrameChan(buffer int) <-chan ppu.Frame {
	ch := make(chan ppu.Frame, buffer)
	m.chans = append(m.chans, ch)
	return ch
}

func (m *Machine) notify() {
	f := m.Frame()
	for _, fn := range m.sinks {
		fn(f)
	}
	for _, ch := range m.chans {
		select {
		case ch <- *f:
		default:
		}
	}
}

// Palette returns the display palette in use.
func (m *Machine) Palette() Palette { return m.palette }

// SetPalette switches the display palette used by Framebuffer.
func (m *Machine) SetPalette(p Palette) {
	m.palette = p
	m.renderFramebuffer()
}

// renderFramebuffer maps the shade buffer through the display palette.
// With the LCD off the screen shows the lightest shade.
func (m *Machine) renderFramebuffer() {
	if m.bus == nil {
		return
	}
	lcdOn := m.bus.Read(0xFF40)&0x80 != 0
	f := m.Frame()
	for i, s := range f.Pix {
		if !lcdOn {
			s = 0
		}
		c := m.palette.Shades[s&3]
		o := i * 4
		m.fb[o+0], m.fb[o+1], m.fb[o+2], m.fb[o+3] = c.R, c.G, c.B, c.A
	}
}

// Framebuffer returns the last completed frame as RGBA bytes.
func (m *Machine) Framebuffer() []byte { return m.fb }

func (m *Machine) SetButtons(b Buttons) {
	if m.bus == nil {
		return
	}
	var mask bus.Buttons
	if b.Right {
		mask |= bus.JoypRight
	}
	if b.Left {
		mask |= bus.JoypLeft
	}
	if b.Up {
		mask |= bus.JoypUp
	}
	if b.Down {
		mask |= bus.JoypDown
	}
	if b.A {
		mask |= bus.JoypA
	}
	if b.B {
		mask |= bus.JoypB
	}
	if b.Select {
		mask |= bus.JoypSelect
	}
	if b.Start {
		mask |= bus.JoypStart
	}
	m.bus.SetJoypadState(mask)
}

// SaveBattery returns a copy of external RAM for battery-backed cartridges.
// The caller decides where it is stored.
func (m *Machine) SaveBattery() ([]byte, bool) {
	if m.header == nil || !m.header.HasBattery() {
		return nil, false
	}
	bb, ok := m.cart.(cart.BatteryBacked)
	if !ok {
		return nil, false
	}
	data := bb.SaveRAM()
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

// LoadBattery loads external RAM bytes into the cartridge if supported.
func (m *Machine) LoadBattery(data []byte) bool {
	bb, ok := m.cart.(cart.BatteryBacked)
	if !ok {
		return false
	}
	bb.LoadRAM(data)
	return true
}
