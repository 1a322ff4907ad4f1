package ppu

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/irq"
)

// InterruptRequester is a callback signature to request IF bits (0:VBlank, 1:STAT, etc.).
type InterruptRequester func(bit int)

// Mode is the PPU phase, as reported in STAT bits 0-1.
type Mode byte

const (
	ModeHBlank   Mode = 0
	ModeVBlank   Mode = 1
	ModeOAM      Mode = 2
	ModeTransfer Mode = 3
)

// Phase lengths in cycles.
const (
	oamCycles      = 80
	transferCycles = 172
	hblankCycles   = 204
	LineCycles     = oamCycles + transferCycles + hblankCycles
	VisibleLines   = 144
	TotalLines     = 154
	FrameCycles    = LineCycles * TotalLines
)

// STAT bits.
const (
	statCoincidence = 1 << 2
	statHBlankIRQ   = 1 << 3
	statVBlankIRQ   = 1 << 4
	statOAMIRQ      = 1 << 5
	statLYCIRQ      = 1 << 6
)

// LCDC bits.
const (
	lcdcBGEnable     = 1 << 0
	lcdcOBJEnable    = 1 << 1
	lcdcOBJTall      = 1 << 2
	lcdcBGMap        = 1 << 3
	lcdcTileData8000 = 1 << 4
	lcdcWinEnable    = 1 << 5
	lcdcWinMap       = 1 << 6
	lcdcEnable       = 1 << 7
)

// vram is the 8 KiB video RAM; it satisfies VRAMReader with unrestricted access.
type vram [0x2000]byte

func (v *vram) Read(addr uint16) byte { return v[addr&0x1FFF] }

// PPU models VRAM/OAM, the LCD registers, the mode state machine and the
// scanline renderer. Each visible line is rendered into the frame when the
// pixel transfer phase ends.
type PPU struct {
	// memory
	vram vram       // 0x8000–0x9FFF
	oam  [0xA0]byte // 0xFE00–0xFE9F

	// regs
	lcdc byte // FF40
	stat byte // FF41 (mode bits 0-1, coincidence flag bit2, enables bits3-6)
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	dma  byte // FF46 (last source page)
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	clock int // cycles accumulated in the current phase

	// last value the CPU read from VRAM; returned while VRAM is locked
	vramLatch byte

	// internal window line counter, advances only on lines that drew the window
	winLine byte

	frame  Frame
	frames uint64

	req InterruptRequester
}

func New(req InterruptRequester) *PPU {
	return &PPU{req: req}
}

func (p *PPU) request(i irq.Interrupt) {
	if p.req != nil {
		p.req(int(i))
	}
}

// CPURead returns bytes for VRAM, OAM, and PPU IO registers. Returns 0xFF for others.
//
// While the LCD is on, VRAM reads during pixel transfer return the last value
// successfully read, and OAM reads during OAM scan or pixel transfer return 0xFF.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.vramLocked() {
			return p.vramLatch
		}
		p.vramLatch = p.vram[addr-0x8000]
		return p.vramLatch
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if p.oamLocked() {
			return 0xFF
		}
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		// On DMG, bit7 reads as 1; bit6..3 are enables; bit2 coincidence; bit1..0 mode
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF46:
		return p.dma
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO regs. Others are ignored here.
// FF46 only records the page; the copy itself is started through DMA.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		if p.vramLocked() {
			return
		}
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if p.oamLocked() {
			return
		}
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if value&lcdcEnable == 0 && prev&lcdcEnable != 0 {
			p.disable()
		} else if value&lcdcEnable != 0 && prev&lcdcEnable == 0 {
			p.enable()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		// LY is read-only
	case addr == 0xFF45:
		p.lyc = value
		p.compareLY()
	case addr == 0xFF46:
		p.dma = value
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

func (p *PPU) enabled() bool { return p.lcdc&lcdcEnable != 0 }

func (p *PPU) vramLocked() bool { return p.enabled() && p.Mode() == ModeTransfer }

func (p *PPU) oamLocked() bool {
	m := p.Mode()
	return p.enabled() && (m == ModeOAM || m == ModeTransfer)
}

// disable parks the PPU at LY 0 in HBlank. Nothing advances until enable.
func (p *PPU) disable() {
	p.ly = 0
	p.clock = 0
	p.winLine = 0
	p.stat &^= 0x03
	if p.ly == p.lyc {
		p.stat |= statCoincidence
	} else {
		p.stat &^= statCoincidence
	}
}

// enable restarts the frame from the OAM scan of line 0.
func (p *PPU) enable() {
	p.ly = 0
	p.clock = 0
	p.winLine = 0
	p.setMode(ModeOAM)
	p.compareLY()
}

// Tick advances PPU state by the given number of cycles.
func (p *PPU) Tick(cycles int) {
	if cycles <= 0 || !p.enabled() {
		return
	}
	p.clock += cycles
	for {
		switch p.Mode() {
		case ModeOAM:
			if p.clock < oamCycles {
				return
			}
			p.clock -= oamCycles
			p.setMode(ModeTransfer)
		case ModeTransfer:
			if p.clock < transferCycles {
				return
			}
			p.clock -= transferCycles
			p.renderLine()
			p.setMode(ModeHBlank)
		case ModeHBlank:
			if p.clock < hblankCycles {
				return
			}
			p.clock -= hblankCycles
			p.setLY(p.ly + 1)
			if p.ly == VisibleLines {
				p.setMode(ModeVBlank)
				p.request(irq.VBlank)
				p.frames++
			} else {
				p.setMode(ModeOAM)
			}
		case ModeVBlank:
			if p.clock < LineCycles {
				return
			}
			p.clock -= LineCycles
			if p.ly == TotalLines-1 {
				p.winLine = 0
				p.setLY(0)
				p.setMode(ModeOAM)
			} else {
				p.setLY(p.ly + 1)
			}
		}
	}
}

func (p *PPU) setMode(m Mode) {
	p.stat = (p.stat &^ 0x03) | byte(m)
	var src byte
	switch m {
	case ModeHBlank:
		src = statHBlankIRQ
	case ModeVBlank:
		src = statVBlankIRQ
	case ModeOAM:
		src = statOAMIRQ
	}
	if p.stat&src != 0 {
		p.request(irq.LCDStat)
	}
}

func (p *PPU) setLY(ly byte) {
	p.ly = ly
	p.compareLY()
}

// compareLY refreshes the coincidence flag. STAT is raised only when the
// flag goes from clear to set and the coincidence source is enabled.
func (p *PPU) compareLY() {
	if p.ly != p.lyc {
		p.stat &^= statCoincidence
		return
	}
	was := p.stat&statCoincidence != 0
	p.stat |= statCoincidence
	if !was && p.stat&statLYCIRQ != 0 {
		p.request(irq.LCDStat)
	}
}

// DMA copies 160 bytes from page<<8 into OAM. read fetches source bytes
// without any PPU access restrictions.
func (p *PPU) DMA(page byte, read func(addr uint16) byte) {
	p.dma = page
	src := uint16(page) << 8
	for i := uint16(0); i < uint16(len(p.oam)); i++ {
		p.oam[i] = read(src + i)
	}
}

// Mode returns the current phase.
func (p *PPU) Mode() Mode { return Mode(p.stat & 0x03) }

// LY returns the current scanline.
func (p *PPU) LY() byte { return p.ly }

// Frames returns how many times the PPU has entered VBlank.
func (p *PPU) Frames() uint64 { return p.frames }

// Frame returns the live framebuffer. It is rewritten line by line as the PPU runs.
func (p *PPU) Frame() *Frame { return &p.frame }

// RawVRAM returns VRAM bytes without CPU access restrictions; for DMA and debugging.
func (p *PPU) RawVRAM(addr uint16) byte {
	if addr >= 0x8000 && addr <= 0x9FFF {
		return p.vram[addr-0x8000]
	}
	return 0xFF
}

// RawOAM returns OAM bytes without CPU access restrictions.
func (p *PPU) RawOAM(addr uint16) byte {
	if addr >= 0xFE00 && addr <= 0xFE9F {
		return p.oam[addr-0xFE00]
	}
	return 0xFF
}

// --- Save/Load state ---
type ppuState struct {
	VRAM      [0x2000]byte
	OAM       [0xA0]byte
	LCDC      byte
	STAT      byte
	SCY       byte
	SCX       byte
	LY        byte
	LYC       byte
	DMA       byte
	BGP       byte
	OBP0      byte
	OBP1      byte
	WY        byte
	WX        byte
	Clock     int
	VRAMLatch byte
	WinLine   byte
	Frame     Frame
	Frames    uint64
}

func (p *PPU) SaveState() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	s := ppuState{
		VRAM: p.vram, OAM: p.oam,
		LCDC: p.lcdc, STAT: p.stat, SCY: p.scy, SCX: p.scx, LY: p.ly, LYC: p.lyc, DMA: p.dma,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1, WY: p.wy, WX: p.wx,
		Clock: p.clock, VRAMLatch: p.vramLatch, WinLine: p.winLine,
		Frame: p.frame, Frames: p.frames,
	}
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("ppu state: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *PPU) LoadState(data []byte) error {
	var s ppuState
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return err
	}
	p.vram = s.VRAM
	p.oam = s.OAM
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc, p.dma = s.LCDC, s.STAT, s.SCY, s.SCX, s.LY, s.LYC, s.DMA
	p.bgp, p.obp0, p.obp1, p.wy, p.wx = s.BGP, s.OBP0, s.OBP1, s.WY, s.WX
	p.clock, p.vramLatch, p.winLine = s.Clock, s.VRAMLatch, s.WinLine
	p.frame, p.frames = s.Frame, s.Frames
	return nil
}
