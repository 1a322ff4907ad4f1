package emu

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/apu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/bus"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/timer"
)

// ErrStateMismatch is returned when a save state belongs to another cartridge.
var ErrStateMismatch = errors.New("emu: save state is for a different cartridge")

const stateVersion = 1

// --- Save/Load state ---
type machineState struct {
	Version    int
	Title      string
	CPU        cpu.State
	Bus        bus.State
	Timer      timer.State
	IE, IF     byte
	PPU        []byte
	Cart       []byte
	APU        apu.State
	FrameCarry int
}

// SaveState serializes the whole machine. The boot ROM and frame sinks are
// not part of it.
func (m *Machine) SaveState() ([]byte, error) {
	if m.cpu == nil {
		return nil, ErrNoCartridge
	}
	ppuBlob, err := m.bus.PPU().SaveState()
	if err != nil {
		return nil, err
	}
	cartBlob, err := m.cart.SaveState()
	if err != nil {
		return nil, err
	}
	ic := m.bus.IRQ()
	s := machineState{
		Version:    stateVersion,
		Title:      m.header.Title,
		CPU:        m.cpu.Snapshot(),
		Bus:        m.bus.Snapshot(),
		Timer:      m.bus.Timer().Snapshot(),
		IE:         ic.IE,
		IF:         ic.IF,
		PPU:        ppuBlob,
		Cart:       cartBlob,
		APU:        m.apu.Snapshot(),
		FrameCarry: m.frameCarry,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadState restores a state produced by SaveState for the same cartridge.
// On error the machine is left as it was.
func (m *Machine) LoadState(data []byte) error {
	if m.cpu == nil {
		return ErrNoCartridge
	}
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if s.Version != stateVersion {
		return fmt.Errorf("decode state: unsupported version %d", s.Version)
	}
	if s.Title != m.header.Title {
		return fmt.Errorf("%w: state %q, loaded %q", ErrStateMismatch, s.Title, m.header.Title)
	}
	// Component loaders decode fully before assigning, so only the PPU
	// needs rolling back when the cartridge blob is bad.
	prevPPU, err := m.bus.PPU().SaveState()
	if err != nil {
		return err
	}
	if err := m.bus.PPU().LoadState(s.PPU); err != nil {
		return fmt.Errorf("restore ppu: %w", err)
	}
	if err := m.cart.LoadState(s.Cart); err != nil {
		if rerr := m.bus.PPU().LoadState(prevPPU); rerr != nil {
			m.log.WithError(rerr).Error("ppu rollback failed")
		}
		return fmt.Errorf("restore cartridge: %w", err)
	}
	m.cpu.Restore(s.CPU)
	m.bus.Restore(s.Bus)
	m.bus.Timer().Restore(s.Timer)
	ic := m.bus.IRQ()
	ic.IE, ic.IF = s.IE, s.IF
	m.apu.Restore(s.APU)
	m.frameCarry = s.FrameCarry
	m.err = nil
	m.renderFramebuffer()
	return nil
}

func (m *Machine) SaveStateToFile(path string) error {
	data, err := m.SaveState()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.LoadState(data)
}
