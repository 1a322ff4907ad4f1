package cart

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Cartridge is what the Bus sees of a cartridge: the ROM window with its
// bank-select registers and the external RAM window. Addresses are CPU addresses.
type Cartridge interface {
	// Read returns a byte from the ROM window (0x0000–0x7FFF).
	Read(addr uint16) byte
	// Write handles mapper control writes in 0x0000–0x7FFF.
	Write(addr uint16, value byte)
	// ReadRAM returns a byte from external RAM (0xA000–0xBFFF), 0xFF when disabled or absent.
	ReadRAM(addr uint16) byte
	// WriteRAM stores a byte into external RAM; dropped when disabled or absent.
	WriteRAM(addr uint16, value byte)
	// SaveState/LoadState serialize banking registers and external RAM for save states.
	SaveState() ([]byte, error)
	LoadState(data []byte) error
}

// BatteryBacked is an optional interface for cartridges with external RAM to be persisted.
// SaveRAM returns a copy (nil if the cartridge has no RAM).
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// NewCartridge parses the header and picks a mapper implementation for it.
// Unsupported mapper codes fall back to ROM-only so homebrew and test ROMs still boot.
func NewCartridge(rom []byte, log logrus.FieldLogger) (Cartridge, *Header, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, nil, fmt.Errorf("cartridge: %w", err)
	}
	entry := log.WithFields(logrus.Fields{"title": h.Title, "type": h.CartTypeStr})
	if h.ROMSizeBytes > 0 && len(rom) < h.ROMSizeBytes {
		entry.Warnf("ROM image is %d bytes, header declares %d; missing banks read as 0xFF", len(rom), h.ROMSizeBytes)
	}

	var c Cartridge
	switch h.Mapper() {
	case MapperNone:
		if h.CartType == TypeROMRAM || h.CartType == TypeROMRAMBattery {
			c = NewROMOnlyWithRAM(rom, h.RAMSizeBytes)
		} else {
			c = NewROMOnly(rom)
		}
	case MapperMBC1:
		c = NewMBC1(rom, h.RAMSizeBytes)
	case MapperMBC2:
		c = NewMBC2(rom)
	case MapperMBC3:
		c = NewMBC3(rom, h.RAMSizeBytes)
	case MapperMBC5:
		switch h.CartType {
		case TypeMBC5Rumble, TypeMBC5RumbleRAM, TypeMBC5RumbleRAMBatt:
			c = NewMBC5Rumble(rom, h.RAMSizeBytes)
		default:
			c = NewMBC5(rom, h.RAMSizeBytes)
		}
	default:
		entry.Warnf("unsupported cartridge type %#02x, running as ROM only", h.CartType)
		c = NewROMOnly(rom)
	}
	entry.WithFields(logrus.Fields{
		"rom_banks": h.ROMBanks,
		"ram_bytes": h.RAMSizeBytes,
		"battery":   h.HasBattery(),
	}).Info("cartridge loaded")
	return c, h, nil
}

// romBanks returns the number of 16 KiB banks the image actually spans (at least 2).
func romBanks(rom []byte) int {
	n := (len(rom) + romBankSize - 1) / romBankSize
	if n < 2 {
		n = 2
	}
	return n
}

// readBank reads offset off inside the given 16 KiB bank, wrapping the bank
// number by the image's bank count. Bytes past the end of a short image read 0xFF.
func readBank(rom []byte, bank int, off uint16) byte {
	bank %= romBanks(rom)
	i := bank*romBankSize + int(off&0x3FFF)
	if i < len(rom) {
		return rom[i]
	}
	return 0xFF
}

// ramOffset maps an A000–BFFF address in the given RAM bank to an index into ram,
// wrapping the bank by the number of banks present. ok is false when there is no RAM.
func ramOffset(ram []byte, bank int, addr uint16) (int, bool) {
	if len(ram) == 0 {
		return 0, false
	}
	banks := len(ram) / ramBankSize
	if banks == 0 {
		// 2 KiB parts mirror inside the window
		return int(addr-0xA000) % len(ram), true
	}
	return (bank%banks)*ramBankSize + int(addr-0xA000), true
}

func encodeState(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("cartridge state: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeState(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("cartridge state: %w", err)
	}
	return nil
}

func copyRAM(ram []byte) []byte {
	if len(ram) == 0 {
		return nil
	}
	out := make([]byte, len(ram))
	copy(out, ram)
	return out
}
