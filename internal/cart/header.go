package cart

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
)

// ErrROMTooSmall is returned when an image cannot even hold the header.
var ErrROMTooSmall = errors.New("ROM too small to contain header")

// Cartridge type codes stored at 0x0147.
const (
	TypeROM                 byte = 0x00
	TypeMBC1                byte = 0x01
	TypeMBC1RAM             byte = 0x02
	TypeMBC1RAMBattery      byte = 0x03
	TypeMBC2                byte = 0x05
	TypeMBC2Battery         byte = 0x06
	TypeROMRAM              byte = 0x08
	TypeROMRAMBattery       byte = 0x09
	TypeMMM01               byte = 0x0B
	TypeMMM01RAM            byte = 0x0C
	TypeMMM01RAMBattery     byte = 0x0D
	TypeMBC3TimerBattery    byte = 0x0F
	TypeMBC3TimerRAMBattery byte = 0x10
	TypeMBC3                byte = 0x11
	TypeMBC3RAM             byte = 0x12
	TypeMBC3RAMBattery      byte = 0x13
	TypeMBC5                byte = 0x19
	TypeMBC5RAM             byte = 0x1A
	TypeMBC5RAMBattery      byte = 0x1B
	TypeMBC5Rumble          byte = 0x1C
	TypeMBC5RumbleRAM       byte = 0x1D
	TypeMBC5RumbleRAMBatt   byte = 0x1E
	TypePocketCamera        byte = 0xFC
	TypeBandaiTAMA5         byte = 0xFD
	TypeHuC3                byte = 0xFE
	TypeHuC1RAMBattery      byte = 0xFF
)

// Mapper is the bank-switching family a cartridge type belongs to.
type Mapper int

const (
	MapperUnsupported Mapper = iota
	MapperNone
	MapperMBC1
	MapperMBC2
	MapperMBC3
	MapperMBC5
)

const (
	headerStart = 0x0100
	headerEnd   = 0x014F
)

var nintendoLogo = [48]byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

// Header is the decoded cartridge header at 0x0100-0x014F.
type Header struct {
	Title          string
	CGBFlag        byte
	NewLicensee    string
	SGBFlag        byte
	CartType       byte
	ROMSizeCode    byte
	RAMSizeCode    byte
	Destination    byte
	OldLicensee    byte
	ROMVersion     byte
	HeaderChecksum byte
	GlobalChecksum uint16

	ROMSizeBytes int // 0 for unknown size codes
	ROMBanks     int
	RAMSizeBytes int
	CartTypeStr  string
	LogoOK       bool
}

// ParseHeader decodes the header of a ROM image. Checksums and the logo are
// reported, not enforced.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) <= headerEnd {
		return nil, ErrROMTooSmall
	}
	title := rom[0x0134:0x0144]
	if i := bytes.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}
	h := &Header{
		Title:          strings.TrimSpace(string(title)),
		CGBFlag:        rom[0x0143],
		NewLicensee:    string(rom[0x0144:0x0146]),
		SGBFlag:        rom[0x0146],
		CartType:       rom[0x0147],
		ROMSizeCode:    rom[0x0148],
		RAMSizeCode:    rom[0x0149],
		Destination:    rom[0x014A],
		OldLicensee:    rom[0x014B],
		ROMVersion:     rom[0x014C],
		HeaderChecksum: rom[0x014D],
		GlobalChecksum: binary.BigEndian.Uint16(rom[0x014E:0x0150]),
		LogoOK:         bytes.Equal(rom[0x0104:0x0134], nintendoLogo[:]),
	}
	h.ROMBanks = romBanksByCode[h.ROMSizeCode]
	h.ROMSizeBytes = h.ROMBanks * romBankSize
	h.RAMSizeBytes = ramSizeByCode[h.RAMSizeCode]
	h.CartTypeStr = h.Mapper().String()
	switch h.CartType {
	case TypeROMRAM, TypeROMRAMBattery:
		h.CartTypeStr = "ROM+RAM"
	case TypeMMM01, TypeMMM01RAM, TypeMMM01RAMBattery:
		h.CartTypeStr = "MMM01"
	case TypePocketCamera:
		h.CartTypeStr = "POCKET CAMERA"
	case TypeBandaiTAMA5:
		h.CartTypeStr = "BANDAI TAMA5"
	case TypeHuC3:
		h.CartTypeStr = "HuC3"
	case TypeHuC1RAMBattery:
		h.CartTypeStr = "HuC1"
	}
	return h, nil
}

// Mapper classifies the cartridge type byte into a mapper family.
func (h *Header) Mapper() Mapper {
	switch h.CartType {
	case TypeROM, TypeROMRAM, TypeROMRAMBattery:
		return MapperNone
	case TypeMBC1, TypeMBC1RAM, TypeMBC1RAMBattery:
		return MapperMBC1
	case TypeMBC2, TypeMBC2Battery:
		return MapperMBC2
	case TypeMBC3TimerBattery, TypeMBC3TimerRAMBattery, TypeMBC3, TypeMBC3RAM, TypeMBC3RAMBattery:
		return MapperMBC3
	case TypeMBC5, TypeMBC5RAM, TypeMBC5RAMBattery, TypeMBC5Rumble, TypeMBC5RumbleRAM, TypeMBC5RumbleRAMBatt:
		return MapperMBC5
	default:
		return MapperUnsupported
	}
}

// HasBattery reports whether the cartridge keeps its RAM across power cycles.
func (h *Header) HasBattery() bool {
	switch h.CartType {
	case TypeMBC1RAMBattery, TypeMBC2Battery, TypeROMRAMBattery, TypeMMM01RAMBattery,
		TypeMBC3TimerBattery, TypeMBC3TimerRAMBattery, TypeMBC3RAMBattery,
		TypeMBC5RAMBattery, TypeMBC5RumbleRAMBatt, TypeHuC1RAMBattery:
		return true
	}
	return false
}

// SaveName returns a file-system friendly name derived from the title, used to key save data.
func (h *Header) SaveName() string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, h.Title)
	if name == "" {
		return "untitled"
	}
	return name
}

// HeaderChecksumOK verifies the byte at 0x014D against 0x0134-0x014C.
func HeaderChecksumOK(rom []byte) bool {
	if len(rom) <= 0x014D {
		return false
	}
	var sum byte
	for _, b := range rom[0x0134:0x014D] {
		sum = sum - b - 1
	}
	return sum == rom[0x014D]
}

var romBanksByCode = map[byte]int{
	0x00: 2, 0x01: 4, 0x02: 8, 0x03: 16, 0x04: 32,
	0x05: 64, 0x06: 128, 0x07: 256, 0x08: 512,
	0x52: 72, 0x53: 80, 0x54: 96,
}

var ramSizeByCode = map[byte]int{
	0x01: 2 * 1024,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

func (m Mapper) String() string {
	switch m {
	case MapperNone:
		return "ROM ONLY"
	case MapperMBC1:
		return "MBC1"
	case MapperMBC2:
		return "MBC2"
	case MapperMBC3:
		return "MBC3"
	case MapperMBC5:
		return "MBC5"
	}
	return "unsupported"
}
