// Package saves persists battery-backed cartridge RAM as flat .sav files
// keyed by the cartridge title.
package saves

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/cart"
)

// ErrNoSave is returned by Load when no save exists for the cartridge.
var ErrNoSave = errors.New("saves: no save data")

const ext = ".sav"

// Store keeps save files in a single directory.
type Store struct {
	Dir string
}

// Path returns the save file location for the cartridge.
func (s Store) Path(h *cart.Header) string {
	return filepath.Join(s.Dir, h.SaveName()+ext)
}

// Load reads the RAM dump for the cartridge.
func (s Store) Load(h *cart.Header) ([]byte, error) {
	data, err := os.ReadFile(s.Path(h))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	return data, nil
}

// Save writes the RAM dump, replacing any previous file atomically.
func (s Store) Save(h *cart.Header, data []byte) error {
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return fmt.Errorf("create save dir: %w", err)
		}
	}
	path := s.Path(h)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}
