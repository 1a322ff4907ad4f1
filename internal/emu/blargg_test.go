package emu

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/romfile"
)

// blarggOutcome runs a test ROM until its serial output says Passed or
// Failed, returning the output and whether it passed.
func blarggOutcome(t *testing.T, path string, maxFrames int) (string, bool) {
	t.Helper()
	var serial bytes.Buffer
	m := New(Config{Logger: quietLogger(), SerialOut: &serial})
	if err := m.LoadROMFromFile(path); err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	for frame := 0; frame < maxFrames; frame++ {
		if err := m.StepFrame(); err != nil {
			t.Fatalf("CPU stopped after %d frames: %v\nserial:\n%s", frame, err, serial.String())
		}
		switch out := strings.ToLower(serial.String()); {
		case strings.Contains(out, "passed"):
			return serial.String(), true
		case strings.Contains(out, "failed"):
			return serial.String(), false
		}
	}
	t.Fatalf("no verdict within %d frames; serial:\n%s", maxFrames, serial.String())
	return "", false
}

// TestBlargg runs every ROM under testroms/blargg, or BLARGG_DIR when set.
// BLARGG_MAX_FRAMES bounds each ROM.
func TestBlargg(t *testing.T) {
	if os.Getenv("RUN_BLARGG") == "" {
		t.Skip("set RUN_BLARGG=1 to run the serial test ROM suite")
	}
	dir := os.Getenv("BLARGG_DIR")
	if dir == "" {
		dir = filepath.Join("..", "..", "testroms", "blargg")
	}
	roms, err := romfile.List(dir)
	if err != nil {
		t.Skipf("no test ROMs at %s: %v", dir, err)
	}
	if len(roms) == 0 {
		t.Skipf("no test ROMs at %s", dir)
	}
	maxFrames := 1800
	if n, err := strconv.Atoi(os.Getenv("BLARGG_MAX_FRAMES")); err == nil && n > 0 {
		maxFrames = n
	}
	for _, rom := range roms {
		name := strings.TrimSuffix(filepath.Base(rom), filepath.Ext(rom))
		t.Run(name, func(t *testing.T) {
			if out, ok := blarggOutcome(t, rom, maxFrames); !ok {
				t.Fatalf("reported failure:\n%s", out)
			}
		})
	}
}
