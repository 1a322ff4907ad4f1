package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/frameimg"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/romfile"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/saves"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/stream"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ui"
)

type CLIFlags struct {
	ROMPath  string
	BootROM  string
	Scale    int
	Title    string
	LogLevel string
	Trace    bool
	Doctor   string // write Game Boy Doctor lines to this file
	Serial   bool   // echo serial output to stdout
	Palette  string
	SaveRAM  bool // persist battery RAM in SaveDir
	SaveDir  string
	ROMsDir  string

	// headless
	Headless bool
	Frames   int
	Realtime bool
	PNGOut   string
	PNGScale int
	Expect   string // expected frame digest (xxhash64 hex)

	Serve     string // websocket frame stream address
	StatsView string // runtime stats server address
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb, .zip, .7z, .gz)")
	flag.StringVar(&f.BootROM, "boot", "", "optional DMG boot ROM")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "gbemu", "window title")
	flag.StringVar(&f.LogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.BoolVar(&f.Trace, "trace", false, "log every instruction at trace level")
	flag.StringVar(&f.Doctor, "doctor", "", "write Game Boy Doctor trace lines to file")
	flag.BoolVar(&f.Serial, "serial", false, "echo serial port output to stdout")
	flag.StringVar(&f.Palette, "palette", "", "display palette (gray, green, sepia, blue, red, pastel); empty picks by title")
	flag.BoolVar(&f.SaveRAM, "save", true, "load battery RAM on start and write it on exit")
	flag.StringVar(&f.SaveDir, "save-dir", "saves", "directory for battery RAM and save states")
	flag.StringVar(&f.ROMsDir, "roms", "roms", "directory browsed by the ROM menu")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.BoolVar(&f.Realtime, "realtime", false, "pace headless frames at the hardware rate")
	flag.StringVar(&f.PNGOut, "png", "", "write last framebuffer to PNG at path")
	flag.IntVar(&f.PNGScale, "png-scale", 1, "PNG upscaling factor")
	flag.StringVar(&f.Expect, "expect", "", "assert frame digest (xxhash64 hex)")

	flag.StringVar(&f.Serve, "serve", "", "stream frames to websocket viewers on this address (e.g. :8090)")
	flag.StringVar(&f.StatsView, "statsview", "", "serve runtime stats on this address (e.g. localhost:12600)")
	flag.Parse()
	return f
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Fatalf("bad -log-level: %v", err)
	}
	log.SetLevel(lvl)
	return log
}

func runHeadless(ctx context.Context, m *emu.Machine, f CLIFlags, log logrus.FieldLogger) error {
	frames := f.Frames
	if frames <= 0 {
		frames = 1
	}
	var pacer *emu.Pacer
	if f.Realtime {
		pacer = emu.NewPacer(0)
	}

	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := m.StepFrame(); err != nil {
			return err
		}
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				break
			}
		}
	}
	dur := time.Since(start)
	digest := m.FrameDigest()

	log.WithFields(logrus.Fields{
		"frames":  m.Frames(),
		"elapsed": dur.Truncate(time.Millisecond),
		"fps":     fmt.Sprintf("%.2f", float64(m.Frames())/dur.Seconds()),
		"digest":  fmt.Sprintf("%016x", digest),
	}).Info("headless run finished")

	if f.PNGOut != "" {
		if err := frameimg.WriteFile(f.PNGOut, m.Framebuffer(), f.PNGScale); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Infof("wrote %s", f.PNGOut)
	}

	if f.Expect != "" {
		want, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(f.Expect), "0x"), 16, 64)
		if err != nil {
			return fmt.Errorf("bad -expect: %w", err)
		}
		if digest != want {
			return fmt.Errorf("frame digest mismatch: got %016x, want %016x", digest, want)
		}
	}
	return nil
}

func main() {
	f := parseFlags()
	log := newLogger(f.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := emu.Config{
		Trace:   f.Trace,
		Logger:  log,
		Palette: f.Palette,
	}
	if f.Serial {
		cfg.SerialOut = os.Stdout
	}
	if f.Doctor != "" {
		out, err := os.Create(f.Doctor)
		if err != nil {
			log.Fatalf("open doctor log: %v", err)
		}
		defer out.Close()
		cfg.DoctorLog = out
	}
	if f.StatsView != "" {
		launchStats(f.StatsView, log)
	}

	m := emu.New(cfg)
	if f.BootROM != "" {
		boot, err := romfile.Load(f.BootROM)
		if err != nil {
			log.Fatalf("read boot ROM: %v", err)
		}
		m.SetBootROM(boot)
	}
	if f.ROMPath != "" {
		if err := m.LoadROMFromFile(f.ROMPath); err != nil {
			log.Fatalf("load cart: %v", err)
		}
	} else if f.Headless {
		log.Fatal("-rom is required in headless mode")
	}

	if f.Serve != "" {
		hub := stream.NewHub(log)
		go hub.Run(ctx)
		m.OnFrame(hub.Publish)
		go func() {
			if err := hub.ListenAndServe(ctx, f.Serve); err != nil {
				log.WithError(err).Error("frame stream stopped")
			}
		}()
	}

	if f.Headless {
		store := saves.Store{Dir: f.SaveDir}
		if f.SaveRAM {
			loadBattery(m, store, log)
		}
		err := runHeadless(ctx, m, f, log)
		if f.SaveRAM {
			saveBattery(m, store, log)
		}
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	uiCfg := ui.Config{
		Title:     f.Title,
		Scale:     f.Scale,
		ROMsDir:   f.ROMsDir,
		SaveDir:   f.SaveDir,
		NoSaveRAM: !f.SaveRAM,
	}
	app := ui.NewApp(uiCfg, m, log)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	app.Close()
}

func loadBattery(m *emu.Machine, store saves.Store, log logrus.FieldLogger) {
	h := m.Header()
	if h == nil || !h.HasBattery() {
		return
	}
	data, err := store.Load(h)
	if errors.Is(err, saves.ErrNoSave) {
		return
	}
	if err != nil {
		log.WithError(err).Warn("battery RAM not loaded")
		return
	}
	m.LoadBattery(data)
	log.Infof("loaded save RAM: %s (%d bytes)", store.Path(h), len(data))
}

func saveBattery(m *emu.Machine, store saves.Store, log logrus.FieldLogger) {
	data, ok := m.SaveBattery()
	if !ok {
		return
	}
	if err := store.Save(m.Header(), data); err != nil {
		log.WithError(err).Error("battery RAM not saved")
		return
	}
	log.Infof("wrote %s", store.Path(m.Header()))
}
