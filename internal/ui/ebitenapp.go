package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/frameimg"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/saves"
)

const lineH = 14

type App struct {
	cfg   Config
	m     *emu.Machine
	log   logrus.FieldLogger
	saves saves.Store
	tex   *ebiten.Image

	paused bool
	fast   bool

	// overlay/menu
	showMenu    bool
	menuMode    string // main, slot, rom, palette, keys
	menuIdx     int
	currentSlot int
	romList     []string
	romSel      int
	romOff      int
	keysOff     int
	curW, curH  int

	toastMsg   string
	toastUntil time.Time
}

func NewApp(cfg Config, m *emu.Machine, log logrus.FieldLogger) *App {
	cfg.Defaults()
	a := &App{
		cfg:      cfg,
		m:        m,
		log:      log,
		saves:    saves.Store{Dir: cfg.SaveDir},
		menuMode: "main",
	}
	a.applyWindowSize()
	a.applyWindowTitle()
	if m.CPU() == nil {
		a.openROMMenu()
	} else {
		a.loadBattery()
	}
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

// Close flushes battery RAM of the running cartridge.
func (a *App) Close() { a.flushBattery() }

func (a *App) applyWindowSize() {
	ebiten.SetWindowSize(ppu.Width*a.cfg.Scale, ppu.Height*a.cfg.Scale)
}

func (a *App) applyWindowTitle() {
	title := a.cfg.Title
	if t := a.m.ROMTitle(); t != "" {
		title = a.cfg.Title + " - [" + t + "]"
	}
	ebiten.SetWindowTitle(title)
}

func (a *App) Update() error {
	a.m.SetButtons(readButtons())

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	// Fast-forward (Tab): while held, run multiple frames per Ebiten update
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.resetMachine(false)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		a.resetMachine(true)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.saveSlotToast(a.currentSlot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.loadSlotToast(a.currentSlot)
	}
	for i, k := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4} {
		if i < a.cfg.Slots && inpututil.IsKeyJustPressed(k) {
			a.currentSlot = i
			a.toast(fmt.Sprintf("Slot %d", i+1))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		a.cyclePalette(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		a.cyclePalette(+1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if err := a.saveScreenshot(); err != nil {
			a.toast("Screenshot failed: " + err.Error())
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && !a.showMenu {
		a.showMenu = true
		a.menuMode, a.menuIdx = "main", 0
		return nil
	}
	if a.showMenu {
		a.updateMenu()
		return nil
	}

	if a.paused {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			a.stepFrames(1)
		}
		return nil
	}
	if a.fast {
		a.stepFrames(5)
	} else {
		a.stepFrames(1)
	}
	return nil
}

func readButtons() emu.Buttons {
	return emu.Buttons{
		Right:  ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Left:   ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		Up:     ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		A:      ebiten.IsKeyPressed(ebiten.KeyZ),
		B:      ebiten.IsKeyPressed(ebiten.KeyX),
		Start:  ebiten.IsKeyPressed(ebiten.KeyEnter),
		Select: ebiten.IsKeyPressed(ebiten.KeyShiftRight),
	}
}

func (a *App) stepFrames(n int) {
	if a.m.CPU() == nil || a.m.Err() != nil {
		return
	}
	for i := 0; i < n; i++ {
		if err := a.m.StepFrame(); err != nil {
			a.paused = true
			a.toast("CPU stopped: " + err.Error())
			return
		}
	}
}

func (a *App) resetMachine(withBoot bool) {
	if withBoot && !a.m.HasBootROM() {
		a.toast("No boot ROM configured")
		return
	}
	var err error
	if withBoot {
		err = a.m.ResetWithBoot()
	} else {
		err = a.m.ResetPostBoot()
	}
	if err != nil {
		a.toast("Reset failed: " + err.Error())
		return
	}
	a.paused = false
	a.toast("Reset")
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(ppu.Width, ppu.Height)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.curW)/ppu.Width, float64(a.curH)/ppu.Height)
	op.Filter = ebiten.FilterNearest
	screen.DrawImage(a.tex, op)

	if a.showMenu {
		a.drawMenu(screen)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.truncateText(a.toastMsg, a.maxCharsForText(4)), 4, a.curH-lineH-2)
	}
}

func (a *App) Layout(outW, outH int) (int, int) {
	a.curW, a.curH = outW, outH
	return outW, outH
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
	a.log.Debug(msg)
}

func (a *App) cyclePalette(dir int) {
	cur := a.m.Palette().Name
	idx := 0
	for i, p := range emu.Palettes {
		if p.Name == cur {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(emu.Palettes)) % len(emu.Palettes)
	a.m.SetPalette(emu.Palettes[idx])
	a.toast("Palette: " + emu.Palettes[idx].Name)
}

// statePath returns the save state file for slot of the running cartridge.
func (a *App) statePath(slot int) string {
	name := "untitled"
	if h := a.m.Header(); h != nil {
		name = h.SaveName()
	}
	return filepath.Join(a.cfg.StateDir, fmt.Sprintf("%s.slot%d.state", name, slot+1))
}

func (a *App) saveSlotToast(slot int) {
	if err := os.MkdirAll(a.cfg.StateDir, 0o755); err != nil {
		a.toast("Save failed: " + err.Error())
		return
	}
	if err := a.m.SaveStateToFile(a.statePath(slot)); err != nil {
		a.toast("Save failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Saved slot %d", slot+1))
}

func (a *App) loadSlotToast(slot int) {
	err := a.m.LoadStateFromFile(a.statePath(slot))
	switch {
	case errors.Is(err, emu.ErrStateMismatch):
		a.toast("Slot belongs to another game")
	case err != nil:
		a.toast("Load failed: " + err.Error())
	default:
		a.paused = false
		a.toast(fmt.Sprintf("Loaded slot %d", slot+1))
	}
}

// loadROM switches cartridges, persisting the old battery RAM first.
func (a *App) loadROM(path string) {
	a.flushBattery()
	if err := a.m.LoadROMFromFile(path); err != nil {
		a.toast("ROM load failed: " + err.Error())
		return
	}
	a.loadBattery()
	a.applyWindowTitle()
	a.paused = false
	a.toast("Loaded ROM: " + filepath.Base(path))
}

func (a *App) loadBattery() {
	h := a.m.Header()
	if a.cfg.NoSaveRAM || h == nil || !h.HasBattery() {
		return
	}
	data, err := a.saves.Load(h)
	if errors.Is(err, saves.ErrNoSave) {
		return
	}
	if err != nil {
		a.log.WithError(err).Warn("battery RAM not loaded")
		return
	}
	a.m.LoadBattery(data)
	a.log.WithField("path", a.saves.Path(h)).Info("loaded save RAM")
}

func (a *App) flushBattery() {
	if a.cfg.NoSaveRAM {
		return
	}
	data, ok := a.m.SaveBattery()
	if !ok {
		return
	}
	if err := a.saves.Save(a.m.Header(), data); err != nil {
		a.log.WithError(err).Error("battery RAM not saved")
		return
	}
	a.log.WithField("path", a.saves.Path(a.m.Header())).Info("wrote save RAM")
}

func (a *App) saveScreenshot() error {
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	if err := frameimg.WriteFile(name, a.m.Framebuffer(), a.cfg.Scale); err != nil {
		return err
	}
	a.toast("Saved " + name)
	return nil
}
