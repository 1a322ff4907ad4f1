package ui

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/romfile"
)

func backPressed() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace)
}

// moveSel moves *idx with the arrow keys within [0, n).
func moveSel(idx *int, n int) {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && *idx > 0 {
		*idx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && *idx < n-1 {
		*idx++
	}
}

func (a *App) updateMenu() {
	switch a.menuMode {
	case "slot":
		a.updateSlotMenu()
	case "rom":
		a.updateRomMenu()
	case "palette":
		a.updatePaletteMenu()
	case "keys":
		a.updateKeysMenu()
	default:
		a.updateMainMenu()
	}
}

func (a *App) openROMMenu() {
	list, err := romfile.List(a.cfg.ROMsDir)
	if err != nil {
		a.log.WithError(err).Warn("cannot list ROMs")
	}
	a.romList, a.romSel, a.romOff = list, 0, 0
	a.showMenu = true
	a.menuMode = "rom"
}

func (a *App) updateMainMenu() {
	moveSel(&a.menuIdx, len(mainMenuItems))
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		switch a.menuIdx {
		case 0:
			a.saveSlotToast(a.currentSlot)
		case 1:
			if _, err := os.Stat(a.statePath(a.currentSlot)); err != nil {
				a.toast("Slot is empty")
			} else {
				a.loadSlotToast(a.currentSlot)
			}
		case 2:
			a.menuMode = "slot"
			a.menuIdx = a.currentSlot
		case 3:
			a.openROMMenu()
		case 4:
			a.menuMode = "palette"
			a.menuIdx = a.paletteIndex()
		case 5:
			a.menuMode = "keys"
			a.keysOff = 0
		case 6:
			a.showMenu = false
		}
	}
	if backPressed() && a.m.CPU() != nil {
		a.showMenu = false
	}
}

func (a *App) updateSlotMenu() {
	moveSel(&a.menuIdx, a.cfg.Slots)
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.currentSlot = a.menuIdx
		a.toast(fmt.Sprintf("Slot set to %d", a.currentSlot+1))
		a.menuMode, a.menuIdx = "main", 2
	}
	if backPressed() {
		a.menuMode, a.menuIdx = "main", 2
	}
}

func (a *App) romRows() int {
	rows := (a.curH - 40) / lineH
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (a *App) updateRomMenu() {
	n := len(a.romList)
	if backPressed() || (n == 0 && inpututil.IsKeyJustPressed(ebiten.KeyEnter)) {
		a.menuMode, a.menuIdx = "main", 3
		return
	}
	if n == 0 {
		return
	}
	moveSel(&a.romSel, n)
	maxRows := a.romRows()
	if a.romSel < a.romOff {
		a.romOff = a.romSel
	}
	if a.romSel >= a.romOff+maxRows {
		a.romOff = a.romSel - maxRows + 1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.loadROM(a.romList[a.romSel])
		if a.m.CPU() != nil {
			a.showMenu = false
		}
		a.menuMode, a.menuIdx = "main", 0
	}
}

func (a *App) paletteIndex() int {
	for i, p := range emu.Palettes {
		if p.Name == a.m.Palette().Name {
			return i
		}
	}
	return 0
}

func (a *App) updatePaletteMenu() {
	moveSel(&a.menuIdx, len(emu.Palettes))
	if a.menuIdx != a.paletteIndex() {
		a.m.SetPalette(emu.Palettes[a.menuIdx])
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) && a.cfg.Scale > 1 {
		a.cfg.Scale--
		a.applyWindowSize()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) && a.cfg.Scale < 10 {
		a.cfg.Scale++
		a.applyWindowSize()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || backPressed() {
		a.menuMode, a.menuIdx = "main", 4
	}
}

func (a *App) updateKeysMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.keysOff > 0 {
		a.keysOff--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.keysOff < len(keyHelp)-1 {
		a.keysOff++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || backPressed() {
		a.menuMode, a.menuIdx = "main", 5
	}
}
