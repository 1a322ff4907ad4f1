package ui

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/emu"
)

// debug font glyphs are 6px wide
const charW = 6

var mainMenuItems = []string{
	"Save state",
	"Load state",
	"Select slot",
	"Switch ROM",
	"Palette / scale",
	"Keybindings",
	"Close",
}

var keyHelp = []string{
	"Z: A",
	"X: B",
	"Enter: Start",
	"RightShift: Select",
	"Arrows: D-Pad",
	"P: Pause",
	"N: Step frame (when paused)",
	"Tab: Fast-forward",
	"R: Reset",
	"B: Reset with boot ROM",
	"F5/F9: Save/load state",
	"1-4: Pick slot",
	"[ ]: Cycle palette",
	"F11: Fullscreen",
	"F12: Screenshot",
	"Esc: Open menu",
}

func (a *App) drawMenu(screen *ebiten.Image) {
	screen.Fill(shadeColor(a.m.Palette(), 3))
	switch a.menuMode {
	case "slot":
		a.drawSlotMenu(screen)
	case "rom":
		a.drawRomMenu(screen)
	case "palette":
		a.drawPaletteMenu(screen)
	case "keys":
		a.drawKeysMenu(screen)
	default:
		a.drawMainMenu(screen)
	}
}

func (a *App) drawList(screen *ebiten.Image, title string, items []string, sel, off, y int) {
	ebitenutil.DebugPrintAt(screen, a.truncateText(title, a.maxCharsForText(10)), 10, y)
	y += lineH
	maxChars := a.maxCharsForText(10) - 2
	rows := (a.curH - y) / lineH
	if rows < 1 {
		rows = 1
	}
	end := off + rows
	if end > len(items) {
		end = len(items)
	}
	for i := off; i < end; i++ {
		prefix := "  "
		if i == sel {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+a.truncateText(items[i], maxChars), 10, y+(i-off)*lineH)
	}
	if off > 0 {
		ebitenutil.DebugPrintAt(screen, "^", 2, y)
	}
	if end < len(items) {
		ebitenutil.DebugPrintAt(screen, "v", 2, y+(rows-1)*lineH)
	}
}

func (a *App) drawMainMenu(screen *ebiten.Image) {
	items := make([]string, len(mainMenuItems))
	copy(items, mainMenuItems)
	items[0] = fmt.Sprintf("%s (slot %d)", items[0], a.currentSlot+1)
	items[1] = fmt.Sprintf("%s (slot %d)", items[1], a.currentSlot+1)
	a.drawList(screen, "Menu:", items, a.menuIdx, 0, 10)
}

func (a *App) drawSlotMenu(screen *ebiten.Image) {
	items := make([]string, a.cfg.Slots)
	for i := range items {
		state := "[empty]"
		if _, err := os.Stat(a.statePath(i)); err == nil {
			state = ""
		}
		items[i] = fmt.Sprintf("%d %s", i+1, state)
	}
	a.drawList(screen, "Select slot:", items, a.menuIdx, 0, 10)
}

func (a *App) drawRomMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, a.truncateText("Dir: "+a.cfg.ROMsDir, a.maxCharsForText(10)), 10, 10)
	if len(a.romList) == 0 {
		ebitenutil.DebugPrintAt(screen, "No ROMs found", 10, 40)
		return
	}
	names := make([]string, len(a.romList))
	for i, p := range a.romList {
		names[i] = filepath.Base(p)
	}
	a.drawList(screen, "Select ROM (Enter loads)", names, a.romSel, a.romOff, 26)
}

func (a *App) drawPaletteMenu(screen *ebiten.Image) {
	items := make([]string, len(emu.Palettes))
	for i, p := range emu.Palettes {
		items[i] = p.Name
	}
	title := fmt.Sprintf("Palette (Left/Right scale: %dx)", a.cfg.Scale)
	a.drawList(screen, title, items, a.menuIdx, 0, 10)
}

func (a *App) drawKeysMenu(screen *ebiten.Image) {
	y := 10
	for _, w := range a.wrapText("Keybindings (Up/Down scroll)", a.maxCharsForText(10)) {
		ebitenutil.DebugPrintAt(screen, w, 10, y)
		y += lineH
	}
	a.drawList(screen, "", keyHelp, -1, a.keysOff, y)
}

func shadeColor(p emu.Palette, shade int) color.RGBA {
	return p.Shades[shade&3]
}

// maxCharsForText returns how many debug-font characters fit after margin.
func (a *App) maxCharsForText(margin int) int {
	n := (a.curW - 2*margin) / charW
	if n < 4 {
		n = 4
	}
	return n
}

func (a *App) truncateText(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// wrapText breaks s on spaces into lines of at most max characters.
func (a *App) wrapText(s string, max int) []string {
	var lines []string
	var cur strings.Builder
	for _, w := range strings.Fields(s) {
		if cur.Len() > 0 && cur.Len()+1+len(w) > max {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
