package ui

// Config contains window, input and file location settings.
type Config struct {
	Title    string // window title
	Scale    int    // integer upscaling factor
	ROMsDir  string // directory to browse for ROMs
	SaveDir  string // battery RAM (.sav) files
	StateDir string // save state slots
	Slots    int    // number of save state slots

	NoSaveRAM bool // keep battery RAM in memory only
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.ROMsDir == "" {
		c.ROMsDir = "roms"
	}
	if c.SaveDir == "" {
		c.SaveDir = "saves"
	}
	if c.StateDir == "" {
		c.StateDir = c.SaveDir
	}
	if c.Slots <= 0 {
		c.Slots = 4
	}
}
