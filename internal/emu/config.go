package emu

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace     bool               // log every instruction at trace level
	Logger    logrus.FieldLogger // nil uses a text logger on stderr
	DoctorLog io.Writer          // Game Boy Doctor trace lines; LY reads 0x90 while set
	SerialOut io.Writer          // bytes shifted out of the serial port
	SkipBoot  bool               // ignore a supplied boot ROM and start post-boot
	Palette   string             // display palette name; empty picks one from the cartridge title
}

func (c Config) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}
