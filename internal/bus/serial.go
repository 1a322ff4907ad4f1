package bus

import (
	"io"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/irq"
)

// serialPort is a link port without a partner. A transfer started with the
// internal clock completes at once: SB goes out to the writer, SB reads back
// 0xFF, bit 7 of SC clears and the serial interrupt is requested.
type serialPort struct {
	sb, sc byte
	out    io.Writer
	irq    *irq.Controller
}

func (s *serialPort) read(addr uint16) byte {
	if addr == 0xFF01 {
		return s.sb
	}
	return 0x7E | s.sc
}

func (s *serialPort) write(addr uint16, v byte) {
	if addr == 0xFF01 {
		s.sb = v
		return
	}
	s.sc = v & 0x81
	if s.sc != 0x81 {
		return
	}
	if s.out != nil {
		_, _ = s.out.Write([]byte{s.sb})
	}
	s.sb = 0xFF
	s.sc &^= 0x80
	s.irq.Request(irq.Serial)
}
