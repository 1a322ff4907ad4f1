package cpu

import "fmt"

// DoctorLine formats the register state in the line format used by
// Game Boy Doctor style trace comparisons. It reads the four bytes at PC.
func (c *CPU) DoctorLine() string {
	return fmt.Sprintf("A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X PC:%04X PCMEM:%02X,%02X,%02X,%02X",
		c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L, c.SP, c.PC,
		c.read8(c.PC), c.read8(c.PC+1), c.read8(c.PC+2), c.read8(c.PC+3))
}
