package ppu

// Screen dimensions.
const (
	Width  = 160
	Height = 144
)

// Frame is a complete picture of 2-bit shades (0 = lightest, 3 = darkest),
// already mapped through the DMG palettes.
type Frame struct {
	Pix [Width * Height]byte
}

// At returns the shade at (x, y).
func (f *Frame) At(x, y int) byte { return f.Pix[y*Width+x] }

// Row returns the 160 shades of line y.
func (f *Frame) Row(y int) []byte { return f.Pix[y*Width : (y+1)*Width] }
