// Package frameimg turns RGBA framebuffers into images and PNG files.
package frameimg

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
)

// FromFramebuffer copies a 160x144 RGBA framebuffer into an image.
func FromFramebuffer(fb []byte) (*image.RGBA, error) {
	if len(fb) != ppu.Width*ppu.Height*4 {
		return nil, fmt.Errorf("frameimg: framebuffer has %d bytes, want %d", len(fb), ppu.Width*ppu.Height*4)
	}
	img := image.NewRGBA(image.Rect(0, 0, ppu.Width, ppu.Height))
	copy(img.Pix, fb)
	return img, nil
}

// Scale enlarges src by an integer factor with nearest-neighbour sampling
// so pixels stay sharp.
func Scale(src image.Image, factor int) *image.RGBA {
	if factor < 1 {
		factor = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Encode writes the framebuffer as a PNG scaled by factor.
func Encode(w io.Writer, fb []byte, factor int) error {
	img, err := FromFramebuffer(fb)
	if err != nil {
		return err
	}
	return png.Encode(w, Scale(img, factor))
}

// WriteFile writes the framebuffer to path as a scaled PNG.
func WriteFile(path string, fb []byte, factor int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, fb, factor); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
