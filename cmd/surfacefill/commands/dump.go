package commands

import (
	"fmt"
	"image"
	"io"
	"os"

	"golang.org/x/image/bmp"

	"github.com/gogpu/surfacefill/sim"
	"github.com/gogpu/surfacefill/surface"
)

// dumpBMP writes the first slice of layer 0 of s on instance sub to path.
func dumpBMP(path string, dev *sim.Device, s *surface.Surface, sub int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeBMP(f, dev, s, sub); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeBMP encodes every byte of the first slice of layer 0 as one gray
// pixel, so an image row is Width*BytesPerPixel pixels wide regardless of
// the memory layout.
func writeBMP(w io.Writer, dev *sim.Device, s *surface.Surface, sub int) error {
	mem, err := dev.ReadBack(s, sub)
	if err != nil {
		return fmt.Errorf("reading back instance %d: %w", sub, err)
	}
	rowBytes := int(s.Width * s.BytesPerPixel)
	img := image.NewGray(image.Rect(0, 0, rowBytes, int(s.Height)))
	geo := s.Geometry()
	base := s.DataOffset()
	for y := range s.Height {
		row := img.Pix[int(y)*img.Stride:]
		for x := range uint32(rowBytes) {
			row[x] = mem[base+geo.Offset(x, y, 0)]
		}
	}
	return bmp.Encode(w, img)
}
