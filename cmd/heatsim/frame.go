package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Colormap maps temperatures to a blue-to-red ramp. The range is fixed at
// construction so successive frames share one scale.
type Colormap struct {
	lo, hi float32
}

// NewColormap spans the range of field. A constant field gets a unit span.
func NewColormap(field []float32) Colormap {
	if len(field) == 0 {
		return Colormap{lo: 0, hi: 1}
	}
	lo, hi := field[0], field[0]
	for _, v := range field[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi <= lo {
		hi = lo + 1
	}
	return Colormap{lo: lo, hi: hi}
}

// At returns the colour of v; values outside the range are clamped.
func (c Colormap) At(v float32) color.RGBA {
	t := (v - c.lo) / (c.hi - c.lo)
	t = min(max(t, 0), 1)
	return color.RGBA{
		R: uint8(255 * t),
		G: uint8(255 * 4 * t * (1 - t)),
		B: uint8(255 * (1 - t)),
		A: 255,
	}
}

// Render draws an N×N field magnified by scale.
func Render(n int, field []float32, c Colormap, scale int) (*image.RGBA, error) {
	if len(field) != n*n {
		return nil, fmt.Errorf("field has %d values, want %d", len(field), n*n)
	}
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for y := range n {
		for x := range n {
			img.SetRGBA(x, y, c.At(field[y*n+x]))
		}
	}
	if scale == 1 {
		return img, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, n*scale, n*scale))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// WriteFrame renders field and saves it as a PNG.
func WriteFrame(path string, n int, field []float32, c Colormap, scale int) error {
	img, err := Render(n, field, c, scale)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
