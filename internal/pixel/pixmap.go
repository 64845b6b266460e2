// Package pixel provides the 8-bit RGBA frame buffer produced by the raster
// renderers.
package pixel

import (
	"image"
	"image/color"
	"math"
)

// Pixmap is a rectangular RGBA pixel buffer, 4 bytes per pixel, rows top to
// bottom.
type Pixmap struct {
	width  int
	height int
	data   []uint8
}

// New creates a pixmap with every byte zero.
// Negative dimensions are treated as zero.
func New(width, height int) *Pixmap {
	width = max(width, 0)
	height = max(height, 0)
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw RGBA bytes.
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// Empty reports whether the pixmap has no pixels.
func (p *Pixmap) Empty() bool {
	return len(p.data) == 0
}

// SetIndex writes pixel i in row-major order.
func (p *Pixmap) SetIndex(i int, r, g, b, a uint8) {
	o := i * 4
	if o < 0 || o+4 > len(p.data) {
		return
	}
	p.data[o+0] = r
	p.data[o+1] = g
	p.data[o+2] = b
	p.data[o+3] = a
}

// RGBAAt returns the color at (x, y), or transparent black outside the bounds.
func (p *Pixmap) RGBAAt(x, y int) color.RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.RGBA{}
	}
	o := (y*p.width + x) * 4
	return color.RGBA{R: p.data[o], G: p.data[o+1], B: p.data[o+2], A: p.data[o+3]}
}

// ToImage converts the pixmap to an *image.NRGBA. Samples carry straight
// alpha, so NRGBA preserves them byte for byte.
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	c := p.RGBAAt(x, y)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}

// Byte converts a sample to an 8-bit channel value the way a clamped canvas
// does: NaN becomes 0, values are clamped to [0, 255] and rounded half to
// even.
func Byte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.RoundToEven(v))
}
