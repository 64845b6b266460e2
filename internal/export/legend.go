package export

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/robert-malhotra/h5view/internal/depth"
)

const (
	legendPad    = 2
	legendBar    = 8
	legendHeight = legendPad + legendBar + legendPad + 13 + legendPad
)

// Legend is the colour bar drawn under a depth frame: the heatmap ramp
// followed by the frame's range as text.
type Legend struct {
	Range depth.Range
	Units string
}

// Text returns the caption printed under the colour bar.
func (l *Legend) Text() string {
	return l.Range.Legend(l.Units)
}

// Append returns a copy of img with the legend strip added below it. The
// result is widened when the caption does not fit.
func (l *Legend) Append(img image.Image) image.Image {
	face := basicfont.Face7x13
	text := l.Text()
	textWidth := font.MeasureString(face, text).Ceil()

	b := img.Bounds()
	width := max(b.Dx(), textWidth+2*legendPad)
	dst := image.NewNRGBA(image.Rect(0, 0, width, b.Dy()+legendHeight))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)
	xdraw.Draw(dst, image.Rect(0, 0, b.Dx(), b.Dy()), img, b.Min, xdraw.Src)

	top := b.Dy() + legendPad
	for x := 0; x < width; x++ {
		t := 0.0
		if width > 1 {
			t = float64(x) / float64(width-1)
		}
		// Shifted into (0, 2] so the ramp never hits the dropout colour.
		c := depth.Heatmap(1+t, 1, 2)
		for y := top; y < top+legendBar; y++ {
			dst.SetNRGBA(x, y, color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]})
		}
	}

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(legendPad, top+legendBar+legendPad+face.Ascent),
	}
	d.DrawString(text)
	return dst
}
