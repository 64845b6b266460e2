// Package raster renders image-capable sample buffers into RGBA frames.
//
// Geometry comes from shape.ResolveImage. Each frame occupies
// width*height*channels consecutive samples; pixel p of frame f starts at
// f*width*height*channels + p*channels. Gray samples are replicated into R,
// G and B; RGB copies three samples; RGBA copies four. Samples are written
// as-is into 8-bit channels with no color conversion.
package raster

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5view/internal/buffer"
	"github.com/robert-malhotra/h5view/internal/pixel"
	"github.com/robert-malhotra/h5view/internal/shape"
)

// MaxFrames is the number of frames Render displays from a batch.
const MaxFrames = 4

// ReasonUnresolvableShape is the ImageError reason for shapes that have no
// image interpretation.
const ReasonUnresolvableShape = "unresolvable-shape"

// ErrFrameRange is returned by RenderFrame for an index outside the batch.
var ErrFrameRange = errors.New("frame index out of range")

// ImageError reports a shape that cannot be shown as an image.
type ImageError struct {
	Reason string
	Shape  shape.Shape
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image: %s (shape %v)", e.Reason, []int(e.Shape))
}

// Info describes a rendered image set.
type Info struct {
	Mode      string `json:"mode"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
	Frames    int    `json:"frames"`
	Displayed int    `json:"displayed"`
}

// Result holds the displayed frames, in batch order.
type Result struct {
	Info
	Images []*pixel.Pixmap
}

// Resolve returns the image geometry of s without rendering.
func Resolve(s shape.Shape) (shape.ImageLayout, error) {
	if err := s.Validate(); err != nil {
		return shape.ImageLayout{}, err
	}
	layout, ok := shape.ResolveImage(s)
	if !ok {
		return shape.ImageLayout{}, &ImageError{Reason: ReasonUnresolvableShape, Shape: s}
	}
	return layout, nil
}

// infoFor describes l. Frames without pixels are never displayed.
func infoFor(l shape.ImageLayout) Info {
	info := Info{
		Mode:     l.Label(),
		Width:    l.Width,
		Height:   l.Height,
		Channels: l.Channels,
		Frames:   l.Frames,
	}
	if l.Width*l.Height > 0 {
		info.Displayed = min(l.Frames, MaxFrames)
	}
	return info
}

// Render draws up to MaxFrames frames of buf laid out as s.
// A missing or short buffer renders the absent samples as 0.
func Render(buf buffer.Flat, s shape.Shape) (*Result, error) {
	layout, err := Resolve(s)
	if err != nil {
		return nil, err
	}
	res := &Result{Info: infoFor(layout)}
	res.Images = make([]*pixel.Pixmap, res.Displayed)
	for i := range res.Images {
		res.Images[i] = renderFrame(buf, layout, i)
	}
	return res, nil
}

// RenderFrame draws frame index of buf laid out as s. Any frame of the
// batch may be requested, not only the displayed ones.
func RenderFrame(buf buffer.Flat, s shape.Shape, index int) (*pixel.Pixmap, Info, error) {
	layout, err := Resolve(s)
	if err != nil {
		return nil, Info{}, err
	}
	if index < 0 || index >= layout.Frames {
		return nil, Info{}, fmt.Errorf("%w: %d of %d", ErrFrameRange, index, layout.Frames)
	}
	if layout.Width*layout.Height == 0 {
		return nil, Info{}, fmt.Errorf("%w: %dx%d frames are empty", ErrFrameRange, layout.Width, layout.Height)
	}
	return renderFrame(buf, layout, index), infoFor(layout), nil
}

func renderFrame(buf buffer.Flat, l shape.ImageLayout, index int) *pixel.Pixmap {
	pm := pixel.New(l.Width, l.Height)
	frameOffset := index * l.ElementsPerFrame()
	sample := func(i int) uint8 {
		v, _ := buf.At(i)
		return pixel.Byte(v)
	}

	for p := 0; p < l.Width*l.Height; p++ {
		o := frameOffset + p*l.Channels
		switch l.Channels {
		case 3:
			pm.SetIndex(p, sample(o), sample(o+1), sample(o+2), 255)
		case 4:
			pm.SetIndex(p, sample(o), sample(o+1), sample(o+2), sample(o+3))
		default:
			v := sample(o)
			pm.SetIndex(p, v, v, v, 255)
		}
	}
	return pm
}
