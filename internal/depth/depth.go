// Package depth renders depth maps as auto-contrast heatmaps.
//
// Each displayed frame is normalized to its own range of positive samples.
// Non-positive and NaN samples mark sensor dropout: they are left out of the
// range and drawn black.
package depth

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/robert-malhotra/h5view/internal/buffer"
	"github.com/robert-malhotra/h5view/internal/pixel"
	"github.com/robert-malhotra/h5view/internal/shape"
)

// MaxFrames is the number of frames Render displays from a batch.
const MaxFrames = 3

// ErrFrameRange is returned by RenderFrame for an index outside the batch.
var ErrFrameRange = errors.New("frame index out of range")

// Range is the contrast window of one frame.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Legend formats r as whole numbers, followed by units when non-empty.
func (r Range) Legend(units string) string {
	s := strconv.FormatFloat(r.Min, 'f', 0, 64) + " - " + strconv.FormatFloat(r.Max, 'f', 0, 64)
	if units != "" {
		s += " " + units
	}
	return s
}

// Frame is one rendered depth frame.
type Frame struct {
	Index  int
	Range  Range
	Pixmap *pixel.Pixmap
}

// Info describes a rendered depth set.
type Info struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	FrameCount int `json:"frames"`
	Displayed  int `json:"displayed"`
}

// Result holds the displayed frames in batch order.
type Result struct {
	Info
	Frames []Frame
}

// Header returns the summary line shown above the frames.
func (r *Result) Header() string {
	s := fmt.Sprintf("%d x %d", r.Width, r.Height)
	if r.FrameCount > 1 {
		s += fmt.Sprintf(" • Showing %d of %d frames", r.Displayed, r.FrameCount)
	}
	return s
}

// Render draws up to MaxFrames frames of buf laid out as s. Shapes other
// than rank 2 and rank 3 produce an empty result.
func Render(buf buffer.Flat, s shape.Shape) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	layout, ok := shape.ResolveDepth(s)
	if !ok {
		return &Result{}, nil
	}
	res := &Result{Info: infoFor(layout)}
	res.Frames = make([]Frame, res.Displayed)
	for i := range res.Frames {
		res.Frames[i] = renderFrame(buf, layout, i)
	}
	return res, nil
}

// RenderFrame draws frame index of buf laid out as s.
func RenderFrame(buf buffer.Flat, s shape.Shape, index int) (Frame, Info, error) {
	if err := s.Validate(); err != nil {
		return Frame{}, Info{}, err
	}
	layout, ok := shape.ResolveDepth(s)
	if !ok || index < 0 || index >= layout.Frames {
		return Frame{}, Info{}, fmt.Errorf("%w: %d of %d", ErrFrameRange, index, layout.Frames)
	}
	if layout.PixelsPerFrame() == 0 {
		return Frame{}, Info{}, fmt.Errorf("%w: %dx%d frames are empty", ErrFrameRange, layout.Width, layout.Height)
	}
	return renderFrame(buf, layout, index), infoFor(layout), nil
}

// infoFor describes l. Frames without pixels are never displayed.
func infoFor(l shape.DepthLayout) Info {
	info := Info{Width: l.Width, Height: l.Height, FrameCount: l.Frames}
	if l.PixelsPerFrame() > 0 {
		info.Displayed = min(l.Frames, MaxFrames)
	}
	return info
}

// FrameRange scans n samples of buf starting at offset and returns the range
// of the positive ones. Without any positive sample the range is [0, 1].
func FrameRange(buf buffer.Flat, offset, n int) Range {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := offset; i < offset+n; i++ {
		v, ok := buf.At(i)
		if !ok || !(v > 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		lo = 0
	}
	if math.IsInf(hi, -1) {
		hi = 1
	}
	return Range{Min: lo, Max: hi}
}

func renderFrame(buf buffer.Flat, l shape.DepthLayout, index int) Frame {
	n := l.PixelsPerFrame()
	offset := index * n
	r := FrameRange(buf, offset, n)

	pm := pixel.New(l.Width, l.Height)
	for p := 0; p < n; p++ {
		v, ok := buf.At(offset + p)
		if !ok {
			v = 0
		}
		c := Heatmap(v, r.Min, r.Max)
		pm.SetIndex(p, c[0], c[1], c[2], c[3])
	}
	return Frame{Index: index, Range: r, Pixmap: pm}
}

// Heatmap maps v into the blue, green, red ramp spanning [lo, hi].
// Non-positive and NaN values are black. Channels are truncated toward zero.
func Heatmap(v, lo, hi float64) [4]uint8 {
	if !(v > 0) {
		return [4]uint8{0, 0, 0, 255}
	}

	ratio := 0.0
	if hi > lo {
		ratio = (v - lo) / (hi - lo)
	}
	ratio = math.Max(0, math.Min(1, ratio))

	var r, g, b float64
	if ratio < 0.5 {
		b = 255 * (1 - ratio*2)
		g = 255 * (ratio * 2)
	} else {
		g = 255 * (1 - (ratio-0.5)*2)
		r = 255 * ((ratio - 0.5) * 2)
	}
	return [4]uint8{uint8(math.Floor(r)), uint8(math.Floor(g)), uint8(math.Floor(b)), 255}
}
