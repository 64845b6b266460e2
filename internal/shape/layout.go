package shape

// ImageLayout is the raster geometry of an image-capable shape.
type ImageLayout struct {
	Width    int
	Height   int
	Channels int
	Frames   int
	Batched  bool
	Color    Color
}

// Label returns the display mode name: gray, rgb, rgba, seq-gray or
// seq-rgb.
func (l ImageLayout) Label() string {
	if l.Batched {
		return "seq-" + l.Color.String()
	}
	return l.Color.String()
}

// ElementsPerFrame returns width*height*channels.
func (l ImageLayout) ElementsPerFrame() int {
	return l.Width * l.Height * l.Channels
}

// Interpretation converts the layout to an untagged Interpretation.
func (l ImageLayout) Interpretation() Interpretation {
	return Interpretation{
		Color:    l.Color,
		Width:    l.Width,
		Height:   l.Height,
		Frames:   l.Frames,
		Channels: l.Channels,
	}
}

// ResolveImage derives image geometry from the effective shape:
//
//	effective rank 2           gray       [H, W]
//	effective rank 3, last 3/4 rgb/rgba   [H, W, C]
//	effective rank 3, other    seq-gray   [N, H, W]
//	effective rank 4, last 3   seq-rgb    [N, H, W, 3]
//
// Any other shape is not representable as an image.
func ResolveImage(s Shape) (ImageLayout, bool) {
	e := s.Effective()
	last := s.Last()

	switch e.Rank() {
	case 2:
		return ImageLayout{Height: e[0], Width: e[1], Channels: 1, Frames: 1, Color: Gray}, true
	case 3:
		if last == 3 || last == 4 {
			return ImageLayout{Height: e[0], Width: e[1], Channels: last, Frames: 1, Color: colorFor(last)}, true
		}
		return ImageLayout{Frames: e[0], Height: e[1], Width: e[2], Channels: 1, Batched: true, Color: Gray}, true
	case 4:
		if last == 3 {
			return ImageLayout{Frames: e[0], Height: e[1], Width: e[2], Channels: 3, Batched: true, Color: RGB}, true
		}
	}
	return ImageLayout{}, false
}

// DepthLayout is the raster geometry of a depth-capable shape.
type DepthLayout struct {
	Width   int
	Height  int
	Frames  int
	Batched bool
}

// PixelsPerFrame returns width*height.
func (l DepthLayout) PixelsPerFrame() int {
	return l.Width * l.Height
}

// ResolveDepth derives depth geometry: [H, W] is a single frame and
// [N, H, W] is a batch along axis 0.
func ResolveDepth(s Shape) (DepthLayout, bool) {
	switch s.Rank() {
	case 2:
		return DepthLayout{Height: s[0], Width: s[1], Frames: 1}, true
	case 3:
		return DepthLayout{Frames: s[0], Height: s[1], Width: s[2], Batched: true}, true
	}
	return DepthLayout{}, false
}
