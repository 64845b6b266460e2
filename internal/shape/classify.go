package shape

import "fmt"

// Kind identifies one interpretation of a shape.
type Kind uint8

const (
	None Kind = iota
	Scalar
	Sequence1D
	Matrix2D
	MatrixSliceND
	ImageSingle
	ImageBatch
	DepthSingle
	DepthBatch
)

var kindNames = [...]string{
	None:          "none",
	Scalar:        "scalar",
	Sequence1D:    "sequence-1d",
	Matrix2D:      "matrix-2d",
	MatrixSliceND: "matrix-slice-nd",
	ImageSingle:   "image-single",
	ImageBatch:    "image-batch",
	DepthSingle:   "depth-single",
	DepthBatch:    "depth-batch",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Color is the channel interpretation of an image.
type Color uint8

const (
	Gray Color = iota + 1
	RGB
	RGBA
)

func (c Color) String() string {
	switch c {
	case Gray:
		return "gray"
	case RGB:
		return "rgb"
	case RGBA:
		return "rgba"
	}
	return ""
}

// colorFor maps a channel count to its color interpretation.
func colorFor(channels int) Color {
	switch channels {
	case 3:
		return RGB
	case 4:
		return RGBA
	}
	return Gray
}

// Mode is a user-selectable view of a dataset.
type Mode uint8

const (
	ModeMatrix Mode = iota
	ModeImage
	ModeDepth
)

func (m Mode) String() string {
	switch m {
	case ModeMatrix:
		return "matrix"
	case ModeImage:
		return "image"
	case ModeDepth:
		return "depth"
	}
	return "unknown"
}

// ParseMode parses a mode name as produced by Mode.String.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "matrix":
		return ModeMatrix, true
	case "image":
		return ModeImage, true
	case "depth":
		return ModeDepth, true
	}
	return 0, false
}

// Interpretation is one way of displaying a shape together with the
// geometry it implies. The zero value (Kind None) means "not eligible".
type Interpretation struct {
	Kind     Kind
	Color    Color // image kinds only
	Width    int
	Height   int
	Frames   int
	Channels int
}

// Valid reports whether the interpretation is eligible.
func (in Interpretation) Valid() bool {
	return in.Kind != None
}

// Classification is the set of interpretations available for one shape.
// It is produced once per shape and never mutated.
type Classification struct {
	Shape Shape

	// Table is always present: Scalar, Sequence1D, Matrix2D or MatrixSliceND.
	Table Interpretation

	// Image and Depth are mutually exclusive raster interpretations.
	Image Interpretation
	Depth Interpretation
}

// Classify maps a shape to its interpretations. It fails only with a
// *ShapeError for negative axes.
func Classify(s Shape) (Classification, error) {
	if err := s.Validate(); err != nil {
		return Classification{}, err
	}

	c := Classification{Shape: append(Shape(nil), s...)}
	c.Image = classifyImage(s)
	if !c.Image.Valid() {
		c.Depth = classifyDepth(s)
	}
	c.Table = classifyTable(s, c.Image.Valid() || c.Depth.Valid())
	return c, nil
}

// classifyTable returns the tabular fallback. Rank 3 and 4 shapes that have
// a raster interpretation preview their first two axes as a matrix.
func classifyTable(s Shape, raster bool) Interpretation {
	in := Interpretation{Frames: 1}
	switch rank := s.Rank(); {
	case rank == 0:
		in.Kind = Scalar
		in.Width, in.Height = 1, 1
		return in
	case rank == 1:
		in.Kind = Sequence1D
		in.Width, in.Height = 1, s[0]
		return in
	case rank == 2 || raster:
		in.Kind = Matrix2D
	default:
		in.Kind = MatrixSliceND
	}
	in.Height, in.Width = s[0], s[1]
	return in
}

// classifyImage applies the image eligibility rule on the original rank and
// resolves geometry from the effective shape.
func classifyImage(s Shape) Interpretation {
	if (s.Rank() != 3 && s.Rank() != 4) || !isChannelCount(s.Last()) {
		return Interpretation{}
	}
	layout, ok := ResolveImage(s)
	if !ok {
		return Interpretation{}
	}
	in := layout.Interpretation()
	if s.Rank() == 3 {
		in.Kind = ImageSingle
	} else {
		in.Kind = ImageBatch
	}
	return in
}

func classifyDepth(s Shape) Interpretation {
	layout, ok := ResolveDepth(s)
	if !ok {
		return Interpretation{}
	}
	in := Interpretation{
		Kind:     DepthSingle,
		Width:    layout.Width,
		Height:   layout.Height,
		Frames:   layout.Frames,
		Channels: 1,
	}
	if layout.Batched {
		in.Kind = DepthBatch
	}
	return in
}

// Kinds lists every eligible interpretation, raster first.
func (c Classification) Kinds() []Kind {
	var kinds []Kind
	if c.Image.Valid() {
		kinds = append(kinds, c.Image.Kind)
	}
	if c.Depth.Valid() {
		kinds = append(kinds, c.Depth.Kind)
	}
	return append(kinds, c.Table.Kind)
}

// Has reports whether k is among the eligible interpretations.
func (c Classification) Has(k Kind) bool {
	for _, have := range c.Kinds() {
		if have == k {
			return true
		}
	}
	return false
}

// Primary returns the preferred interpretation: image, then depth, then the
// tabular fallback.
func (c Classification) Primary() Interpretation {
	switch {
	case c.Image.Valid():
		return c.Image
	case c.Depth.Valid():
		return c.Depth
	}
	return c.Table
}

// Modes lists the selectable view modes. Matrix is always first.
func (c Classification) Modes() []Mode {
	modes := []Mode{ModeMatrix}
	if c.Image.Valid() {
		modes = append(modes, ModeImage)
	}
	if c.Depth.Valid() {
		modes = append(modes, ModeDepth)
	}
	return modes
}

// Allows reports whether m is a selectable mode for this shape.
func (c Classification) Allows(m Mode) bool {
	for _, have := range c.Modes() {
		if have == m {
			return true
		}
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, ok := ParseMode(string(b))
	if !ok {
		return fmt.Errorf("unknown view mode %q", b)
	}
	*m = parsed
	return nil
}
