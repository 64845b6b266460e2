// Package view tracks the active view mode of the selected dataset and
// dispatches rendering to the matching renderer.
//
// The coordinator is a small state machine over {Matrix, Image, Depth}.
// Matrix is always available and is the initial mode after every Select.
// SetMode only moves into modes the current Classification allows.
// A Coordinator is not safe for concurrent use.
package view

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5view/internal/buffer"
	"github.com/robert-malhotra/h5view/internal/depth"
	"github.com/robert-malhotra/h5view/internal/matrix"
	"github.com/robert-malhotra/h5view/internal/raster"
	"github.com/robert-malhotra/h5view/internal/shape"
)

var (
	// ErrModeUnavailable is returned by SetMode for a mode the selected
	// dataset cannot be shown in.
	ErrModeUnavailable = errors.New("view mode unavailable")

	// ErrNoSelection is returned when no dataset is selected.
	ErrNoSelection = errors.New("no dataset selected")
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMatrixLimits sets the row and column limits of the matrix view.
func WithMatrixLimits(rows, cols int) Option {
	return func(c *Coordinator) {
		c.rows, c.cols = max(rows, 0), max(cols, 0)
	}
}

// Coordinator owns the view state of one selected dataset.
type Coordinator struct {
	rows, cols int

	selected bool
	id       string
	class    shape.Classification
	mode     shape.Mode
}

// New creates a coordinator with nothing selected.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{rows: matrix.DefaultRows, cols: matrix.DefaultCols}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select makes the dataset identified by id current and resets the mode to
// Matrix, even when id is already selected. A shape with negative axes
// leaves the previous selection untouched.
func (c *Coordinator) Select(id string, s shape.Shape) error {
	class, err := shape.Classify(s)
	if err != nil {
		return err
	}
	c.selected = true
	c.id = id
	c.class = class
	c.mode = shape.ModeMatrix
	return nil
}

// Clear drops the current selection.
func (c *Coordinator) Clear() {
	*c = Coordinator{rows: c.rows, cols: c.cols}
}

// SetMode switches the active mode. Modes the current shape does not allow
// are rejected and the active mode is kept.
func (c *Coordinator) SetMode(m shape.Mode) error {
	if !c.selected {
		return ErrNoSelection
	}
	if !c.class.Allows(m) {
		return fmt.Errorf("%w: %s for shape %s", ErrModeUnavailable, m, c.class.Shape)
	}
	c.mode = m
	return nil
}

// Selected returns the identity of the current dataset.
func (c *Coordinator) Selected() (string, bool) {
	return c.id, c.selected
}

// Mode returns the active mode.
func (c *Coordinator) Mode() shape.Mode {
	return c.mode
}

// Modes returns the modes selectable for the current dataset.
func (c *Coordinator) Modes() []shape.Mode {
	if !c.selected {
		return nil
	}
	return c.class.Modes()
}

// Classification returns the classification of the current dataset.
func (c *Coordinator) Classification() shape.Classification {
	return c.class
}

// Leading returns how many entries along axis 0 the active view reads.
// Scalars return 0; the whole value is always needed.
func (c *Coordinator) Leading() int {
	s := c.class.Shape
	if !c.selected || s.Rank() == 0 {
		return 0
	}
	switch c.mode {
	case shape.ModeImage:
		if layout, ok := shape.ResolveImage(s); ok && layout.Batched {
			return min(s[0], raster.MaxFrames)
		}
		return s[0]
	case shape.ModeDepth:
		if c.class.Depth.Kind == shape.DepthBatch {
			return min(s[0], depth.MaxFrames)
		}
		return s[0]
	}

	if s.Rank() == 1 {
		return min(s[0], c.rows)
	}
	// The matrix view reads flat indices below shownRows*s[1].
	perEntry := 1
	for _, d := range s[1:] {
		perEntry *= d
	}
	if perEntry == 0 {
		return 0
	}
	need := min(s[0], c.rows) * s[1]
	return min(s[0], (need+perEntry-1)/perEntry)
}

// View is the rendered output of the active mode. Exactly one of Table,
// Image and Depth is set.
type View struct {
	Mode  shape.Mode
	Table *matrix.Table
	Image *raster.Result
	Depth *depth.Result
}

// Render draws buf, laid out as the selected shape, in the active mode.
func (c *Coordinator) Render(buf buffer.Flat) (*View, error) {
	if !c.selected {
		return nil, ErrNoSelection
	}
	v := &View{Mode: c.mode}
	var err error
	switch c.mode {
	case shape.ModeImage:
		v.Image, err = raster.Render(buf, c.class.Shape)
	case shape.ModeDepth:
		v.Depth, err = depth.Render(buf, c.class.Shape)
	default:
		v.Table, err = matrix.Render(buf, c.class.Shape, matrix.WithLimits(c.rows, c.cols))
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
