// Package matrix renders bounded tabular previews of flat sample buffers.
//
// Rank 2 and higher buffers are previewed as their leading rows × cols
// slice with cell (r, c) read from flat index r*shape[1]+c. Axes beyond the
// second are ignored, so for rank 3+ data the table shows the first
// shape[0]*shape[1] samples laid out row by row rather than a true N-D slice.
package matrix

import (
	"fmt"
	"strconv"

	"github.com/robert-malhotra/h5view/internal/buffer"
	"github.com/robert-malhotra/h5view/internal/shape"
)

// Default preview limits.
const (
	DefaultRows = 100
	DefaultCols = 20
)

// Option configures a render.
type Option func(*options)

type options struct {
	rows int
	cols int
}

func defaultOptions() *options {
	return &options{rows: DefaultRows, cols: DefaultCols}
}

// WithLimits bounds the number of rendered rows and columns.
// Negative limits are treated as zero.
func WithLimits(rows, cols int) Option {
	return func(o *options) {
		o.rows = max(rows, 0)
		o.cols = max(cols, 0)
	}
}

// Row is one rendered table row.
type Row struct {
	Label string   `json:"label"`
	Cells []string `json:"cells"`
}

// Table is a presentation-ready preview with its truncation metadata.
type Table struct {
	Kind    shape.Kind  `json:"kind"`
	Shape   shape.Shape `json:"shape"`
	Headers []string    `json:"headers"`
	Rows    []Row       `json:"rows"`

	// Value is set for scalars only.
	Value string `json:"value,omitempty"`

	TotalRows  int `json:"totalRows"`
	TotalCols  int `json:"totalCols"`
	HiddenRows int `json:"hiddenRows"`
	HiddenCols int `json:"hiddenCols"`
}

// ShownRows returns the number of rendered rows.
func (t *Table) ShownRows() int {
	return len(t.Rows)
}

// ShownCols returns the number of rendered value columns.
func (t *Table) ShownCols() int {
	if len(t.Rows) > 0 {
		return len(t.Rows[0].Cells)
	}
	if t.Kind == shape.Sequence1D {
		return 1
	}
	return max(len(t.Headers)-1, 0)
}

// Caption describes the visible part of the table.
func (t *Table) Caption() string {
	switch t.Kind {
	case shape.Scalar:
		return "Scalar"
	case shape.Sequence1D:
		if t.HiddenRows > 0 {
			return fmt.Sprintf("... and %d more rows", t.HiddenRows)
		}
		return fmt.Sprintf("%d values", t.TotalRows)
	}
	return fmt.Sprintf("Showing top-left %dx%d slice of %s matrix",
		t.ShownRows(), t.ShownCols(), joinShape(t.Shape))
}

// Render builds the preview table for buf laid out as s.
func Render(buf buffer.Flat, s shape.Shape, opts ...Option) (*Table, error) {
	c, err := shape.Classify(s)
	if err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	switch s.Rank() {
	case 0:
		return &Table{
			Kind:      shape.Scalar,
			Value:     buf.Format(0),
			TotalRows: 1,
			TotalCols: 1,
		}, nil
	case 1:
		return renderSequence(buf, s, o), nil
	}
	return renderMatrix(buf, s, c.Table.Kind, o), nil
}

func renderSequence(buf buffer.Flat, s shape.Shape, o *options) *Table {
	total := s[0]
	shown := min(total, o.rows)

	t := &Table{
		Kind:       shape.Sequence1D,
		Shape:      s,
		Headers:    []string{"Index", "Value"},
		Rows:       make([]Row, shown),
		TotalRows:  total,
		TotalCols:  1,
		HiddenRows: total - shown,
	}
	for i := 0; i < shown; i++ {
		t.Rows[i] = Row{Label: strconv.Itoa(i), Cells: []string{buf.Format(i)}}
	}
	return t
}

// renderMatrix lays out the leading rows × cols slice. kind is the table
// interpretation the classifier gave s.
func renderMatrix(buf buffer.Flat, s shape.Shape, kind shape.Kind, o *options) *Table {
	rows, cols := s[0], s[1]
	shownRows := min(rows, o.rows)
	shownCols := min(cols, o.cols)

	t := &Table{
		Kind:       kind,
		Shape:      s,
		Headers:    make([]string, shownCols+1),
		Rows:       make([]Row, shownRows),
		TotalRows:  rows,
		TotalCols:  cols,
		HiddenRows: rows - shownRows,
		HiddenCols: cols - shownCols,
	}
	t.Headers[0] = "idx"
	for c := 0; c < shownCols; c++ {
		t.Headers[c+1] = strconv.Itoa(c)
	}
	for r := 0; r < shownRows; r++ {
		cells := make([]string, shownCols)
		for c := 0; c < shownCols; c++ {
			cells[c] = buf.Format(r*cols + c)
		}
		t.Rows[r] = Row{Label: strconv.Itoa(r), Cells: cells}
	}
	return t
}

func joinShape(s shape.Shape) string {
	out := ""
	for i, d := range s {
		if i > 0 {
			out += "x"
		}
		out += strconv.Itoa(d)
	}
	return out
}
