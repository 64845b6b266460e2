package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/hdf5"
	"github.com/robert-malhotra/h5view/internal/buffer"
	"github.com/robert-malhotra/h5view/internal/depth"
	"github.com/robert-malhotra/h5view/internal/export"
	"github.com/robert-malhotra/h5view/internal/pixel"
	"github.com/robert-malhotra/h5view/internal/raster"
	"github.com/robert-malhotra/h5view/internal/shape"
	"github.com/robert-malhotra/h5view/internal/view"
)

// ErrNoFrames is returned by Frame while the matrix view is active.
var ErrNoFrames = errors.New("active view has no frames")

// unitAttrs are the attribute names consulted for the depth legend units.
var unitAttrs = []string{"units", "unit"}

// Attr is one attribute in display form.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

// NodeInfo describes the selected node and the view state it produced.
type NodeInfo struct {
	*hdf5.Node
	Attributes []Attr       `json:"attributes"`
	Modes      []shape.Mode `json:"modes,omitempty"`
	Mode       *shape.Mode  `json:"mode,omitempty"`
	Kinds      []shape.Kind `json:"kinds,omitempty"`
	Elements   uint64       `json:"elements,omitempty"`
	Units      string       `json:"units,omitempty"`
}

// Session is one open file together with the view state of its selected
// dataset. Its methods are safe for concurrent use; they are serialized.
type Session struct {
	ID      string
	Name    string
	Size    int64
	Created time.Time

	mu       sync.Mutex
	file     *hdf5.File
	coord    *view.Coordinator
	dataset  *hdf5.Dataset
	units    string
	lastUsed time.Time

	maxElements int
	log         *zap.Logger

	// Partial reads are cached by leading extent.
	partial     buffer.Flat
	partialRows int
}

// Tree describes the whole file hierarchy.
func (s *Session) Tree() (*hdf5.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Tree()
}

// Select makes the object at path current. Datasets reset the view to the
// matrix mode; groups clear the dataset selection.
func (s *Session) Select(path string) (*NodeInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, err := s.file.Get(path)
	if err != nil {
		return nil, err
	}

	ds, ok := obj.(*hdf5.Dataset)
	if !ok {
		s.coord.Clear()
		s.dataset, s.units = nil, ""
		s.resetPartial()
		return s.describe(obj), nil
	}

	if err := s.coord.Select(ds.Path(), ds.Shape()); err != nil {
		return nil, err
	}
	s.dataset = ds
	s.units = unitsOf(ds)
	s.resetPartial()

	s.log.Debug("dataset selected",
		zap.String("path", ds.Path()),
		zap.Stringer("shape", ds.Shape()),
		zap.String("dtype", ds.Dtype()))
	return s.describe(ds), nil
}

// SetMode switches the view mode of the selected dataset.
func (s *Session) SetMode(m shape.Mode) (*NodeInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil {
		return nil, view.ErrNoSelection
	}
	if err := s.coord.SetMode(m); err != nil {
		return nil, err
	}
	return s.describe(s.dataset), nil
}

// Info describes the current selection.
func (s *Session) Info() (*NodeInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil {
		return nil, view.ErrNoSelection
	}
	return s.describe(s.dataset), nil
}

// View renders the selected dataset in the active mode.
func (s *Session) View() (*Rendered, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, err := s.value()
	if err != nil {
		return nil, err
	}
	v, err := s.coord.Render(buf)
	if err != nil {
		return nil, err
	}
	return &Rendered{View: v, Units: s.units}, nil
}

// Rendered is a view together with the units of the dataset it was
// rendered from.
type Rendered struct {
	*view.View
	Units string
}

// Frame renders frame index of the active image or depth view. Depth
// frames come with their legend.
func (s *Session) Frame(index int) (*pixel.Pixmap, *export.Legend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil {
		return nil, nil, view.ErrNoSelection
	}

	sh := s.coord.Classification().Shape
	switch s.coord.Mode() {
	case shape.ModeImage:
		if index >= raster.MaxFrames {
			return nil, nil, fmt.Errorf("%w: %d beyond the %d displayed", raster.ErrFrameRange, index, raster.MaxFrames)
		}
		buf, err := s.value()
		if err != nil {
			return nil, nil, err
		}
		pm, _, err := raster.RenderFrame(buf, sh, index)
		return pm, nil, err

	case shape.ModeDepth:
		if index >= depth.MaxFrames {
			return nil, nil, fmt.Errorf("%w: %d beyond the %d displayed", depth.ErrFrameRange, index, depth.MaxFrames)
		}
		buf, err := s.value()
		if err != nil {
			return nil, nil, err
		}
		fr, _, err := depth.RenderFrame(buf, sh, index)
		if err != nil {
			return nil, nil, err
		}
		return fr.Pixmap, &export.Legend{Range: fr.Range, Units: s.units}, nil
	}
	return nil, nil, ErrNoFrames
}

// Close closes the underlying file.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// value returns the samples of the selected dataset. Datasets above the
// element limit are read only as far along axis 0 as the active view needs.
func (s *Session) value() (buffer.Flat, error) {
	if s.dataset == nil {
		return buffer.Flat{}, view.ErrNoSelection
	}
	if s.dataset.NumElements() <= uint64(s.maxElements) {
		return s.dataset.Value()
	}

	n := s.coord.Leading()
	if s.partialRows == n && s.partial.Len() > 0 {
		return s.partial, nil
	}
	buf, err := s.dataset.ReadLeading(n)
	if err != nil {
		return buffer.Flat{}, err
	}
	s.log.Debug("read leading extent",
		zap.String("path", s.dataset.Path()),
		zap.Int("rows", n),
		zap.Int("elements", buf.Len()))
	s.partial, s.partialRows = buf, n
	return buf, nil
}

func (s *Session) resetPartial() {
	s.partial, s.partialRows = buffer.Flat{}, 0
}

func (s *Session) describe(obj hdf5.Object) *NodeInfo {
	info := &NodeInfo{Node: hdf5.Describe(obj), Attributes: attrsOf(obj)}
	if ds, ok := obj.(*hdf5.Dataset); ok && s.dataset == ds {
		mode := s.coord.Mode()
		info.Mode = &mode
		info.Modes = s.coord.Modes()
		info.Kinds = s.coord.Classification().Kinds()
		info.Elements = ds.NumElements()
		info.Units = s.units
	}
	return info
}

func attrsOf(obj hdf5.Object) []Attr {
	list := obj.Attributes()
	out := make([]Attr, 0, len(list))
	for _, a := range list {
		v, err := a.Display()
		at := Attr{Name: a.Name(), Value: v}
		if err != nil {
			at.Error = err.Error()
		}
		out = append(out, at)
	}
	return out
}

func unitsOf(ds *hdf5.Dataset) string {
	for _, name := range unitAttrs {
		a := ds.Attr(name)
		if a == nil {
			continue
		}
		if v, err := a.Display(); err == nil && v != "null" {
			return v
		}
	}
	return ""
}
