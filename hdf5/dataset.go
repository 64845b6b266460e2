package hdf5

import (
	"fmt"
	"path"
	"sync"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/internal/buffer"
	"github.com/robert-malhotra/h5view/internal/dtype"
	"github.com/robert-malhotra/h5view/internal/layout"
	"github.com/robert-malhotra/h5view/internal/message"
	"github.com/robert-malhotra/h5view/internal/object"
	"github.com/robert-malhotra/h5view/internal/shape"
)

// Dataset is an HDF5 dataset. Its elements are decoded on first use.
type Dataset struct {
	file      *File
	path      string
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
	layout    layout.Layout

	once  sync.Once
	value buffer.Flat
	err   error
}

func newDataset(f *File, path string, h *object.Header) (*Dataset, error) {
	space, typ, lm := h.Dataspace(), h.Datatype(), h.DataLayout()
	switch {
	case space == nil:
		return nil, fmt.Errorf("%s: %w: no dataspace message", path, ErrUnsupported)
	case typ == nil:
		return nil, fmt.Errorf("%s: %w: no datatype message", path, ErrUnsupported)
	}
	l, err := layout.New(lm, space, typ, h.FilterPipeline(), f.reader)
	if err != nil {
		return nil, fmt.Errorf("%s: storage layout: %w", path, err)
	}
	return &Dataset{file: f, path: path, header: h, dataspace: space, datatype: typ, layout: l}, nil
}

func (d *Dataset) Name() string    { return path.Base(d.path) }
func (d *Dataset) Path() string    { return d.path }
func (d *Dataset) Address() uint64 { return d.header.Address }

// Shape returns the axis lengths of the dataset, outermost first. Scalars
// return nil; a null dataspace has a single empty axis.
func (d *Dataset) Shape() shape.Shape {
	if d.dataspace.IsNull() {
		return shape.Shape{0}
	}
	if d.dataspace.IsScalar() {
		return nil
	}
	return shape.FromDims(d.dataspace.Dimensions)
}

// Dims returns the dataspace dimensions, nil for scalars.
func (d *Dataset) Dims() []uint64 {
	if d.dataspace.IsScalar() {
		return nil
	}
	return d.dataspace.Dimensions
}

func (d *Dataset) Rank() int           { return d.dataspace.Rank }
func (d *Dataset) NumElements() uint64 { return d.dataspace.NumElements() }
func (d *Dataset) IsScalar() bool      { return d.dataspace.IsScalar() }

// Dtype returns the element type label, such as "<f4" or "|S16".
func (d *Dataset) Dtype() string { return dtype.Label(d.datatype) }

// IsNumeric reports whether Value yields numeric samples.
func (d *Dataset) IsNumeric() bool { return dtype.IsNumeric(d.datatype) }

// DtypeSize is the element size in bytes.
func (d *Dataset) DtypeSize() int { return int(d.datatype.Size) }

// Value decodes every element of the dataset in row-major order. The result
// is read once and cached. Datasets with more elements than the configured
// maximum return ErrTooLarge.
func (d *Dataset) Value() (buffer.Flat, error) {
	d.once.Do(func() {
		d.value, d.err = d.readAll()
	})
	return d.value, d.err
}

func (d *Dataset) readAll() (buffer.Flat, error) {
	n := d.NumElements()
	if n > uint64(d.file.opts.maxElements) {
		return buffer.Flat{}, fmt.Errorf("%s has %d elements, limit %d: %w",
			d.path, n, d.file.opts.maxElements, ErrTooLarge)
	}
	if n == 0 {
		return d.decode(nil, 0)
	}

	raw, err := d.layout.Read()
	if err != nil {
		return buffer.Flat{}, fmt.Errorf("reading %s: %w", d.path, err)
	}
	d.file.log.Debug("read dataset",
		zap.String("path", d.path),
		zap.Uint64("elements", n),
		zap.Int("bytes", len(raw)))
	return d.decode(raw, int(n))
}

// ReadLeading decodes the first n entries along axis 0 only. Scalars and
// requests covering the whole first axis behave like Value.
func (d *Dataset) ReadLeading(n int) (buffer.Flat, error) {
	dims := d.Dims()
	if len(dims) == 0 || n < 0 || uint64(n) >= dims[0] {
		return d.Value()
	}

	start := make([]uint64, len(dims))
	count := append([]uint64{uint64(n)}, dims[1:]...)
	elements := uint64(1)
	for _, c := range count {
		elements *= c
	}
	if elements > uint64(d.file.opts.maxElements) {
		return buffer.Flat{}, fmt.Errorf("%s: leading %d entries hold %d elements, limit %d: %w",
			d.path, n, elements, d.file.opts.maxElements, ErrTooLarge)
	}
	if elements == 0 {
		return d.decode(nil, 0)
	}

	raw, err := d.layout.ReadSlice(start, count)
	if err != nil {
		return buffer.Flat{}, fmt.Errorf("reading %s[:%d]: %w", d.path, n, err)
	}
	d.file.log.Debug("read dataset prefix",
		zap.String("path", d.path),
		zap.Int("leading", n),
		zap.Uint64("elements", elements))
	return d.decode(raw, int(elements))
}

func (d *Dataset) decode(raw []byte, n int) (buffer.Flat, error) {
	buf, err := dtype.Decode(d.datatype, raw, n, d.file.reader)
	if err != nil {
		return buffer.Flat{}, fmt.Errorf("decoding %s: %w", d.path, err)
	}
	return buf, nil
}

// Attrs returns the attribute names for this dataset.
func (d *Dataset) Attrs() []string {
	return attrNames(d.header)
}

// Attr returns an attribute by name, or nil if not found.
func (d *Dataset) Attr(name string) *Attribute {
	return findAttr(d.header, name, d.file)
}

// Attributes returns every attribute of the dataset.
func (d *Dataset) Attributes() []*Attribute {
	return allAttrs(d.header, d.file)
}
