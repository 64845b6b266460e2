package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/message"
)

// Layout reads the raw bytes of a dataset in row-major order.
type Layout interface {
	// Read returns every element of the dataset.
	Read() ([]byte, error)

	// ReadSlice returns the box that starts at start and spans count
	// elements along each axis.
	ReadSlice(start, count []uint64) ([]byte, error)

	Class() message.LayoutClass
}

// New returns the Layout for a data layout message.
func New(
	layout *message.DataLayout,
	dataspace *message.Dataspace,
	datatype *message.Datatype,
	filterPipeline *message.FilterPipeline,
	reader *binary.Reader,
) (Layout, error) {
	if layout == nil {
		return nil, fmt.Errorf("nil layout message")
	}

	switch layout.Class {
	case message.LayoutCompact:
		return NewCompact(layout, dataspace, datatype), nil
	case message.LayoutContiguous:
		return NewContiguous(layout, dataspace, datatype, reader), nil
	case message.LayoutChunked:
		return NewChunked(layout, dataspace, datatype, filterPipeline, reader)
	}
	return nil, fmt.Errorf("unsupported layout class: %d", layout.Class)
}

// calculateDataSize returns the byte size of the whole dataset.
func calculateDataSize(dataspace *message.Dataspace, datatype *message.Datatype) uint64 {
	if dataspace == nil || datatype == nil {
		return 0
	}
	return dataspace.NumElements() * uint64(datatype.Size)
}

// checkSlice validates a selection against the dataset extent.
func checkSlice(dims, start, count []uint64) error {
	if len(start) != len(dims) || len(count) != len(dims) {
		return fmt.Errorf("start and count must have %d dimensions, got %d and %d",
			len(dims), len(start), len(count))
	}
	for d := range dims {
		if start[d]+count[d] > dims[d] {
			return fmt.Errorf("slice out of bounds: dimension %d, start=%d, count=%d, size=%d",
				d, start[d], count[d], dims[d])
		}
	}
	return nil
}

func product(v []uint64) uint64 {
	n := uint64(1)
	for _, x := range v {
		n *= x
	}
	return n
}

// region is a box of elements in dataset coordinates.
type region struct {
	origin []uint64
	extent []uint64
}

func whole(dims []uint64) region {
	return region{origin: make([]uint64, len(dims)), extent: dims}
}

// intersect returns the overlap of r and o over the axes of o.
func (r region) intersect(o region) (region, bool) {
	n := len(o.extent)
	out := region{origin: make([]uint64, n), extent: make([]uint64, n)}
	for d := 0; d < n; d++ {
		lo := max(r.origin[d], o.origin[d])
		hi := min(r.origin[d]+r.extent[d], o.origin[d]+o.extent[d])
		if hi <= lo {
			return region{}, false
		}
		out.origin[d], out.extent[d] = lo, hi-lo
	}
	return out, true
}

// rowStrides returns the byte stride of each axis of a row-major array.
func rowStrides(extent []uint64, elem uint64) []uint64 {
	s := make([]uint64, len(extent))
	step := elem
	for d := len(extent) - 1; d >= 0; d-- {
		s[d] = step
		step *= extent[d]
	}
	return s
}

// copyRegion copies box from src, a row-major array covering srcBox, into
// dst, a row-major array covering dstBox. box must lie inside both. Rows
// that would fall outside a short buffer are skipped.
func copyRegion(dst []byte, dstBox region, src []byte, srcBox region, box region, elem uint64) {
	n := len(box.extent)
	if n == 0 || product(box.extent) == 0 {
		return
	}
	ds := rowStrides(dstBox.extent, elem)
	ss := rowStrides(srcBox.extent, elem)
	row := box.extent[n-1] * elem

	// pos walks the rows of box; the last axis is copied whole.
	pos := make([]uint64, n)
	for {
		var di, si uint64
		for d := 0; d < n; d++ {
			p := box.origin[d] + pos[d]
			di += (p - dstBox.origin[d]) * ds[d]
			si += (p - srcBox.origin[d]) * ss[d]
		}
		if di+row <= uint64(len(dst)) && si+row <= uint64(len(src)) {
			copy(dst[di:di+row], src[si:si+row])
		}

		d := n - 2
		for ; d >= 0; d-- {
			if pos[d]++; pos[d] < box.extent[d] {
				break
			}
			pos[d] = 0
		}
		if d < 0 {
			return
		}
	}
}

// extractHyperslab copies a selection out of a whole row-major array.
func extractHyperslab(data []byte, dims, start, count []uint64, elem uint64) ([]byte, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("cannot extract hyperslab from scalar dataset")
	}
	sel := region{origin: start, extent: count}
	out := make([]byte, product(count)*elem)
	copyRegion(out, sel, data, whole(dims), sel, elem)
	return out, nil
}
