package layout

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/message"
)

// Block is data stored in one piece: inside the object header for compact
// layouts, or as a single extent of the file for contiguous ones.
type Block struct {
	class message.LayoutClass
	dims  []uint64 // empty for scalars
	elem  uint64
	size  uint64

	// prefix returns the first n bytes.
	prefix func(n uint64) ([]byte, error)
}

var errNotAllocated = errors.New("contiguous data not allocated")

// NewCompact returns the block held in the layout message itself.
func NewCompact(l *message.DataLayout, space *message.Dataspace, dt *message.Datatype) *Block {
	data := l.CompactData
	b := newBlock(message.LayoutCompact, space, dt, uint64(len(data)))
	b.prefix = func(n uint64) ([]byte, error) {
		if n > uint64(len(data)) {
			return nil, fmt.Errorf("compact data holds %d bytes, want %d", len(data), n)
		}
		return bytes.Clone(data[:n]), nil
	}
	return b
}

// NewContiguous returns the block at the layout's address. A zero size in
// the message is derived from the extent and element size.
func NewContiguous(l *message.DataLayout, space *message.Dataspace, dt *message.Datatype, r *binary.Reader) *Block {
	size := l.Size
	if size == 0 {
		size = calculateDataSize(space, dt)
	}
	addr := l.Address
	b := newBlock(message.LayoutContiguous, space, dt, size)
	b.prefix = func(n uint64) ([]byte, error) {
		if r.IsUndefinedOffset(addr) {
			return nil, errNotAllocated
		}
		if n == 0 {
			return []byte{}, nil
		}
		data, err := r.At(int64(addr)).ReadBytes(int(n))
		if err != nil {
			return nil, fmt.Errorf("reading contiguous data: %w", err)
		}
		return data, nil
	}
	return b
}

func newBlock(class message.LayoutClass, space *message.Dataspace, dt *message.Datatype, size uint64) *Block {
	b := &Block{class: class, size: size}
	if space != nil {
		b.dims = space.Dimensions
	}
	if dt != nil {
		b.elem = uint64(dt.Size)
	}
	return b
}

func (b *Block) Class() message.LayoutClass { return b.class }

// Size is the stored byte count.
func (b *Block) Size() uint64 { return b.size }

// Read returns a copy of every stored byte.
func (b *Block) Read() ([]byte, error) { return b.prefix(b.size) }

// ReadSlice reads a hyperslab. Selections of whole rows from the start of
// axis 0 fetch only those rows.
func (b *Block) ReadSlice(start, count []uint64) ([]byte, error) {
	if len(b.dims) == 0 {
		if len(start) > 0 || len(count) > 0 {
			return nil, fmt.Errorf("cannot slice scalar dataset with non-empty start/count")
		}
		return b.Read()
	}
	if err := checkSlice(b.dims, start, count); err != nil {
		return nil, err
	}
	if isLeadingPrefix(b.dims, start, count) {
		return b.prefix(product(count) * b.elem)
	}
	data, err := b.Read()
	if err != nil {
		return nil, err
	}
	return extractHyperslab(data, b.dims, start, count, b.elem)
}

// isLeadingPrefix reports whether the selection starts at the origin and
// spans every trailing axis in full.
func isLeadingPrefix(dims, start, count []uint64) bool {
	for d := range dims {
		if start[d] != 0 || (d > 0 && count[d] != dims[d]) {
			return false
		}
	}
	return true
}
