package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// LayoutClass is the storage layout of a dataset.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

// ChunkIndexType is the chunk index a version 4 layout names. Older
// layouts always use a version 1 B-tree.
type ChunkIndexType uint8

const (
	ChunkIndexBTreeV1         ChunkIndexType = 0
	ChunkIndexSingleChunk     ChunkIndexType = 1
	ChunkIndexImplicit        ChunkIndexType = 2
	ChunkIndexFixedArray      ChunkIndexType = 3
	ChunkIndexExtensibleArray ChunkIndexType = 4
	ChunkIndexBTreeV2         ChunkIndexType = 5
)

// DataLayout is the data layout message (0x0008).
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// compact
	CompactData []byte

	// contiguous; a zero Size is derived from the dataspace
	Address uint64
	Size    uint64

	// chunked; ChunkDims carries a trailing element-size dimension
	ChunkDims      []uint32
	ChunkIndexAddr uint64
	ChunkIndexType ChunkIndexType
	ChunkFlags     uint8

	// filtered single chunk
	FilteredChunkSize uint64
	FilteredChunkMask uint32
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func (m *DataLayout) IsCompact() bool    { return m.Class == LayoutCompact }
func (m *DataLayout) IsContiguous() bool { return m.Class == LayoutContiguous }
func (m *DataLayout) IsChunked() bool    { return m.Class == LayoutChunked }

func parseDataLayout(data []byte, r *binpkg.Reader) (*DataLayout, error) {
	c := newCursor("data layout message", data, r)
	l := &DataLayout{Version: c.u8()}

	switch l.Version {
	case 1, 2:
		c.layoutV1(l)
	case 3, 4:
		c.layoutV3(l)
	default:
		if c.err == nil {
			return nil, fmt.Errorf("unsupported data layout version: %d", l.Version)
		}
	}
	return result(l, c)
}

// layoutV1 decodes versions 1 and 2, which share one field order for
// every class.
func (c *cursor) layoutV1(l *DataLayout) {
	ndims := int(c.u8())
	l.Class = LayoutClass(c.u8())
	c.skip(5)
	if l.Class != LayoutCompact {
		l.ChunkIndexAddr = c.offset()
	}
	dims := make([]uint32, ndims)
	for i := range dims {
		dims[i] = c.u32()
	}

	switch l.Class {
	case LayoutCompact:
		l.CompactData = c.bytes(int(c.u32()))
	case LayoutContiguous:
		l.Address, l.ChunkIndexAddr = l.ChunkIndexAddr, 0
	case LayoutChunked:
		l.ChunkDims = dims
	}
}

// layoutV3 decodes versions 3 and 4. Version 4 chunked layouts name their
// chunk index and may carry index parameters.
func (c *cursor) layoutV3(l *DataLayout) {
	l.Class = LayoutClass(c.u8())
	switch l.Class {
	case LayoutCompact:
		l.CompactData = c.bytes(int(c.u16()))

	case LayoutContiguous:
		l.Address = c.offset()
		l.Size = c.length()

	case LayoutChunked:
		if l.Version == 3 {
			ndims := int(c.u8())
			l.ChunkIndexAddr = c.offset()
			l.ChunkDims = make([]uint32, ndims)
			for i := range l.ChunkDims {
				l.ChunkDims[i] = c.u32()
			}
			return
		}
		c.chunkedV4(l)

	case LayoutVirtual:
		// global heap address and index of the mapping
		c.skip(c.osize + 4)

	default:
		c.fail("unknown layout class %d", l.Class)
	}
}

func (c *cursor) chunkedV4(l *DataLayout) {
	l.ChunkFlags = c.u8()
	ndims := int(c.u8())
	width := int(c.u8())
	l.ChunkDims = make([]uint32, ndims)
	for i := range l.ChunkDims {
		l.ChunkDims[i] = uint32(c.uint(width))
	}

	l.ChunkIndexType = ChunkIndexType(c.u8())
	switch l.ChunkIndexType {
	case ChunkIndexSingleChunk:
		if l.ChunkFlags&0x02 != 0 {
			l.FilteredChunkSize = c.length()
			l.FilteredChunkMask = c.u32()
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		c.skip(1) // page bits
	case ChunkIndexExtensibleArray:
		c.skip(5) // max bits, index elements, min pointers, min elements, page bits
	case ChunkIndexBTreeV2:
		c.skip(6) // node size, split and merge percent
	default:
		c.fail("unknown chunk index type %d", l.ChunkIndexType)
	}
	l.ChunkIndexAddr = c.offset()
}
