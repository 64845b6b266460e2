package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/btree"
	"github.com/robert-malhotra/h5view/internal/message"
)

// indexKind identifies the structure that maps chunks to file addresses.
type indexKind int

const (
	indexSingle indexKind = iota
	indexBTreeV1
	indexFixedArray
	indexExtensibleArray
	indexBTreeV2
	indexImplicit
)

func (k indexKind) String() string {
	switch k {
	case indexBTreeV1:
		return "B-tree v1"
	case indexFixedArray:
		return "fixed array"
	case indexExtensibleArray:
		return "extensible array"
	case indexBTreeV2:
		return "B-tree v2"
	case indexImplicit:
		return "implicit"
	}
	return "single"
}

// indexKind sniffs the signature at the chunk index address. Anything
// unrecognized is taken to be the data of a single chunk. Implicit indexes
// have no structure of their own and are known only from the layout.
func (c *Chunked) indexKind() indexKind {
	addr := c.layout.ChunkIndexAddr
	if addr == 0 || c.reader.IsUndefinedOffset(addr) {
		return indexSingle
	}
	if c.layout.ChunkIndexType == message.ChunkIndexImplicit {
		return indexImplicit
	}
	sig, err := c.reader.At(int64(addr)).Peek(4)
	if err != nil {
		return indexSingle
	}
	switch string(sig) {
	case "TREE":
		return indexBTreeV1
	case "FAHD", "FARY":
		return indexFixedArray
	case "EAHD":
		return indexExtensibleArray
	case "BTHD":
		return indexBTreeV2
	}
	return indexSingle
}

func (c *Chunked) entries(kind indexKind, g grid) ([]btree.ChunkEntry, error) {
	switch kind {
	case indexBTreeV1:
		return btree.ChunkEntries(c.reader, c.layout.ChunkIndexAddr, g.chunk)
	case indexBTreeV2:
		return btree.ChunkEntriesV2(c.reader, c.layout.ChunkIndexAddr, g.chunk)
	case indexFixedArray:
		return c.fixedArray(g)
	case indexExtensibleArray:
		return c.extensibleArray(g)
	case indexImplicit:
		return c.implicit(g), nil
	}
	return nil, fmt.Errorf("unsupported chunk index: %s", kind)
}

// grid is the chunk tiling of a dataset.
type grid struct {
	dims  []uint64
	chunk []uint64
}

// offset returns the element coordinates of the i-th chunk in row-major
// chunk order.
func (g grid) offset(i uint64) []uint64 {
	off := make([]uint64, len(g.dims))
	for d := len(g.dims) - 1; d >= 0; d-- {
		n := (g.dims[d] + g.chunk[d] - 1) / g.chunk[d]
		off[d] = (i % n) * g.chunk[d]
		i /= n
	}
	return off
}

// count returns the number of chunks in the grid.
func (g grid) count() uint64 {
	n := uint64(1)
	for d := range g.dims {
		n *= (g.dims[d] + g.chunk[d] - 1) / g.chunk[d]
	}
	return n
}

func expectSignature(r *binary.Reader, want string) error {
	sig, err := r.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("reading %s signature: %w", want, err)
	}
	if string(sig) != want {
		return fmt.Errorf("invalid signature: got %q, expected %q", sig, want)
	}
	return nil
}

// fixedArray decodes a fixed array index (FAHD) and its unpaged data
// block (FADB).
func (c *Chunked) fixedArray(g grid) ([]btree.ChunkEntry, error) {
	r := c.reader.At(int64(c.layout.ChunkIndexAddr))
	if err := expectSignature(r, "FAHD"); err != nil {
		return nil, err
	}
	// version, client ID, entry size, page bits
	hdr, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if hdr[0] != 0 {
		return nil, fmt.Errorf("unsupported fixed array version: %d", hdr[0])
	}
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	blockAddr, err := r.ReadOffset()
	if err != nil {
		return nil, err
	}

	r = c.reader.At(int64(blockAddr))
	if err := expectSignature(r, "FADB"); err != nil {
		return nil, err
	}
	r.Skip(2) // version, client ID
	if _, err := r.ReadOffset(); err != nil {
		return nil, err
	}
	return c.arrayEntries(r, g, int(n), int(hdr[2]))
}

// extensibleArray decodes an extensible array index (EAHD) whose elements
// all live in the index block (EAIB).
func (c *Chunked) extensibleArray(g grid) ([]btree.ChunkEntry, error) {
	r := c.reader.At(int64(c.layout.ChunkIndexAddr))
	if err := expectSignature(r, "EAHD"); err != nil {
		return nil, err
	}
	// version, client ID, element size, max elements bits, index block
	// elements, data block min elements, secondary block min pointers,
	// max data block page elements bits
	hdr, err := r.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	if hdr[0] != 0 {
		return nil, fmt.Errorf("unsupported extensible array version: %d", hdr[0])
	}
	// secondary block count and size, data block count and size, max index set
	r.Skip(int64(5 * r.LengthSize()))
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	blockAddr, err := r.ReadOffset()
	if err != nil {
		return nil, err
	}

	inBlock := int(hdr[4])
	if int(n) > inBlock {
		return nil, fmt.Errorf("%d elements exceed the %d held by the index block; data blocks are not supported",
			n, inBlock)
	}

	r = c.reader.At(int64(blockAddr))
	if err := expectSignature(r, "EAIB"); err != nil {
		return nil, err
	}
	r.Skip(2) // version, client ID
	if _, err := r.ReadOffset(); err != nil {
		return nil, err
	}
	return c.arrayEntries(r, g, int(n), int(hdr[2]))
}

// arrayEntries reads n array elements of entrySize bytes. An element is a
// chunk address, followed for filtered chunks by its stored size and filter
// mask.
func (c *Chunked) arrayEntries(r *binary.Reader, g grid, n, entrySize int) ([]btree.ChunkEntry, error) {
	sizeWidth := entrySize - r.OffsetSize() - 4
	filtered := entrySize > r.OffsetSize()

	var entries []btree.ChunkEntry
	for i := 0; i < n; i++ {
		addr, err := r.ReadOffset()
		if err != nil {
			return nil, fmt.Errorf("reading chunk address: %w", err)
		}
		e := btree.ChunkEntry{Address: addr}
		if filtered {
			if sizeWidth > 0 {
				size, err := r.ReadUintN(sizeWidth)
				if err != nil {
					return nil, fmt.Errorf("reading chunk size: %w", err)
				}
				e.Size = uint32(size)
			}
			if e.FilterMask, err = r.ReadUint32(); err != nil {
				return nil, fmt.Errorf("reading filter mask: %w", err)
			}
		}
		if addr == 0 || r.IsUndefinedOffset(addr) {
			continue
		}
		e.Offset = g.offset(uint64(i))
		entries = append(entries, e)
	}
	return entries, nil
}

// implicit lists the chunks of an unfiltered dataset allocated as one
// block, one full chunk after another.
func (c *Chunked) implicit(g grid) []btree.ChunkEntry {
	size := product(g.chunk) * uint64(c.datatype.Size)
	n := g.count()
	entries := make([]btree.ChunkEntry, n)
	for i := range entries {
		entries[i] = btree.ChunkEntry{
			Offset:  g.offset(uint64(i)),
			Address: c.layout.ChunkIndexAddr + uint64(i)*size,
			Size:    uint32(size),
		}
	}
	return entries
}
