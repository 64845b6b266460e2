package btree

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/h5view/internal/binary"
)

// Version 2 B-tree record types that hold chunk records.
const (
	RecordChunk         uint8 = 10
	RecordFilteredChunk uint8 = 11
)

// v2Prefix is the signature, version, type and checksum every node carries.
const v2Prefix = 10

// v2Tree is a decoded version 2 B-tree header.
type v2Tree struct {
	r          *binary.Reader
	kind       uint8
	recordSize int
	depth      int
	root       uint64
	rootCount  int
	total      uint64

	// countWidth is the size of a child's record count; totalWidth[d] the
	// size of the total record count stored for a child at depth d.
	countWidth int
	totalWidth []int
}

// readV2Tree decodes and checksums the header at addr.
func readV2Tree(r *binary.Reader, addr uint64) (*v2Tree, error) {
	nr := r.At(int64(addr))
	if err := expect(nr, "BTHD"); err != nil {
		return nil, err
	}
	// version, type, node size, record size, depth, split and merge percent
	hdr, err := nr.ReadBytes(12)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree v2 header: %w", err)
	}
	if hdr[0] != 0 {
		return nil, fmt.Errorf("unsupported B-tree v2 version: %d", hdr[0])
	}
	order := r.ByteOrder()
	t := &v2Tree{
		r:          r,
		kind:       hdr[1],
		recordSize: int(order.Uint16(hdr[6:])),
		depth:      int(order.Uint16(hdr[8:])),
	}
	nodeSize := uint64(order.Uint32(hdr[2:]))

	if t.root, err = nr.ReadOffset(); err != nil {
		return nil, err
	}
	count, err := nr.ReadUint16()
	if err != nil {
		return nil, err
	}
	t.rootCount = int(count)
	if t.total, err = nr.ReadLength(); err != nil {
		return nil, err
	}

	body, err := r.At(int64(addr)).ReadBytes(int(nr.Pos() - int64(addr)))
	if err != nil {
		return nil, err
	}
	sum, err := nr.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading B-tree v2 checksum: %w", err)
	}
	if !binary.VerifyLookup3(body, sum) {
		return nil, fmt.Errorf("B-tree v2 header at %#x: checksum mismatch", addr)
	}

	if t.recordSize == 0 {
		return nil, fmt.Errorf("B-tree v2 header at %#x: zero record size", addr)
	}
	if t.depth > maxDepth {
		return nil, fmt.Errorf("B-tree v2 depth %d exceeds %d", t.depth, maxDepth)
	}
	if err := t.sizeFields(nodeSize); err != nil {
		return nil, err
	}
	return t, nil
}

// sizeFields derives the widths of the record counts in internal nodes,
// which depend on how many records a node of nodeSize bytes can hold.
func (t *v2Tree) sizeFields(nodeSize uint64) error {
	rec := uint64(t.recordSize)
	if nodeSize <= v2Prefix+rec {
		return fmt.Errorf("B-tree v2 node size %d too small", nodeSize)
	}
	maxLeaf := (nodeSize - v2Prefix) / rec
	t.countWidth = encodedWidth(maxLeaf)

	cumulative := maxLeaf
	t.totalWidth = make([]int, t.depth+1)
	for d := 1; d <= t.depth; d++ {
		ptr := uint64(t.r.OffsetSize() + t.countWidth)
		if d > 1 {
			ptr += uint64(t.totalWidth[d-1])
		}
		if nodeSize <= v2Prefix+ptr {
			return fmt.Errorf("B-tree v2 node size %d too small", nodeSize)
		}
		maxRec := (nodeSize - v2Prefix - ptr) / (rec + ptr)
		cumulative = (maxRec+1)*cumulative + maxRec
		t.totalWidth[d] = encodedWidth(cumulative)
	}
	return nil
}

// encodedWidth returns the bytes used to store counts up to n.
func encodedWidth(n uint64) int {
	return max(bits.Len64(n)-1, 0)/8 + 1
}

// walk calls visit with a reader at each of the n records of the node at
// addr and of every node below it. Internal nodes hold records too.
func (t *v2Tree) walk(addr uint64, n, depth int, visit func(rec *binary.Reader) error) error {
	nr := t.r.At(int64(addr))
	sig := "BTLF"
	if depth > 0 {
		sig = "BTIN"
	}
	if err := expect(nr, sig); err != nil {
		return err
	}
	hdr, err := nr.ReadBytes(2)
	if err != nil {
		return err
	}
	if hdr[0] != 0 {
		return fmt.Errorf("unsupported B-tree v2 node version: %d", hdr[0])
	}
	if hdr[1] != t.kind {
		return fmt.Errorf("B-tree v2 node at %#x has type %d, want %d", addr, hdr[1], t.kind)
	}

	records := nr.Pos()
	for i := 0; i < n; i++ {
		if err := visit(t.r.At(records + int64(i*t.recordSize))); err != nil {
			return err
		}
	}
	if depth == 0 {
		return nil
	}

	nr.Skip(int64(n * t.recordSize))
	for i := 0; i <= n; i++ {
		child, err := nr.ReadOffset()
		if err != nil {
			return fmt.Errorf("reading child %d of B-tree v2 node at %#x: %w", i, addr, err)
		}
		count, err := nr.ReadUintN(t.countWidth)
		if err != nil {
			return err
		}
		if depth > 1 {
			nr.Skip(int64(t.totalWidth[depth-1]))
		}
		if err := t.walk(child, int(count), depth-1, visit); err != nil {
			return err
		}
	}
	return nil
}

// ChunkEntriesV2 lists the allocated chunks of a version 2 B-tree chunk
// index. Records store chunk coordinates in units of chunk, which are
// scaled back to elements.
func ChunkEntriesV2(r *binary.Reader, addr uint64, chunk []uint64) ([]ChunkEntry, error) {
	t, err := readV2Tree(r, addr)
	if err != nil {
		return nil, err
	}
	if t.kind != RecordChunk && t.kind != RecordFilteredChunk {
		return nil, fmt.Errorf("B-tree v2 record type %d does not index chunks", t.kind)
	}
	if t.total == 0 {
		return nil, nil
	}

	ndims := len(chunk)
	filtered := t.kind == RecordFilteredChunk
	sizeWidth := t.recordSize - r.OffsetSize() - 4 - 8*ndims
	if filtered && sizeWidth <= 0 {
		return nil, fmt.Errorf("B-tree v2 record size %d too small for rank %d", t.recordSize, ndims)
	}

	var out []ChunkEntry
	err = t.walk(t.root, t.rootCount, t.depth, func(rec *binary.Reader) error {
		var e ChunkEntry
		var err error
		if e.Address, err = rec.ReadOffset(); err != nil {
			return err
		}
		if filtered {
			size, err := rec.ReadUintN(sizeWidth)
			if err != nil {
				return fmt.Errorf("reading chunk size: %w", err)
			}
			e.Size = uint32(size)
			if e.FilterMask, err = rec.ReadUint32(); err != nil {
				return fmt.Errorf("reading filter mask: %w", err)
			}
		}
		if e.Offset, err = readOffsets(rec, ndims, chunk); err != nil {
			return err
		}
		if allocated(r, e.Address) {
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
