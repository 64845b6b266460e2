package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/heap"
)

const (
	nodeGroup uint8 = 0
	nodeChunk uint8 = 1
)

// walkV1 descends a version 1 B-tree and calls leaf for every child of a
// leaf node, with key positioned at the child's left key.
func walkV1(r *binary.Reader, addr uint64, kind uint8, keySize int, leaf func(key *binary.Reader, child uint64) error) error {
	return walkV1Node(r, addr, kind, keySize, maxDepth, leaf)
}

func walkV1Node(r *binary.Reader, addr uint64, kind uint8, keySize, budget int, leaf func(*binary.Reader, uint64) error) error {
	if budget == 0 {
		return fmt.Errorf("B-tree deeper than %d levels", maxDepth)
	}
	nr := r.At(int64(addr))
	if err := expect(nr, "TREE"); err != nil {
		return err
	}
	// node type, level, entries used
	hdr, err := nr.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("reading B-tree node at %#x: %w", addr, err)
	}
	if hdr[0] != kind {
		return fmt.Errorf("B-tree node at %#x has type %d, want %d", addr, hdr[0], kind)
	}
	level := hdr[1]
	n := int(r.ByteOrder().Uint16(hdr[2:]))
	nr.Skip(int64(2 * r.OffsetSize())) // siblings

	for i := 0; i < n; i++ {
		key := r.At(nr.Pos())
		nr.Skip(int64(keySize))
		child, err := nr.ReadOffset()
		if err != nil {
			return fmt.Errorf("reading child %d of B-tree node at %#x: %w", i, addr, err)
		}
		if level > 0 {
			err = walkV1Node(r, child, kind, keySize, budget-1, leaf)
		} else {
			err = leaf(key, child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ChunkEntries lists the allocated chunks of a version 1 B-tree chunk
// index for a dataset of rank len(chunk).
func ChunkEntries(r *binary.Reader, addr uint64, chunk []uint64) ([]ChunkEntry, error) {
	ndims := len(chunk)
	// stored size, filter mask, then one offset per dimension plus one
	// for the element
	keySize := 8 + 8*(ndims+1)

	var out []ChunkEntry
	err := walkV1(r, addr, nodeChunk, keySize, func(key *binary.Reader, child uint64) error {
		size, err := key.ReadUint32()
		if err != nil {
			return fmt.Errorf("reading chunk size: %w", err)
		}
		mask, err := key.ReadUint32()
		if err != nil {
			return fmt.Errorf("reading filter mask: %w", err)
		}
		off, err := readOffsets(key, ndims, nil)
		if err != nil {
			return err
		}
		if size > 0 && allocated(r, child) {
			out = append(out, ChunkEntry{Offset: off, FilterMask: mask, Size: size, Address: child})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GroupEntry is one member of a symbol-table group.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	Soft          bool
	SoftLinkValue string
}

// GroupEntries lists the members of a symbol-table group whose names live
// in names.
func GroupEntries(r *binary.Reader, addr uint64, names *heap.Local) ([]GroupEntry, error) {
	var out []GroupEntry
	err := walkV1(r, addr, nodeGroup, r.LengthSize(), func(_ *binary.Reader, child uint64) error {
		entries, err := readSymbolNode(r, child, names)
		if err != nil {
			return fmt.Errorf("reading symbol table node: %w", err)
		}
		out = append(out, entries...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readSymbolNode(r *binary.Reader, addr uint64, names *heap.Local) ([]GroupEntry, error) {
	nr := r.At(int64(addr))
	if err := expect(nr, "SNOD"); err != nil {
		return nil, err
	}
	// version, reserved, symbol count
	hdr, err := nr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if hdr[0] != 1 {
		return nil, fmt.Errorf("unsupported symbol table node version: %d", hdr[0])
	}
	n := int(r.ByteOrder().Uint16(hdr[2:]))

	entries := make([]GroupEntry, 0, n)
	for i := 0; i < n; i++ {
		e, err := readSymbol(nr, names)
		if err != nil {
			return nil, fmt.Errorf("reading symbol %d: %w", i, err)
		}
		if e.Name != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// cacheSoftLink marks a symbol whose scratch pad holds the heap offset of
// a soft link target.
const cacheSoftLink = 2

// readSymbol decodes one symbol table entry: name offset, object header
// address, cache type, a reserved word and a 16-byte scratch pad.
func readSymbol(nr *binary.Reader, names *heap.Local) (GroupEntry, error) {
	nameOff, err := nr.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	addr, err := nr.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	cache, err := nr.ReadUint32()
	if err != nil {
		return GroupEntry{}, err
	}
	nr.Skip(4)
	scratch, err := nr.ReadBytes(16)
	if err != nil {
		return GroupEntry{}, err
	}

	e := GroupEntry{Name: names.String(nameOff), ObjectAddress: addr}
	if cache == cacheSoftLink {
		e.Soft = true
		e.ObjectAddress = 0
		e.SoftLinkValue = names.String(uint64(nr.ByteOrder().Uint32(scratch)))
	}
	return e, nil
}
