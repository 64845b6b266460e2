package superblock

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// scratchSymbolTable is the cache type of a root entry whose scratch pad
// holds the group's B-tree and local heap addresses.
const scratchSymbolTable = 1

// readV0 decodes versions 0 and 1, which end with the root group's
// symbol table entry. r is positioned just past the version byte.
func (sb *Superblock) readV0(r *binpkg.Reader) error {
	// free-space, root entry and shared message versions, widths, group
	// K values and consistency flags
	fixed, err := r.ReadBytes(15)
	if err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}
	order := r.ByteOrder()
	sb.OffsetSize = fixed[4]
	sb.LengthSize = fixed[5]
	sb.GroupLeafK = order.Uint16(fixed[7:])
	sb.GroupInternalK = order.Uint16(fixed[9:])
	sb.Flags = fixed[11]

	if sb.Version == 1 {
		if sb.ChunkK, err = r.ReadUint16(); err != nil {
			return fmt.Errorf("reading superblock: %w", err)
		}
		r.Skip(2)
	}

	ar, err := sb.sized(r)
	if err != nil {
		return err
	}
	// base, free-space info, EOF, driver info, then the root entry's
	// link name offset and object header
	if err := offsets(ar, &sb.BaseAddress, nil, &sb.EOFAddress, nil, nil, &sb.RootGroupAddress); err != nil {
		return err
	}

	cache, err := ar.ReadUint32()
	if err != nil {
		return fmt.Errorf("reading root group entry: %w", err)
	}
	ar.Skip(4)
	if cache == scratchSymbolTable {
		return offsets(ar, &sb.RootGroupBTreeAddress, &sb.RootGroupLocalHeapAddress)
	}
	return nil
}
