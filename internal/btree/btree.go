package btree

import (
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
)

// maxDepth bounds recursion through corrupt or cyclic trees.
const maxDepth = 32

// ChunkEntry locates one stored chunk of a dataset.
type ChunkEntry struct {
	// Offset holds the element coordinates of the chunk's first element.
	Offset []uint64

	// FilterMask has bit i set when filter i was skipped for this chunk.
	FilterMask uint32

	// Size is the stored size. Zero means an unfiltered chunk whose size
	// follows from the chunk shape.
	Size uint32

	Address uint64
}

func expect(r *binary.Reader, sig string) error {
	got, err := r.ReadBytes(len(sig))
	if err != nil {
		return fmt.Errorf("reading %s signature: %w", sig, err)
	}
	if string(got) != sig {
		return fmt.Errorf("invalid signature at %#x: got %q, want %q", r.Pos()-int64(len(sig)), got, sig)
	}
	return nil
}

// allocated reports whether addr points at stored data.
func allocated(r *binary.Reader, addr uint64) bool {
	return addr != 0 && !r.IsUndefinedOffset(addr)
}

// readOffsets reads n 8-byte coordinates, multiplying each by scale[d]
// when scale is given.
func readOffsets(r *binary.Reader, n int, scale []uint64) ([]uint64, error) {
	out := make([]uint64, n)
	for d := range out {
		v, err := r.ReadUint64()
		if err != nil {
			return nil, fmt.Errorf("reading chunk offset %d: %w", d, err)
		}
		if scale != nil {
			v *= scale[d]
		}
		out[d] = v
	}
	return out, nil
}
