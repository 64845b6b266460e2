package superblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// Signature opens every superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// maxSearch is the last offset probed for a signature. The superblock sits
// at 0 or at a power of two from 512 upward, after any user block.
const maxSearch = 1 << 30

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock")
)

// Superblock holds the file-wide parameters of an HDF5 file.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8
	Flags      uint8 // file consistency flags

	// BaseAddress is the absolute position that file addresses count from.
	BaseAddress      uint64
	ExtensionAddress uint64 // versions 2 and 3
	EOFAddress       uint64
	RootGroupAddress uint64

	// Versions 0 and 1 only.
	GroupLeafK     uint16
	GroupInternalK uint16
	ChunkK         uint16 // version 1

	// Root group symbol table cached in the root entry's scratch pad, or
	// zero when the entry caches nothing.
	RootGroupBTreeAddress     uint64
	RootGroupLocalHeapAddress uint64

	// FileOffset is where the signature was found.
	FileOffset int64
}

// Read finds the superblock in ra and decodes it.
func Read(ra io.ReaderAt) (*Superblock, error) {
	r := binpkg.NewReader(ra, binpkg.DefaultConfig())
	for off := int64(0); off <= maxSearch; off = max(512, off*2) {
		head, err := r.At(off).ReadBytes(len(Signature) + 1)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("searching for superblock: %w", err)
		}
		if !bytes.Equal(head[:len(Signature)], Signature) {
			continue
		}

		sb := &Superblock{Version: head[len(Signature)], FileOffset: off}
		body := r.At(off + int64(len(Signature)) + 1)
		switch sb.Version {
		case 0, 1:
			err = sb.readV0(body)
		case 2, 3:
			err = sb.readV2(r, off, body)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, sb.Version)
		}
		if err != nil {
			return nil, err
		}
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig returns the reader configuration for the rest of the file.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	cfg := binpkg.DefaultConfig()
	cfg.OffsetSize = int(sb.OffsetSize)
	cfg.LengthSize = int(sb.LengthSize)
	return cfg
}

// sized checks the offset and length widths and returns r switched to them.
func (sb *Superblock) sized(r *binpkg.Reader) (*binpkg.Reader, error) {
	for _, n := range []uint8{sb.OffsetSize, sb.LengthSize} {
		switch n {
		case 2, 4, 8:
		default:
			return nil, fmt.Errorf("%w: field width %d", ErrInvalidSuperblock, n)
		}
	}
	return r.WithSizes(int(sb.OffsetSize), int(sb.LengthSize)), nil
}

// offsets reads consecutive addresses into dst, skipping nil entries.
func offsets(r *binpkg.Reader, dst ...*uint64) error {
	for _, p := range dst {
		v, err := r.ReadOffset()
		if err != nil {
			return fmt.Errorf("reading superblock: %w", err)
		}
		if p != nil {
			*p = v
		}
	}
	return nil
}
