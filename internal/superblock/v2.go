package superblock

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// readV2 decodes versions 2 and 3 and verifies their checksum. body is
// positioned just past the version byte of the superblock at off.
func (sb *Superblock) readV2(r *binpkg.Reader, off int64, body *binpkg.Reader) error {
	fixed, err := body.ReadBytes(3)
	if err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}
	sb.OffsetSize, sb.LengthSize, sb.Flags = fixed[0], fixed[1], fixed[2]

	ar, err := sb.sized(body)
	if err != nil {
		return err
	}
	if err := offsets(ar, &sb.BaseAddress, &sb.ExtensionAddress, &sb.EOFAddress, &sb.RootGroupAddress); err != nil {
		return err
	}

	covered, err := r.At(off).ReadBytes(int(ar.Pos() - off))
	if err != nil {
		return err
	}
	sum, err := ar.ReadUint32()
	if err != nil {
		return fmt.Errorf("reading superblock checksum: %w", err)
	}
	if !binpkg.VerifyLookup3(covered, sum) {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidSuperblock)
	}
	return nil
}
