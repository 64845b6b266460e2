// Package superblock locates and decodes the HDF5 superblock.
//
// The superblock is the first structure read from any HDF5 file. It fixes
// the width of file addresses and lengths for everything that follows, and
// it points at the object header of the root group.
//
// # Locating the Signature
//
// Every superblock starts with the 8-byte [Signature]
// 0x89 'H' 'D' 'F' '\r' '\n' 0x1a '\n'. A file may carry a user block in
// front of it, so [Read] looks at offset 0 and then at each power of two
// from 512 upward until the signature turns up or the file ends. The offset
// where it was found is kept in [Superblock.FileOffset].
//
// # Versions
//
//   - Versions 0 and 1 hold fixed-size fields followed by a symbol table
//     entry for the root group. When that entry caches a symbol table, the
//     B-tree and local heap addresses are copied into the superblock so the
//     root group can be listed without reading its header first. Version 1
//     adds the chunk B-tree K value.
//
//   - Versions 2 and 3 are compact. They name the root group header
//     directly and may point at a superblock extension. Version 3 only
//     changes the meaning of the consistency flags.
//
// Offset and length sizes of 2, 4 and 8 bytes are accepted. Anything else
// fails with [ErrInvalidSuperblock].
//
// # Usage
//
//	sb, err := superblock.Read(f)
//	if errors.Is(err, superblock.ErrNotHDF5) {
//	    // not an HDF5 file
//	}
//	r := binary.NewReader(f, sb.ReaderConfig())
//
// [Superblock.ReaderConfig] carries the file's offset and length sizes to
// every reader built for the rest of the file.
//
// # Errors
//
//   - [ErrNotHDF5]: no signature at any candidate offset
//   - [ErrUnsupportedVersion]: version above 3
//   - [ErrInvalidSuperblock]: truncated fields or bad field sizes
package superblock
