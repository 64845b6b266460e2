// Package object reads HDF5 object headers.
//
// Every group and dataset has an object header holding its header
// messages. [Read] loads the header at an address, follows its
// continuation blocks and decodes every message with [message.Parse].
//
// # Header Versions
//
//   - Version 1 headers start with a 16-byte prefix: version, message
//     count, reference count and the size of the first block. Messages are
//     aligned to 8 bytes.
//
//   - Version 2 headers start with "OHDR". Message headers are smaller,
//     optional timestamps and attribute phase values may follow the flags,
//     and every block ends with a lookup3 checksum. Continuation blocks
//     start with "OCHK".
//
// A continuation message may point back at a block already read. Each
// block is visited once, so such headers still terminate.
//
// # Looking Up Messages
//
//	h, err := object.Read(r, addr)
//	space := h.Dataspace()
//	attrs := h.All(message.TypeAttribute)
//	links, ok := object.Find[*message.Link](h)
//
// [Header.First] and the typed accessors return nil when the message is
// absent. [Find] does the same lookup by Go type.
//
// # Errors
//
//   - [ErrInvalidHeader]: bad signature or a truncated block
//   - [ErrUnsupportedVersion]: a version other than 1 or 2
//   - [ErrChecksumMismatch]: a version 2 block fails its checksum
package object
