// Package message decodes the header messages that describe an HDF5
// object.
//
// An object header is a list of typed messages. Each one records a single
// property of the object, for example the shape of a dataset or one of its
// links. This package turns the raw body of a message into a Go value.
//
// # Decoded Messages
//
//   - [Dataspace] (0x0001): rank, current and maximum dimensions
//   - [Datatype] (0x0003): element class, size, byte order and members
//   - [FillValue] (0x0005): the value of unwritten elements
//   - [Link] (0x0006): a hard, soft or external link to another object
//   - [DataLayout] (0x0008): compact, contiguous or chunked storage
//   - [FilterPipeline] (0x000B): filters applied to chunks
//   - [Attribute] (0x000C): a named value with its own type and space
//   - [Continuation] (0x0010): where the header continues
//   - [SymbolTable] (0x0011): B-tree and local heap of an old-style group
//
// # Parsing
//
// [Parse] dispatches on the message type. Types without a decoder come
// back as [Unknown], which keeps the raw bytes. A link info message
// (0x0002) is one of them; its presence alone marks dense link storage.
// Callers skip the messages they do not use without failing the header.
//
//	msg, err := message.Parse(message.TypeDatatype, body, flags, r)
//	dt := msg.(*message.Datatype)
//
// Attribute messages nest a datatype and a dataspace. Their bodies are
// decoded with the same functions as the standalone messages.
//
// Field widths that depend on the file, such as addresses and lengths,
// come from the reader passed to [Parse].
package message
