// Package heap reads the HDF5 heaps that hold names and variable-length
// data.
//
// # Local Heaps
//
// A local heap ("HEAP") belongs to one symbol-table group. Its data segment
// stores the null-terminated names of the group's members, and symbol table
// entries refer to them by offset. [ReadLocal] loads the whole segment once
// so that [Local.String] is a slice lookup.
//
// # Global Heaps
//
// A global heap collection ("GCOL") stores objects shared across the file.
// Variable-length strings and sequences live there. Each dataset element
// holds a heap [ID]: the collection address followed by a 4-byte object
// index, which [ParseID] decodes.
//
// [ReadCollection] walks the objects of one collection and indexes them by
// number. Index 0 marks free space and ends the walk, as does an object
// that would run past the collection's declared size.
//
//	id, err := heap.ParseID(elem, r.OffsetSize())
//	c, err := heap.ReadCollection(r, id.Collection)
//	s, err := c.String(uint16(id.Index))
//
// [Collection.Object] returns a copy, so callers may keep or modify it.
//
// Fractal heaps, which back dense link and attribute storage, are not read.
package heap
