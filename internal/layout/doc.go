// Package layout reads the raw bytes of a dataset from compact, contiguous
// or chunked storage. Compact and contiguous data are both a [Block].
//
// Every [Layout] returns elements in row-major order, either the whole
// dataset ([Layout.Read]) or one box of it ([Layout.ReadSlice]). Chunked
// storage locates its chunks through one of five indexes, told apart by the
// signature at the index address: a single unindexed chunk, a v1 B-tree
// ("TREE"), a v2 B-tree ("BTHD"), a fixed array ("FAHD") or an extensible
// array ("EAHD") whose elements fit in its index block. Implicit indexes are
// known from the layout message alone. Chunks are passed
// through the filter pipeline and then copied box by box into the output,
// so edge chunks that overhang the dataset are clipped and a slice only
// touches the chunks it overlaps.
package layout
