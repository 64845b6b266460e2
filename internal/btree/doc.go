// Package btree walks the HDF5 B-trees that index group members and
// dataset chunks.
//
// Trees are read in full. Callers get flat lists of entries rather than an
// iterator, which suits a viewer that lists a whole group or reads a whole
// dataset at once.
//
// # Version 1 Trees
//
// Version 1 nodes carry the "TREE" signature and a node type:
//
//   - Type 0 indexes a symbol-table group. Its leaves point at symbol nodes
//     ("SNOD"), whose entries name members through a local heap.
//     [GroupEntries] returns those entries in key order.
//
//   - Type 1 indexes the chunks of a dataset. Each key holds the stored
//     chunk size, the filter mask and the chunk's element offset.
//     [ChunkEntries] returns one [ChunkEntry] per chunk.
//
// # Version 2 Trees
//
// Version 4 layout messages may index chunks with a version 2 tree. The
// header ("BTHD") gives the record size and depth, and nodes are leaves
// ("BTLF") or internal nodes ("BTIN"). Internal nodes hold records as
// well as child pointers. [ChunkEntriesV2] reads record types 10
// (unfiltered chunks) and 11 (filtered chunks). In both, offsets are
// stored in chunk units and scaled to element coordinates.
//
// Recursion is bounded so that a corrupt or cyclic tree fails instead of
// looping.
package btree
