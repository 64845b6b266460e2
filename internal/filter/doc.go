// Package filter undoes the HDF5 filter pipeline on stored chunks.
//
// Chunked datasets may pass every chunk through a pipeline of filters
// before it is written. The pipeline is described by a filter pipeline
// message, and reading a chunk means running the stages backwards.
//
// # Supported Filters
//
//   - Deflate (1): zlib-compressed data
//   - Shuffle (2): bytes regrouped by position within the element
//   - Fletcher-32 (3): a trailing 4-byte checksum that is verified and
//     stripped
//
// Other registered filters such as szip, n-bit and scale-offset are known
// by [Name] only. A required stage with no decoder makes [NewPipeline]
// fail. An optional one is skipped, since a chunk may have been stored
// without it.
//
// # Filter Masks
//
// Each chunk index entry carries a 32-bit mask. Bit i set means stage i was
// not applied to that chunk, so [Pipeline.Decode] skips it.
//
//	p, err := filter.NewPipeline(header.FilterPipeline())
//	raw, err := p.Decode(stored, entry.FilterMask)
//
// # Extending
//
// [Registry] maps filter IDs to constructors that receive the stage's
// client data. Adding an entry makes the filter available to every
// pipeline built afterwards.
package filter
