// Package shape interprets dataset shape descriptors.
//
// A shape is an ordered list of axis lengths with the last axis varying
// fastest (row-major). Every renderer in this module computes offsets into a
// flat sample buffer from a shape alone, so the rules that decide how a shape
// is displayed live here and nowhere else.
//
// # Classification
//
// [Classify] maps a shape to a [Classification]: the tabular interpretation
// that is always available, plus at most one raster interpretation (image or
// depth). The rules are evaluated on the original rank:
//
//	rank  last axis      raster interpretation
//	----  -------------  ----------------------------------------
//	0     -              none (Scalar)
//	1     -              none (Sequence1D)
//	2     any            DepthSingle
//	3     1, 3 or 4      ImageSingle (gray, rgb, rgba)
//	3     other          DepthBatch (axis 0 = frames)
//	4     1, 3 or 4      ImageBatch (axis 0 = frames)
//	4     other          none (MatrixSliceND)
//	5+    -              none (MatrixSliceND)
//
// Image eligibility wins over depth eligibility, so a shape never carries
// both.
//
// # Effective shape
//
// A trailing axis of exactly 1 is a channel axis that carries no
// information. [Shape.Effective] drops it; image geometry is derived from the
// effective shape while eligibility is derived from the original one. Both
// steps are exposed separately so each can be tested on its own.
package shape
