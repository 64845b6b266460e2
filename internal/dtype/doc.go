// Package dtype decodes raw HDF5 element bytes into display buffers.
//
// Numeric classes (fixed-point, floating-point, enum and bitfield) decode
// into a numeric buffer.Flat that the renderers can index. Every other class
// decodes into a text buffer with one display string per element:
//
//	HDF5 class        | Buffer
//	------------------|--------------------------------------------
//	Fixed-point       | integers, any size from 1 to 8 bytes
//	Floating-point    | numbers, 2, 4 or 8 bytes
//	Enum, Bitfield    | integers of the underlying size
//	String (fixed)    | text, padding stripped
//	String (varlen)   | text, resolved through the global heap
//	Compound          | text, "{name: value, ...}"
//	Array             | text, "[v0, v1, ...]"
//	Opaque, Reference | text, hexadecimal bytes
//
// Label returns the numpy-style type string shown next to a dataset, such as
// "<f4", ">i2", "|u1", "|S16" or "|O".
package dtype
