package binary

import (
	"encoding/binary"
	"math/bits"
)

// Lookup3Checksum returns Bob Jenkins' lookup3 hashlittle of data with a
// zero seed, the checksum stored after HDF5 metadata blocks.
func Lookup3Checksum(data []byte) uint32 {
	le := binary.LittleEndian
	a := 0xdeadbeef + uint32(len(data))
	b, c := a, a

	for len(data) > 12 {
		a += le.Uint32(data)
		b += le.Uint32(data[4:])
		c += le.Uint32(data[8:])
		a, b, c = mix(a, b, c)
		data = data[12:]
	}
	if len(data) == 0 {
		return c
	}

	// the last 1 to 12 bytes, zero-padded
	var tail [12]byte
	copy(tail[:], data)
	a += le.Uint32(tail[:])
	b += le.Uint32(tail[4:])
	c += le.Uint32(tail[8:])
	return final(a, b, c)
}

// VerifyLookup3 reports whether sum is the lookup3 checksum of data.
func VerifyLookup3(data []byte, sum uint32) bool {
	return Lookup3Checksum(data) == sum
}

func mix(a, b, c uint32) (uint32, uint32, uint32) {
	a -= c
	a ^= bits.RotateLeft32(c, 4)
	c += b
	b -= a
	b ^= bits.RotateLeft32(a, 6)
	a += c
	c -= b
	c ^= bits.RotateLeft32(b, 8)
	b += a
	a -= c
	a ^= bits.RotateLeft32(c, 16)
	c += b
	b -= a
	b ^= bits.RotateLeft32(a, 19)
	a += c
	c -= b
	c ^= bits.RotateLeft32(b, 4)
	b += a
	return a, b, c
}

func final(a, b, c uint32) uint32 {
	c ^= b
	c -= bits.RotateLeft32(b, 14)
	a ^= c
	a -= bits.RotateLeft32(c, 11)
	b ^= a
	b -= bits.RotateLeft32(a, 25)
	c ^= b
	c -= bits.RotateLeft32(b, 16)
	a ^= c
	a -= bits.RotateLeft32(c, 4)
	b ^= a
	b -= bits.RotateLeft32(a, 14)
	c ^= b
	c -= bits.RotateLeft32(b, 24)
	return c
}
