package h5test

import "math"

// Type is an encoded datatype message.
type Type struct {
	msg       []byte
	size      int
	varString bool
}

// Size returns the stored size of one element in bytes.
func (t Type) Size() int { return t.size }

// Int returns a little-endian fixed-point type of size bytes.
func Int(size int, signed bool) Type {
	var bits byte
	if signed {
		bits = 0x08
	}
	m := []byte{0x10, bits, 0, 0}
	m = le.AppendUint32(m, uint32(size))
	m = le.AppendUint16(m, 0)
	m = le.AppendUint16(m, uint16(size*8))
	return Type{msg: m, size: size}
}

// Float returns a little-endian IEEE 754 type of 2, 4 or 8 bytes.
func Float(size int) Type {
	var expSize, mantSize byte
	var bias uint32
	switch size {
	case 2:
		expSize, mantSize, bias = 5, 10, 15
	case 4:
		expSize, mantSize, bias = 8, 23, 127
	case 8:
		expSize, mantSize, bias = 11, 52, 1023
	default:
		panic("h5test: float size must be 2, 4 or 8")
	}
	m := []byte{0x11, 0x20, byte(size*8 - 1), 0}
	m = le.AppendUint32(m, uint32(size))
	m = le.AppendUint16(m, 0)
	m = le.AppendUint16(m, uint16(size*8))
	m = append(m, mantSize, expSize, 0, mantSize)
	m = le.AppendUint32(m, bias)
	return Type{msg: m, size: size}
}

// String returns a null-terminated fixed-length string type.
func String(n int) Type {
	m := []byte{0x13, 0, 0, 0}
	return Type{msg: le.AppendUint32(m, uint32(n)), size: n}
}

// VarString returns a variable-length string type.
func VarString() Type {
	m := []byte{0x19, 0x01, 0, 0}
	m = le.AppendUint32(m, 16)
	base := Int(1, false)
	return Type{msg: append(m, base.msg...), size: 16, varString: true}
}

// Uint8s returns raw bytes for 1-byte unsigned elements.
func Uint8s(v ...uint8) []byte {
	return append([]byte(nil), v...)
}

// Int16s encodes v as 2-byte signed elements.
func Int16s(v ...int16) []byte {
	out := make([]byte, 0, 2*len(v))
	for _, x := range v {
		out = le.AppendUint16(out, uint16(x))
	}
	return out
}

// Int32s encodes v as 4-byte signed elements.
func Int32s(v ...int32) []byte {
	out := make([]byte, 0, 4*len(v))
	for _, x := range v {
		out = le.AppendUint32(out, uint32(x))
	}
	return out
}

// Int64s encodes v as 8-byte signed elements.
func Int64s(v ...int64) []byte {
	out := make([]byte, 0, 8*len(v))
	for _, x := range v {
		out = le.AppendUint64(out, uint64(x))
	}
	return out
}

// Float32s encodes v as 4-byte floats.
func Float32s(v ...float32) []byte {
	out := make([]byte, 0, 4*len(v))
	for _, x := range v {
		out = le.AppendUint32(out, math.Float32bits(x))
	}
	return out
}

// Float64s encodes v as 8-byte floats.
func Float64s(v ...float64) []byte {
	out := make([]byte, 0, 8*len(v))
	for _, x := range v {
		out = le.AppendUint64(out, math.Float64bits(x))
	}
	return out
}

// Strings encodes v as null-padded strings of n bytes each.
func Strings(n int, v ...string) []byte {
	out := make([]byte, n*len(v))
	for i, s := range v {
		copy(out[i*n:(i+1)*n], s)
	}
	return out
}

// Ramp returns n consecutive bytes starting at 0, wrapping at 256.
func Ramp(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}
