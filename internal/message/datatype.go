package message

import (
	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// DatatypeClass is the HDF5 type class.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

// ByteOrder of numeric types.
type ByteOrder uint8

const (
	OrderLE   ByteOrder = 0
	OrderBE   ByteOrder = 1
	OrderVAX  ByteOrder = 2
	OrderNone ByteOrder = 3
)

// StringPadding of fixed-length strings.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// CharacterSet of string types.
type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype is the datatype message (0x0003). Fields beyond Class and Size
// are filled in only for the classes they apply to.
type Datatype struct {
	Class     DatatypeClass
	ClassBits uint32 // the 24 class-specific flag bits
	Size      uint32

	ByteOrder ByteOrder

	BitOffset    uint16
	BitPrecision uint16
	Signed       bool

	StringPadding StringPadding
	CharSet       CharacterSet

	Members []CompoundMember

	ArrayDims []uint32
	BaseType  *Datatype

	VarLenType     *Datatype
	IsVarLenString bool

	// Properties is the raw class-specific section. Enum types keep their
	// base type here.
	Properties []byte
}

// CompoundMember is one field of a compound type.
type CompoundMember struct {
	Name       string
	ByteOffset uint32
	Type       *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

func (m *Datatype) IsInteger() bool  { return m.Class == ClassFixedPoint }
func (m *Datatype) IsFloat() bool    { return m.Class == ClassFloatPoint }
func (m *Datatype) IsCompound() bool { return m.Class == ClassCompound }
func (m *Datatype) IsArray() bool    { return m.Class == ClassArray }
func (m *Datatype) IsVarLen() bool   { return m.Class == ClassVarLen }

// IsString reports fixed-length and variable-length strings alike.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.IsVarLenString)
}

func parseDatatype(data []byte, r *binpkg.Reader) (*Datatype, error) {
	c := newCursor("datatype message", data, r)
	return result(c.datatype(), c)
}

// datatype decodes one type description, nested types included, and leaves
// the cursor just past it.
func (c *cursor) datatype() *Datatype {
	head := c.u8()
	bits := c.u24()
	dt := &Datatype{Class: DatatypeClass(head & 0x0F), ClassBits: bits, Size: c.u32()}
	version := head >> 4
	if c.err != nil {
		return dt
	}

	start := c.pos
	switch dt.Class {
	case ClassFixedPoint:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.Signed = bits&0x08 != 0
		dt.BitOffset, dt.BitPrecision = c.u16(), c.u16()

	case ClassBitfield:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.BitOffset, dt.BitPrecision = c.u16(), c.u16()

	case ClassFloatPoint:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.BitOffset, dt.BitPrecision = c.u16(), c.u16()
		// exponent and mantissa positions, exponent bias
		c.skip(8)

	case ClassTime:
		dt.BitPrecision = c.u16()

	case ClassString:
		dt.StringPadding = StringPadding(bits & 0x0F)
		dt.CharSet = CharacterSet(bits >> 4 & 0x0F)

	case ClassOpaque:
		// tag, NUL-padded to the length in the low class bits
		c.skip(int(bits & 0xFF))

	case ClassCompound:
		n := int(bits & 0xFFFF)
		dt.Members = make([]CompoundMember, 0, n)
		for i := 0; i < n && c.err == nil; i++ {
			dt.Members = append(dt.Members, c.member(version, dt.Size))
		}

	case ClassEnum:
		base := c.datatype()
		n := int(bits & 0xFFFF)
		for i := 0; i < n && c.err == nil; i++ {
			c.padded(version)
		}
		c.skip(n * int(base.Size))

	case ClassVarLen:
		dt.IsVarLenString = bits&0x0F == 1
		dt.VarLenType = c.datatype()

	case ClassArray:
		ndims := int(c.u8())
		if version < 3 {
			c.skip(3)
		}
		dt.ArrayDims = make([]uint32, ndims)
		for i := range dt.ArrayDims {
			dt.ArrayDims[i] = c.u32()
		}
		if version < 3 {
			// permutation indices
			c.skip(4 * ndims)
		}
		dt.BaseType = c.datatype()
	}

	end := min(c.pos, len(c.buf))
	dt.Properties = c.buf[start:end]
	return dt
}

// padded reads a NUL-terminated name that versions 1 and 2 pad to a
// multiple of eight bytes.
func (c *cursor) padded(version uint8) string {
	from := c.pos
	s := c.cstring()
	if version < 3 {
		if n := c.pos - from; n%8 != 0 {
			c.skip(8 - n%8)
		}
	}
	return s
}

// member decodes one compound member.
func (c *cursor) member(version uint8, size uint32) CompoundMember {
	m := CompoundMember{Name: c.padded(version)}
	switch {
	case version >= 3:
		m.ByteOffset = uint32(c.uint(widthFor(uint64(size))))
	case version == 2:
		m.ByteOffset = c.u32()
	default:
		m.ByteOffset = c.u32()
		// dimensionality, reserved, permutation, reserved, four dimension sizes
		c.skip(1 + 3 + 4 + 4 + 16)
	}
	m.Type = c.datatype()
	return m
}

// widthFor returns the bytes needed to hold offsets below n.
func widthFor(n uint64) int {
	switch {
	case n < 1<<8:
		return 1
	case n < 1<<16:
		return 2
	case n < 1<<32:
		return 4
	}
	return 8
}
