package dtype

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/robert-malhotra/h5view/internal/message"
)

// ByteOrder returns the binary.ByteOrder for the datatype.
func ByteOrder(dt *message.Datatype) binary.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// IsNumeric reports whether the datatype decodes into a numeric buffer.
func IsNumeric(dt *message.Datatype) bool {
	if dt == nil {
		return false
	}
	switch dt.Class {
	case message.ClassFixedPoint, message.ClassFloatPoint, message.ClassEnum, message.ClassBitfield:
		return true
	}
	return false
}

// IsInteger reports whether the datatype decodes into whole numbers.
func IsInteger(dt *message.Datatype) bool {
	return IsNumeric(dt) && dt.Class != message.ClassFloatPoint
}

// Label returns a numpy-style type string for dt.
func Label(dt *message.Datatype) string {
	if dt == nil {
		return "unknown"
	}
	size := strconv.Itoa(int(dt.Size))

	switch dt.Class {
	case message.ClassFixedPoint:
		kind := "u"
		if dt.Signed {
			kind = "i"
		}
		return orderPrefix(dt) + kind + size
	case message.ClassFloatPoint:
		return orderPrefix(dt) + "f" + size
	case message.ClassEnum:
		if base := enumBase(dt); base != nil {
			return Label(base)
		}
		return "|u" + size
	case message.ClassBitfield:
		return orderPrefix(bitfieldType(dt)) + "u" + size
	case message.ClassString:
		return "|S" + size
	case message.ClassVarLen, message.ClassReference:
		return "|O"
	case message.ClassArray:
		if dt.BaseType == nil {
			return "|V" + size
		}
		return arrayDimsLabel(dt.ArrayDims) + Label(dt.BaseType)
	}
	return "|V" + size
}

func orderPrefix(dt *message.Datatype) string {
	switch {
	case dt.Size == 1:
		return "|"
	case dt.ByteOrder == message.OrderBE:
		return ">"
	}
	return "<"
}

func arrayDimsLabel(dims []uint32) string {
	s := "("
	for i, d := range dims {
		if i > 0 {
			s += ","
		}
		s += strconv.Itoa(int(d))
	}
	if len(dims) == 1 {
		s += ","
	}
	return s + ")"
}

// enumBase reconstructs the integer base type stored at the start of an enum
// datatype's properties.
func enumBase(dt *message.Datatype) *message.Datatype {
	p := dt.Properties
	if len(p) < 8 || message.DatatypeClass(p[0]&0x0F) != message.ClassFixedPoint {
		return nil
	}
	bits := uint32(p[1]) | uint32(p[2])<<8 | uint32(p[3])<<16
	return &message.Datatype{
		Class:     message.ClassFixedPoint,
		ClassBits: bits,
		Size:      binary.LittleEndian.Uint32(p[4:8]),
		ByteOrder: message.ByteOrder(bits & 0x01),
		Signed:    bits&0x08 != 0,
	}
}

// bitfieldType reads the byte order of a bitfield, which the header parser
// leaves in ClassBits.
func bitfieldType(dt *message.Datatype) *message.Datatype {
	return &message.Datatype{
		Class:     message.ClassFixedPoint,
		Size:      dt.Size,
		ByteOrder: message.ByteOrder(dt.ClassBits & 0x01),
	}
}

// integerType returns the fixed-point type an integer-like class decodes as.
func integerType(dt *message.Datatype) (*message.Datatype, error) {
	switch dt.Class {
	case message.ClassFixedPoint:
		return dt, nil
	case message.ClassBitfield:
		return bitfieldType(dt), nil
	case message.ClassEnum:
		base := enumBase(dt)
		if base == nil {
			base = &message.Datatype{Class: message.ClassFixedPoint, Size: dt.Size}
		}
		return base, nil
	}
	return nil, fmt.Errorf("%w: class %d is not an integer", ErrUnsupported, dt.Class)
}
