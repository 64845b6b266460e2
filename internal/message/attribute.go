package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// Attribute is the attribute message (0x000C): a small named value
// attached to an object.
type Attribute struct {
	Version       uint8
	Name          string
	DatatypeSize  uint16
	DataspaceSize uint16
	Datatype      *Datatype  // nil if the type could not be decoded
	Dataspace     *Dataspace // nil if the extent could not be decoded
	Data          []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

func parseAttribute(data []byte, r *binpkg.Reader) (*Attribute, error) {
	c := newCursor("attribute message", data, r)
	a := &Attribute{Version: c.u8()}
	if a.Version < 1 || a.Version > 3 {
		if c.err == nil {
			return nil, fmt.Errorf("unsupported attribute version: %d", a.Version)
		}
		return nil, c.err
	}
	c.skip(1) // flags
	nameLen := int(c.u16())
	a.DatatypeSize = c.u16()
	a.DataspaceSize = c.u16()
	if a.Version == 3 {
		c.skip(1) // name encoding
	}

	// Version 1 pads each field to eight bytes.
	field := func(n int) []byte {
		b := c.next(n)
		if a.Version == 1 {
			c.align(8)
		}
		return b
	}
	a.Name = nameOf(field(nameLen))
	dt := field(int(a.DatatypeSize))
	ds := field(int(a.DataspaceSize))
	if c.err != nil {
		return nil, c.err
	}

	a.Datatype, _ = parseDatatype(dt, r)
	a.Dataspace, _ = parseDataspace(ds, r)
	a.Data = c.rest()
	return a, nil
}

// nameOf trims a NUL-terminated name.
func nameOf(b []byte) string {
	for i, ch := range b {
		if ch == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
