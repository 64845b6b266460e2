package message

import (
	"github.com/robert-malhotra/h5view/internal/binary"
)

// Type identifies a header message. Only the types the reader looks at are
// named; the rest parse as [Unknown].
type Type uint16

const (
	TypeNIL            Type = 0x00
	TypeDataspace      Type = 0x01
	TypeLinkInfo       Type = 0x02
	TypeDatatype       Type = 0x03
	TypeFillValue      Type = 0x05
	TypeLink           Type = 0x06
	TypeDataLayout     Type = 0x08
	TypeFilterPipeline Type = 0x0B
	TypeAttribute      Type = 0x0C
	TypeContinuation   Type = 0x10
	TypeSymbolTable    Type = 0x11
)

// Message is a decoded header message.
type Message interface {
	Type() Type
}

type decoder func([]byte, *binary.Reader) (Message, error)

// as adapts a decoder of a concrete message type. A failed decode yields a
// nil interface rather than a typed nil.
func as[T Message](fn func([]byte, *binary.Reader) (T, error)) decoder {
	return func(b []byte, r *binary.Reader) (Message, error) {
		m, err := fn(b, r)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

var decoders = map[Type]decoder{
	TypeDataspace:      as(parseDataspace),
	TypeDatatype:       as(parseDatatype),
	TypeFillValue:      as(parseFillValue),
	TypeLink:           as(parseLink),
	TypeDataLayout:     as(parseDataLayout),
	TypeFilterPipeline: as(parseFilterPipeline),
	TypeAttribute:      as(parseAttribute),
	TypeContinuation:   as(ParseContinuation),
	TypeSymbolTable:    as(parseSymbolTable),
}

// Parse decodes the body of a header message. Types without a decoder
// come back as *Unknown.
func Parse(typ Type, data []byte, flags uint8, r *binary.Reader) (Message, error) {
	if decode, ok := decoders[typ]; ok {
		return decode(data, r)
	}
	return &Unknown{typ: typ, data: data}, nil
}

// Unknown holds the raw body of a message type without a decoder.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation points at the next block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeContinuation }

// ParseContinuation decodes a continuation message.
func ParseContinuation(data []byte, r *binary.Reader) (*Continuation, error) {
	c := newCursor("continuation message", data, r)
	return result(&Continuation{Offset: c.offset(), Length: c.length()}, c)
}

// SymbolTable locates the v1 B-tree and local heap of an old-style group.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, r *binary.Reader) (*SymbolTable, error) {
	c := newCursor("symbol table message", data, r)
	return result(&SymbolTable{BTreeAddress: c.offset(), LocalHeapAddress: c.offset()}, c)
}
