package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// Limits on the continuation blocks followed for one header.
const (
	maxBlocks    = 1024
	maxBlockSize = 1 << 24
)

// Header is a decoded object header.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8 // version 2 only
	RefCount uint32

	// Messages in block order. Nil and continuation messages are dropped,
	// as are messages that fail to decode.
	Messages []message.Message

	// Seconds since the epoch, set when a version 2 header stores times.
	AccessTime uint32
	ModTime    uint32
	ChangeTime uint32
	BirthTime  uint32
}

// Read decodes the object header at address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	sig, err := r.At(int64(address)).Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %#x: %w", address, err)
	}
	d := &decoder{r: r, h: &Header{Address: address}, seen: make(map[uint64]bool)}
	switch {
	case string(sig) == "OHDR":
		err = d.v2(address)
	case sig[0] == 1:
		err = d.v1(address)
	default:
		return nil, fmt.Errorf("%w at %#x: leading bytes %x", ErrInvalidHeader, address, sig)
	}
	if err != nil {
		return nil, err
	}
	return d.h, nil
}

// First returns the first message of type typ, or nil.
func (h *Header) First(typ message.Type) message.Message {
	for _, m := range h.Messages {
		if m.Type() == typ {
			return m
		}
	}
	return nil
}

// All returns every message of type typ.
func (h *Header) All(typ message.Type) []message.Message {
	var out []message.Message
	for _, m := range h.Messages {
		if m.Type() == typ {
			out = append(out, m)
		}
	}
	return out
}

// Find returns the first message of concrete type T.
func Find[T message.Message](h *Header) (T, bool) {
	for _, m := range h.Messages {
		if t, ok := m.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func (h *Header) Dataspace() *message.Dataspace {
	m, _ := Find[*message.Dataspace](h)
	return m
}

func (h *Header) Datatype() *message.Datatype {
	m, _ := Find[*message.Datatype](h)
	return m
}

func (h *Header) DataLayout() *message.DataLayout {
	m, _ := Find[*message.DataLayout](h)
	return m
}

func (h *Header) FilterPipeline() *message.FilterPipeline {
	m, _ := Find[*message.FilterPipeline](h)
	return m
}

func (h *Header) FillValue() *message.FillValue {
	m, _ := Find[*message.FillValue](h)
	return m
}
