package heap

import (
	"bytes"
	stdbinary "encoding/binary"
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
)

// Collection is a global heap collection ("GCOL").
type Collection struct {
	Address uint64
	objects map[uint16][]byte
}

// ID names an object in a global heap collection.
type ID struct {
	Collection uint64
	Index      uint32
}

// ParseID decodes a heap ID: the collection address followed by a 4-byte
// object index.
func ParseID(b []byte, offsetSize int) (ID, error) {
	if offsetSize <= 0 || offsetSize > 8 {
		return ID{}, fmt.Errorf("unsupported offset size: %d", offsetSize)
	}
	if len(b) < offsetSize+4 {
		return ID{}, fmt.Errorf("global heap ID of %d bytes, need %d", len(b), offsetSize+4)
	}
	var addr [8]byte
	copy(addr[:], b[:offsetSize])
	return ID{
		Collection: stdbinary.LittleEndian.Uint64(addr[:]),
		Index:      stdbinary.LittleEndian.Uint32(b[offsetSize:]),
	}, nil
}

// ReadCollection reads the collection at addr and indexes its objects.
func ReadCollection(r *binary.Reader, addr uint64) (*Collection, error) {
	if addr == 0 || r.IsUndefinedOffset(addr) {
		return nil, fmt.Errorf("invalid global heap address %#x", addr)
	}
	hr := r.At(int64(addr))
	sig, err := hr.ReadBytes(8) // signature, version, reserved
	if err != nil {
		return nil, fmt.Errorf("reading global heap at %#x: %w", addr, err)
	}
	if string(sig[:4]) != "GCOL" {
		return nil, fmt.Errorf("invalid global heap signature at %#x: %q", addr, sig[:4])
	}
	if sig[4] != 1 {
		return nil, fmt.Errorf("unsupported global heap version: %d", sig[4])
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	head := uint64(8 + r.LengthSize())
	if size < head {
		return nil, fmt.Errorf("global heap at %#x: size %d smaller than its header", addr, size)
	}
	body, err := hr.ReadBytes(int(size - head))
	if err != nil {
		return nil, fmt.Errorf("reading global heap objects: %w", err)
	}

	c := &Collection{Address: addr, objects: make(map[uint16][]byte)}
	c.index(body, r.LengthSize(), r.ByteOrder())
	return c, nil
}

// index records each object in body up to the free-space object (index 0)
// or the first one that does not fit.
func (c *Collection) index(body []byte, lengthSize int, order stdbinary.ByteOrder) {
	head := 8 + lengthSize // index, reference count, reserved, size
	for len(body) >= head {
		idx := order.Uint16(body)
		if idx == 0 {
			return
		}
		var size uint64
		for i := lengthSize - 1; i >= 0; i-- {
			size = size<<8 | uint64(body[8+i])
		}
		body = body[head:]
		if size > uint64(len(body)) {
			return
		}
		c.objects[idx] = body[:size]
		padded := min((size+7)&^7, uint64(len(body)))
		body = body[padded:]
	}
}

// Object returns a copy of the object at index.
func (c *Collection) Object(index uint16) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("nil global heap collection")
	}
	data, ok := c.objects[index]
	if !ok {
		return nil, fmt.Errorf("object %d not found in global heap at %#x", index, c.Address)
	}
	return bytes.Clone(data), nil
}

// String returns the object at index up to its first NUL.
func (c *Collection) String(index uint16) (string, error) {
	data, err := c.Object(index)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}
