// Package binary reads the fixed and variable-width integer fields of an
// HDF5 file through an io.ReaderAt.
package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Config fixes the byte order and the widths of addresses and lengths.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int
	LengthSize int
}

// DefaultConfig is the configuration used until the superblock says
// otherwise.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}
}

// Reader is a cursor over an io.ReaderAt. Readers are cheap values; At and
// WithSizes return independent copies sharing the source.
type Reader struct {
	ra    io.ReaderAt
	order binary.ByteOrder
	osize int
	lsize int
	pos   int64
}

func NewReader(ra io.ReaderAt, cfg Config) *Reader {
	return &Reader{ra: ra, order: cfg.ByteOrder, osize: cfg.OffsetSize, lsize: cfg.LengthSize}
}

// At returns a reader positioned at off.
func (r *Reader) At(off int64) *Reader {
	c := *r
	c.pos = off
	return &c
}

// WithSizes returns a reader at the same position using new field widths.
func (r *Reader) WithSizes(offsetSize, lengthSize int) *Reader {
	c := *r
	c.osize, c.lsize = offsetSize, lengthSize
	return &c
}

func (r *Reader) Pos() int64                  { return r.pos }
func (r *Reader) Skip(n int64)                { r.pos += n }
func (r *Reader) OffsetSize() int             { return r.osize }
func (r *Reader) LengthSize() int             { return r.lsize }
func (r *Reader) ByteOrder() binary.ByteOrder { return r.order }

// ReadBytes reads exactly n bytes and advances past them.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.ra.ReadAt(buf, r.pos)
	if got < n {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without advancing.
func (r *Reader) Peek(n int) ([]byte, error) {
	return r.At(r.pos).ReadBytes(n)
}

// ReadUintN reads an unsigned integer n bytes wide, 1 <= n <= 8.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	if n < 1 || n > 8 {
		return 0, fmt.Errorf("unsupported integer width %d", n)
	}
	b, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	if r.order == binary.BigEndian {
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		return v, nil
	}
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadUintN(1)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) { return r.ReadUintN(8) }

// ReadOffset reads a file address.
func (r *Reader) ReadOffset() (uint64, error) { return r.ReadUintN(r.osize) }

// ReadLength reads a length field.
func (r *Reader) ReadLength() (uint64, error) { return r.ReadUintN(r.lsize) }

// IsUndefinedOffset reports whether addr is the all-ones address that marks
// unallocated storage.
func (r *Reader) IsUndefinedOffset(addr uint64) bool {
	if r.osize <= 0 || r.osize > 8 {
		return false
	}
	return addr == ^uint64(0)>>(64-8*r.osize)
}
