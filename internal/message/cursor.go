package message

import (
	"bytes"
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// cursor walks the body of a header message. Fixed-width fields are
// little-endian; offsets and lengths take their width from the file.
//
// The first read past the end records an error and every later read
// returns zero, so a parser checks err once when it is done.
type cursor struct {
	what  string
	buf   []byte
	pos   int
	osize int
	lsize int
	err   error
}

func newCursor(what string, data []byte, r *binpkg.Reader) *cursor {
	c := &cursor{what: what, buf: data, osize: 8, lsize: 8}
	if r != nil {
		if r.OffsetSize() > 0 {
			c.osize = r.OffsetSize()
		}
		if r.LengthSize() > 0 {
			c.lsize = r.LengthSize()
		}
	}
	return c
}

// result returns v, or the cursor's error if a read ran short.
func result[T any](v T, c *cursor) (T, error) {
	if c.err != nil {
		var zero T
		return zero, c.err
	}
	return v, nil
}

func (c *cursor) fail(format string, args ...any) {
	if c.err == nil {
		c.err = fmt.Errorf("%s: %s", c.what, fmt.Sprintf(format, args...))
	}
}

func (c *cursor) remaining() int {
	if c.pos >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

// next returns the following n bytes without copying them.
func (c *cursor) next(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos+n > len(c.buf) {
		c.fail("truncated at byte %d (need %d, have %d)", c.pos, n, c.remaining())
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

// skip moves past n bytes. Skipping beyond the end is only an error once
// something is read there.
func (c *cursor) skip(n int) { c.pos += n }

// align moves to the next multiple of n from the start of the message.
func (c *cursor) align(n int) {
	if r := c.pos % n; r != 0 {
		c.pos += n - r
	}
}

func (c *cursor) u8() uint8 {
	if b := c.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (c *cursor) u16() uint16 { return uint16(c.uint(2)) }
func (c *cursor) u24() uint32 { return uint32(c.uint(3)) }
func (c *cursor) u32() uint32 { return uint32(c.uint(4)) }
func (c *cursor) u64() uint64 { return c.uint(8) }

// uint reads a little-endian unsigned integer of n bytes.
func (c *cursor) uint(n int) uint64 {
	b := c.next(n)
	if b == nil {
		return 0
	}
	if n == 8 {
		return binary.LittleEndian.Uint64(b)
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func (c *cursor) offset() uint64 { return c.uint(c.osize) }
func (c *cursor) length() uint64 { return c.uint(c.lsize) }

func (c *cursor) lengths(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = c.length()
	}
	return out
}

// bytes returns a copy of the following n bytes.
func (c *cursor) bytes(n int) []byte {
	return bytes.Clone(c.next(n))
}

// rest returns a copy of everything after the cursor.
func (c *cursor) rest() []byte {
	if c.err != nil || c.remaining() == 0 {
		return nil
	}
	return c.bytes(c.remaining())
}

// name reads an n-byte field holding a string padded with NULs.
func (c *cursor) name(n int) string {
	b := c.next(n)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// cstring reads a NUL-terminated string and its terminator.
func (c *cursor) cstring() string {
	if c.err != nil {
		return ""
	}
	i := bytes.IndexByte(c.buf[min(c.pos, len(c.buf)):], 0)
	if i < 0 {
		c.fail("unterminated string at byte %d", c.pos)
		return ""
	}
	s := string(c.buf[c.pos : c.pos+i])
	c.pos += i + 1
	return s
}
