package object

import (
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/message"
)

type block struct {
	offset, length uint64
}

// decoder gathers the messages of one header across its blocks.
type decoder struct {
	r       *binary.Reader
	h       *Header
	pending []block
	seen    map[uint64]bool
}

// add records one raw message, queueing continuation blocks instead of
// keeping them.
func (d *decoder) add(typ message.Type, flags uint8, data []byte) {
	switch typ {
	case message.TypeNIL:
		return
	case message.TypeContinuation:
		c, err := message.ParseContinuation(data, d.r)
		if err == nil && c.Length > 0 && !d.r.IsUndefinedOffset(c.Offset) {
			d.pending = append(d.pending, block{c.Offset, c.Length})
		}
		return
	}
	if m, err := message.Parse(typ, data, flags, d.r); err == nil {
		d.h.Messages = append(d.h.Messages, m)
	}
}

// follow reads queued continuation blocks with read until none remain.
func (d *decoder) follow(read func(b []byte) error) error {
	for n := 0; len(d.pending) > 0; n++ {
		if n == maxBlocks {
			return fmt.Errorf("%w at %#x: more than %d continuation blocks", ErrInvalidHeader, d.h.Address, maxBlocks)
		}
		b := d.pending[0]
		d.pending = d.pending[1:]
		if d.seen[b.offset] {
			continue
		}
		d.seen[b.offset] = true
		if b.length > maxBlockSize {
			return fmt.Errorf("%w: continuation block of %d bytes", ErrInvalidHeader, b.length)
		}

		data, err := d.r.At(int64(b.offset)).ReadBytes(int(b.length))
		if err != nil {
			return fmt.Errorf("reading continuation block at %#x: %w", b.offset, err)
		}
		if err := read(data); err != nil {
			return fmt.Errorf("continuation block at %#x: %w", b.offset, err)
		}
	}
	return nil
}

// v1 decodes a version 1 header: version, reserved, message count,
// reference count and block size, padded to 16 bytes.
func (d *decoder) v1(addr uint64) error {
	pre, err := d.r.At(int64(addr)).ReadBytes(16)
	if err != nil {
		return fmt.Errorf("reading object header at %#x: %w", addr, err)
	}
	order := d.r.ByteOrder()
	d.h.Version = 1
	d.h.RefCount = order.Uint32(pre[4:])
	size := uint64(order.Uint32(pre[8:]))

	d.pending = append(d.pending, block{addr + 16, size})
	return d.follow(func(b []byte) error {
		d.v1Messages(b)
		return nil
	})
}

// v1Messages walks 8-byte message headers (type, size, flags, reserved),
// each followed by a body padded to 8 bytes.
func (d *decoder) v1Messages(b []byte) {
	order := d.r.ByteOrder()
	for len(b) >= 8 {
		typ := message.Type(order.Uint16(b))
		size := int(order.Uint16(b[2:]))
		flags := b[4]
		b = b[8:]
		if size > len(b) {
			return
		}
		d.add(typ, flags, b[:size])
		b = b[min((size+7)&^7, len(b)):]
	}
}

const (
	v2SizeWidth     = 0x03
	v2CreationOrder = 0x04
	v2PhaseChange   = 0x10
	v2Times         = 0x20
)

// v2 decodes a version 2 header and checks the checksum of each block.
func (d *decoder) v2(addr uint64) error {
	hr := d.r.At(int64(addr))
	hr.Skip(4)
	version, err := hr.ReadUint8()
	if err != nil {
		return err
	}
	if version != 2 {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	flags, err := hr.ReadUint8()
	if err != nil {
		return err
	}
	d.h.Version = 2
	d.h.Flags = flags
	d.h.RefCount = 1

	if flags&v2Times != 0 {
		times, err := hr.ReadBytes(16)
		if err != nil {
			return err
		}
		order := d.r.ByteOrder()
		d.h.AccessTime = order.Uint32(times)
		d.h.ModTime = order.Uint32(times[4:])
		d.h.ChangeTime = order.Uint32(times[8:])
		d.h.BirthTime = order.Uint32(times[12:])
	}
	if flags&v2PhaseChange != 0 {
		hr.Skip(4) // max compact, min dense
	}
	size, err := hr.ReadUintN(1 << (flags & v2SizeWidth))
	if err != nil {
		return err
	}

	prefix := hr.Pos() - int64(addr)
	chunk, err := d.r.At(int64(addr)).ReadBytes(int(prefix) + int(size) + 4)
	if err != nil {
		return fmt.Errorf("reading object header at %#x: %w", addr, err)
	}
	if err := d.checksum(chunk); err != nil {
		return fmt.Errorf("object header at %#x: %w", addr, err)
	}

	ordered := flags&v2CreationOrder != 0
	d.v2Messages(chunk[prefix:len(chunk)-4], ordered)
	return d.follow(func(b []byte) error {
		if len(b) < 8 || string(b[:4]) != "OCHK" {
			return fmt.Errorf("%w: missing OCHK signature", ErrInvalidHeader)
		}
		if err := d.checksum(b); err != nil {
			return err
		}
		d.v2Messages(b[4:len(b)-4], ordered)
		return nil
	})
}

// checksum verifies the trailing lookup3 checksum of a block.
func (d *decoder) checksum(b []byte) error {
	n := len(b) - 4
	if !binary.VerifyLookup3(b[:n], d.r.ByteOrder().Uint32(b[n:])) {
		return ErrChecksumMismatch
	}
	return nil
}

// v2Messages walks messages with a 4-byte header (type, size, flags) and
// an optional creation order. Trailing bytes too short for a header are
// a gap.
func (d *decoder) v2Messages(b []byte, ordered bool) {
	order := d.r.ByteOrder()
	head := 4
	if ordered {
		head += 2
	}
	for len(b) >= head {
		typ := message.Type(b[0])
		size := int(order.Uint16(b[1:]))
		flags := b[3]
		b = b[head:]
		if size > len(b) {
			return
		}
		d.add(typ, flags, b[:size])
		b = b[size:]
	}
}
