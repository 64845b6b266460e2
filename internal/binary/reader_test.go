package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newReader(data []byte, osize, lsize int) *Reader {
	cfg := DefaultConfig()
	cfg.OffsetSize, cfg.LengthSize = osize, lsize
	return NewReader(bytes.NewReader(data), cfg)
}

func TestReadIntegers(t *testing.T) {
	data := []byte{
		0x42,
		0x02, 0x01,
		0x04, 0x03, 0x02, 0x01,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x03, 0x02, 0x01,
	}
	r := newReader(data, 8, 8)

	var got []uint64
	u8, err := r.ReadUint8()
	got = append(got, uint64(u8))
	u16, err2 := r.ReadUint16()
	got = append(got, uint64(u16))
	u32, err3 := r.ReadUint32()
	got = append(got, uint64(u32))
	u64, err4 := r.ReadUint64()
	got = append(got, u64)
	u24, err5 := r.ReadUintN(3)
	got = append(got, u24)
	if err := errors.Join(err, err2, err3, err4, err5); err != nil {
		t.Fatalf("reading integers: %v", err)
	}

	want := []uint64{0x42, 0x0102, 0x01020304, 0x0102030405060708, 0x010203}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("integers mismatch (-want +got):\n%s", diff)
	}
	if r.Pos() != int64(len(data)) {
		t.Errorf("Pos() = %d, want %d", r.Pos(), len(data))
	}
}

func TestReadBigEndian(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03}), Config{ByteOrder: binary.BigEndian, OffsetSize: 2, LengthSize: 2})
	v, err := r.ReadUintN(3)
	if err != nil || v != 0x010203 {
		t.Errorf("ReadUintN(3) = %#x, %v, want 0x10203", v, err)
	}
}

func TestReadOffsetAndLength(t *testing.T) {
	tests := []struct {
		osize, lsize int
		data         []byte
		off, length  uint64
	}{
		{2, 4, []byte{0x34, 0x12, 0x78, 0x56, 0x34, 0x12}, 0x1234, 0x12345678},
		{4, 2, []byte{0x78, 0x56, 0x34, 0x12, 0xCD, 0xAB}, 0x12345678, 0xABCD},
		{8, 8, binary.LittleEndian.AppendUint64(binary.LittleEndian.AppendUint64(nil, 1<<40), 7), 1 << 40, 7},
	}
	for _, tt := range tests {
		r := newReader(tt.data, tt.osize, tt.lsize)
		off, err := r.ReadOffset()
		if err != nil {
			t.Fatalf("ReadOffset: %v", err)
		}
		length, err := r.ReadLength()
		if err != nil {
			t.Fatalf("ReadLength: %v", err)
		}
		if off != tt.off || length != tt.length {
			t.Errorf("sizes %d/%d: got %#x, %#x, want %#x, %#x", tt.osize, tt.lsize, off, length, tt.off, tt.length)
		}
	}
}

func TestReadShort(t *testing.T) {
	r := newReader([]byte{1, 2, 3}, 8, 8)
	if _, err := r.ReadUint32(); err == nil {
		t.Error("ReadUint32 of 3 bytes succeeded")
	}
	if r.Pos() != 0 {
		t.Errorf("failed read moved Pos() to %d", r.Pos())
	}
	if _, err := r.At(10).ReadBytes(1); !errors.Is(err, io.EOF) {
		t.Errorf("read past end: error = %v, want EOF", err)
	}
	if _, err := r.ReadUintN(9); err == nil {
		t.Error("ReadUintN(9) succeeded")
	}
	if b, err := r.ReadBytes(0); b != nil || err != nil {
		t.Errorf("ReadBytes(0) = %v, %v", b, err)
	}
}

func TestReaderCopies(t *testing.T) {
	r := newReader([]byte{0, 1, 2, 3, 4, 5, 6, 7}, 8, 8)
	r.Skip(2)

	at := r.At(5)
	if b, _ := at.ReadBytes(2); !bytes.Equal(b, []byte{5, 6}) {
		t.Errorf("At(5).ReadBytes(2) = %v", b)
	}
	if r.Pos() != 2 {
		t.Errorf("At moved the parent to %d", r.Pos())
	}

	peek, err := r.Peek(2)
	if err != nil || !bytes.Equal(peek, []byte{2, 3}) || r.Pos() != 2 {
		t.Errorf("Peek(2) = %v, %v at %d", peek, err, r.Pos())
	}

	w := r.WithSizes(4, 2)
	if w.Pos() != 2 || w.OffsetSize() != 4 || w.LengthSize() != 2 {
		t.Errorf("WithSizes: pos %d, sizes %d/%d", w.Pos(), w.OffsetSize(), w.LengthSize())
	}
	if r.OffsetSize() != 8 {
		t.Errorf("WithSizes changed the parent offset size to %d", r.OffsetSize())
	}
}

func TestIsUndefinedOffset(t *testing.T) {
	tests := []struct {
		osize int
		addr  uint64
		want  bool
	}{
		{2, 0xFFFF, true},
		{2, 0xFFFE, false},
		{4, 0xFFFFFFFF, true},
		{4, 0xFFFF, false},
		{8, ^uint64(0), true},
		{8, 0xFFFFFFFF, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		r := newReader(nil, tt.osize, 8)
		if got := r.IsUndefinedOffset(tt.addr); got != tt.want {
			t.Errorf("IsUndefinedOffset(%#x) with %d-byte offsets = %v, want %v", tt.addr, tt.osize, got, tt.want)
		}
	}
}
