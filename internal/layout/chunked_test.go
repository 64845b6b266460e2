package layout

import (
	"bytes"
	stdbinary "encoding/binary"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/message"
)

const undefined = ^uint64(0)

// image is a little-endian file image with 8-byte offsets and lengths.
type image struct{ buf []byte }

func (im *image) at(off int) *image {
	if len(im.buf) < off {
		im.buf = append(im.buf, make([]byte, off-len(im.buf))...)
	}
	return im
}

func (im *image) raw(b ...byte) *image { im.buf = append(im.buf, b...); return im }
func (im *image) str(s string) *image  { return im.raw([]byte(s)...) }
func (im *image) u32(v uint32) *image  { return im.raw(stdbinary.LittleEndian.AppendUint32(nil, v)...) }
func (im *image) u64(v uint64) *image  { return im.raw(stdbinary.LittleEndian.AppendUint64(nil, v)...) }

func (im *image) reader() *binary.Reader {
	return binary.NewReader(bytes.NewReader(im.buf), binary.DefaultConfig())
}

// tiled writes the 3x5 dataset 0..14 as 2x2 chunks from chunkBase on, in
// chunk order, 4 bytes apart. Overhanging cells hold 0xEE.
func tiled(im *image, chunkBase int) {
	im.at(chunkBase)
	for r0 := 0; r0 < 3; r0 += 2 {
		for c0 := 0; c0 < 5; c0 += 2 {
			for r := r0; r < r0+2; r++ {
				for c := c0; c < c0+2; c++ {
					if r < 3 && c < 5 {
						im.raw(byte(r*5 + c))
					} else {
						im.raw(0xEE)
					}
				}
			}
		}
	}
}

func chunked(t *testing.T, r *binary.Reader, indexAddr uint64, chunk ...uint32) *Chunked {
	t.Helper()
	c, err := NewChunked(&message.DataLayout{
		Class:          message.LayoutChunked,
		ChunkDims:      append(chunk, 1),
		ChunkIndexAddr: indexAddr,
	}, simple(3, 5), u8(), nil, r)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func fixedArrayFile() *image {
	im := &image{}
	im.at(16).str("FAHD").raw(0, 0, 8, 0).u64(6).u64(64)
	im.at(64).str("FADB").raw(0, 0).u64(0)
	for i := 0; i < 6; i++ {
		if i == 5 {
			im.u64(undefined)
			continue
		}
		im.u64(uint64(200 + 4*i))
	}
	tiled(im, 200)
	return im
}

func TestChunkedFixedArray(t *testing.T) {
	im := fixedArrayFile()
	c := chunked(t, im.reader(), 16, 2, 2)

	if got := c.indexKind(); got != indexFixedArray {
		t.Fatalf("index kind: got %s, want fixed array", got)
	}

	got, err := c.Read()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read mismatch (-want +got):\n%s", diff)
	}

	slice, err := c.ReadSlice([]uint64{1, 1}, []uint64{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{6, 7, 8, 11, 12, 13}, slice); diff != "" {
		t.Errorf("ReadSlice mismatch (-want +got):\n%s", diff)
	}
}

func TestChunkedExtensibleArray(t *testing.T) {
	build := func(inBlock byte) *image {
		im := &image{}
		im.at(16).str("EAHD").raw(0, 0, 8, 32, inBlock, 0, 0, 0)
		for i := 0; i < 5; i++ {
			im.u64(0)
		}
		im.u64(6).u64(128)
		im.at(128).str("EAIB").raw(0, 0).u64(0)
		for i := 0; i < 6; i++ {
			im.u64(uint64(300 + 4*i))
		}
		tiled(im, 300)
		return im
	}

	im := build(8)
	c := chunked(t, im.reader(), 16, 2, 2)
	got, err := c.Read()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read mismatch (-want +got):\n%s", diff)
	}

	small := build(4)
	_, err = chunked(t, small.reader(), 16, 2, 2).Read()
	if err == nil || !strings.Contains(err.Error(), "data blocks are not supported") {
		t.Errorf("expected data block error, got %v", err)
	}
}

func TestChunkedSingle(t *testing.T) {
	im := &image{}
	im.at(100)
	for i := 0; i < 15; i++ {
		im.raw(byte(i + 1))
	}
	c := chunked(t, im.reader(), 100, 3, 5)

	if got := c.indexKind(); got != indexSingle {
		t.Fatalf("index kind: got %s, want single", got)
	}
	got, err := c.ReadSlice([]uint64{1, 1}, []uint64{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{7, 8, 9, 12, 13, 14}, got); diff != "" {
		t.Errorf("ReadSlice mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.ReadSlice([]uint64{2, 0}, []uint64{2, 5}); err == nil {
		t.Error("expected out of bounds error")
	}
}

func TestChunkedImplicit(t *testing.T) {
	im := &image{}
	tiled(im, 200)
	c := chunked(t, im.reader(), 200, 2, 2)
	c.layout.ChunkIndexType = message.ChunkIndexImplicit

	if got := c.indexKind(); got != indexImplicit {
		t.Fatalf("index kind: got %s, want implicit", got)
	}
	got, err := c.ReadSlice([]uint64{0, 3}, []uint64{3, 2})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{3, 4, 8, 9, 13, 14}, got); diff != "" {
		t.Errorf("ReadSlice mismatch (-want +got):\n%s", diff)
	}
}

func TestChunkedMissingDims(t *testing.T) {
	c, err := NewChunked(&message.DataLayout{Class: message.LayoutChunked}, simple(3, 5), u8(), nil, (&image{}).reader())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Read(); err == nil {
		t.Error("expected error for missing chunk dimensions")
	}
}

func TestArrayEntriesFiltered(t *testing.T) {
	im := &image{}
	// address, 2-byte stored size, filter mask
	im.u64(500).raw(7, 0).u32(0)
	im.u64(undefined).raw(0, 0).u32(0)
	im.u64(600).raw(9, 1).u32(2)

	g := grid{dims: []uint64{3, 5}, chunk: []uint64{2, 2}}
	c := &Chunked{reader: im.reader()}
	got, err := c.arrayEntries(im.reader(), g, 3, 14)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Address != 500 || got[0].Size != 7 || got[0].FilterMask != 0 {
		t.Errorf("entry 0: got %+v", got[0])
	}
	if got[1].Address != 600 || got[1].Size != 0x109 || got[1].FilterMask != 2 {
		t.Errorf("entry 1: got %+v", got[1])
	}
	if diff := cmp.Diff([]uint64{0, 4}, got[1].Offset); diff != "" {
		t.Errorf("entry 1 offset (-want +got):\n%s", diff)
	}
}

func TestGridOffset(t *testing.T) {
	g := grid{dims: []uint64{3, 5}, chunk: []uint64{2, 2}}
	tests := []struct {
		i    uint64
		want []uint64
	}{
		{0, []uint64{0, 0}},
		{2, []uint64{0, 4}},
		{3, []uint64{2, 0}},
		{5, []uint64{2, 4}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, g.offset(tt.i)); diff != "" {
			t.Errorf("offset(%d) (-want +got):\n%s", tt.i, diff)
		}
	}
}

func TestCopyRegion(t *testing.T) {
	// 2x3x2 source, values 0..11
	src := make([]byte, 12)
	for i := range src {
		src[i] = byte(i)
	}
	srcBox := whole([]uint64{2, 3, 2})

	box := region{origin: []uint64{0, 1, 1}, extent: []uint64{2, 2, 1}}
	dst := make([]byte, 4)
	copyRegion(dst, box, src, srcBox, box, 1)
	if diff := cmp.Diff([]byte{3, 5, 9, 11}, dst); diff != "" {
		t.Errorf("copyRegion mismatch (-want +got):\n%s", diff)
	}

	// a source placed away from the origin writes into its window only
	out := make([]byte, 12)
	chunk := region{origin: []uint64{1, 2, 0}, extent: []uint64{2, 2, 2}}
	overlap, ok := chunk.intersect(srcBox)
	if !ok {
		t.Fatal("expected overlap")
	}
	copyRegion(out, srcBox, []byte{1, 2, 3, 4, 5, 6, 7, 8}, chunk, overlap, 1)
	if diff := cmp.Diff([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 2}, out); diff != "" {
		t.Errorf("offset copy mismatch (-want +got):\n%s", diff)
	}
}

func TestIntersect(t *testing.T) {
	a := region{origin: []uint64{0, 0}, extent: []uint64{2, 2}}
	b := region{origin: []uint64{2, 0}, extent: []uint64{1, 5}}
	if _, ok := a.intersect(b); ok {
		t.Error("touching regions should not overlap")
	}
	c := region{origin: []uint64{1, 1}, extent: []uint64{4, 4}}
	got, ok := a.intersect(c)
	if !ok {
		t.Fatal("expected overlap")
	}
	want := region{origin: []uint64{1, 1}, extent: []uint64{1, 1}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(region{})); diff != "" {
		t.Errorf("intersect (-want +got):\n%s", diff)
	}
}
