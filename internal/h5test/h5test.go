// Package h5test builds small HDF5 files in memory for tests.
//
// The builder emits the superblock version 2 / object header version 2
// subset of the format: link messages for group members (hard, soft and
// external), contiguous, compact and single-chunk storage, version 3
// attribute messages and global heap collections for variable-length
// strings. All integers are little-endian with 8-byte offsets and lengths.
package h5test

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	h5binary "github.com/robert-malhotra/h5view/internal/binary"
)

// Node is a member of a Group.
type Node interface {
	nodeName() string
}

// Group is a group object with its members and attributes.
type Group struct {
	Name     string
	Children []Node
	Attrs    []Attr
}

// Layout selects how a dataset's raw data is stored.
type Layout int

const (
	Contiguous Layout = iota
	Compact
	Chunked
)

// Dataset is a dataset object. Dims nil means a scalar dataspace. Strings
// supplies the values of a VarString dataset in place of Data.
type Dataset struct {
	Name    string
	Dims    []uint64
	Type    Type
	Data    []byte
	Strings []string
	Layout  Layout
	Attrs   []Attr
}

// SoftLink is a link to an absolute path in the same file.
type SoftLink struct {
	Name   string
	Target string
}

// ExternalLink is a link into another file.
type ExternalLink struct {
	Name string
	File string
	Path string
}

// Attr is an attribute attached to a group or dataset.
type Attr struct {
	Name    string
	Dims    []uint64
	Type    Type
	Data    []byte
	Strings []string
}

func (g *Group) nodeName() string        { return g.Name }
func (d *Dataset) nodeName() string      { return d.Name }
func (l *SoftLink) nodeName() string     { return l.Name }
func (l *ExternalLink) nodeName() string { return l.Name }

const (
	superblockSize = 48
	undefinedAddr  = math.MaxUint64

	msgDataspace = 0x01
	msgDatatype  = 0x03
	msgLink      = 0x06
	msgLayout    = 0x08
	msgAttribute = 0x0C
)

var signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// Build serializes root and everything beneath it into an HDF5 file image.
func Build(root *Group) []byte {
	b := &builder{buf: make([]byte, superblockSize)}
	rootAddr := b.group(root)

	sb := b.buf[:superblockSize]
	copy(sb, signature)
	sb[8], sb[9], sb[10], sb[11] = 2, 8, 8, 0
	le.PutUint64(sb[12:], 0)
	le.PutUint64(sb[20:], undefinedAddr)
	le.PutUint64(sb[28:], uint64(len(b.buf)))
	le.PutUint64(sb[36:], rootAddr)
	le.PutUint32(sb[44:], h5binary.Lookup3Checksum(sb[:44]))
	return b.buf
}

// WriteFile builds root into dir/name and returns the file path.
func WriteFile(t testing.TB, dir, name string, root *Group) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(root), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

var le = binary.LittleEndian

type builder struct {
	buf []byte
}

// alloc appends p at the next 8-byte boundary and returns its address.
func (b *builder) alloc(p []byte) uint64 {
	for len(b.buf)%8 != 0 {
		b.buf = append(b.buf, 0)
	}
	addr := uint64(len(b.buf))
	b.buf = append(b.buf, p...)
	return addr
}

func (b *builder) group(g *Group) uint64 {
	var h header
	for _, child := range g.Children {
		switch c := child.(type) {
		case *Group:
			h.add(msgLink, hardLink(c.Name, b.group(c)))
		case *Dataset:
			h.add(msgLink, hardLink(c.Name, b.dataset(c)))
		case *SoftLink:
			h.add(msgLink, softLink(c.Name, c.Target))
		case *ExternalLink:
			h.add(msgLink, externalLink(c.Name, c.File, c.Path))
		default:
			panic(fmt.Sprintf("h5test: unknown node %T", child))
		}
	}
	for _, a := range g.Attrs {
		h.add(msgAttribute, b.attribute(a))
	}
	return b.alloc(h.bytes())
}

func (b *builder) dataset(d *Dataset) uint64 {
	payload := b.payload(d.Type, d.Data, d.Strings)

	var h header
	h.add(msgDataspace, dataspace(d.Dims))
	h.add(msgDatatype, d.Type.msg)

	switch d.Layout {
	case Compact:
		m := []byte{3, 0, 0, 0}
		le.PutUint16(m[2:], uint16(len(payload)))
		h.add(msgLayout, append(m, payload...))

	case Chunked:
		if len(d.Dims) == 0 {
			panic("h5test: chunked storage needs a simple dataspace")
		}
		addr := b.alloc(payload)
		m := []byte{4, 2, 0, byte(len(d.Dims) + 1), 4}
		for _, dim := range d.Dims {
			m = le.AppendUint32(m, uint32(dim))
		}
		m = le.AppendUint32(m, uint32(d.Type.size))
		m = append(m, 1)
		h.add(msgLayout, le.AppendUint64(m, addr))

	default:
		addr := uint64(undefinedAddr)
		if len(payload) > 0 {
			addr = b.alloc(payload)
		}
		m := []byte{3, 1}
		m = le.AppendUint64(m, addr)
		h.add(msgLayout, le.AppendUint64(m, uint64(len(payload))))
	}

	for _, a := range d.Attrs {
		h.add(msgAttribute, b.attribute(a))
	}
	return b.alloc(h.bytes())
}

func (b *builder) attribute(a Attr) []byte {
	payload := b.payload(a.Type, a.Data, a.Strings)
	ds := dataspace(a.Dims)

	m := []byte{3, 0}
	m = le.AppendUint16(m, uint16(len(a.Name)+1))
	m = le.AppendUint16(m, uint16(len(a.Type.msg)))
	m = le.AppendUint16(m, uint16(len(ds)))
	m = append(m, 0)
	m = append(m, a.Name...)
	m = append(m, 0)
	m = append(m, a.Type.msg...)
	m = append(m, ds...)
	return append(m, payload...)
}

// payload returns the stored element bytes, writing a global heap
// collection first for variable-length strings.
func (b *builder) payload(t Type, data []byte, strs []string) []byte {
	if !t.varString {
		return data
	}
	if len(strs) == 0 {
		return nil
	}

	var body []byte
	for i, s := range strs {
		body = le.AppendUint16(body, uint16(i+1))
		body = le.AppendUint16(body, 1)
		body = append(body, 0, 0, 0, 0)
		body = le.AppendUint64(body, uint64(len(s)))
		body = append(body, s...)
		for len(body)%8 != 0 {
			body = append(body, 0)
		}
	}
	coll := []byte("GCOL")
	coll = append(coll, 1, 0, 0, 0)
	coll = le.AppendUint64(coll, uint64(16+len(body)))
	addr := b.alloc(append(coll, body...))

	refs := make([]byte, 0, 16*len(strs))
	for i, s := range strs {
		refs = le.AppendUint32(refs, uint32(len(s)))
		refs = le.AppendUint64(refs, addr)
		refs = le.AppendUint32(refs, uint32(i+1))
	}
	return refs
}

// header accumulates version 2 object header messages.
type header struct {
	msgs []byte
}

func (h *header) add(typ byte, data []byte) {
	if len(data) > math.MaxUint16 {
		panic(fmt.Sprintf("h5test: message of %d bytes", len(data)))
	}
	h.msgs = append(h.msgs, typ)
	h.msgs = le.AppendUint16(h.msgs, uint16(len(data)))
	h.msgs = append(h.msgs, 0)
	h.msgs = append(h.msgs, data...)
}

// bytes frames the messages with a 4-byte chunk size field and checksum.
func (h *header) bytes() []byte {
	out := []byte("OHDR")
	out = append(out, 2, 0x02)
	out = le.AppendUint32(out, uint32(len(h.msgs)))
	out = append(out, h.msgs...)
	return le.AppendUint32(out, h5binary.Lookup3Checksum(out))
}

func dataspace(dims []uint64) []byte {
	if dims == nil {
		return []byte{2, 0, 0, 0}
	}
	m := []byte{2, byte(len(dims)), 0, 1}
	for _, d := range dims {
		m = le.AppendUint64(m, d)
	}
	return m
}

func hardLink(name string, addr uint64) []byte {
	m := []byte{1, 0, byte(len(name))}
	m = append(m, name...)
	return le.AppendUint64(m, addr)
}

func softLink(name, target string) []byte {
	m := []byte{1, 0x08, 1, byte(len(name))}
	m = append(m, name...)
	m = le.AppendUint16(m, uint16(len(target)))
	return append(m, target...)
}

func externalLink(name, file, path string) []byte {
	value := []byte{0}
	value = append(value, file...)
	value = append(value, 0)
	value = append(value, path...)
	value = append(value, 0)

	m := []byte{1, 0x08, 64, byte(len(name))}
	m = append(m, name...)
	m = le.AppendUint16(m, uint16(len(value)))
	return append(m, value...)
}
