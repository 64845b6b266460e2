package hdf5

import (
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/internal/btree"
	"github.com/robert-malhotra/h5view/internal/heap"
	"github.com/robert-malhotra/h5view/internal/message"
	"github.com/robert-malhotra/h5view/internal/object"
)

// Group is an HDF5 group.
type Group struct {
	file   *File
	path   string
	header *object.Header
}

// member is one named entry of a group, read from a link message or from
// the symbol table of an old-style group.
type member struct {
	name    string
	kind    message.LinkType
	address uint64 // hard
	target  string // soft
	extFile string // external
	extPath string
}

// target is the object a member resolves to.
type target struct {
	header *object.Header
	file   *File // nil for the group's own file
}

func (t *target) isDataset() bool { return t.header.DataLayout() != nil }

// in returns the file holding the target, given the file the link was
// read from.
func (t *target) in(f *File) *File {
	if t.file != nil {
		return t.file
	}
	return f
}

func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

func (g *Group) Path() string { return g.path }

// Address returns the object header address, which identifies the group
// within its file.
func (g *Group) Address() uint64 { return g.header.Address }

// OpenGroup opens the group at a path relative to g.
func (g *Group) OpenGroup(rel string) (*Group, error) {
	obj, err := g.open(rel)
	if err != nil {
		return nil, err
	}
	sub, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%s: %w", rel, ErrNotGroup)
	}
	return sub, nil
}

// OpenDataset opens the dataset at a path relative to g.
func (g *Group) OpenDataset(rel string) (*Dataset, error) {
	obj, err := g.open(rel)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%s: %w", rel, ErrNotDataset)
	}
	return ds, nil
}

// Get opens the direct member called name.
func (g *Group) Get(name string) (Object, error) {
	if name == "" || path.Base(name) != name {
		return nil, fmt.Errorf("%w: member name %q", ErrInvalidPath, name)
	}
	return g.open(name)
}

func (g *Group) open(rel string) (Object, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	parts := splitPath(rel)
	if len(parts) == 0 {
		return g, nil
	}

	visited := make(map[string]bool)
	cur := g
	for i, name := range parts {
		t, err := cur.resolve(name, visited)
		if err != nil {
			return nil, fmt.Errorf("finding %q: %w", name, err)
		}
		p := path.Join(cur.path, name)
		if i == len(parts)-1 {
			return t.in(cur.file).wrap(t.header, p)
		}
		if t.isDataset() {
			return nil, fmt.Errorf("%q: %w", p, ErrNotGroup)
		}
		cur = &Group{file: t.in(cur.file), path: p, header: t.header}
	}
	return cur, nil
}

// members lists the group's entries in storage order. New-style groups
// keep them as link messages; old-style groups in a B-tree of symbol
// nodes.
func (g *Group) members() ([]member, error) {
	var out []member
	for _, msg := range g.header.All(message.TypeLink) {
		l := msg.(*message.Link)
		out = append(out, member{
			name:    l.Name,
			kind:    l.LinkType,
			address: l.ObjectAddress,
			target:  l.SoftLinkValue,
			extFile: l.ExternalFile,
			extPath: l.ExternalPath,
		})
	}
	if len(out) > 0 {
		return out, nil
	}

	st := g.symbolTable()
	if st == nil {
		if g.header.First(message.TypeLinkInfo) != nil {
			g.file.log.Debug("dense link storage not supported", zap.String("path", g.path))
		}
		return nil, nil
	}
	names, err := heap.ReadLocal(g.file.reader, st.LocalHeapAddress)
	if err != nil {
		return nil, fmt.Errorf("reading local heap: %w", err)
	}
	entries, err := btree.GroupEntries(g.file.reader, st.BTreeAddress, names)
	if err != nil {
		return nil, fmt.Errorf("reading group B-tree: %w", err)
	}
	for _, e := range entries {
		m := member{name: e.Name, kind: message.LinkTypeHard, address: e.ObjectAddress}
		if e.Soft {
			m.kind, m.target = message.LinkTypeSoft, e.SoftLinkValue
		}
		out = append(out, m)
	}
	return out, nil
}

// symbolTable returns the symbol table of an old-style group. The root
// group falls back to the one cached in the superblock.
func (g *Group) symbolTable() *message.SymbolTable {
	if st, ok := object.Find[*message.SymbolTable](g.header); ok {
		return st
	}
	sb := g.file.superblock
	if g.path == "/" && sb.RootGroupBTreeAddress != 0 {
		return &message.SymbolTable{
			BTreeAddress:     sb.RootGroupBTreeAddress,
			LocalHeapAddress: sb.RootGroupLocalHeapAddress,
		}
	}
	return nil
}

// resolve finds member name and follows it to an object.
func (g *Group) resolve(name string, visited map[string]bool) (*target, error) {
	ms, err := g.members()
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		if m.name == name {
			return g.follow(m, visited)
		}
	}
	return nil, ErrNotFound
}

func (g *Group) follow(m member, visited map[string]bool) (*target, error) {
	switch m.kind {
	case message.LinkTypeHard:
		h, err := object.Read(g.file.reader, m.address)
		if err != nil {
			return nil, fmt.Errorf("reading object header: %w", err)
		}
		return &target{header: h}, nil
	case message.LinkTypeSoft:
		if len(visited) >= MaxLinkDepth {
			return nil, ErrLinkDepth
		}
		if visited[m.target] {
			return nil, fmt.Errorf("%w: soft link cycle through %s", ErrLinkDepth, m.target)
		}
		visited[m.target] = true
		return g.file.findByAbsolutePath(m.target, visited)
	case message.LinkTypeExternal:
		return g.file.resolveExternalLink(m.extFile, m.extPath, visited)
	}
	return nil, fmt.Errorf("%w: link type %d", ErrUnsupported, m.kind)
}

// Members returns the names of every member, links included, in storage
// order.
func (g *Group) Members() ([]string, error) {
	ms, err := g.members()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.name
	}
	return names, nil
}

// Children opens every member. Members that cannot be opened are left out
// of objs and reported in failed, keyed by name.
func (g *Group) Children() (objs []Object, failed map[string]error, err error) {
	names, err := g.Members()
	if err != nil {
		return nil, nil, err
	}
	for _, name := range names {
		obj, err := g.open(name)
		if err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[name] = err
			g.file.log.Debug("member unavailable", zap.String("path", path.Join(g.path, name)), zap.Error(err))
			continue
		}
		objs = append(objs, obj)
	}
	return objs, failed, nil
}

func (g *Group) Attrs() []string             { return attrNames(g.header) }
func (g *Group) Attr(name string) *Attribute { return findAttr(g.header, name, g.file) }
func (g *Group) Attributes() []*Attribute    { return allAttrs(g.header, g.file) }
