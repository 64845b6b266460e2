package hdf5

import (
	"path"

	"github.com/robert-malhotra/h5view/internal/shape"
)

// Kind distinguishes groups from datasets in a Node tree.
type Kind string

const (
	KindGroup   Kind = "group"
	KindDataset Kind = "dataset"
)

// Node is a JSON-ready description of one object and its descendants.
type Node struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Kind     Kind        `json:"kind,omitempty"`
	Shape    shape.Shape `json:"shape,omitempty"`
	Scalar   bool        `json:"scalar,omitempty"`
	Dtype    string      `json:"dtype,omitempty"`
	Children []*Node     `json:"children,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	c := 1
	for _, child := range n.Children {
		c += child.Count()
	}
	return c
}

// Find returns the node with the given path, or nil.
func (n *Node) Find(p string) *Node {
	if n.Path == p {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(p); found != nil {
			return found
		}
	}
	return nil
}

// Tree describes the whole hierarchy of the file. Members that cannot be
// opened appear as nodes carrying an Error instead of failing the tree.
func (f *File) Tree() (*Node, error) {
	if f.closed {
		return nil, ErrClosed
	}
	nodes := map[string]*Node{}
	var root *Node

	err := Walk(f.root, func(p string, obj Object, err error) error {
		var n *Node
		if err != nil {
			n = &Node{Name: path.Base(p), Path: p, Error: err.Error()}
		} else {
			n = Describe(obj)
		}
		if p == "/" {
			root = n
		} else if parent := nodes[path.Dir(p)]; parent != nil {
			parent.Children = append(parent.Children, n)
		}
		if n.Kind == KindGroup {
			nodes[p] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// Describe returns the node for obj without children.
func Describe(obj Object) *Node {
	n := &Node{Name: obj.Name(), Path: obj.Path()}
	switch o := obj.(type) {
	case *Group:
		n.Kind = KindGroup
	case *Dataset:
		n.Kind = KindDataset
		n.Shape = o.Shape()
		n.Scalar = o.IsScalar()
		n.Dtype = o.Dtype()
	}
	return n
}
