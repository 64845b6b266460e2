package hdf5

import (
	"errors"
	"path"
)

// WalkFunc is called once per object. obj is a *Group or *Dataset; when
// the object could not be opened obj is nil and err says why. Returning an
// error stops the walk.
type WalkFunc func(path string, obj Object, err error) error

// ErrStopWalk ends a walk early without reporting an error.
var ErrStopWalk = errors.New("walk stopped")

func IsStopWalk(err error) bool { return errors.Is(err, ErrStopWalk) }

// Walk visits g and everything below it, depth first in storage order.
// A group reached again through a hard link cycle is reported but not
// descended into.
//
//	hdf5.Walk(f.Root(), func(p string, obj hdf5.Object, err error) error {
//	    if ds, ok := obj.(*hdf5.Dataset); ok {
//	        fmt.Println(p, ds.Shape(), ds.Dtype())
//	    }
//	    return nil
//	})
func Walk(g *Group, fn WalkFunc) error {
	w := walker{fn: fn, open: make(map[uint64]bool)}
	if err := w.group(g); !IsStopWalk(err) {
		return err
	}
	return nil
}

type walker struct {
	fn   WalkFunc
	open map[uint64]bool // groups on the current descent
}

func (w *walker) group(g *Group) error {
	if err := w.fn(g.Path(), g, nil); err != nil || w.open[g.Address()] {
		return err
	}
	w.open[g.Address()] = true
	defer delete(w.open, g.Address())

	names, err := g.Members()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := w.member(g, name); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) member(g *Group, name string) error {
	obj, err := g.open(name)
	switch o := obj.(type) {
	case *Group:
		return w.group(o)
	case nil:
		return w.fn(path.Join(g.Path(), name), nil, err)
	default:
		return w.fn(o.Path(), o, nil)
	}
}

// AttrInfo describes one attribute met by WalkAttrs.
type AttrInfo struct {
	Path       string // "/group/dataset@attr"
	ObjectPath string
	ObjectType string // "group" or "dataset"
	Name       string
	Attr       *Attribute
	Value      string // display string, "" when Err is set
	Err        error
}

type WalkAttrsFunc func(info AttrInfo) error

// WalkAttrs calls fn for every attribute of every object that opens.
//
//	f.WalkAttrs(func(info hdf5.AttrInfo) error {
//	    fmt.Printf("%s = %s\n", info.Path, info.Value)
//	    return nil
//	})
func (f *File) WalkAttrs(fn WalkAttrsFunc) error {
	if f.closed {
		return ErrClosed
	}
	return Walk(f.root, func(p string, obj Object, err error) error {
		if err != nil {
			return nil
		}
		kind := "dataset"
		if _, ok := obj.(*Group); ok {
			kind = "group"
		}
		for _, a := range obj.Attributes() {
			v, err := a.Display()
			info := AttrInfo{Path: attrPath(p, a.Name()), ObjectPath: p, ObjectType: kind, Name: a.Name(), Attr: a, Value: v, Err: err}
			if err := fn(info); err != nil {
				return err
			}
		}
		return nil
	})
}

// attrPath joins an object path and attribute name with '@'.
func attrPath(objectPath, name string) string {
	if objectPath == "/" {
		return "/@" + name
	}
	return objectPath + "@" + name
}
