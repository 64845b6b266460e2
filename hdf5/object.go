package hdf5

// Object is a group or dataset.
type Object interface {
	Name() string
	Path() string
	Address() uint64
	Attrs() []string
	Attr(name string) *Attribute
	Attributes() []*Attribute
}

var (
	_ Object = (*Group)(nil)
	_ Object = (*Dataset)(nil)
)
