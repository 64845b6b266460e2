package hdf5

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/object"
	"github.com/robert-malhotra/h5view/internal/superblock"
)

// File represents an open HDF5 file.
type File struct {
	name          string
	path          string // empty when opened from a reader
	size          int64
	closer        io.Closer
	reader        *binary.Reader
	superblock    *superblock.Superblock
	root          *Group
	closed        bool
	externalFiles map[string]*File // Cache of opened external files

	opts *options
	log  *zap.Logger
}

// Open opens an HDF5 file on disk for reading.
func Open(path string, opts ...Option) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	hdf, err := newFile(f, st.Size(), filepath.Base(path), opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	hdf.path = path
	hdf.closer = f
	return hdf, nil
}

// OpenReader decodes an HDF5 file held by ra, such as an uploaded file kept
// in memory. name is used for display only. External links cannot be
// followed from a reader.
func OpenReader(ra io.ReaderAt, size int64, name string, opts ...Option) (*File, error) {
	hdf, err := newFile(ra, size, name, opts)
	if err != nil {
		return nil, err
	}
	if c, ok := ra.(io.Closer); ok {
		hdf.closer = c
	}
	return hdf, nil
}

func newFile(ra io.ReaderAt, size int64, name string, opts []Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	sb, err := superblock.Read(ra)
	if err != nil {
		if errors.Is(err, superblock.ErrNotHDF5) {
			return nil, fmt.Errorf("%w: %s", ErrNotHDF5, name)
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	// Addresses count from the base address, past any user block.
	if base := int64(sb.BaseAddress); base > 0 {
		if base >= size {
			return nil, fmt.Errorf("%w: base address %#x beyond end of file", superblock.ErrInvalidSuperblock, base)
		}
		ra = io.NewSectionReader(ra, base, size-base)
	}

	hdf := &File{
		name:       name,
		size:       size,
		reader:     binary.NewReader(ra, sb.ReaderConfig()),
		superblock: sb,
		opts:       o,
		log:        o.logger.With(zap.String("file", name)),
	}

	root, err := hdf.openGroupAt(sb.RootGroupAddress, "/")
	if err != nil {
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	hdf.root = root

	hdf.log.Debug("opened file",
		zap.Int("superblock", int(sb.Version)),
		zap.Int64("size", size),
		zap.Uint64("root", sb.RootGroupAddress))
	return hdf, nil
}

// Close closes the HDF5 file and all opened external files.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	for _, extFile := range f.externalFiles {
		extFile.Close()
	}
	f.externalFiles = nil

	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Root returns the root group of the file.
func (f *File) Root() *Group {
	return f.root
}

// Name returns the display name of the file.
func (f *File) Name() string {
	return f.name
}

// Path returns the file path, or "" for files opened from a reader.
func (f *File) Path() string {
	return f.path
}

// Size returns the file size in bytes.
func (f *File) Size() int64 {
	return f.size
}

// Version returns the superblock version.
func (f *File) Version() int {
	return int(f.superblock.Version)
}

// OpenGroup opens a group by path.
func (f *File) OpenGroup(path string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(path)
}

// OpenDataset opens a dataset by path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(path)
}

// Get opens the group or dataset at path.
func (f *File) Get(path string) (Object, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.open(path)
}

// openGroupAt reads the header at address as a group.
func (f *File) openGroupAt(address uint64, path string) (*Group, error) {
	h, err := object.Read(f.reader, address)
	if err != nil {
		return nil, fmt.Errorf("reading object header: %w", err)
	}
	return &Group{file: f, path: path, header: h}, nil
}

// wrap turns a resolved header into a Dataset when it has a storage layout
// and a Group otherwise.
func (f *File) wrap(h *object.Header, path string) (Object, error) {
	if h.DataLayout() != nil {
		ds, err := newDataset(f, path, h)
		if err != nil {
			return nil, err
		}
		return ds, nil
	}
	return &Group{file: f, path: path, header: h}, nil
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// GetAttr returns the attribute named by an attribute path, the object
// path and attribute name joined by '@' as in "/scan/depth@units".
func (f *File) GetAttr(attrPath string) (*Attribute, error) {
	i := strings.LastIndexByte(attrPath, '@')
	if i < 0 || i == len(attrPath)-1 {
		return nil, fmt.Errorf("%w: %q is not an attribute path", ErrInvalidPath, attrPath)
	}
	objectPath, name := attrPath[:i], attrPath[i+1:]
	if !strings.HasPrefix(objectPath, "/") {
		objectPath = "/" + objectPath
	}

	obj, err := f.Get(objectPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", objectPath, err)
	}
	attr := obj.Attr(name)
	if attr == nil {
		return nil, fmt.Errorf("attribute %q of %s: %w", name, objectPath, ErrNotFound)
	}
	return attr, nil
}

// ReadAttr returns the display string of the attribute at attrPath.
func (f *File) ReadAttr(attrPath string) (string, error) {
	attr, err := f.GetAttr(attrPath)
	if err != nil {
		return "", err
	}
	return attr.Display()
}

// findByAbsolutePath walks absPath from the root. Soft and external links
// met on the way share visited, which bounds the chain.
func (f *File) findByAbsolutePath(absPath string, visited map[string]bool) (*target, error) {
	parts := splitPath(absPath)
	if len(parts) == 0 {
		return &target{header: f.root.header}, nil
	}

	g := f.root
	for i, name := range parts {
		t, err := g.resolve(name, visited)
		if err != nil {
			return nil, fmt.Errorf("resolving %q in %s: %w", name, absPath, err)
		}
		if i == len(parts)-1 {
			return t, nil
		}
		if t.isDataset() {
			return nil, fmt.Errorf("%q in %s: %w", name, absPath, ErrNotGroup)
		}
		g = &Group{file: t.in(g.file), header: t.header}
	}
	return nil, ErrInvalidPath
}

// openExternalFile opens name relative to this file's directory, once.
// Files opened from memory have no directory to resolve against.
func (f *File) openExternalFile(name string) (*File, error) {
	if f.path == "" {
		return nil, fmt.Errorf("%w: external link to %q from %s", ErrUnsupported, name, f.name)
	}
	if ext, ok := f.externalFiles[name]; ok {
		return ext, nil
	}

	full := filepath.Join(filepath.Dir(f.path), name)
	ext, err := Open(full, WithLogger(f.opts.logger), WithMaxElements(f.opts.maxElements))
	if err != nil {
		return nil, fmt.Errorf("opening external file %q: %w", full, err)
	}
	if f.externalFiles == nil {
		f.externalFiles = make(map[string]*File)
	}
	f.externalFiles[name] = ext
	f.log.Debug("opened external file", zap.String("target", full))
	return ext, nil
}

func (f *File) resolveExternalLink(file, objPath string, visited map[string]bool) (*target, error) {
	if len(visited) >= MaxLinkDepth {
		return nil, ErrLinkDepth
	}
	key := file + ":" + objPath
	if visited[key] {
		return nil, fmt.Errorf("%w: external link cycle through %s", ErrLinkDepth, key)
	}
	visited[key] = true

	ext, err := f.openExternalFile(file)
	if err != nil {
		return nil, err
	}
	t, err := ext.findByAbsolutePath(objPath, visited)
	if err != nil {
		return nil, fmt.Errorf("%s in %q: %w", objPath, file, err)
	}
	if t.file == nil {
		t.file = ext
	}
	return t, nil
}
