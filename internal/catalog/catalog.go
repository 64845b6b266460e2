// Package catalog lists the HDF5 files of a data directory and keeps the
// listing current with a filesystem watcher.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Extensions lists the accepted file extensions, lower case.
var Extensions = []string{".h5", ".hdf5", ".he5", ".nxs"}

var (
	// ErrNotFound is returned by Path for a name missing from the listing.
	ErrNotFound = errors.New("file not in catalog")

	// ErrInvalidName is returned by Path for names that are not plain
	// file names with an accepted extension.
	ErrInvalidName = errors.New("invalid catalog file name")
)

// Accepted reports whether name carries an accepted extension.
func Accepted(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Entry is one listed file.
type Entry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	SizeText string    `json:"sizeText"`
	ModTime  time.Time `json:"modTime"`
}

// Catalog is the listing of one directory. It is safe for concurrent use.
type Catalog struct {
	dir string
	log *zap.Logger

	mu      sync.RWMutex
	entries []Entry
}

// New scans dir and returns its catalog.
func New(dir string, log *zap.Logger) (*Catalog, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Catalog{dir: dir, log: log.Named("catalog")}
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the catalog directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Refresh rescans the directory.
func (c *Catalog) Refresh() error {
	des, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading catalog directory: %w", err)
	}

	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		if !de.Type().IsRegular() || !Accepted(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, Entry{
			Name:     de.Name(),
			Size:     info.Size(),
			SizeText: humanize.Bytes(uint64(info.Size())),
			ModTime:  info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	c.log.Debug("catalog refreshed", zap.String("dir", c.dir), zap.Int("files", len(entries)))
	return nil
}

// List returns the listed files sorted by name.
func (c *Catalog) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}

// Path returns the full path of the listed file name.
func (c *Catalog) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !Accepted(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.Name == name {
			return filepath.Join(c.dir, name), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Watch refreshes the listing whenever an accepted file in the directory is
// created, written, removed or renamed. It blocks until ctx is done and
// returns nil then.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(c.dir); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", c.dir, err)
	}
	c.log.Info("watching catalog directory", zap.String("dir", c.dir))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return w.Close()
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				c.handle(ev)
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				c.log.Warn("catalog watcher error", zap.Error(err))
			}
		}
	})
	return g.Wait()
}

func (c *Catalog) handle(ev fsnotify.Event) {
	if !Accepted(ev.Name) || !ev.Op.Has(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) {
		return
	}
	c.log.Debug("catalog event", zap.String("file", filepath.Base(ev.Name)), zap.Stringer("op", ev.Op))
	if err := c.Refresh(); err != nil {
		c.log.Warn("catalog refresh failed", zap.Error(err))
	}
}
