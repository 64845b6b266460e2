package layout

import (
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/btree"
	"github.com/robert-malhotra/h5view/internal/filter"
	"github.com/robert-malhotra/h5view/internal/message"
)

// Chunked reads datasets split into equally sized chunks, each optionally
// passed through the filter pipeline.
type Chunked struct {
	layout    *message.DataLayout
	dataspace *message.Dataspace
	datatype  *message.Datatype
	pipeline  *filter.Pipeline
	reader    *binary.Reader
}

// NewChunked creates a chunked layout handler.
func NewChunked(
	layout *message.DataLayout,
	dataspace *message.Dataspace,
	datatype *message.Datatype,
	filterPipeline *message.FilterPipeline,
	reader *binary.Reader,
) (*Chunked, error) {
	c := &Chunked{
		layout:    layout,
		dataspace: dataspace,
		datatype:  datatype,
		reader:    reader,
	}
	if filterPipeline != nil {
		p, err := filter.NewPipeline(filterPipeline)
		if err != nil {
			return nil, fmt.Errorf("creating filter pipeline: %w", err)
		}
		c.pipeline = p
	}
	return c, nil
}

func (c *Chunked) Class() message.LayoutClass {
	return message.LayoutChunked
}

// dims returns the dataset extent; a chunked scalar is read as one element.
func (c *Chunked) dims() []uint64 {
	if len(c.dataspace.Dimensions) == 0 {
		return []uint64{1}
	}
	return c.dataspace.Dimensions
}

// chunkGrid returns the chunk geometry. The layout message may carry an
// extra trailing dimension for the element size, which is dropped.
func (c *Chunked) chunkGrid() (grid, error) {
	dims := c.dims()
	if len(c.layout.ChunkDims) < len(dims) {
		return grid{}, fmt.Errorf("chunked layout has %d chunk dimensions for rank %d",
			len(c.layout.ChunkDims), len(dims))
	}
	g := grid{dims: dims, chunk: make([]uint64, len(dims))}
	for d := range dims {
		if c.layout.ChunkDims[d] == 0 {
			return grid{}, fmt.Errorf("chunk dimension %d is zero", d)
		}
		g.chunk[d] = uint64(c.layout.ChunkDims[d])
	}
	return g, nil
}

// Read assembles every chunk into the full dataset.
func (c *Chunked) Read() ([]byte, error) {
	if calculateDataSize(c.dataspace, c.datatype) == 0 {
		return nil, nil
	}
	return c.read(whole(c.dims()))
}

// ReadSlice reads only the chunks that overlap the selection.
func (c *Chunked) ReadSlice(start, count []uint64) ([]byte, error) {
	if err := checkSlice(c.dims(), start, count); err != nil {
		return nil, err
	}
	return c.read(region{origin: start, extent: count})
}

func (c *Chunked) read(sel region) ([]byte, error) {
	g, err := c.chunkGrid()
	if err != nil {
		return nil, err
	}
	elem := uint64(c.datatype.Size)
	out := make([]byte, product(sel.extent)*elem)

	kind := c.indexKind()
	if kind == indexSingle {
		data, err := c.readSingle()
		if err != nil {
			return nil, err
		}
		copyRegion(out, sel, data, whole(g.dims), sel, elem)
		return out, nil
	}

	entries, err := c.entries(kind, g)
	if err != nil {
		return nil, fmt.Errorf("reading %s chunk index: %w", kind, err)
	}
	full := product(g.chunk) * elem
	for _, e := range entries {
		if c.reader.IsUndefinedOffset(e.Address) || e.Address == 0 {
			continue
		}
		src := region{origin: e.Offset, extent: g.chunk}
		box, ok := src.intersect(sel)
		if !ok {
			continue
		}
		data, err := c.readChunk(e, full)
		if err != nil {
			return nil, fmt.Errorf("chunk at offset %v: %w", e.Offset, err)
		}
		copyRegion(out, sel, data, src, box, elem)
	}
	return out, nil
}

// readSingle reads a dataset stored as one chunk at the index address.
func (c *Chunked) readSingle() ([]byte, error) {
	n := calculateDataSize(c.dataspace, c.datatype)
	filtered := c.pipeline != nil && !c.pipeline.Empty()
	if filtered && c.layout.FilteredChunkSize > 0 {
		n = c.layout.FilteredChunkSize
	}
	data, err := c.reader.At(int64(c.layout.ChunkIndexAddr)).ReadBytes(int(n))
	if err != nil {
		return nil, fmt.Errorf("reading single chunk: %w", err)
	}
	if filtered {
		if data, err = c.pipeline.Decode(data, c.layout.FilteredChunkMask); err != nil {
			return nil, fmt.Errorf("decoding single chunk: %w", err)
		}
	}
	return data, nil
}

// readChunk reads and unfilters one chunk. Entries without a stored size
// hold an unfiltered chunk of full bytes.
func (c *Chunked) readChunk(e btree.ChunkEntry, full uint64) ([]byte, error) {
	size := uint64(e.Size)
	if size == 0 {
		size = full
	}
	data, err := c.reader.At(int64(e.Address)).ReadBytes(int(size))
	if err != nil {
		return nil, err
	}
	if c.pipeline == nil || c.pipeline.Empty() {
		return data, nil
	}
	return c.pipeline.Decode(data, e.FilterMask)
}
