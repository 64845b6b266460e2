package message

import (
	"slices"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// Registered filter identifiers.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
)

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// IsOptional reports whether a chunk may skip this filter.
func (f *FilterInfo) IsOptional() bool { return f.Flags&0x01 != 0 }

// FilterPipeline is the filter pipeline message (0x000B), applied in order
// when chunks are written.
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// HasFilter reports whether the pipeline includes filter id.
func (m *FilterPipeline) HasFilter(id uint16) bool {
	return slices.ContainsFunc(m.Filters, func(f FilterInfo) bool { return f.ID == id })
}

// HasCompression reports whether any stage compresses.
func (m *FilterPipeline) HasCompression() bool {
	return m.HasFilter(FilterDeflate) || m.HasFilter(FilterSZIP)
}

func parseFilterPipeline(data []byte, r *binpkg.Reader) (*FilterPipeline, error) {
	c := newCursor("filter pipeline message", data, r)
	fp := &FilterPipeline{Version: c.u8()}
	n := int(c.u8())
	if fp.Version == 1 {
		c.skip(6)
	}
	fp.Filters = make([]FilterInfo, n)
	for i := range fp.Filters {
		fp.Filters[i] = c.filter(fp.Version)
	}
	return result(fp, c)
}

// filter decodes one pipeline stage. Version 1 always names its filters
// and pads names and client data to eight bytes; version 2 names only
// filters outside the reserved range.
func (c *cursor) filter(version uint8) FilterInfo {
	f := FilterInfo{ID: c.u16()}
	var nameLen int
	if version == 1 || f.ID >= 256 {
		nameLen = int(c.u16())
	}
	f.Flags = c.u16()
	f.ClientData = make([]uint32, c.u16())

	if nameLen > 0 {
		f.Name = c.name(nameLen)
		if version == 1 && nameLen%8 != 0 {
			c.skip(8 - nameLen%8)
		}
	}
	for i := range f.ClientData {
		f.ClientData[i] = c.u32()
	}
	if version == 1 && len(f.ClientData)%2 != 0 {
		c.skip(4)
	}
	return f
}
