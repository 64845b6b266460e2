package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// DataspaceType distinguishes scalar, simple and empty dataspaces.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Dataspace is the dataspace message (0x0001): the rank and extent of a
// dataset or attribute.
type Dataspace struct {
	Version    uint8
	Rank       int
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64 // nil when absent
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements is 1 for a scalar, 0 for a null space and the product of
// the dimensions otherwise.
func (m *Dataspace) NumElements() uint64 {
	if m.SpaceType == DataspaceScalar {
		return 1
	}
	if m.SpaceType != DataspaceSimple || len(m.Dimensions) == 0 {
		return 0
	}
	n := m.Dimensions[0]
	for _, d := range m.Dimensions[1:] {
		n *= d
	}
	return n
}

func (m *Dataspace) IsScalar() bool { return m.SpaceType == DataspaceScalar }
func (m *Dataspace) IsNull() bool   { return m.SpaceType == DataspaceNull }

func parseDataspace(data []byte, r *binpkg.Reader) (*Dataspace, error) {
	c := newCursor("dataspace message", data, r)
	ds := &Dataspace{Version: c.u8(), Rank: int(c.u8())}
	hasMax := c.u8()&0x01 != 0

	if ds.Version == 2 {
		ds.SpaceType = DataspaceType(c.u8())
	} else if ds.Version == 1 {
		// no type byte: rank 0 is a scalar
		c.skip(5)
		ds.SpaceType = DataspaceScalar
		if ds.Rank > 0 {
			ds.SpaceType = DataspaceSimple
		}
	} else if c.err == nil {
		return nil, fmt.Errorf("unsupported dataspace version: %d", ds.Version)
	}

	if ds.SpaceType != DataspaceSimple || ds.Rank == 0 {
		return result(ds, c)
	}
	ds.Dimensions = c.lengths(ds.Rank)
	if hasMax {
		ds.MaxDims = c.lengths(ds.Rank)
	}
	return result(ds, c)
}
