package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5view/internal/binary"
)

// FillValueStatus says whether a fill value is undefined, the library
// default or user-supplied.
type FillValueStatus uint8

const (
	FillUndefined   FillValueStatus = 0
	FillDefault     FillValueStatus = 1
	FillUserDefined FillValueStatus = 2
)

// FillValue is the fill value message (0x0005).
type FillValue struct {
	Version        uint8
	SpaceAllocTime uint8
	FillWriteTime  uint8
	IsDefined      bool
	Size           uint32
	Value          []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

func parseFillValue(data []byte, r *binpkg.Reader) (*FillValue, error) {
	c := newCursor("fill value message", data, r)
	fv := &FillValue{Version: c.u8()}

	switch fv.Version {
	case 1, 2:
		fv.SpaceAllocTime = c.u8()
		fv.FillWriteTime = c.u8()
		fv.IsDefined = c.u8() != 0
		// version 2 omits the size and value when undefined
		if fv.IsDefined || fv.Version == 1 {
			if c.remaining() >= 4 {
				fv.Size = c.u32()
				fv.Value = c.bytes(int(fv.Size))
			}
		}
	case 3:
		flags := c.u8()
		fv.SpaceAllocTime = flags & 0x03
		fv.FillWriteTime = flags >> 2 & 0x03
		fv.IsDefined = flags&0x10 == 0
		if fv.IsDefined && flags&0x20 != 0 {
			fv.Size = c.u32()
			fv.Value = c.bytes(int(fv.Size))
		}
	default:
		if c.err == nil {
			return nil, fmt.Errorf("unsupported fill value version: %d", fv.Version)
		}
	}
	return result(fv, c)
}
