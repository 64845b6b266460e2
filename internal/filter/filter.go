package filter

import (
	"fmt"

	"github.com/robert-malhotra/h5view/internal/message"
)

// Filter reverses one pipeline stage.
type Filter interface {
	Decode(input []byte) ([]byte, error)
}

// Registry maps filter IDs to constructors taking the stage's client data.
var Registry = map[uint16]func(clientData []uint32) Filter{
	message.FilterDeflate:    func([]uint32) Filter { return deflate{} },
	message.FilterShuffle:    func(cd []uint32) Filter { return newShuffle(cd) },
	message.FilterFletcher32: func([]uint32) Filter { return fletcher32{} },
}

var names = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
}

// Name returns the registered name of filter id.
func Name(id uint16) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("filter %d", id)
}

// New builds the decoder for one stage. Optional stages without a decoder
// yield nil, since chunks may be stored without them.
func New(info message.FilterInfo) (Filter, error) {
	mk, ok := Registry[info.ID]
	if !ok {
		if info.IsOptional() {
			return nil, nil
		}
		return nil, fmt.Errorf("%s (ID %d) is not supported", Name(info.ID), info.ID)
	}
	return mk(info.ClientData), nil
}
