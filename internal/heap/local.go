package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5view/internal/binary"
)

// Local is a local heap ("HEAP") with its data segment loaded.
type Local struct {
	DataAddress uint64
	data        []byte
}

// ReadLocal reads the local heap at addr.
func ReadLocal(r *binary.Reader, addr uint64) (*Local, error) {
	hr := r.At(int64(addr))
	sig, err := hr.ReadBytes(8) // signature, version, reserved
	if err != nil {
		return nil, fmt.Errorf("reading local heap at %#x: %w", addr, err)
	}
	if string(sig[:4]) != "HEAP" {
		return nil, fmt.Errorf("invalid local heap signature at %#x: %q", addr, sig[:4])
	}
	if sig[4] != 0 {
		return nil, fmt.Errorf("unsupported local heap version: %d", sig[4])
	}

	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	hr.Skip(int64(r.LengthSize())) // free list head
	dataAddr, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}

	data, err := r.At(int64(dataAddr)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("reading local heap data at %#x: %w", dataAddr, err)
	}
	return &Local{DataAddress: dataAddr, data: data}, nil
}

// String returns the NUL-terminated string at off, or "" when off lies
// outside the data segment.
func (h *Local) String(off uint64) string {
	if off >= uint64(len(h.data)) {
		return ""
	}
	s := h.data[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}
