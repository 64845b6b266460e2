package filter

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// deflate inflates zlib streams. The compression level in the client data
// only matters when writing.
type deflate struct{}

func (deflate) Decode(input []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("opening zlib stream: %w", err)
	}
	defer zr.Close()

	var out bytes.Buffer
	out.Grow(2 * len(input))
	if _, err := io.Copy(&out, zr); err != nil {
		return nil, fmt.Errorf("inflating: %w", err)
	}
	return out.Bytes(), nil
}
