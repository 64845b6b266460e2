package filter

// shuffle regroups bytes that the writer split into planes, one per byte
// position within an element.
type shuffle struct {
	size int
}

func newShuffle(clientData []uint32) shuffle {
	s := shuffle{size: 1}
	if len(clientData) > 0 && clientData[0] > 0 {
		s.size = int(clientData[0])
	}
	return s
}

// Decode interleaves the planes back into elements. Bytes past the last
// whole element were not shuffled and are copied as-is.
func (s shuffle) Decode(input []byte) ([]byte, error) {
	n := len(input) / s.size
	if s.size <= 1 || n <= 1 {
		return input, nil
	}
	out := make([]byte, len(input))
	for b := 0; b < s.size; b++ {
		plane := input[b*n : (b+1)*n]
		for i, v := range plane {
			out[i*s.size+b] = v
		}
	}
	copy(out[n*s.size:], input[n*s.size:])
	return out, nil
}
