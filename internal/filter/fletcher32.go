package filter

import (
	"encoding/binary"
	"fmt"
)

// fletcher32 checks and strips the checksum appended to each chunk.
type fletcher32 struct{}

func (fletcher32) Decode(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("chunk of %d bytes has no room for a checksum", len(input))
	}
	data, tail := input[:len(input)-4], input[len(input)-4:]
	stored := binary.LittleEndian.Uint32(tail)
	sum := Fletcher32(data)
	// files from old library versions store each half byte-swapped
	swapped := (sum&0x00ff00ff)<<8 | (sum&0xff00ff00)>>8
	if stored != sum && stored != swapped {
		return nil, fmt.Errorf("checksum mismatch: stored %#08x, computed %#08x", stored, sum)
	}
	return data, nil
}

// Fletcher32 returns the Fletcher-32 sum of data read as big-endian 16-bit
// words, with an odd trailing byte taken as the high half of a word.
func Fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32
	fold := func() {
		sum1 = sum1&0xffff + sum1>>16
		sum2 = sum2&0xffff + sum2>>16
	}
	// 360 words keep both sums within 32 bits between folds
	for len(data) >= 2 {
		n := min(len(data)/2, 360)
		for i := 0; i < n; i++ {
			sum1 += uint32(data[2*i])<<8 | uint32(data[2*i+1])
			sum2 += sum1
		}
		data = data[2*n:]
		fold()
	}
	if len(data) == 1 {
		sum1 += uint32(data[0]) << 8
		sum2 += sum1
		fold()
	}
	fold()
	return sum2<<16 | sum1
}
