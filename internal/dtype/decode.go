package dtype

import (
	"bytes"
	stdbinary "encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/robert-malhotra/h5view/internal/binary"
	"github.com/robert-malhotra/h5view/internal/buffer"
	"github.com/robert-malhotra/h5view/internal/heap"
	"github.com/robert-malhotra/h5view/internal/message"
)

// ErrUnsupported is returned for datatypes that cannot be decoded.
var ErrUnsupported = errors.New("unsupported datatype")

// Decode converts up to n elements of raw into a flat buffer. A short raw
// slice yields a shorter buffer; the missing tail is left to the caller.
// The reader resolves variable-length data and may be nil when dt holds no
// heap references.
func Decode(dt *message.Datatype, raw []byte, n int, r *binary.Reader) (buffer.Flat, error) {
	if dt == nil {
		return buffer.Flat{}, fmt.Errorf("%w: nil datatype", ErrUnsupported)
	}
	size := elementSize(dt, r)
	if size <= 0 {
		return buffer.Flat{}, fmt.Errorf("%w: zero-sized elements", ErrUnsupported)
	}
	n = max(0, min(n, len(raw)/size))

	switch dt.Class {
	case message.ClassFloatPoint:
		vals := make([]float64, n)
		for i := range vals {
			v, err := decodeFloat(dt, raw[i*size:(i+1)*size])
			if err != nil {
				return buffer.Flat{}, err
			}
			vals[i] = v
		}
		return buffer.Numbers(vals), nil

	case message.ClassFixedPoint, message.ClassEnum, message.ClassBitfield:
		it, err := integerType(dt)
		if err != nil {
			return buffer.Flat{}, err
		}
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = decodeInt(it, raw[i*size:(i+1)*size])
		}
		return integers(it, vals), nil
	}

	hc := newHeapCache(r)
	text := make([]string, n)
	for i := range text {
		s, err := formatElement(dt, raw[i*size:(i+1)*size], hc)
		if err != nil {
			return buffer.Flat{}, fmt.Errorf("element %d: %w", i, err)
		}
		text[i] = s
	}
	return buffer.Text(text), nil
}

// elementSize is the stored size of one element. Variable-length elements
// are heap references: a 4-byte length, a heap address and a 4-byte index.
func elementSize(dt *message.Datatype, r *binary.Reader) int {
	if dt.Class == message.ClassVarLen {
		return 4 + offsetSize(r) + 4
	}
	return int(dt.Size)
}

func offsetSize(r *binary.Reader) int {
	if r == nil {
		return 8
	}
	return r.OffsetSize()
}

// decodeInt reads a fixed-point value of any size from 1 to 8 bytes.
func integers(dt *message.Datatype, vals []float64) buffer.Flat {
	if dt.Signed {
		return buffer.Integers(vals)
	}
	return buffer.Unsigned(vals)
}

func decodeInt(dt *message.Datatype, b []byte) float64 {
	var u uint64
	if dt.ByteOrder == message.OrderBE {
		for _, c := range b {
			u = u<<8 | uint64(c)
		}
	} else {
		for i := len(b) - 1; i >= 0; i-- {
			u = u<<8 | uint64(b[i])
		}
	}
	if !dt.Signed || len(b) == 0 {
		return float64(u)
	}
	shift := 64 - 8*uint(min(len(b), 8))
	return float64(int64(u<<shift) >> shift)
}

func decodeFloat(dt *message.Datatype, b []byte) (float64, error) {
	order := ByteOrder(dt)
	switch len(b) {
	case 2:
		return halfToFloat(order.Uint16(b)), nil
	case 4:
		return float64(math.Float32frombits(order.Uint32(b))), nil
	case 8:
		return math.Float64frombits(order.Uint64(b)), nil
	}
	return 0, fmt.Errorf("%w: %d-byte float", ErrUnsupported, len(b))
}

// halfToFloat converts an IEEE 754 binary16 value.
func halfToFloat(h uint16) float64 {
	sign := 1.0
	if h&0x8000 != 0 {
		sign = -1
	}
	exp := int(h>>10) & 0x1F
	frac := float64(h & 0x03FF)

	switch exp {
	case 0:
		return sign * math.Ldexp(frac, -24)
	case 0x1F:
		if frac != 0 {
			return math.NaN()
		}
		return math.Inf(int(sign))
	}
	return sign * math.Ldexp(1+frac/1024, exp-15)
}

// heapCache memoizes global heap collections while decoding one buffer.
type heapCache struct {
	r     *binary.Reader
	colls map[uint64]*heap.Collection
}

func newHeapCache(r *binary.Reader) *heapCache {
	return &heapCache{r: r, colls: make(map[uint64]*heap.Collection)}
}

// object resolves a variable-length reference. A null reference yields nil.
func (c *heapCache) object(ref []byte) ([]byte, error) {
	id, err := heap.ParseID(ref[4:], offsetSize(c.r))
	if err != nil {
		return nil, err
	}
	if id.Collection == 0 || stdbinary.LittleEndian.Uint32(ref[:4]) == 0 {
		return nil, nil
	}
	if c.r == nil {
		return nil, fmt.Errorf("global heap reference 0x%x without a reader", id.Collection)
	}
	gh, ok := c.colls[id.Collection]
	if !ok {
		gh, err = heap.ReadCollection(c.r, id.Collection)
		if err != nil {
			return nil, fmt.Errorf("reading global heap at 0x%x: %w", id.Collection, err)
		}
		c.colls[id.Collection] = gh
	}
	return gh.Object(uint16(id.Index))
}

// formatElement renders one element of any class as display text.
func formatElement(dt *message.Datatype, b []byte, hc *heapCache) (string, error) {
	switch dt.Class {
	case message.ClassFloatPoint:
		v, err := decodeFloat(dt, b)
		if err != nil {
			return "", err
		}
		return buffer.FormatFloat(v), nil

	case message.ClassFixedPoint, message.ClassEnum, message.ClassBitfield:
		it, err := integerType(dt)
		if err != nil {
			return "", err
		}
		return integers(it, []float64{decodeInt(it, b)}).Format(0), nil

	case message.ClassString:
		return fixedString(dt, b), nil

	case message.ClassVarLen:
		obj, err := hc.object(b)
		if err != nil {
			return "", err
		}
		if dt.IsVarLenString {
			return cString(obj), nil
		}
		if dt.VarLenType == nil || dt.VarLenType.Size == 0 {
			return hex.EncodeToString(obj), nil
		}
		return formatSequence(dt.VarLenType, obj, len(obj)/int(dt.VarLenType.Size), hc)

	case message.ClassArray:
		if dt.BaseType == nil || dt.BaseType.Size == 0 {
			return hex.EncodeToString(b), nil
		}
		count := 1
		for _, d := range dt.ArrayDims {
			count *= int(d)
		}
		return formatSequence(dt.BaseType, b, count, hc)

	case message.ClassCompound:
		parts := make([]string, 0, len(dt.Members))
		for _, m := range dt.Members {
			if m.Type == nil {
				continue
			}
			start := int(m.ByteOffset)
			end := start + elementSize(m.Type, hc.r)
			if end > len(b) {
				return "", fmt.Errorf("compound member %q exceeds element size", m.Name)
			}
			v, err := formatElement(m.Type, b[start:end], hc)
			if err != nil {
				return "", fmt.Errorf("compound member %q: %w", m.Name, err)
			}
			parts = append(parts, m.Name+": "+v)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}
	return hex.EncodeToString(b), nil
}

func formatSequence(base *message.Datatype, b []byte, count int, hc *heapCache) (string, error) {
	size := elementSize(base, hc.r)
	parts := make([]string, 0, count)
	for i := 0; i < count && (i+1)*size <= len(b); i++ {
		v, err := formatElement(base, b[i*size:(i+1)*size], hc)
		if err != nil {
			return "", err
		}
		parts = append(parts, v)
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

// fixedString strips the padding of a fixed-length string.
func fixedString(dt *message.Datatype, b []byte) string {
	s := cString(b)
	if dt.StringPadding == message.PadSpacePad {
		s = strings.TrimRight(s, " ")
	}
	return s
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
