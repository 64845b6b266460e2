// Package buffer holds the flat sample buffers that renderers consume.
//
// A Flat is a read-only, row-major sequence of samples. It is either numeric
// or textual; the zero value is an empty buffer, which every renderer treats
// as zero displayable elements.
package buffer

import (
	"math"
	"strconv"
)

// Flat is a read-only row-major sample buffer.
type Flat struct {
	nums     []float64
	text     []string
	integer  bool
	unsigned bool
}

// Numbers wraps floating-point samples. The slice is not copied and must not
// be modified afterwards.
func Numbers(v []float64) Flat {
	return Flat{nums: v}
}

// Integers wraps integral samples stored as float64 so they format without a
// fractional part.
func Integers(v []float64) Flat {
	return Flat{nums: v, integer: true}
}

// Unsigned wraps non-negative integral samples. Values at or beyond 2^63
// format as unsigned rather than wrapping negative.
func Unsigned(v []float64) Flat {
	return Flat{nums: v, integer: true, unsigned: true}
}

// Text wraps non-numeric samples (strings, compound or opaque values already
// rendered for display).
func Text(v []string) Flat {
	return Flat{text: v}
}

// Len returns the number of samples.
func (f Flat) Len() int {
	if f.text != nil {
		return len(f.text)
	}
	return len(f.nums)
}

// IsNumeric reports whether the samples are numbers.
func (f Flat) IsNumeric() bool {
	return f.text == nil
}

// At returns sample i. ok is false when i is out of range or the buffer is
// not numeric.
func (f Flat) At(i int) (v float64, ok bool) {
	if i < 0 || i >= len(f.nums) {
		return 0, false
	}
	return f.nums[i], true
}

// Format returns sample i as a display string, or "" when i is out of range.
func (f Flat) Format(i int) string {
	if f.text != nil {
		if i < 0 || i >= len(f.text) {
			return ""
		}
		return f.text[i]
	}
	v, ok := f.At(i)
	if !ok {
		return ""
	}
	if f.integer {
		return formatInt(v, f.unsigned)
	}
	return FormatFloat(v)
}

// formatInt prints an integral sample. float64 rounds the largest 64-bit
// values up to 2^63 or 2^64, which do not convert back, so they saturate.
func formatInt(v float64, unsigned bool) string {
	switch {
	case unsigned && v >= math.MaxUint64:
		return strconv.FormatUint(math.MaxUint64, 10)
	case unsigned && v >= 0:
		return strconv.FormatUint(uint64(v), 10)
	case v >= math.MaxInt64:
		return strconv.FormatInt(math.MaxInt64, 10)
	case v <= math.MinInt64:
		return strconv.FormatInt(math.MinInt64, 10)
	}
	return strconv.FormatInt(int64(v), 10)
}

// Head returns a view of the first n samples.
func (f Flat) Head(n int) Flat {
	if n < 0 {
		n = 0
	}
	if f.text != nil {
		if n > len(f.text) {
			n = len(f.text)
		}
		return Flat{text: f.text[:n]}
	}
	if n > len(f.nums) {
		n = len(f.nums)
	}
	return Flat{nums: f.nums[:n], integer: f.integer, unsigned: f.unsigned}
}

// FormatFloat formats v the way a browser prints a number: integral values
// without a fraction, very large or very small magnitudes in exponent form.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if abs := math.Abs(v); abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
