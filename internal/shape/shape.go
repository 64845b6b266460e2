package shape

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape is an ordered list of axis lengths, outermost axis first.
// A nil or empty Shape describes a scalar.
type Shape []int

// ShapeError reports a malformed shape descriptor.
type ShapeError struct {
	Axis int
	Size int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid shape: axis %d has negative length %d", e.Axis, e.Size)
}

// FromDims converts decoder dimensions to a Shape.
func FromDims(dims []uint64) Shape {
	if len(dims) == 0 {
		return nil
	}
	s := make(Shape, len(dims))
	for i, d := range dims {
		s[i] = int(d)
	}
	return s
}

// Validate returns a *ShapeError for the first negative axis.
func (s Shape) Validate() error {
	for i, d := range s {
		if d < 0 {
			return &ShapeError{Axis: i, Size: d}
		}
	}
	return nil
}

// Rank returns the number of axes.
func (s Shape) Rank() int {
	return len(s)
}

// IsScalar reports whether s has no axes.
func (s Shape) IsScalar() bool {
	return len(s) == 0
}

// NumElements returns the number of samples described by s.
// A scalar holds one sample; any zero-length axis yields zero.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		if d <= 0 {
			return 0
		}
		n *= d
	}
	return n
}

// Last returns the length of the innermost axis, or 0 for a scalar.
func (s Shape) Last() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// Effective returns s with a trailing axis of exactly 1 removed.
// Only one axis is dropped: [8,8,1,1] becomes [8,8,1].
func (s Shape) Effective() Shape {
	if len(s) > 0 && s[len(s)-1] == 1 {
		return s[:len(s)-1]
	}
	return s
}

// Strides returns the row-major element stride of each axis.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// Equal reports whether s and o describe the same axes.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String formats s for display, e.g. "480 × 640 × 3" or "Scalar".
func (s Shape) String() string {
	if len(s) == 0 {
		return "Scalar"
	}
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, " × ")
}

// isChannelCount reports whether n is a supported image channel axis length.
func isChannelCount(n int) bool {
	return n == 1 || n == 3 || n == 4
}
