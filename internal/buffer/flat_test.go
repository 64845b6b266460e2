package buffer

import (
	"math"
	"testing"
)

func TestZeroValueIsEmpty(t *testing.T) {
	var f Flat
	if f.Len() != 0 {
		t.Errorf("Len: got %d, want 0", f.Len())
	}
	if _, ok := f.At(0); ok {
		t.Errorf("At(0) on empty buffer reported ok")
	}
	if got := f.Format(0); got != "" {
		t.Errorf("Format(0): got %q, want empty", got)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		buf  Flat
		i    int
		want string
	}{
		{"integer", Integers([]float64{42}), 0, "42"},
		{"negative integer", Integers([]float64{-7}), 0, "-7"},
		{"unsigned", Unsigned([]float64{200}), 0, "200"},
		{"unsigned max", Unsigned([]float64{float64(math.MaxUint64)}), 0, "18446744073709551615"},
		{"unsigned above 2^63", Unsigned([]float64{1 << 63}), 0, "9223372036854775808"},
		{"signed max", Integers([]float64{float64(math.MaxInt64)}), 0, "9223372036854775807"},
		{"signed min", Integers([]float64{math.MinInt64}), 0, "-9223372036854775808"},
		{"float", Numbers([]float64{1.5}), 0, "1.5"},
		{"integral float", Numbers([]float64{3}), 0, "3"},
		{"tiny float", Numbers([]float64{1e-9}), 0, "1e-09"},
		{"nan", Numbers([]float64{math.NaN()}), 0, "NaN"},
		{"inf", Numbers([]float64{math.Inf(-1)}), 0, "-Infinity"},
		{"text", Text([]string{"a", "b"}), 1, "b"},
		{"out of range", Numbers([]float64{1}), 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.buf.Format(tt.i); got != tt.want {
				t.Errorf("Format(%d): got %q, want %q", tt.i, got, tt.want)
			}
		})
	}
}

func TestTextIsNotNumeric(t *testing.T) {
	f := Text([]string{"x"})
	if f.IsNumeric() {
		t.Errorf("text buffer reported numeric")
	}
	if _, ok := f.At(0); ok {
		t.Errorf("At on text buffer reported ok")
	}
	if f.Len() != 1 {
		t.Errorf("Len: got %d, want 1", f.Len())
	}
}

func TestHead(t *testing.T) {
	f := Integers([]float64{1, 2, 3, 4})
	h := f.Head(2)
	if h.Len() != 2 || h.Format(1) != "2" {
		t.Errorf("Head(2): got len %d, second %q", h.Len(), h.Format(1))
	}
	if f.Head(10).Len() != 4 {
		t.Errorf("Head beyond length should clamp")
	}
	if f.Head(-1).Len() != 0 {
		t.Errorf("Head(-1) should be empty")
	}
}
