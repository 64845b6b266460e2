package pixel

import (
	"image/color"
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	p := New(3, 2)
	if p.Width() != 3 || p.Height() != 2 {
		t.Errorf("size: got %dx%d, want 3x2", p.Width(), p.Height())
	}
	if len(p.Data()) != 24 {
		t.Errorf("data length: got %d, want 24", len(p.Data()))
	}
	if New(-1, 5).Empty() != true {
		t.Errorf("negative width should produce an empty pixmap")
	}
}

func TestSetIndex(t *testing.T) {
	p := New(2, 2)
	p.SetIndex(3, 10, 20, 30, 255)
	if got := p.RGBAAt(1, 1); got != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("RGBAAt(1,1): got %v", got)
	}
	// Out-of-range writes are ignored.
	p.SetIndex(4, 1, 1, 1, 1)
	p.SetIndex(-1, 1, 1, 1, 1)
	if got := p.RGBAAt(5, 5); got != (color.RGBA{}) {
		t.Errorf("outside bounds: got %v", got)
	}
}

func TestToImage(t *testing.T) {
	p := New(1, 1)
	p.SetIndex(0, 200, 100, 50, 128)
	img := p.ToImage()
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{200, 100, 50, 128}) {
		t.Errorf("NRGBAAt: got %v", got)
	}
}

func TestByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{0, 0},
		{-5, 0},
		{math.NaN(), 0},
		{12.4, 12},
		{12.5, 12},
		{13.5, 14},
		{254.6, 255},
		{1000, 255},
		{math.Inf(1), 255},
	}
	for _, tt := range tests {
		if got := Byte(tt.in); got != tt.want {
			t.Errorf("Byte(%v): got %d, want %d", tt.in, got, tt.want)
		}
	}
}
