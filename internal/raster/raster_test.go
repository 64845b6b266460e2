package raster

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-malhotra/h5view/internal/buffer"
	"github.com/robert-malhotra/h5view/internal/shape"
)

func ramp(n int) buffer.Flat {
	v := make([]float64, n)
	for i := range v {
		v[i] = float64(i % 256)
	}
	return buffer.Integers(v)
}

func TestRenderGray(t *testing.T) {
	res, err := Render(buffer.Integers([]float64{0, 64, 128, 255}), shape.Shape{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	want := Info{Mode: "gray", Width: 2, Height: 2, Channels: 1, Frames: 1, Displayed: 1}
	if diff := cmp.Diff(want, res.Info); diff != "" {
		t.Errorf("info mismatch (-want +got):\n%s", diff)
	}
	wantPix := []uint8{
		0, 0, 0, 255, 64, 64, 64, 255,
		128, 128, 128, 255, 255, 255, 255, 255,
	}
	if !bytes.Equal(res.Images[0].Data(), wantPix) {
		t.Errorf("pixels: got %v, want %v", res.Images[0].Data(), wantPix)
	}
}

func TestRenderUnitChannelMatchesGray(t *testing.T) {
	buf := ramp(16)
	a, err := Render(buf, shape.Shape{4, 4})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Render(buf, shape.Shape{4, 4, 1})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Images[0].Data(), b.Images[0].Data()) {
		t.Errorf("[4,4,1] should render like [4,4]")
	}
}

func TestRenderRGB(t *testing.T) {
	res, err := Render(buffer.Integers([]float64{1, 2, 3, 4, 5, 6}), shape.Shape{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	want := []uint8{1, 2, 3, 255, 4, 5, 6, 255}
	if !bytes.Equal(res.Images[0].Data(), want) {
		t.Errorf("pixels: got %v, want %v", res.Images[0].Data(), want)
	}
	if res.Mode != "rgb" {
		t.Errorf("mode: got %q", res.Mode)
	}
}

func TestRenderRGBA(t *testing.T) {
	res, err := Render(buffer.Integers([]float64{9, 8, 7, 6}), shape.Shape{1, 1, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Images[0].Data(), []uint8{9, 8, 7, 6}) {
		t.Errorf("pixels: got %v", res.Images[0].Data())
	}
}

func TestRenderBatchOffsets(t *testing.T) {
	// Two 1x2 RGB frames; the second starts at sample 6.
	buf := buffer.Integers([]float64{0, 0, 0, 0, 0, 0, 10, 20, 30, 40, 50, 60})
	res, err := Render(buf, shape.Shape{2, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != "seq-rgb" || res.Displayed != 2 {
		t.Fatalf("info: got %+v", res.Info)
	}
	want := []uint8{10, 20, 30, 255, 40, 50, 60, 255}
	if !bytes.Equal(res.Images[1].Data(), want) {
		t.Errorf("frame 1: got %v, want %v", res.Images[1].Data(), want)
	}
}

func TestRenderFrameCap(t *testing.T) {
	res, err := Render(ramp(6*3*3*3), shape.Shape{6, 3, 3, 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Frames != 6 || res.Displayed != MaxFrames || len(res.Images) != MaxFrames {
		t.Errorf("frames: got %d displayed %d images %d", res.Frames, res.Displayed, len(res.Images))
	}
}

func TestRenderOutOfRangeSamples(t *testing.T) {
	res, err := Render(buffer.Numbers([]float64{-20, 300, 127.5, 128.5}), shape.Shape{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	got := []uint8{res.Images[0].Data()[0], res.Images[0].Data()[4], res.Images[0].Data()[8], res.Images[0].Data()[12]}
	if diff := cmp.Diff([]uint8{0, 255, 128, 128}, got); diff != "" {
		t.Errorf("clamped samples mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderMissingBuffer(t *testing.T) {
	res, err := Render(buffer.Flat{}, shape.Shape{2, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	want := []uint8{0, 0, 0, 255, 0, 0, 0, 255, 0, 0, 0, 255, 0, 0, 0, 255}
	if !bytes.Equal(res.Images[0].Data(), want) {
		t.Errorf("pixels: got %v", res.Images[0].Data())
	}
}

func TestRenderEmptyFrameAxis(t *testing.T) {
	for _, s := range []shape.Shape{{4, 0, 3}, {0, 5}, {2, 3, 0, 3}} {
		t.Run(s.String(), func(t *testing.T) {
			res, err := Render(buffer.Flat{}, s)
			if err != nil {
				t.Fatal(err)
			}
			if res.Displayed != 0 || len(res.Images) != 0 {
				t.Errorf("displayed %d, images %d, want none", res.Displayed, len(res.Images))
			}
			if _, _, err := RenderFrame(buffer.Flat{}, s, 0); !errors.Is(err, ErrFrameRange) {
				t.Errorf("RenderFrame: got %v, want ErrFrameRange", err)
			}
		})
	}
}

func TestRenderEmptyBatch(t *testing.T) {
	res, err := Render(buffer.Flat{}, shape.Shape{0, 4, 4, 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Images) != 0 {
		t.Errorf("images: got %d, want 0", len(res.Images))
	}
}

func TestRenderUnresolvable(t *testing.T) {
	tests := []shape.Shape{{5}, {2, 4, 4, 2}, {2, 4, 4, 4}, {1, 2, 3, 4, 3}, nil}
	for _, s := range tests {
		t.Run(s.String(), func(t *testing.T) {
			_, err := Render(ramp(10), s)
			var ie *ImageError
			if !errors.As(err, &ie) {
				t.Fatalf("got %v, want *ImageError", err)
			}
			if ie.Reason != ReasonUnresolvableShape {
				t.Errorf("reason: got %q", ie.Reason)
			}
		})
	}
}

func TestRenderFrameIsDeterministic(t *testing.T) {
	buf := ramp(5 * 4 * 4)
	s := shape.Shape{5, 4, 4}
	a, _, err := RenderFrame(buf, s, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := RenderFrame(buf, s, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Data(), b.Data()) {
		t.Errorf("repeated renders differ")
	}
	if _, _, err := RenderFrame(buf, s, 5); !errors.Is(err, ErrFrameRange) {
		t.Errorf("frame 5: got %v, want ErrFrameRange", err)
	}
}
