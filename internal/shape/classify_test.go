package shape

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  []Kind
	}{
		{"scalar", nil, []Kind{Scalar}},
		{"sequence", Shape{10}, []Kind{Sequence1D}},
		{"square matrix", Shape{4, 4}, []Kind{DepthSingle, Matrix2D}},
		{"matrix ending in 3", Shape{5, 3}, []Kind{DepthSingle, Matrix2D}},
		{"gray with unit channel", Shape{8, 8, 1}, []Kind{ImageSingle, Matrix2D}},
		{"rgb", Shape{8, 8, 3}, []Kind{ImageSingle, Matrix2D}},
		{"rgba", Shape{8, 8, 4}, []Kind{ImageSingle, Matrix2D}},
		{"depth batch", Shape{5, 8, 8}, []Kind{DepthBatch, Matrix2D}},
		{"rgb batch", Shape{2, 8, 8, 3}, []Kind{ImageBatch, Matrix2D}},
		{"gray batch", Shape{6, 8, 8, 1}, []Kind{ImageBatch, Matrix2D}},
		{"rank 4 without channels", Shape{2, 8, 8, 5}, []Kind{MatrixSliceND}},
		{"rgba batch", Shape{2, 8, 8, 4}, []Kind{MatrixSliceND}},
		{"rank 5", Shape{2, 2, 8, 8, 3}, []Kind{MatrixSliceND}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Classify(tt.shape)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if diff := cmp.Diff(tt.want, c.Kinds()); diff != "" {
				t.Errorf("Kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifySquareMatrix(t *testing.T) {
	c, err := Classify(Shape{4, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !c.Has(Matrix2D) || !c.Has(DepthSingle) {
		t.Errorf("[4,4]: want Matrix2D and DepthSingle, got %v", c.Kinds())
	}
	if c.Image.Valid() {
		t.Errorf("[4,4]: image must not be offered, got %+v", c.Image)
	}
}

func TestClassifyRGBBatch(t *testing.T) {
	c, err := Classify(Shape{2, 8, 8, 3})
	if err != nil {
		t.Fatal(err)
	}
	want := Interpretation{Kind: ImageBatch, Color: RGB, Width: 8, Height: 8, Frames: 2, Channels: 3}
	if diff := cmp.Diff(want, c.Image); diff != "" {
		t.Errorf("image mismatch (-want +got):\n%s", diff)
	}
	if c.Table.Kind != Matrix2D {
		t.Errorf("fallback: got %v, want %v", c.Table.Kind, Matrix2D)
	}
	if c.Depth.Valid() {
		t.Errorf("depth must not be offered alongside image")
	}
}

func TestClassifyUnitChannelIsImageNotDepth(t *testing.T) {
	c, err := Classify(Shape{8, 8, 1})
	if err != nil {
		t.Fatal(err)
	}
	if c.Image.Kind != ImageSingle || c.Image.Color != Gray {
		t.Errorf("image: got %v/%v, want %v/%v", c.Image.Kind, c.Image.Color, ImageSingle, Gray)
	}
	if c.Has(DepthSingle) || c.Allows(ModeDepth) {
		t.Errorf("[8,8,1] must not offer depth")
	}
	if c.Image.Width != 8 || c.Image.Height != 8 || c.Image.Channels != 1 {
		t.Errorf("geometry: got %+v", c.Image)
	}
}

func TestClassifyDepthBatchGeometry(t *testing.T) {
	c, err := Classify(Shape{5, 6, 7})
	if err != nil {
		t.Fatal(err)
	}
	want := Interpretation{Kind: DepthBatch, Width: 7, Height: 6, Frames: 5, Channels: 1}
	if diff := cmp.Diff(want, c.Depth); diff != "" {
		t.Errorf("depth mismatch (-want +got):\n%s", diff)
	}
	if c.Table.Height != 5 || c.Table.Width != 6 {
		t.Errorf("table preview: got %dx%d, want 5x6", c.Table.Height, c.Table.Width)
	}
}

func TestClassifyModes(t *testing.T) {
	tests := []struct {
		shape Shape
		want  []Mode
	}{
		{nil, []Mode{ModeMatrix}},
		{Shape{3}, []Mode{ModeMatrix}},
		{Shape{4, 4}, []Mode{ModeMatrix, ModeDepth}},
		{Shape{8, 8, 3}, []Mode{ModeMatrix, ModeImage}},
		{Shape{2, 3, 4, 5, 6}, []Mode{ModeMatrix}},
	}
	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			c, err := Classify(tt.shape)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, c.Modes()); diff != "" {
				t.Errorf("Modes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	s := Shape{3, 8, 8, 4}
	a, err := Classify(s)
	if err != nil {
		t.Fatal(err)
	}
	s[0] = 99
	b, err := Classify(Shape{3, 8, 8, 4})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("classification changed (-first +second):\n%s", diff)
	}
}

func TestClassifyEmptyAxes(t *testing.T) {
	c, err := Classify(Shape{0, 8, 8, 3})
	if err != nil {
		t.Fatalf("empty batch must classify: %v", err)
	}
	if c.Image.Frames != 0 {
		t.Errorf("frames: got %d, want 0", c.Image.Frames)
	}
}

func TestClassifyNegative(t *testing.T) {
	_, err := Classify(Shape{4, -2})
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *ShapeError", err)
	}
}

func TestResolveImage(t *testing.T) {
	tests := []struct {
		shape  Shape
		ok     bool
		label  string
		layout ImageLayout
	}{
		{Shape{4, 5}, true, "gray", ImageLayout{Width: 5, Height: 4, Channels: 1, Frames: 1, Color: Gray}},
		{Shape{4, 5, 1}, true, "gray", ImageLayout{Width: 5, Height: 4, Channels: 1, Frames: 1, Color: Gray}},
		{Shape{4, 5, 3}, true, "rgb", ImageLayout{Width: 5, Height: 4, Channels: 3, Frames: 1, Color: RGB}},
		{Shape{6, 4, 5}, true, "seq-gray", ImageLayout{Width: 5, Height: 4, Channels: 1, Frames: 6, Batched: true, Color: Gray}},
		{Shape{2, 4, 5, 3}, true, "seq-rgb", ImageLayout{Width: 5, Height: 4, Channels: 3, Frames: 2, Batched: true, Color: RGB}},
		{Shape{2, 4, 5, 4}, false, "", ImageLayout{}},
		{Shape{2, 4, 5, 2}, false, "", ImageLayout{}},
		{Shape{7}, false, "", ImageLayout{}},
		{Shape{1, 2, 3, 4, 3}, false, "", ImageLayout{}},
	}
	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			got, ok := ResolveImage(tt.shape)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Label() != tt.label {
				t.Errorf("label: got %q, want %q", got.Label(), tt.label)
			}
			if diff := cmp.Diff(tt.layout, got); diff != "" {
				t.Errorf("layout mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeMatrix, ModeImage, ModeDepth} {
		got, ok := ParseMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseMode(%q): got %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseMode("hologram"); ok {
		t.Errorf("ParseMode accepted an unknown mode")
	}
}
