// Package export turns rendered frames into encoded images for display
// surfaces: PNG, TIFF or BMP, optionally upscaled with nearest-neighbour
// sampling, shrunk to a thumbnail, or extended with a depth legend strip.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Format is an output image encoding.
type Format string

const (
	PNG  Format = "png"
	TIFF Format = "tiff"
	BMP  Format = "bmp"
)

// ErrFormat is returned for an unknown format name.
var ErrFormat = errors.New("unknown image format")

// ParseFormat parses a format name. The empty string selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return PNG, nil
	case "tiff", "tif":
		return TIFF, nil
	case "bmp":
		return BMP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case TIFF:
		return "image/tiff"
	case BMP:
		return "image/bmp"
	}
	return "image/png"
}

// Ext returns the file extension of f, with the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case BMP:
		err = bmp.Encode(w, img)
	case PNG:
		err = png.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrFormat, f)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f, err)
	}
	return nil
}

// Scale enlarges img by factor k using nearest-neighbour sampling, so every
// source pixel becomes a k*k block. k is reduced until the longer edge fits
// in maxEdge; maxEdge <= 0 means no cap. Factors below 2 return img as is.
func Scale(img image.Image, k, maxEdge int) image.Image {
	b := img.Bounds()
	edge := max(b.Dx(), b.Dy())
	if maxEdge > 0 && edge > 0 {
		k = min(k, maxEdge/edge)
	}
	if k < 2 || edge == 0 {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*k, b.Dy()*k))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Thumbnail shrinks img to fit in a size*size box, keeping the aspect
// ratio. Images already inside the box are returned unchanged.
func Thumbnail(img image.Image, size int) image.Image {
	if size <= 0 {
		return img
	}
	return resize.Thumbnail(uint(size), uint(size), img, resize.NearestNeighbor)
}

// Options controls Write.
type Options struct {
	Format    Format
	Scale     int
	MaxEdge   int
	Thumbnail int     // box edge; 0 disables
	Legend    *Legend // depth frames only
}

// Write applies the thumbnail or scale step, then the legend, and encodes
// the result. A thumbnail request takes precedence over scaling.
func Write(w io.Writer, img image.Image, opts Options) error {
	if opts.Format == "" {
		opts.Format = PNG
	}
	if opts.Thumbnail > 0 {
		img = Thumbnail(img, opts.Thumbnail)
	} else {
		img = Scale(img, opts.Scale, opts.MaxEdge)
	}
	if opts.Legend != nil {
		img = opts.Legend.Append(img)
	}
	return Encode(w, img, opts.Format)
}
