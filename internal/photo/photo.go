// Package photo turns uploaded equipment photos into stored thumbnails.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxSide bounds both sides of a stored thumbnail.
const MaxSide = 512

// MaxUpload is the largest accepted upload in bytes.
const MaxUpload = 10 << 20

// Quality is the JPEG quality of stored thumbnails.
const Quality = 80

// ContentType is the type of every stored thumbnail.
const ContentType = "image/jpeg"

var (
	// ErrUnsupported is returned for uploads that are not JPEG or PNG.
	ErrUnsupported = errors.New("unsupported image format")
	// ErrTooLarge is returned for uploads over MaxUpload.
	ErrTooLarge = errors.New("image too large")
)

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Thumbnail reads an upload, checks its format from the content itself,
// shrinks it to fit MaxSide and re-encodes it as JPEG.
func Thumbnail(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxUpload {
		return nil, ErrTooLarge
	}
	if ct := http.DetectContentType(data); !accepted[ct] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), MaxSide)

	// JPEG has no alpha; transparent PNG areas become white.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return out.Bytes(), nil
}

// fit scales w x h down to fit within side x side, keeping the aspect ratio.
// Images already within bounds keep their size.
func fit(w, h, side int) (int, int) {
	if w <= side && h <= side {
		return w, h
	}
	if w >= h {
		return side, clamp(h * side / w)
	}
	return clamp(w * side / h), side
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
