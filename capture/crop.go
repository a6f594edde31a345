package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Asset is a cropped raster ready for staging. Both dimensions are always
// at least 1px. An Asset belongs to exactly one insertion attempt and is
// discarded after staging.
type Asset struct {
	PNG    []byte
	Width  int
	Height int
}

// CaptureError wraps raster decode/crop failures. The caller must retry the
// whole capture; the region selection is not preserved across this failure.
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture: %s: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Crop cuts the DPR-scaled region out of a full-viewport PNG raster. The
// source rectangle is clamped into the raster bounds, so the result always
// has both dimensions >= 1 even for regions hanging off the viewport edge.
func Crop(raster []byte, region Region) (Asset, error) {
	src, err := png.Decode(bytes.NewReader(raster))
	if err != nil {
		return Asset{}, &CaptureError{Op: "decode raster", Err: err}
	}

	b := src.Bounds()
	sx, sy, sw, sh := region.rasterRect(b.Dx(), b.Dy())

	dst := image.NewRGBA(image.Rect(0, 0, sw, sh))
	sr := image.Rect(b.Min.X+sx, b.Min.Y+sy, b.Min.X+sx+sw, b.Min.Y+sy+sh)
	draw.Copy(dst, image.Point{}, src, sr, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Asset{}, &CaptureError{Op: "encode crop", Err: err}
	}

	return Asset{PNG: buf.Bytes(), Width: sw, Height: sh}, nil
}
