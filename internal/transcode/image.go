// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcode

import (
	"fmt"
	"image"
)

// bytesPerPixel is fixed: interleaved 8-bit RGB, no alpha.
const bytesPerPixel = 3

// DecodedImage is raw interleaved RGB pixel data. Row r starts at
// Pix[r*Stride]; only the first Width*3 bytes of each row are pixels, the
// rest of the stride is padding.
type DecodedImage struct {
	Width  int
	Height int
	Stride int
	Pix    []byte

	release func()
}

// NewDecodedImage wraps a pixel buffer. release, if non-nil, is called once
// by Release to free decoder-owned resources.
func NewDecodedImage(width, height, stride int, pix []byte, release func()) *DecodedImage {
	return &DecodedImage{
		Width:   width,
		Height:  height,
		Stride:  stride,
		Pix:     pix,
		release: release,
	}
}

// Release frees decoder resources backing the image. It is safe to call on
// a nil image and more than once.
func (d *DecodedImage) Release() {
	if d == nil {
		return
	}
	if d.release != nil {
		d.release()
		d.release = nil
	}
	d.Pix = nil
}

// Validate checks the stride invariant and that every row fits in Pix.
func (d *DecodedImage) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", d.Width, d.Height)
	}
	rowBytes := d.Width * bytesPerPixel
	if d.Stride < rowBytes {
		return fmt.Errorf("stride %d shorter than row of %d bytes", d.Stride, rowBytes)
	}
	need := (d.Height-1)*d.Stride + rowBytes
	if len(d.Pix) < need {
		return fmt.Errorf("pixel buffer holds %d bytes, need %d", len(d.Pix), need)
	}
	return nil
}

// scanlines copies rows 0..Height-1 top to bottom into an RGBA image the
// JPEG encoder can consume, reading exactly Width*3 bytes from
// Pix[row*Stride] for each row. Alpha is set opaque.
func (d *DecodedImage) scanlines() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	rowBytes := d.Width * bytesPerPixel
	for y := 0; y < d.Height; y++ {
		src := d.Pix[y*d.Stride : y*d.Stride+rowBytes]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+d.Width*4]
		for x := 0; x < d.Width; x++ {
			out[x*4+0] = src[x*3+0]
			out[x*4+1] = src[x*3+1]
			out[x*4+2] = src[x*3+2]
			out[x*4+3] = 0xff
		}
	}
	return dst
}
