// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package libheif decodes HEIC files through the libheif C library.
// Building it requires cgo and the libheif headers and shared library
// (e.g. `brew install libheif` or `apt install libheif-dev`).
package libheif

import (
	"errors"
	"fmt"

	"github.com/strukturag/libheif/go/heif"

	"github.com/pdiddy/heic2jpg/internal/transcode"
)

// Decoder implements transcode.Decoder. It is stateless; each Decode call
// allocates and owns its own libheif context.
type Decoder struct{}

// New returns a libheif-backed decoder.
func New() *Decoder {
	return &Decoder{}
}

// decodeSession holds the libheif objects for one Decode call. The Go
// binding frees the underlying C objects from finalizers, so release drops
// every reference at once and makes them collectable together.
type decodeSession struct {
	ctx    *heif.Context
	handle *heif.ImageHandle
	img    *heif.Image
}

func (s *decodeSession) release() {
	s.img = nil
	s.handle = nil
	s.ctx = nil
}

// Decode reads the primary image of the HEIC container at path and decodes
// it to 8-bit interleaved RGB without alpha.
func (d *Decoder) Decode(path string) (*transcode.DecodedImage, error) {
	s := &decodeSession{}
	ok := false
	defer func() {
		if !ok {
			s.release()
		}
	}()

	var err error
	if s.ctx, err = heif.NewContext(); err != nil {
		return nil, transcode.NewError(transcode.KindContainerUnreadable, path,
			fmt.Errorf("allocating heif context: %w", err))
	}

	if err := s.ctx.ReadFromFile(path); err != nil {
		return nil, transcode.NewError(transcode.KindContainerUnreadable, path,
			fmt.Errorf("reading heif file: %w", err))
	}

	if s.handle, err = s.ctx.GetPrimaryImageHandle(); err != nil {
		return nil, transcode.NewError(transcode.KindNoPrimaryImage, path,
			fmt.Errorf("getting primary image handle: %w", err))
	}
	if s.handle == nil {
		return nil, transcode.NewError(transcode.KindNoPrimaryImage, path, errNoHandle)
	}

	if s.img, err = s.handle.DecodeImage(heif.ColorspaceRGB, heif.ChromaInterleavedRGB, nil); err != nil {
		return nil, transcode.NewError(transcode.KindDecodeFailed, path,
			fmt.Errorf("decoding image: %w", err))
	}

	plane, err := s.img.GetPlane(heif.ChannelInterleaved)
	if err != nil {
		return nil, transcode.NewError(transcode.KindDecodeFailed, path,
			fmt.Errorf("reading interleaved plane: %w", err))
	}

	width := s.img.GetWidth(heif.ChannelInterleaved)
	height := s.img.GetHeight(heif.ChannelInterleaved)

	ok = true
	return transcode.NewDecodedImage(width, height, plane.Stride, plane.Plane, s.release), nil
}

var errNoHandle = errors.New("container has no primary image")
