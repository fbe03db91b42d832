// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcode

import (
	"errors"
	"fmt"
)

// Kind classifies a per-file conversion failure.
type Kind string

const (
	// KindContainerUnreadable: the input is missing, truncated, or not a HEIF container.
	KindContainerUnreadable Kind = "container_unreadable"
	// KindNoPrimaryImage: the container designates no primary image.
	KindNoPrimaryImage Kind = "no_primary_image"
	// KindDecodeFailed: the decoder rejected the image data.
	KindDecodeFailed Kind = "decode_failed"
	// KindCannotCreateOutput: the output file could not be created.
	KindCannotCreateOutput Kind = "cannot_create_output"
	// KindEncodeFailed: encoding, flushing, or finalizing the JPEG failed.
	KindEncodeFailed Kind = "encode_failed"
)

// IsDecode reports whether k belongs to the decode stage.
func (k Kind) IsDecode() bool {
	switch k {
	case KindContainerUnreadable, KindNoPrimaryImage, KindDecodeFailed:
		return true
	}
	return false
}

// Error is a per-file conversion failure. It never aborts a batch.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

// NewError wraps err with a kind and the offending path.
func NewError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
