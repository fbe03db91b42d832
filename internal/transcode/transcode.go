// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcode converts one HEIC file into one JPEG file.
//
// Decoding sits behind the Decoder interface (see the libheif subpackage);
// encoding uses imaging's baseline JPEG encoder. Output is written to a
// temporary file in the output directory and renamed into place only after
// the encoder has been flushed and the file closed, so a crash never leaves
// a truncated <stem>.jpg behind.
package transcode

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/pdiddy/heic2jpg/pkg/types"
)

const (
	// jpegExt is appended to the stem of every output file.
	jpegExt = ".jpg"
	// partSuffix marks in-progress output files.
	partSuffix = ".part"
)

// Decoder turns a HEIC file into raw interleaved RGB pixels. Implementations
// must release everything they acquired before returning an error, and
// return errors as *Error with a decode Kind.
type Decoder interface {
	Decode(path string) (*DecodedImage, error)
}

// Transcoder converts single files. It holds no per-file state, so one
// Transcoder may serve any number of sequential or concurrent conversions.
type Transcoder struct {
	decoder Decoder
}

// New returns a Transcoder that decodes with d.
func New(d Decoder) *Transcoder {
	return &Transcoder{decoder: d}
}

// Convert decodes req.InputPath and writes <req.OutputDir>/<stem>.jpg at
// req.Quality. Quality is passed to the encoder unvalidated. Every resource
// acquired along the way is released on every return path.
func (t *Transcoder) Convert(req types.ConversionRequest) types.ConversionOutcome {
	outcome := types.ConversionOutcome{InputPath: req.InputPath}

	outPath, err := t.convert(req)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.OutputPath = outPath
	outcome.Succeeded = true
	return outcome
}

func (t *Transcoder) convert(req types.ConversionRequest) (string, error) {
	img, err := t.decoder.Decode(req.InputPath)
	if err != nil {
		if KindOf(err) == "" {
			err = NewError(KindDecodeFailed, req.InputPath, err)
		}
		return "", err
	}
	defer img.Release()

	if err := img.Validate(); err != nil {
		return "", NewError(KindDecodeFailed, req.InputPath, err)
	}

	outPath := OutputPath(req.InputPath, req.OutputDir)
	if err := writeJPEG(img, outPath, req.Quality); err != nil {
		return "", err
	}
	return outPath, nil
}

// OutputPath derives the JPEG path for inputPath: the base name with its
// extension (from the last ".") replaced by ".jpg", joined with outputDir.
// A base name without "." is used whole as the stem.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := base
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		stem = base[:i]
	}
	return filepath.Join(outputDir, stem+jpegExt)
}

// writeJPEG encodes img into a temporary sibling of outPath and renames it
// over outPath once the file is complete. An existing outPath is replaced.
func writeJPEG(img *DecodedImage, outPath string, quality int) (err error) {
	tmpPath := filepath.Join(filepath.Dir(outPath), "."+uuid.NewString()+partSuffix)

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return NewError(KindCannotCreateOutput, outPath, err)
	}
	defer func() {
		if f != nil {
			f.Close()
		}
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(f)
	if err := imaging.Encode(w, img.scanlines(), imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return NewError(KindEncodeFailed, outPath, fmt.Errorf("encoding jpeg: %w", err))
	}
	if err := w.Flush(); err != nil {
		return NewError(KindEncodeFailed, outPath, fmt.Errorf("flushing jpeg: %w", err))
	}

	closeErr := f.Close()
	f = nil
	if closeErr != nil {
		return NewError(KindEncodeFailed, outPath, fmt.Errorf("closing output: %w", closeErr))
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return NewError(KindEncodeFailed, outPath, fmt.Errorf("finalizing output: %w", err))
	}
	return nil
}

// IsPartial reports whether name is an in-progress output file, i.e.
// ".<uuid>.part". Only names of exactly that shape match, so user files in
// the output directory are never mistaken for one.
func IsPartial(name string) bool {
	id, ok := strings.CutPrefix(name, ".")
	if !ok {
		return false
	}
	id, ok = strings.CutSuffix(id, partSuffix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// RemovePartials deletes in-progress output files left in dir by an
// interrupted run and returns how many were removed.
func RemovePartials(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading output directory %s: %w", dir, err)
	}
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsPartial(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("removing stale %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}
