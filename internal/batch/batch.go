// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch drives a conversion run: it validates the quality, makes
// sure the output directory exists, scans the input directory, converts
// each candidate, and reports a summary.
//
// Per-file failures are logged and counted but never abort the run or
// change its error result; only setup failures and closing the input
// directory do.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/heic2jpg/internal/scan"
	"github.com/pdiddy/heic2jpg/internal/transcode"
	"github.com/pdiddy/heic2jpg/pkg/types"
)

// QualityPrompt is printed before reading the quality from the user.
const QualityPrompt = "Enter JPEG quality (1-100, recommended 75-95): "

var (
	// ErrInvalidQuality: the quality is not an integer in 1-100.
	ErrInvalidQuality = errors.New("invalid quality value")
	// ErrOutputDir: the output directory does not exist and cannot be created.
	ErrOutputDir = errors.New("cannot create output directory")
	// ErrInputDir: the input directory cannot be opened.
	ErrInputDir = errors.New("cannot open input directory")
)

// Converter converts one file. *transcode.Transcoder implements it.
type Converter interface {
	Convert(req types.ConversionRequest) types.ConversionOutcome
}

// Summary holds the outcome of a batch run. Found counts candidates that
// were attempted, so "nothing to do" and "nothing succeeded" stay distinct.
type Summary struct {
	Found     int
	Converted int
	Failed    int
}

// Total returns the number of files attempted.
func (s Summary) Total() int {
	return s.Converted + s.Failed
}

// HasFailures reports whether any file failed conversion.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// ParseQuality parses s as a base-10 integer quality in 1-100.
// Surrounding whitespace is ignored.
func ParseQuality(s string) (int, error) {
	s = strings.TrimSpace(s)
	q, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidQuality, s)
	}
	if err := ValidateQuality(q); err != nil {
		return 0, err
	}
	return q, nil
}

// ValidateQuality checks that q is within 1-100 inclusive.
func ValidateQuality(q int) error {
	if q < types.MinQuality || q > types.MaxQuality {
		return fmt.Errorf("%w: %d is outside %d-%d", ErrInvalidQuality, q, types.MinQuality, types.MaxQuality)
	}
	return nil
}

// PromptQuality writes QualityPrompt to out and parses the first line read
// from in.
func PromptQuality(in io.Reader, out io.Writer) (int, error) {
	fmt.Fprint(out, QualityPrompt)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return 0, fmt.Errorf("%w: reading input: %w", ErrInvalidQuality, err)
	}
	return ParseQuality(line)
}

// EnsureOutputDir creates dir if it does not exist. An existing directory,
// along with whatever it already contains, is left untouched. The parent
// must already exist.
func EnsureOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: %s exists and is not a directory", ErrOutputDir, dir)
		}
		return nil
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return EnsureOutputDir(dir)
		}
		return fmt.Errorf("%w: %w", ErrOutputDir, err)
	}
	return nil
}

// Run converts every HEIC file in cfg.InputDir into cfg.OutputDir at
// cfg.Quality. Progress and the final summary go to stdout; per-file
// failures and warnings go to stderr.
//
// Run returns an error only when the quality is invalid, a directory cannot
// be prepared, the input directory fails to close, or ctx is cancelled
// between files. Conversion failures are reported through Summary.
func Run(ctx context.Context, cfg types.RunConfig, conv Converter, stdout, stderr io.Writer) (Summary, error) {
	var summary Summary

	if err := ValidateQuality(cfg.Quality); err != nil {
		return summary, err
	}
	fmt.Fprintf(stdout, "Using JPEG quality: %d\n", cfg.Quality)

	if err := EnsureOutputDir(cfg.OutputDir); err != nil {
		return summary, err
	}
	if n, err := transcode.RemovePartials(cfg.OutputDir); err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
	} else if n > 0 {
		fmt.Fprintf(stdout, "Removed %d unfinished file(s) from an earlier run.\n", n)
	}

	scanner, err := scan.Open(cfg.InputDir)
	if err != nil {
		return summary, fmt.Errorf("%w: %w", ErrInputDir, err)
	}

	fmt.Fprintln(stdout, "Converting files...")

	var runErr error
	for path := range scanner.All() {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("run interrupted: %w", err)
			break
		}

		summary.Found++
		outcome := conv.Convert(types.ConversionRequest{
			InputPath: path,
			OutputDir: cfg.OutputDir,
			Quality:   cfg.Quality,
		})
		if outcome.Succeeded {
			summary.Converted++
			fmt.Fprintf(stdout, "converted: %s -> %s\n", path, outcome.OutputPath)
			continue
		}
		summary.Failed++
		fmt.Fprintf(stderr, "failed:    %s (%v)\n", path, outcome.Err)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
	}

	closeErr := scanner.Close()

	report(stdout, cfg.InputDir, summary)

	if runErr != nil {
		return summary, runErr
	}
	return summary, closeErr
}

func report(w io.Writer, inputDir string, s Summary) {
	switch {
	case s.Found == 0:
		fmt.Fprintf(w, "No HEIC files found in the %s directory.\n", inputDir)
	case s.Converted == 0:
		fmt.Fprintf(w, "No photos converted: %d HEIC file(s) failed to convert.\n", s.Failed)
	default:
		fmt.Fprintf(w, "Successfully converted %d photos to JPEG format.\n", s.Converted)
		if s.HasFailures() {
			fmt.Fprintf(w, "%d file(s) failed to convert.\n", s.Failed)
		}
	}
}
