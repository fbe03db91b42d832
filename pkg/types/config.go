// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

const (
	// DefaultInputDir is the directory scanned for HEIC files, relative to
	// the working directory.
	DefaultInputDir = "Photos"

	// DefaultOutputDir receives the converted JPEG files.
	DefaultOutputDir = "output"

	// MinQuality and MaxQuality bound the accepted JPEG quality.
	MinQuality = 1
	MaxQuality = 100
)

// RunConfig holds everything a batch run needs. The CLI pins the
// directories to DefaultInputDir and DefaultOutputDir; only Quality comes
// from the user.
type RunConfig struct {
	// InputDir is scanned (non-recursively) for .heic files.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir is created if absent; existing contents are left alone.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Quality is the JPEG quality applied to every file (1-100).
	Quality int `json:"quality" yaml:"quality"`
}

// DefaultRunConfig returns a RunConfig with the fixed directories and no
// quality set.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		InputDir:  DefaultInputDir,
		OutputDir: DefaultOutputDir,
	}
}
