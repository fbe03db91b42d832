// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionRequest describes one HEIC-to-JPEG conversion. The run controller
// builds one per candidate file and hands it to the transcoder by value.
type ConversionRequest struct {
	// InputPath is the HEIC file to read.
	InputPath string `json:"input_path" yaml:"input_path"`

	// OutputDir is the directory that receives <stem>.jpg.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Quality is the JPEG quality (1-100). The transcoder passes it through
	// unvalidated; the run controller validates it before any file is touched.
	Quality int `json:"quality" yaml:"quality"`
}

// ConversionOutcome is the result of converting a single file.
type ConversionOutcome struct {
	// InputPath echoes the request's input path.
	InputPath string `json:"input_path" yaml:"input_path"`

	// OutputPath is the written JPEG; empty unless Succeeded.
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	// Succeeded reports whether OutputPath holds a finalized JPEG.
	Succeeded bool `json:"succeeded" yaml:"succeeded"`

	// Err is the failure cause when Succeeded is false.
	Err error `json:"-" yaml:"-"`
}
