// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcode

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/heic2jpg/pkg/types"
)

// fakeDecoder returns a solid-color image or a configured error, and counts
// how many images it handed out and how many were released.
type fakeDecoder struct {
	width, height, pad int
	rgb                [3]byte
	padByte            byte
	err                error
	corruptStride      bool

	decoded  int
	released int
}

func (f *fakeDecoder) Decode(path string) (*DecodedImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	stride := f.width*3 + f.pad
	pix := make([]byte, stride*f.height)
	for y := 0; y < f.height; y++ {
		row := pix[y*stride : (y+1)*stride]
		for x := 0; x < f.width; x++ {
			copy(row[x*3:], f.rgb[:])
		}
		for i := f.width * 3; i < stride; i++ {
			row[i] = f.padByte
		}
	}
	if f.corruptStride {
		stride = f.width*3 - 1
	}
	f.decoded++
	return NewDecodedImage(f.width, f.height, stride, pix, func() { f.released++ }), nil
}

func red(w, h int) *fakeDecoder {
	return &fakeDecoder{width: w, height: h, rgb: [3]byte{220, 20, 20}}
}

func convertOne(t *testing.T, d Decoder, outDir string, quality int) types.ConversionOutcome {
	t.Helper()
	return New(d).Convert(types.ConversionRequest{
		InputPath: filepath.Join("Photos", "IMG_0001.HEIC"),
		OutputDir: outDir,
		Quality:   quality,
	})
}

func assertNoPartials(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, IsPartial(e.Name()), "leftover temp file %s", e.Name())
	}
}

func TestConvert_RoundTripDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"10x10", 10, 10},
		{"wide", 37, 5},
		{"tall", 3, 41},
		{"single pixel", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := t.TempDir()
			dec := red(tt.width, tt.height)

			outcome := convertOne(t, dec, outDir, 90)
			require.True(t, outcome.Succeeded, "err: %v", outcome.Err)
			assert.Equal(t, filepath.Join(outDir, "IMG_0001.jpg"), outcome.OutputPath)
			assert.NoError(t, outcome.Err)

			img, err := imaging.Open(outcome.OutputPath)
			require.NoError(t, err)
			assert.Equal(t, tt.width, img.Bounds().Dx())
			assert.Equal(t, tt.height, img.Bounds().Dy())

			assert.Equal(t, 1, dec.released)
			assertNoPartials(t, outDir)
		})
	}
}

func TestConvert_IgnoresStridePadding(t *testing.T) {
	outDir := t.TempDir()
	dec := &fakeDecoder{width: 16, height: 16, pad: 13, rgb: [3]byte{200, 0, 0}, padByte: 0xff}

	outcome := convertOne(t, dec, outDir, 100)
	require.True(t, outcome.Succeeded, "err: %v", outcome.Err)

	img, err := imaging.Open(outcome.OutputPath)
	require.NoError(t, err)
	r, g, b, _ := img.At(8, 8).RGBA()
	assert.InDelta(t, 200, r>>8, 12)
	assert.InDelta(t, 0, g>>8, 12)
	assert.InDelta(t, 0, b>>8, 12)
}

func TestConvert_QualityBounds(t *testing.T) {
	for _, q := range []int{1, 100} {
		outDir := t.TempDir()
		outcome := convertOne(t, red(10, 10), outDir, q)
		require.True(t, outcome.Succeeded, "quality %d: %v", q, outcome.Err)

		info, err := os.Stat(outcome.OutputPath)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), "quality %d produced an empty file", q)

		_, err = imaging.Open(outcome.OutputPath)
		assert.NoError(t, err, "quality %d produced an unreadable jpeg", q)
	}
}

func TestConvert_HigherQualityIsLarger(t *testing.T) {
	// A gradient compresses differently at each quality; a solid fill would not.
	gradient := func(path string) (*DecodedImage, error) {
		pix := make([]byte, 64*64*3)
		for i := range pix {
			pix[i] = byte(i * 7)
		}
		return NewDecodedImage(64, 64, 64*3, pix, nil), nil
	}

	sizes := map[int]int64{}
	for _, q := range []int{10, 95} {
		outDir := t.TempDir()
		outcome := New(decoderFunc(gradient)).Convert(types.ConversionRequest{
			InputPath: "g.heic", OutputDir: outDir, Quality: q,
		})
		require.True(t, outcome.Succeeded, "err: %v", outcome.Err)
		info, err := os.Stat(outcome.OutputPath)
		require.NoError(t, err)
		sizes[q] = info.Size()
	}
	assert.Greater(t, sizes[95], sizes[10])
}

func TestConvert_OverwritesExisting(t *testing.T) {
	outDir := t.TempDir()
	target := filepath.Join(outDir, "IMG_0001.jpg")
	require.NoError(t, os.WriteFile(target, []byte("stale"), 0o644))

	for i := 0; i < 2; i++ {
		outcome := convertOne(t, red(10, 10), outDir, 80)
		require.True(t, outcome.Succeeded, "run %d: %v", i, outcome.Err)
	}

	_, err := imaging.Open(target)
	assert.NoError(t, err, "existing file should be replaced with a valid jpeg")
	assertNoPartials(t, outDir)
}

func TestConvert_DecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
	}{
		{
			name:     "unreadable container",
			err:      NewError(KindContainerUnreadable, "Photos/IMG_0001.HEIC", errors.New("truncated")),
			wantKind: KindContainerUnreadable,
		},
		{
			name:     "no primary image",
			err:      NewError(KindNoPrimaryImage, "Photos/IMG_0001.HEIC", nil),
			wantKind: KindNoPrimaryImage,
		},
		{
			name:     "untyped decoder error",
			err:      errors.New("unsupported bit depth"),
			wantKind: KindDecodeFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := t.TempDir()
			outcome := convertOne(t, &fakeDecoder{err: tt.err}, outDir, 90)

			assert.False(t, outcome.Succeeded)
			assert.Empty(t, outcome.OutputPath)
			require.Error(t, outcome.Err)
			assert.Equal(t, tt.wantKind, KindOf(outcome.Err))
			assert.True(t, KindOf(outcome.Err).IsDecode())

			entries, err := os.ReadDir(outDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "no output should be written on decode failure")
		})
	}
}

func TestConvert_InvalidStrideReleasesImage(t *testing.T) {
	outDir := t.TempDir()
	dec := red(10, 10)
	dec.corruptStride = true

	outcome := convertOne(t, dec, outDir, 90)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, KindDecodeFailed, KindOf(outcome.Err))
	assert.Equal(t, 1, dec.released)
}

func TestConvert_CannotCreateOutput(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	dec := red(10, 10)

	outcome := convertOne(t, dec, missing, 90)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, KindCannotCreateOutput, KindOf(outcome.Err))
	assert.False(t, KindOf(outcome.Err).IsDecode())
	assert.ErrorIs(t, outcome.Err, os.ErrNotExist)
	assert.Equal(t, 1, dec.released, "decoded image must be released when output creation fails")
}

func TestConvert_RenameFailureCleansUp(t *testing.T) {
	outDir := t.TempDir()
	// A directory squatting on the output name makes the final rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(outDir, "IMG_0001.jpg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "IMG_0001.jpg", "keep"), []byte("x"), 0o644))
	dec := red(4, 4)

	outcome := convertOne(t, dec, outDir, 90)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, KindEncodeFailed, KindOf(outcome.Err))
	assert.Equal(t, 1, dec.released)
	assertNoPartials(t, outDir)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		outDir string
		want   string
	}{
		{"upper case extension", "Photos/IMG_0001.HEIC", "output", filepath.Join("output", "IMG_0001.jpg")},
		{"lower case extension", "Photos/beach.heic", "output", filepath.Join("output", "beach.jpg")},
		{"multiple dots", "Photos/2024.06.01.Heic", "output", filepath.Join("output", "2024.06.01.jpg")},
		{"no extension", "Photos/README", "output", filepath.Join("output", "README.jpg")},
		{"bare file name", "IMG_0002.HEIC", "out", filepath.Join("out", "IMG_0002.jpg")},
		{"dot file", "Photos/.heic", "output", filepath.Join("output", ".jpg")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputPath(tt.input, tt.outDir))
		})
	}
}

func TestDecodedImage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		img     *DecodedImage
		wantErr string
	}{
		{"tight rows", NewDecodedImage(2, 2, 6, make([]byte, 12), nil), ""},
		{"padded rows", NewDecodedImage(2, 2, 8, make([]byte, 16), nil), ""},
		{"last row unpadded", NewDecodedImage(2, 2, 8, make([]byte, 14), nil), ""},
		{"zero width", NewDecodedImage(0, 2, 8, make([]byte, 16), nil), "invalid dimensions"},
		{"short stride", NewDecodedImage(2, 2, 5, make([]byte, 16), nil), "stride"},
		{"short buffer", NewDecodedImage(2, 2, 8, make([]byte, 13), nil), "pixel buffer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.img.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodedImage_ReleaseOnce(t *testing.T) {
	calls := 0
	img := NewDecodedImage(1, 1, 3, make([]byte, 3), func() { calls++ })
	img.Release()
	img.Release()
	assert.Equal(t, 1, calls)
	assert.Nil(t, img.Pix)

	var nilImg *DecodedImage
	assert.NotPanics(t, nilImg.Release)
}

func TestError_Format(t *testing.T) {
	err := NewError(KindDecodeFailed, "Photos/a.heic", errors.New("corrupt bitstream"))
	assert.Equal(t, "Photos/a.heic: decode_failed: corrupt bitstream", err.Error())

	bare := NewError(KindNoPrimaryImage, "Photos/b.heic", nil)
	assert.Equal(t, "Photos/b.heic: no_primary_image", bare.Error())

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

// decoderFunc adapts a function to the Decoder interface.
type decoderFunc func(path string) (*DecodedImage, error)

func (f decoderFunc) Decode(path string) (*DecodedImage, error) { return f(path) }

func TestConvert_LongStem(t *testing.T) {
	outDir := t.TempDir()
	stem := strings.Repeat("a", 240)
	dec := red(4, 4)

	outcome := New(dec).Convert(types.ConversionRequest{
		InputPath: filepath.Join("Photos", stem+".HEIC"),
		OutputDir: outDir,
		Quality:   90,
	})
	require.True(t, outcome.Succeeded, "err: %v", outcome.Err)
	assert.Equal(t, filepath.Join(outDir, stem+".jpg"), outcome.OutputPath)

	_, err := imaging.Open(outcome.OutputPath)
	assert.NoError(t, err)
	assertNoPartials(t, outDir)
}

func TestIsPartial(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".0b6f4c1e-5d2a-4d7e-9a1b-3c2d1e0f9a8b.part", true},
		{"0b6f4c1e-5d2a-4d7e-9a1b-3c2d1e0f9a8b.part", false},
		{".0b6f4c1e-5d2a-4d7e-9a1b-3c2d1e0f9a8b", false},
		{".0b6f4c1e5d2a4d7e9a1b3c2d1e0f9a8b.part", false},
		{".notes.part", false},
		{".part", false},
		{"IMG_0001.jpg", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPartial(tt.name))
		})
	}
}

func TestRemovePartials(t *testing.T) {
	dir := t.TempDir()
	stale := ".0b6f4c1e-5d2a-4d7e-9a1b-3c2d1e0f9a8b.part"
	for _, name := range []string{stale, ".notes.part", "IMG_0001.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	n, err := RemovePartials(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, filepath.Join(dir, stale))
	assert.FileExists(t, filepath.Join(dir, ".notes.part"))
	assert.FileExists(t, filepath.Join(dir, "IMG_0001.jpg"))

	_, err = RemovePartials(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
