package fs

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSavePNGOverwrites(t *testing.T) {
	dir := t.TempDir()

	first, err := SavePNG(dir, "infographic.png", solid(4, 4, color.White))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(first))

	second, err := SavePNG(dir, "infographic.png", solid(8, 3, color.Black))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	f, err := os.Open(second)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Width)
	assert.Equal(t, 3, cfg.Height)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSavePNGMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	_, err := SavePNG(dir, "infographic.png", solid(1, 1, color.White))
	require.Error(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "directory must not be created")
}

func TestSavePNGPathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := SavePNG(file, "infographic.png", solid(1, 1, color.White))
	assert.Error(t, err)
}
