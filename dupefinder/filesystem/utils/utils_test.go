package utils

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want types.MediaKind
	}{
		{"/p/a.jpg", types.KindImage},
		{"/p/a.JPEG", types.KindImage},
		{"/p/a.Png", types.KindImage},
		{"/p/a.gif", types.KindImage},
		{"/p/a.webp", types.KindImage},
		{"/p/clip.mp4", types.KindVideo},
		{"/p/clip.MOV", types.KindVideo},
		{"/p/clip.mkv", types.KindVideo},
		{"/p/clip.avi", types.KindVideo},
		{"/p/notes.txt", ""},
		{"/p/raw.heic", ""},
		{"/p/jpg", ""},
		{"/p/.jpg", types.KindImage},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
			assert.Equal(t, tt.want != "", IsMedia(tt.path))
		})
	}
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t,
		[]string{".avi", ".gif", ".jpeg", ".jpg", ".mkv", ".mov", ".mp4", ".png", ".webp"},
		SupportedExtensions())
}

func TestCaptureTimeWithoutExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.png")

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	_, ok := CaptureTime(path)
	assert.False(t, ok)

	_, ok = CaptureTime(filepath.Join(dir, "missing.jpg"))
	assert.False(t, ok)
}
