package camera

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJPEG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 95}))
}

func TestFileCapturerCyclesFrames(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "01.jpg"), color.RGBA{R: 200, G: 30, B: 30, A: 255})
	writeJPEG(t, filepath.Join(dir, "02.jpeg"), color.RGBA{R: 30, G: 30, B: 200, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notas.txt"), []byte("x"), 0o644))

	c, err := NewFileCapturer(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	f, err := NewFrameBuffer(8, 6)
	require.NoError(t, err)

	ctx := context.Background()
	expected := [][3]int{{200, 30, 30}, {30, 30, 200}, {200, 30, 30}}
	for i, want := range expected {
		require.NoError(t, c.Capture(ctx, f))
		assert.Equal(t, uint64(i+1), f.Seq)

		r, g, b := f.At(4, 3)
		assert.InDelta(t, want[0], int(r), 12)
		assert.InDelta(t, want[1], int(g), 12)
		assert.InDelta(t, want[2], int(b), 12)
	}
}

func TestFileCapturerEmptyDir(t *testing.T) {
	_, err := NewFileCapturer(t.TempDir())
	assert.ErrorIs(t, err, ErrNoFrames)

	_, err = NewFileCapturer(filepath.Join(t.TempDir(), "no-existe"))
	assert.Error(t, err)
}

func TestPatternCapturerRotates(t *testing.T) {
	c := NewPatternCapturer([3]uint8{1, 2, 3}, [3]uint8{4, 5, 6})
	f, err := NewFrameBuffer(2, 2)
	require.NoError(t, err)

	require.NoError(t, c.Capture(context.Background(), f))
	r, g, b := f.At(1, 1)
	assert.Equal(t, [3]uint8{1, 2, 3}, [3]uint8{r, g, b})

	require.NoError(t, c.Capture(context.Background(), f))
	r, g, b = f.At(0, 0)
	assert.Equal(t, [3]uint8{4, 5, 6}, [3]uint8{r, g, b})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Capture(ctx, f), context.Canceled)
}
