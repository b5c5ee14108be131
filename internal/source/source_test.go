package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	pages   int
	renders atomic.Int32
}

func (c *countingSource) PageCount() int { return c.pages }
func (c *countingSource) GetPageDimensions(int) (float64, float64, error) {
	return 100, 50, nil
}
func (c *countingSource) RenderPage(index int, dpi int) (image.Image, error) {
	c.renders.Add(1)
	return image.NewRGBA(image.Rect(0, 0, 10+index, 10)), nil
}
func (c *countingSource) Close() error { return nil }

func TestBackdropsRenderOnce(t *testing.T) {
	src := &countingSource{pages: 3}
	b := NewBackdrops(src, 72)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := b.Page(1)
			assert.NoError(t, err)
			assert.Equal(t, 11, img.Bounds().Dx())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), src.renders.Load())

	// Sheets past the end wrap around
	img, err := b.Page(4)
	require.NoError(t, err)
	assert.Equal(t, 11, img.Bounds().Dx())
}

func TestNilBackdrops(t *testing.T) {
	var b *Backdrops
	img, err := b.Page(0)
	assert.NoError(t, err)
	assert.Nil(t, img)
	assert.NoError(t, b.Close())
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestOpenImageDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 20, 10)
	writePNG(t, filepath.Join(dir, "a.PNG"), 40, 30)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644)

	src, err := Open(dir)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, 2, src.PageCount())
	w, h, err := src.GetPageDimensions(0)
	require.NoError(t, err)
	assert.Equal(t, 40.0, w)
	assert.Equal(t, 30.0, h)

	_, err = src.RenderPage(5, 0)
	assert.Error(t, err)
}

func TestOpenEmptyDirectory(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}
