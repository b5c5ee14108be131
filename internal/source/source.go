package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Source is a paged backdrop: brochure PDF pages or a directory of images.
// A chapter's sheet index selects the page shown behind it in the preview.
type Source interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks the source type by path: *.pdf goes through MuPDF, anything
// else is treated as an image file or directory.
func Open(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	src, err := NewImageSource(path)
	if err != nil {
		return nil, err
	}
	if src.PageCount() == 0 {
		return nil, fmt.Errorf("no images in %s", path)
	}
	return src, nil
}

// Backdrops renders each page at most once. Render workers asking for the
// same page concurrently share one render.
type Backdrops struct {
	src   Source
	dpi   int
	group singleflight.Group

	mu    sync.RWMutex
	pages map[int]image.Image
}

func NewBackdrops(src Source, dpi int) *Backdrops {
	return &Backdrops{src: src, dpi: dpi, pages: make(map[int]image.Image)}
}

// Page returns the rendered page. Out-of-range indices wrap around so a
// short brochure still gives every chapter a backdrop.
func (b *Backdrops) Page(index int) (image.Image, error) {
	if b == nil || b.src == nil || b.src.PageCount() == 0 {
		return nil, nil
	}
	index = ((index % b.src.PageCount()) + b.src.PageCount()) % b.src.PageCount()

	b.mu.RLock()
	img, ok := b.pages[index]
	b.mu.RUnlock()
	if ok {
		return img, nil
	}

	v, err, _ := b.group.Do(fmt.Sprint(index), func() (interface{}, error) {
		img, err := b.src.RenderPage(index, b.dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", index, err)
		}
		b.mu.Lock()
		b.pages[index] = img
		b.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (b *Backdrops) Close() error {
	if b == nil || b.src == nil {
		return nil
	}
	return b.src.Close()
}
