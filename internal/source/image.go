package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ivlev/airtour/internal/system"
)

// ImageSource serves brochure sheets exported as pictures: one file, or
// every jpg/png of a folder in name order.
type ImageSource struct {
	sheets []string
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("image source: %w", err)
	}
	if !fi.IsDir() {
		return &ImageSource{sheets: []string{path}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("image source: %w", err)
	}
	var sheets []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.Type().IsRegular() && slices.Contains(system.ImageExtensions, ext) {
			sheets = append(sheets, filepath.Join(path, e.Name()))
		}
	}
	slices.Sort(sheets)
	return &ImageSource{sheets: sheets}, nil
}

func (s *ImageSource) PageCount() int { return len(s.sheets) }

func (s *ImageSource) GetPageDimensions(index int) (float64, float64, error) {
	var cfg image.Config
	err := s.with(index, func(f *os.File) (err error) {
		cfg, _, err = image.DecodeConfig(f)
		return err
	})
	return float64(cfg.Width), float64(cfg.Height), err
}

// RenderPage decodes the sheet; pictures have no DPI
func (s *ImageSource) RenderPage(index int, _ int) (image.Image, error) {
	var img image.Image
	err := s.with(index, func(f *os.File) (err error) {
		img, _, err = image.Decode(f)
		return err
	})
	return img, err
}

func (s *ImageSource) Close() error { return nil }

func (s *ImageSource) with(index int, fn func(*os.File) error) error {
	if index < 0 || index >= len(s.sheets) {
		return fmt.Errorf("sheet %d out of range [0, %d)", index, len(s.sheets))
	}
	f, err := os.Open(s.sheets[index])
	if err != nil {
		return err
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(s.sheets[index]), err)
	}
	return nil
}
