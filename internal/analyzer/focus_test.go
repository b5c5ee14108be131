package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func page(w, h int, blocks ...image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, r := range blocks {
		draw.Draw(img, r, image.NewUniform(color.RGBA{R: 20, G: 40, B: 90, A: 255}), image.Point{}, draw.Src)
	}
	return img
}

func near(a, b, tol int) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestFocusFindsContent(t *testing.T) {
	block := image.Rect(300, 200, 600, 500)
	img := page(1000, 800, block)

	box, ok := NewFocus().Box(img)
	if !ok {
		t.Fatal("expected content on the page")
	}

	// 1000px page on a 256px thumbnail: a few source pixels per cell
	tol := 32
	if !near(box.Min.X, block.Min.X, tol) || !near(box.Min.Y, block.Min.Y, tol) ||
		!near(box.Max.X, block.Max.X, tol) || !near(box.Max.Y, block.Max.Y, tol) {
		t.Errorf("box %v too far from block %v", box, block)
	}
}

func TestFocusUnionOfBlocks(t *testing.T) {
	img := page(400, 300, image.Rect(20, 30, 80, 90), image.Rect(300, 200, 380, 280))

	box, ok := NewFocus().Box(img)
	if !ok {
		t.Fatal("expected content")
	}
	if box.Min.X > 25 || box.Min.Y > 35 || box.Max.X < 375 || box.Max.Y < 275 {
		t.Errorf("box %v should cover both blocks", box)
	}
}

func TestFocusIgnoresSpecks(t *testing.T) {
	img := page(400, 400, image.Rect(10, 10, 11, 11))

	box, ok := NewFocus().Box(img)
	if ok {
		t.Errorf("speck should not count as content, got %v", box)
	}
	if box != img.Bounds() {
		t.Errorf("blank page should give its bounds, got %v", box)
	}
}

func TestFocusOffsetBounds(t *testing.T) {
	img := page(300, 300, image.Rect(100, 100, 200, 200)).SubImage(image.Rect(50, 50, 300, 300))

	box, ok := NewFocus().Box(img)
	if !ok {
		t.Fatal("expected content")
	}
	if !box.In(img.Bounds()) {
		t.Errorf("box %v outside %v", box, img.Bounds())
	}
	if !near(box.Min.X, 100, 6) || !near(box.Max.Y, 200, 6) {
		t.Errorf("unexpected box %v", box)
	}
}
