package analyzer

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Focus finds where the content of a brochure page is, so the preview
// camera frames the artwork instead of the page margins.
type Focus struct {
	Thumbnail     int     // long side of the working copy, px
	EdgeThreshold float64 // Sobel magnitude that counts as an edge
	Dilate        int     // radius joining nearby edges into one block
	MinArea       float64 // smallest block kept, fraction of the page
}

func NewFocus() *Focus {
	return &Focus{
		Thumbnail:     256,
		EdgeThreshold: 48,
		Dilate:        3,
		MinArea:       0.002,
	}
}

// Box returns the bounding box of all content blocks in img, in img
// coordinates. A blank page gives img.Bounds() and ok == false.
func (f *Focus) Box(img image.Image) (box image.Rectangle, ok bool) {
	b := img.Bounds()
	if b.Empty() {
		return b, false
	}

	gray, scale := f.thumbnail(img)
	edges := sobel(gray, f.EdgeThreshold)
	mask := dilate(edges, f.Dilate)

	minArea := int(f.MinArea * float64(len(mask.Pix)))
	var found image.Rectangle
	for _, rect := range components(mask) {
		if rect.Dx()*rect.Dy() < minArea {
			continue
		}
		found = found.Union(rect)
	}
	if found.Empty() {
		return b, false
	}

	// Back to page coordinates
	box = image.Rect(
		b.Min.X+int(math.Floor(float64(found.Min.X)*scale)),
		b.Min.Y+int(math.Floor(float64(found.Min.Y)*scale)),
		b.Min.X+int(math.Ceil(float64(found.Max.X)*scale)),
		b.Min.Y+int(math.Ceil(float64(found.Max.Y)*scale)),
	)
	return box.Intersect(b), true
}

// thumbnail returns a grayscale copy no larger than f.Thumbnail and the
// factor that maps it back to the source.
func (f *Focus) thumbnail(img image.Image) (*image.Gray, float64) {
	b := img.Bounds()
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}
	scale := 1.0
	if f.Thumbnail > 0 && long > f.Thumbnail {
		scale = float64(long) / float64(f.Thumbnail)
	}

	w := int(math.Max(1, math.Round(float64(b.Dx())/scale)))
	h := int(math.Max(1, math.Round(float64(b.Dy())/scale)))
	gray := image.NewGray(image.Rect(0, 0, w, h))
	if scale == 1 {
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	}
	return gray, float64(b.Dx()) / float64(w)
}

func sobel(gray *image.Gray, threshold float64) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	at := func(x, y int) float64 { return float64(gray.Pix[y*gray.Stride+x]) }

	for y := 1; y < b.Dy()-1; y++ {
		for x := 1; x < b.Dx()-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			if math.Hypot(gx, gy) > threshold {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// dilate grows every set pixel by r in both directions, one axis at a time
func dilate(src *image.Gray, r int) *image.Gray {
	if r <= 0 {
		return src
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	pass := func(in *image.Gray, horizontal bool) *image.Gray {
		out := image.NewGray(in.Bounds())
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if in.Pix[y*in.Stride+x] == 0 {
					continue
				}
				for d := -r; d <= r; d++ {
					nx, ny := x, y
					if horizontal {
						nx += d
					} else {
						ny += d
					}
					if nx >= 0 && nx < w && ny >= 0 && ny < h {
						out.SetGray(nx, ny, color.Gray{Y: 255})
					}
				}
			}
		}
		return out
	}
	return pass(pass(src, true), false)
}

// components returns the bounding boxes of 4-connected set regions
func components(mask *image.Gray) []image.Rectangle {
	w, h := mask.Bounds().Dx(), mask.Bounds().Dy()
	seen := make([]bool, w*h)
	var rects []image.Rectangle
	var stack []int

	for start := range seen {
		if seen[start] || mask.Pix[(start/w)*mask.Stride+start%w] == 0 {
			continue
		}
		rect := image.Rect(start%w, start/w, start%w+1, start/w+1)
		seen[start] = true
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			rect = rect.Union(image.Rect(x, y, x+1, y+1))

			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				if n[0] < 0 || n[0] >= w || n[1] < 0 || n[1] >= h {
					continue
				}
				j := n[1]*w + n[0]
				if !seen[j] && mask.Pix[n[1]*mask.Stride+n[0]] != 0 {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}
		rects = append(rects, rect)
	}
	return rects
}
