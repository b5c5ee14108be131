package renderer

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/system"
	"github.com/ivlev/airtour/internal/tour"
)

var bounds = tour.Bounds{Min: 0.1, Max: 6.7}

func TestInterpolateCamera(t *testing.T) {
	keys := CameraPath(chapter.Default(), bounds)
	if len(keys) != 6 {
		t.Fatalf("expected wide shot, 4 chapters and the end, got %d keyframes", len(keys))
	}

	tests := []struct {
		pos          float64
		expectedZoom float64
	}{
		{0.0, 1.0},  // Before the first keyframe
		{0.1, 1.0},  // Wide shot
		{0.55, 1.3}, // Halfway to the thermostat
		{1.0, 1.6},  // Thermostat close-up
		{3.0, 1.6},  // Between close-ups
		{9.0, 1.6},  // Past the end
	}

	for _, tt := range tests {
		state := InterpolateCamera(keys, tt.pos)
		if abs(state.Zoom-tt.expectedZoom) > 1e-9 {
			t.Errorf("at %.2f: expected zoom %.2f, got %.4f", tt.pos, tt.expectedZoom, state.Zoom)
		}
		if state.X < 0.25 || state.X > 0.75 || state.Y < 0.25 || state.Y > 0.75 {
			t.Errorf("at %.2f: camera %+v left the backdrop", tt.pos, state)
		}
	}
}

func TestInterpolateCameraEmpty(t *testing.T) {
	if got := InterpolateCamera(nil, 3); got != wideShot {
		t.Errorf("expected wide shot, got %+v", got)
	}
}

func TestOutputFilter(t *testing.T) {
	filter := OutputFilter(config.SegmentParams{Width: 1281, Height: 720, Duration: 10, FadeDuration: 0.5})

	for _, want := range []string{"fade=t=in:st=0:d=0.500", "fade=t=out:st=9.500:d=0.500", "scale=1282:720"} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter %q should contain %q", filter, want)
		}
	}

	// Short clips shrink the fade
	filter = OutputFilter(config.SegmentParams{Width: 640, Height: 360, Duration: 1, FadeDuration: 0.5})
	if !strings.Contains(filter, "d=0.250") {
		t.Errorf("expected fade shortened to a quarter, got %q", filter)
	}
}

func TestRenderModes(t *testing.T) {
	r := NewFrameRenderer(320, 180, chapter.Default(), bounds, nil)

	frames := []tour.Frame{
		{Mode: tour.ModeEntry, Position: 0.1},
		{Mode: tour.ModeLoading, Position: 0.1},
		{Mode: tour.ModeExploring, Position: 2, Progress: 0.3, Chapter: "indoor", Locked: true, ChapterIndex: 1},
		{Mode: tour.ModeExploring, Position: 1, Chapter: "Geom3D_393", Hotspot: "Geom3D_393", Video: "Geom3D_393"},
	}
	for _, f := range frames {
		img, err := r.Render(f)
		if err != nil {
			t.Fatalf("%s: %v", f.Mode, err)
		}
		if img.Bounds() != image.Rect(0, 0, 320, 180) {
			t.Errorf("%s: unexpected bounds %v", f.Mode, img.Bounds())
		}
		system.PutFrame(img)
	}
}

func TestRenderUsesBackdrop(t *testing.T) {
	red := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for i := 0; i < len(red.Pix); i += 4 {
		red.Pix[i], red.Pix[i+3] = 255, 255
	}
	var sheets []int
	r := NewFrameRenderer(320, 180, chapter.Default(), bounds, func(sheet int) (image.Image, error) {
		sheets = append(sheets, sheet)
		return red, nil
	})

	img, err := r.Render(tour.Frame{Mode: tour.ModeExploring, Position: 4.1, Chapter: "Air Purification"})
	if err != nil {
		t.Fatal(err)
	}
	defer system.PutFrame(img)

	if len(sheets) != 1 || sheets[0] != 2 {
		t.Errorf("expected sheet 2, got %v", sheets)
	}
	// Centre of the frame shows the backdrop
	if c := img.RGBAAt(160, 120); c != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("expected red backdrop at centre, got %v", c)
	}
}

func TestBackdropContentBox(t *testing.T) {
	page := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for i := 0; i < len(page.Pix); i++ {
		page.Pix[i] = 255
	}
	art := image.Rect(200, 150, 380, 280)
	for y := art.Min.Y; y < art.Max.Y; y++ {
		for x := art.Min.X; x < art.Max.X; x++ {
			page.SetRGBA(x, y, color.RGBA{B: 200, A: 255})
		}
	}

	calls := 0
	r := NewFrameRenderer(160, 90, chapter.Default(), bounds, func(int) (image.Image, error) {
		calls++
		return page, nil
	})

	for i := 0; i < 3; i++ {
		img, err := r.Render(tour.Frame{Mode: tour.ModeExploring, Position: 1, Chapter: "Geom3D_393"})
		if err != nil {
			t.Fatal(err)
		}
		system.PutFrame(img)
	}
	if calls != 3 {
		t.Errorf("expected a backdrop lookup per frame, got %d", calls)
	}

	box, ok := r.contentBox[0]
	if !ok {
		t.Fatal("content box of sheet 0 not cached")
	}
	if box.Min.X < 180 || box.Min.Y < 130 || box.Max.X > 396 || box.Max.Y > 296 {
		t.Errorf("content box %v should hug the artwork %v", box, art)
	}
}

func TestSheetBetweenChapters(t *testing.T) {
	r := NewFrameRenderer(16, 9, chapter.Default(), bounds, nil)
	if got := r.sheetFor(tour.Frame{Position: 3}); got != 1 {
		t.Errorf("expected the grille sheet behind the transit, got %d", got)
	}
	if got := r.sheetFor(tour.Frame{Position: 0.1}); got != 0 {
		t.Errorf("expected the first sheet at the start, got %d", got)
	}
}

func TestWrap(t *testing.T) {
	lines := wrap("Premium linear grille with adjustable airflow", 16)
	for _, l := range lines {
		if len(l) > 16 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if strings.Join(lines, " ") != "Premium linear grille with adjustable airflow" {
		t.Errorf("wrap lost words: %v", lines)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
