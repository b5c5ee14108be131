package renderer

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/airtour/internal/analyzer"
	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/system"
	"github.com/ivlev/airtour/internal/tour"
)

// BackdropFunc returns the picture behind a chapter for a brochure sheet.
// A nil image means no backdrop.
type BackdropFunc func(sheet int) (image.Image, error)

var (
	colBackground = color.RGBA{R: 18, G: 22, B: 30, A: 255}
	colPanel      = color.RGBA{R: 0, G: 0, B: 0, A: 170}
	colText       = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	colMuted      = color.RGBA{R: 150, G: 160, B: 175, A: 255}
	colAccent     = color.RGBA{R: 64, G: 156, B: 255, A: 255}
	colLocked     = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colTrack      = color.RGBA{R: 255, G: 255, B: 255, A: 60}
)

// FrameRenderer rasterizes tour frames for the walkthrough preview. It is
// safe for concurrent use by render workers.
type FrameRenderer struct {
	width    int
	height   int
	table    *chapter.Table
	bounds   tour.Bounds
	camera   []CameraKeyframe
	backdrop BackdropFunc
	face     font.Face

	qrMu    sync.Mutex
	qrCache map[string]image.Image

	focus      *analyzer.Focus
	contentMu  sync.Mutex
	contentBox map[int]image.Rectangle // per sheet
}

func NewFrameRenderer(width, height int, table *chapter.Table, bounds tour.Bounds, backdrop BackdropFunc) *FrameRenderer {
	return &FrameRenderer{
		width:    width,
		height:   height,
		table:    table,
		bounds:   bounds,
		camera:   CameraPath(table, bounds),
		backdrop: backdrop,
		face:     basicfont.Face7x13,
		qrCache:  make(map[string]image.Image),

		focus:      analyzer.NewFocus(),
		contentBox: make(map[int]image.Rectangle),
	}
}

// Render draws one frame. The image comes from the shared frame pool;
// return it with system.PutFrame once encoded.
func (r *FrameRenderer) Render(f tour.Frame) (*image.RGBA, error) {
	dst := system.GetFrame(image.Rect(0, 0, r.width, r.height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(colBackground), image.Point{}, draw.Src)

	if err := r.drawBackdrop(dst, f); err != nil {
		system.PutFrame(dst)
		return nil, err
	}

	switch f.Mode {
	case tour.ModeEntry:
		r.drawCenterCard(dst, r.table.Title, "Press start to explore")
	case tour.ModeLoading:
		r.drawCenterCard(dst, "Loading model...", "")
	case tour.ModeComparing:
		r.drawCenterCard(dst, "Compare systems", "")
	case tour.ModeExploring:
		r.drawChapterTitle(dst, f)
		r.drawBadge(dst, f)
		r.drawProgress(dst, f)
		if f.Hotspot != "" {
			r.drawDetail(dst, f)
		}
	}
	return dst, nil
}

// sheetFor picks the brochure page: the active chapter's sheet, else the
// last anchored chapter behind the position.
func (r *FrameRenderer) sheetFor(f tour.Frame) int {
	if f.Chapter != "" {
		if ch, ok := r.table.Find(f.Chapter); ok && ch.Sheet != nil {
			return *ch.Sheet
		}
	}
	sheet := 0
	for _, ch := range r.table.Anchored() {
		anchor, _ := ch.Target()
		if anchor <= f.Position && ch.Sheet != nil {
			sheet = *ch.Sheet
		}
	}
	return sheet
}

func (r *FrameRenderer) drawBackdrop(dst *image.RGBA, f tour.Frame) error {
	if r.backdrop == nil {
		r.drawGradient(dst, f.Progress)
		return nil
	}
	sheet := r.sheetFor(f)
	src, err := r.backdrop(sheet)
	if err != nil {
		return fmt.Errorf("backdrop: %w", err)
	}
	if src == nil {
		r.drawGradient(dst, f.Progress)
		return nil
	}

	cam := InterpolateCamera(r.camera, f.Position)
	sb := src.Bounds()
	content := r.content(sheet, src)

	// Crop to the output aspect, then zoom around the camera point
	aspect := float64(r.width) / float64(r.height)
	cw, ch := float64(sb.Dx()), float64(sb.Dy())
	if cw/ch > aspect {
		cw = ch * aspect
	} else {
		ch = cw / aspect
	}
	cw /= cam.Zoom
	ch /= cam.Zoom

	// the camera moves over the artwork, not the page margins
	cx := float64(content.Min.X) + cam.X*float64(content.Dx())
	cy := float64(content.Min.Y) + cam.Y*float64(content.Dy())
	x0 := clampf(cx-cw/2, float64(sb.Min.X), float64(sb.Max.X)-cw)
	y0 := clampf(cy-ch/2, float64(sb.Min.Y), float64(sb.Max.Y)-ch)
	sr := image.Rect(int(x0), int(y0), int(x0+cw), int(y0+ch))

	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	return nil
}

// content returns the content box of a sheet, detected once
func (r *FrameRenderer) content(sheet int, src image.Image) image.Rectangle {
	r.contentMu.Lock()
	defer r.contentMu.Unlock()

	if box, ok := r.contentBox[sheet]; ok {
		return box
	}
	box, _ := r.focus.Box(src)
	r.contentBox[sheet] = box
	return box
}

func (r *FrameRenderer) drawGradient(dst *image.RGBA, progress float64) {
	for y := 0; y < r.height; y++ {
		t := float64(y) / float64(r.height)
		c := color.RGBA{
			R: uint8(20 + 30*progress),
			G: uint8(30 + 40*t),
			B: uint8(60 + 80*(1-progress)*(1-t)),
			A: 255,
		}
		draw.Draw(dst, image.Rect(0, y, r.width, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
}

func (r *FrameRenderer) drawCenterCard(dst *image.RGBA, title, subtitle string) {
	w, h := r.width/2, 80
	rect := image.Rect((r.width-w)/2, (r.height-h)/2, (r.width+w)/2, (r.height+h)/2)
	fillRect(dst, rect, colPanel)
	r.drawTextCentered(dst, title, rect.Min.Y+32, colText)
	if subtitle != "" {
		r.drawTextCentered(dst, subtitle, rect.Min.Y+56, colMuted)
	}
}

func (r *FrameRenderer) drawChapterTitle(dst *image.RGBA, f tour.Frame) {
	title := "Free exploring"
	if f.Chapter != "" {
		if ch, ok := r.table.Find(f.Chapter); ok && ch.Title != "" {
			title = ch.Title
		}
	}
	fillRect(dst, image.Rect(16, 16, 16+r.textWidth(title)+24, 44), colPanel)
	r.drawText(dst, title, 28, 35, colText)
	r.drawText(dst, fmt.Sprintf("pos %.3f  target %.3f", f.Position, f.Target), 16, 62, colMuted)
}

func (r *FrameRenderer) drawBadge(dst *image.RGBA, f tour.Frame) {
	label, col := "", colAccent
	switch {
	case f.Locked:
		label, col = "LOCKED", colLocked
	case f.Navigating:
		label = "NAVIGATING"
	case f.Playing:
		label = "PLAYING"
	default:
		return
	}
	w := r.textWidth(label) + 20
	fillRect(dst, image.Rect(r.width-16-w, 16, r.width-16, 40), col)
	r.drawText(dst, label, r.width-6-w, 32, colBackground)
}

func (r *FrameRenderer) drawProgress(dst *image.RGBA, f tour.Frame) {
	margin, y := 40, r.height-32
	track := image.Rect(margin, y, r.width-margin, y+6)
	fillRect(dst, track, colTrack)

	filled := track
	filled.Max.X = track.Min.X + int(f.Progress*float64(track.Dx()))
	fillRect(dst, filled, colAccent)

	for i, ch := range r.table.Anchored() {
		anchor, _ := ch.Target()
		x := track.Min.X + int(r.bounds.Progress(anchor)*float64(track.Dx()))
		col := colText
		if i == f.ChapterIndex {
			col = colLocked
		}
		fillRect(dst, image.Rect(x-2, y-4, x+2, y+10), col)
	}
}

func (r *FrameRenderer) drawDetail(dst *image.RGBA, f tour.Frame) {
	ch, ok := r.table.Find(f.Hotspot)
	if !ok || ch.Hotspot == nil {
		return
	}
	w := r.width / 3
	panel := image.Rect(r.width-w-16, 60, r.width-16, r.height-60)
	fillRect(dst, panel, colPanel)

	x, y := panel.Min.X+14, panel.Min.Y+28
	r.drawText(dst, ch.Hotspot.Title, x, y, colText)
	y += 24
	for _, line := range wrap(ch.Hotspot.Description, (w-28)/7) {
		r.drawText(dst, line, x, y, colMuted)
		y += 16
	}

	url := ch.Hotspot.Link
	if f.Video != "" && ch.Video != nil {
		url = ch.Video.VideoURL()
		y += 12
		r.drawText(dst, "Video: "+ch.Video.Title, x, y, colAccent)
	}
	if url == "" {
		return
	}

	size := min(w-28, panel.Max.Y-y-40)
	if size < 64 {
		return
	}
	qr, err := r.qr(url, size)
	if err != nil {
		return
	}
	at := image.Pt(x, y+16)
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(qr.Bounds().Size())}, qr, qr.Bounds().Min, draw.Over)
}

// qr renders and caches the QR code of a link
func (r *FrameRenderer) qr(url string, size int) (image.Image, error) {
	key := fmt.Sprintf("%s@%d", url, size)
	r.qrMu.Lock()
	defer r.qrMu.Unlock()
	if img, ok := r.qrCache[key]; ok {
		return img, nil
	}
	code, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	img := code.Image(size)
	r.qrCache[key] = img
	return img, nil
}

func (r *FrameRenderer) drawText(dst *image.RGBA, s string, x, y int, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (r *FrameRenderer) drawTextCentered(dst *image.RGBA, s string, y int, col color.Color) {
	r.drawText(dst, s, (r.width-r.textWidth(s))/2, y, col)
}

func (r *FrameRenderer) textWidth(s string) int {
	return font.MeasureString(r.face, s).Ceil()
}

func fillRect(dst *image.RGBA, rect image.Rectangle, col color.Color) {
	draw.Draw(dst, rect.Intersect(dst.Bounds()), image.NewUniform(col), image.Point{}, draw.Over)
}

// wrap splits text into lines of at most width characters
func wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func clampf(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
