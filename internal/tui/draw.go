package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/tour"
)

// Canvas is the part of tcell.Screen the view draws on
type Canvas interface {
	Size() (int, int)
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
}

var (
	styleBase   = tcell.StyleDefault
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleDim    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBar    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(80, 200, 120))
	styleLock   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	stylePanel  = tcell.StyleDefault.Background(tcell.NewRGBColor(20, 20, 32)).Foreground(tcell.ColorWhite)
	styleAccent = tcell.StyleDefault.Foreground(tcell.NewRGBColor(255, 184, 108)).Bold(true)
)

// View holds what the terminal view needs besides the frame
type View struct {
	Table  *chapter.Table
	Bounds tour.Bounds
	Notes  []string // recent events, oldest first
}

// Draw renders one frame of the tour: header, chapter card, progress bar,
// the detail panel when a hotspot is open, and the last few events.
func (v View) Draw(c Canvas, f tour.Frame) {
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return
	}
	fill(c, w, h)
	table := v.Table

	title := "AIR TOUR"
	if table != nil && table.Title != "" {
		title = strings.ToUpper(table.Title)
	}
	drawString(c, 1, 0, w-2, title, styleTitle)
	status := fmt.Sprintf("%s  pos %.3f -> %.3f  x%.2f", f.Mode, f.Position, f.Target, f.Sensitivity)
	drawString(c, w-1-runewidth.StringWidth(status), 0, w, status, styleDim)

	mid := h / 2
	switch {
	case f.ShowControlPanel():
		drawCentered(c, w, mid-1, "Press Enter to start the tour", styleAccent)
		drawCentered(c, w, mid+1, "q to quit", styleDim)
	case f.ShowLoading():
		drawCentered(c, w, mid, "Loading model...", styleDim)
	default:
		heading := "-"
		if ch, ok := find(table, f.Chapter); ok {
			heading = ch.ID
			if ch.Title != "" {
				heading = ch.Title
			}
		}
		drawCentered(c, w, mid-2, heading, styleTitle)
		if f.Mode == tour.ModeComparing {
			drawCentered(c, w, mid-1, "[compare]", styleAccent)
		}
		if f.Locked || f.Navigating || f.Playing {
			drawCentered(c, w, mid, lockLabel(f), styleLock)
		}
	}

	drawProgress(c, w, h-3, f)
	v.drawChapterMarks(c, w, h-4, f)

	if f.Hotspot != "" {
		drawDetail(c, w, h, f, table)
	}

	for i, note := range v.Notes {
		y := h - 4 - len(v.Notes) + i
		if y > mid+1 && y < h-4 {
			drawString(c, 1, y, w-2, note, styleDim)
		}
	}

	help := "wheel/arrows move  1-9 chapter  n/p next/prev  h detail  c close  m compare  +/- speed  esc end"
	drawString(c, 1, h-1, w-2, help, styleDim)
}

func lockLabel(f tour.Frame) string {
	switch {
	case f.Playing:
		return "~ transition ~"
	case f.Navigating:
		return "~ navigating ~"
	}
	return "~ locked ~"
}

func drawProgress(c Canvas, w, y int, f tour.Frame) {
	width := w - 2
	if width <= 0 {
		return
	}
	filled := int(f.Progress*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	for x := 0; x < width; x++ {
		r, st := '░', styleDim
		if x < filled {
			r, st = '█', styleBar
		}
		c.SetContent(1+x, y, r, nil, st)
	}
}

// drawChapterMarks places the anchored chapter numbers above the bar
func (v View) drawChapterMarks(c Canvas, w, y int, f tour.Frame) {
	if v.Table == nil || w <= 3 || v.Bounds.Span() <= 0 {
		return
	}
	for i, ch := range v.Table.Anchored() {
		anchor, _ := ch.Target()
		x := 1 + int(v.Bounds.Progress(anchor)*float64(w-3))
		st := styleDim
		if i == f.ChapterIndex {
			st = styleAccent
		}
		c.SetContent(x, y, rune('1'+i), nil, st)
	}
}

func drawDetail(c Canvas, w, h int, f tour.Frame, table *chapter.Table) {
	ch, ok := find(table, f.Hotspot)
	if !ok || ch.Hotspot == nil {
		return
	}

	pw := w / 2
	if pw < 24 {
		pw = w - 2
	}
	x0 := w - pw - 1
	lines := []string{ch.Hotspot.Title, ""}
	lines = append(lines, wrap(ch.Hotspot.Description, pw-4)...)
	if f.Video != "" {
		lines = append(lines, "", "video: "+f.Video)
	}
	lines = append(lines, "", "[c] close")

	y0 := 2
	for y := y0; y < y0+len(lines)+2 && y < h-5; y++ {
		for x := x0; x < x0+pw; x++ {
			c.SetContent(x, y, ' ', nil, stylePanel)
		}
	}
	for i, line := range lines {
		y := y0 + 1 + i
		if y >= h-6 {
			break
		}
		st := stylePanel
		if i == 0 {
			st = stylePanel.Bold(true)
		}
		drawString(c, x0+2, y, pw-4, line, st)
	}
}

func find(table *chapter.Table, id string) (*chapter.Chapter, bool) {
	if table == nil || id == "" {
		return nil, false
	}
	return table.Find(id)
}

func fill(c Canvas, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c.SetContent(x, y, ' ', nil, styleBase)
		}
	}
}

func drawCentered(c Canvas, w, y int, s string, st tcell.Style) {
	x := (w - runewidth.StringWidth(s)) / 2
	if x < 0 {
		x = 0
	}
	drawString(c, x, y, w-x, s, st)
}

// drawString writes s at (x, y), clipped to width columns
func drawString(c Canvas, x, y, width int, s string, st tcell.Style) {
	if width <= 0 {
		return
	}
	s = runewidth.Truncate(s, width, "…")
	for _, r := range s {
		c.SetContent(x, y, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
}

// wrap splits text into lines no wider than width columns
func wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	var line string
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case runewidth.StringWidth(line)+1+runewidth.StringWidth(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
