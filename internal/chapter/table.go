package chapter

import (
	"fmt"
	"log"
	"strings"
)

// Table is the authored chapter list of a tour
type Table struct {
	Version  string    `yaml:"version" json:"version"`
	Title    string    `yaml:"title" json:"title"`
	Chapters []Chapter `yaml:"chapters" json:"chapters"`
}

// Chapter is a named segment of the camera sequence
type Chapter struct {
	ID       string        `yaml:"id" json:"id"`
	Title    string        `yaml:"title,omitempty" json:"title,omitempty"`
	Range    *Range        `yaml:"range,omitempty" json:"range,omitempty"`
	Anchor   *float64      `yaml:"anchor,omitempty" json:"anchor,omitempty"` // Position a chapter jump lands on
	Hotspot  *Hotspot      `yaml:"hotspot,omitempty" json:"hotspot,omitempty"`
	Video    *VideoOverlay `yaml:"video,omitempty" json:"video,omitempty"`
	Lighting *Lighting     `yaml:"lighting,omitempty" json:"lighting,omitempty"`
	Sheet    *int          `yaml:"sheet,omitempty" json:"sheet,omitempty"` // Brochure page (0-based) used as preview backdrop
}

// Range is an inclusive span of sequence positions
type Range struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

// Vec3 is a scene-space coordinate
type Vec3 [3]float64

// Hotspot is the clickable marker and its detail panel
type Hotspot struct {
	Title                string `yaml:"title" json:"title"`
	Description          string `yaml:"description" json:"description"`
	Link                 string `yaml:"link,omitempty" json:"link,omitempty"`
	Position             Vec3   `yaml:"position" json:"position"`
	Rotation             Vec3   `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	DetailPosition       Vec3   `yaml:"detail_position" json:"detailPosition"`
	MobileDetailPosition *Vec3  `yaml:"mobile_detail_position,omitempty" json:"mobileDetailPosition,omitempty"`
}

// Size is a pixel size of an overlay
type Size struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// VideoOverlay is the video screen opened next to a hotspot
type VideoOverlay struct {
	VideoID    string `yaml:"video_id" json:"videoId"`
	Title      string `yaml:"title" json:"title"`
	Position   Vec3   `yaml:"position" json:"position"`
	Size       Size   `yaml:"size" json:"size"`
	MobileSize *Size  `yaml:"mobile_size,omitempty" json:"mobileSize,omitempty"`
}

// Lighting is the spotlight placed over a hotspot
type Lighting struct {
	Position   Vec3    `yaml:"position" json:"position"`
	Intensity  float64 `yaml:"intensity" json:"intensity"`
	Angle      float64 `yaml:"angle" json:"angle"`
	Penumbra   float64 `yaml:"penumbra" json:"penumbra"`
	Color      string  `yaml:"color" json:"color"`
	Distance   float64 `yaml:"distance" json:"distance"`
	CastShadow bool    `yaml:"cast_shadow" json:"castShadow"`
}

// HasUI reports whether the chapter drives hotspot UI. Chapters without a
// hotspot only exist for camera timing.
func (c *Chapter) HasUI() bool {
	return c.Hotspot != nil
}

// Contains tests start <= pos <= end + hysteresis
func (c *Chapter) Contains(pos, hysteresis float64) bool {
	if c.Range == nil {
		return false
	}
	return c.Range.Start <= pos && pos <= c.Range.End+hysteresis
}

// Target returns where a jump to this chapter lands
func (c *Chapter) Target() (float64, bool) {
	if c.Anchor != nil {
		return *c.Anchor, true
	}
	if c.Range != nil {
		return c.Range.Start, true
	}
	return 0, false
}

// VideoURL returns the watch URL of the overlay video
func (v *VideoOverlay) VideoURL() string {
	id := NormalizeVideoID(v.VideoID)
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + id
}

// NormalizeVideoID accepts a bare id or a YouTube URL and returns the id
func NormalizeVideoID(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if i := strings.Index(ref, "watch?v="); i >= 0 {
		id := ref[i+len("watch?v="):]
		if amp := strings.IndexByte(id, '&'); amp >= 0 {
			id = id[:amp]
		}
		return id
	}
	if i := strings.Index(ref, "youtu.be/"); i >= 0 {
		id := ref[i+len("youtu.be/"):]
		if q := strings.IndexByte(id, '?'); q >= 0 {
			id = id[:q]
		}
		return id
	}
	return ref
}

// Find returns the chapter with the given id
func (t *Table) Find(id string) (*Chapter, bool) {
	for i := range t.Chapters {
		if t.Chapters[i].ID == id {
			return &t.Chapters[i], true
		}
	}
	return nil, false
}

// Index returns the position of the chapter in the table, or -1
func (t *Table) Index(id string) int {
	for i := range t.Chapters {
		if t.Chapters[i].ID == id {
			return i
		}
	}
	return -1
}

// Anchored returns the chapters that can be jumped to, in table order
func (t *Table) Anchored() []*Chapter {
	var out []*Chapter
	for i := range t.Chapters {
		if _, ok := t.Chapters[i].Target(); ok && t.Chapters[i].HasUI() {
			out = append(out, &t.Chapters[i])
		}
	}
	return out
}

// Validate checks ids and ranges. Overlapping UI ranges are only logged:
// the resolver picks the first match in table order.
func (t *Table) Validate(minPos, maxPos float64) error {
	if len(t.Chapters) == 0 {
		return fmt.Errorf("chapter table is empty")
	}

	seen := make(map[string]bool, len(t.Chapters))
	for i, c := range t.Chapters {
		if c.ID == "" {
			return fmt.Errorf("chapter %d has no id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate chapter id %q", c.ID)
		}
		seen[c.ID] = true

		if c.Range != nil && c.Range.End < c.Range.Start {
			return fmt.Errorf("chapter %q: range end %.3f before start %.3f", c.ID, c.Range.End, c.Range.Start)
		}
		if c.Anchor != nil && (*c.Anchor < minPos || *c.Anchor > maxPos) {
			return fmt.Errorf("chapter %q: anchor %.3f outside [%.3f, %.3f]", c.ID, *c.Anchor, minPos, maxPos)
		}
	}

	for i := range t.Chapters {
		a := &t.Chapters[i]
		if !a.HasUI() || a.Range == nil {
			continue
		}
		for j := i + 1; j < len(t.Chapters); j++ {
			b := &t.Chapters[j]
			if !b.HasUI() || b.Range == nil {
				continue
			}
			if a.Range.Start <= b.Range.End && b.Range.Start <= a.Range.End {
				log.Printf("[!] chapters %q and %q overlap; %q wins", a.ID, b.ID, a.ID)
			}
		}
	}
	return nil
}
