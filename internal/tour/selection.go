package tour

import "github.com/ivlev/airtour/internal/chapter"

// Selection is the open hotspot detail panel and its video overlay. The
// overlay never outlives the hotspot that opened it.
type Selection struct {
	hotspot *chapter.Chapter
	video   *chapter.Chapter
}

// Select opens the detail panel of ch. Chapters without a hotspot are
// ignored.
func (s *Selection) Select(ch *chapter.Chapter) bool {
	if ch == nil || ch.Hotspot == nil {
		return false
	}
	s.hotspot = ch
	s.video = nil
	if ch.Video != nil {
		s.video = ch
	}
	return true
}

// Close clears both the panel and the overlay. Returns whether anything
// was open.
func (s *Selection) Close() bool {
	open := s.hotspot != nil
	s.hotspot = nil
	s.video = nil
	return open
}

func (s *Selection) Hotspot() *chapter.Chapter { return s.hotspot }

func (s *Selection) Video() *chapter.Chapter { return s.video }
