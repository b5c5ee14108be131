package tour

import "github.com/ivlev/airtour/internal/input"

// Command is an input to the session state machine. Hosts translate their
// raw events into commands and post them to the Runner.
type Command interface {
	command()
}

type (
	StartTour   struct{}
	ModelLoaded struct{}
	EndTour     struct{}
	Compare     struct{}
	Back        struct{}

	Wheel      struct{ input.WheelEvent }
	TouchStart struct{ input.TouchEvent }
	TouchMove  struct{ input.TouchEvent }
	TouchEnd   struct{ input.TouchEvent }
	Key        struct{ Name string }

	// Resize carries the viewport; the device profile is recomputed from it
	Resize struct {
		UserAgent  string
		Width      int
		Height     int
		PixelRatio float64
	}

	JumpToChapter struct{ ID string }
	JumpTo        struct{ Position float64 }
	NextChapter   struct{}
	PrevChapter   struct{}

	ClickHotspot struct{ ID string }
	ClickMesh    struct{ Name string }
	CloseDetail  struct{}

	SetSensitivity struct{ Value float64 }

	// playDone is posted back by the goroutine running Timeline.Play
	playDone struct {
		gen uint64
		end float64
		err error
	}
)

func (StartTour) command()      {}
func (ModelLoaded) command()    {}
func (EndTour) command()        {}
func (Compare) command()        {}
func (Back) command()           {}
func (Wheel) command()          {}
func (TouchStart) command()     {}
func (TouchMove) command()      {}
func (TouchEnd) command()       {}
func (Key) command()            {}
func (Resize) command()         {}
func (JumpToChapter) command()  {}
func (JumpTo) command()         {}
func (NextChapter) command()    {}
func (PrevChapter) command()    {}
func (ClickHotspot) command()   {}
func (ClickMesh) command()      {}
func (CloseDetail) command()    {}
func (SetSensitivity) command() {}
func (playDone) command()       {}

// EventKind names a one-way notification to the host UI
type EventKind string

const (
	EventTourEnded        EventKind = "tour_ended"
	EventHideControlPanel EventKind = "hide_control_panel"
	EventShowControlPanel EventKind = "show_control_panel"
	EventModelLoaded      EventKind = "model_loaded"
	EventChapterChanged   EventKind = "chapter_changed"
	EventHotspotOpened    EventKind = "hotspot_opened"
	EventHotspotClosed    EventKind = "hotspot_closed"
)

// Event is emitted by the session; the host never answers it
type Event struct {
	Kind    EventKind `json:"kind" yaml:"kind"`
	Chapter string    `json:"chapter,omitempty" yaml:"chapter,omitempty"`
}
