package tour

import (
	"fmt"

	"github.com/ivlev/airtour/internal/input"
)

// Mode is the single UI state all visibility flags derive from
type Mode int

const (
	ModeEntry Mode = iota
	ModeLoading
	ModeExploring
	ModeComparing
)

var modeNames = []string{"entry", "loading", "exploring", "comparing"}

func (m Mode) String() string {
	if int(m) < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	for i, name := range modeNames {
		if name == string(text) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// ShowControlPanel is true on the entry screen only
func (m Mode) ShowControlPanel() bool { return m == ModeEntry }

func (m Mode) ShowLoading() bool { return m == ModeLoading }

// InputActive is true while the explore view handles wheel/touch/keys
func (m Mode) InputActive() bool { return m == ModeExploring }

// Frame is an immutable snapshot of the session sent to hosts every tick
type Frame struct {
	Seq        uint64  `json:"seq" yaml:"seq"`
	Mode       Mode    `json:"mode" yaml:"mode"`
	Position   float64 `json:"position" yaml:"position"`
	Target     float64 `json:"target" yaml:"target"`
	Progress   float64 `json:"progress" yaml:"progress"`
	Chapter    string  `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	Hotspot    string  `json:"hotspot,omitempty" yaml:"hotspot,omitempty"`
	Video      string  `json:"video,omitempty" yaml:"video,omitempty"`
	Locked     bool    `json:"locked" yaml:"locked"`
	Navigating bool    `json:"navigating" yaml:"navigating"`
	Playing    bool    `json:"playing" yaml:"playing"`

	// index into the anchored chapters, -1 when between anchors
	ChapterIndex int  `json:"chapterIndex" yaml:"chapter_index"`
	CanPrev      bool `json:"canPrev" yaml:"can_prev"`
	CanNext      bool `json:"canNext" yaml:"can_next"`

	Sensitivity float64             `json:"sensitivity" yaml:"sensitivity"`
	Profile     input.DeviceProfile `json:"profile" yaml:"-"`
}

func (f Frame) ShowControlPanel() bool { return f.Mode.ShowControlPanel() }
func (f Frame) ShowLoading() bool      { return f.Mode.ShowLoading() }
func (f Frame) InputActive() bool      { return f.Mode.InputActive() }

// SameState compares two frames ignoring the sequence number
func (f Frame) SameState(o Frame) bool {
	o.Seq = f.Seq
	return f == o
}
