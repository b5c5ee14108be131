package script

import (
	"fmt"
	"time"

	"github.com/ivlev/airtour/internal/input"
	"github.com/ivlev/airtour/internal/tour"
)

// Script is an authored input session replayed by the preview renderer
type Script struct {
	Version  string  `yaml:"version"`
	Title    string  `yaml:"title,omitempty"`
	Duration float64 `yaml:"duration"` // Total length in seconds
	FPS      int     `yaml:"fps,omitempty"`
	Device   Device  `yaml:"device"`
	Steps    []Step  `yaml:"steps"`
}

// Device is the simulated viewport
type Device struct {
	UserAgent  string  `yaml:"user_agent,omitempty"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	PixelRatio float64 `yaml:"pixel_ratio,omitempty"`
}

// Step is one input event at a point in time
type Step struct {
	At     float64 `yaml:"at"` // Offset in seconds
	Action string  `yaml:"action"`

	Delta   float64  `yaml:"delta,omitempty"`    // wheel deltaY
	X       float64  `yaml:"x,omitempty"`        // touch
	Y       float64  `yaml:"y,omitempty"`        // touch
	Key     string   `yaml:"key,omitempty"`      // key name, e.g. ArrowDown
	Chapter string   `yaml:"chapter,omitempty"`  // jump, hotspot, mesh
	Target  *float64 `yaml:"position,omitempty"` // jump to an absolute position
	Width   int      `yaml:"width,omitempty"`    // resize
	Height  int      `yaml:"height,omitempty"`   // resize
	Value   float64  `yaml:"value,omitempty"`    // sensitivity
}

// Actions understood by the replay
const (
	ActionStart       = "start"
	ActionModelLoaded = "model_loaded"
	ActionWheel       = "wheel"
	ActionTouchStart  = "touch_start"
	ActionTouchMove   = "touch_move"
	ActionTouchEnd    = "touch_end"
	ActionKey         = "key"
	ActionResize      = "resize"
	ActionJump        = "jump"
	ActionNext        = "next"
	ActionPrev        = "prev"
	ActionHotspot     = "hotspot"
	ActionMesh        = "mesh"
	ActionClose       = "close"
	ActionSensitivity = "sensitivity"
	ActionEnd         = "end"
	ActionCompare     = "compare"
	ActionBack        = "back"
)

// Offset returns the step time as a duration
func (s Step) Offset() time.Duration {
	return time.Duration(s.At * float64(time.Second))
}

// ToCommand translates the step into a tour command. base is the replay
// start; touch samples are stamped relative to it.
func (s Step) ToCommand(base time.Time, dev Device) (tour.Command, error) {
	touch := input.TouchEvent{X: s.X, Y: s.Y, Time: base.Add(s.Offset())}

	switch s.Action {
	case ActionStart:
		return tour.StartTour{}, nil
	case ActionModelLoaded:
		return tour.ModelLoaded{}, nil
	case ActionWheel:
		return tour.Wheel{WheelEvent: input.WheelEvent{DeltaY: s.Delta}}, nil
	case ActionTouchStart:
		return tour.TouchStart{TouchEvent: touch}, nil
	case ActionTouchMove:
		return tour.TouchMove{TouchEvent: touch}, nil
	case ActionTouchEnd:
		return tour.TouchEnd{TouchEvent: touch}, nil
	case ActionKey:
		if s.Key == "" {
			return nil, fmt.Errorf("key step at %.2fs has no key", s.At)
		}
		return tour.Key{Name: s.Key}, nil
	case ActionResize:
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("resize step at %.2fs needs width and height", s.At)
		}
		return tour.Resize{UserAgent: dev.UserAgent, Width: s.Width, Height: s.Height, PixelRatio: dev.PixelRatio}, nil
	case ActionJump:
		if s.Target != nil {
			return tour.JumpTo{Position: *s.Target}, nil
		}
		if s.Chapter == "" {
			return nil, fmt.Errorf("jump step at %.2fs needs chapter or position", s.At)
		}
		return tour.JumpToChapter{ID: s.Chapter}, nil
	case ActionNext:
		return tour.NextChapter{}, nil
	case ActionPrev:
		return tour.PrevChapter{}, nil
	case ActionHotspot:
		return tour.ClickHotspot{ID: s.Chapter}, nil
	case ActionMesh:
		return tour.ClickMesh{Name: s.Chapter}, nil
	case ActionClose:
		return tour.CloseDetail{}, nil
	case ActionSensitivity:
		return tour.SetSensitivity{Value: s.Value}, nil
	case ActionEnd:
		return tour.EndTour{}, nil
	case ActionCompare:
		return tour.Compare{}, nil
	case ActionBack:
		return tour.Back{}, nil
	}
	return nil, fmt.Errorf("unknown action %q at %.2fs", s.Action, s.At)
}

// Validate checks step order and that every step maps to a command
func (sc *Script) Validate() error {
	if sc.Duration <= 0 {
		return fmt.Errorf("script duration must be positive")
	}
	if sc.Device.Width <= 0 || sc.Device.Height <= 0 {
		return fmt.Errorf("script device needs width and height")
	}

	prev := 0.0
	for i, st := range sc.Steps {
		if st.At < prev {
			return fmt.Errorf("step %d (%s) at %.2fs is before the previous step at %.2fs", i, st.Action, st.At, prev)
		}
		if st.At > sc.Duration {
			return fmt.Errorf("step %d (%s) at %.2fs is past the end %.2fs", i, st.Action, st.At, sc.Duration)
		}
		if _, err := st.ToCommand(time.Time{}, sc.Device); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		prev = st.At
	}
	return nil
}

// Profile returns the device profile of the simulated viewport
func (sc *Script) Profile() input.DeviceProfile {
	return input.DetectProfile(sc.Device.UserAgent, sc.Device.Width, sc.Device.Height, sc.Device.PixelRatio)
}

// Frames is the number of frames at fps covering the whole script
func (sc *Script) Frames(fps int) int {
	if sc.FPS > 0 {
		fps = sc.FPS
	}
	return int(sc.Duration*float64(fps) + 0.5)
}
