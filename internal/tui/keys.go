package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/input"
	"github.com/ivlev/airtour/internal/tour"
)

const (
	wheelNotch       = 100.0 // one terminal wheel click, in browser deltaY units
	pageNotch        = 400.0
	sensitivityDelta = 0.25
)

// MapKey translates a key press into a session command. anchored is the
// list of chapters reachable with the digit keys. quit is set for q and
// Ctrl-C; cmd is nil when the key means nothing.
func MapKey(ev *tcell.EventKey, f tour.Frame, anchored []*chapter.Chapter) (cmd tour.Command, quit bool) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return nil, true
	case tcell.KeyEnter:
		return tour.StartTour{}, false
	case tcell.KeyEsc:
		return tour.Key{Name: "Escape"}, false
	case tcell.KeyUp:
		return tour.Key{Name: "ArrowUp"}, false
	case tcell.KeyDown:
		return tour.Key{Name: "ArrowDown"}, false
	case tcell.KeyLeft:
		return tour.Key{Name: "ArrowLeft"}, false
	case tcell.KeyRight:
		return tour.Key{Name: "ArrowRight"}, false
	case tcell.KeyPgDn:
		return tour.Wheel{WheelEvent: input.WheelEvent{DeltaY: pageNotch}}, false
	case tcell.KeyPgUp:
		return tour.Wheel{WheelEvent: input.WheelEvent{DeltaY: -pageNotch}}, false
	case tcell.KeyRune:
	default:
		return nil, false
	}

	r := ev.Rune()
	if ev.Modifiers()&tcell.ModCtrl != 0 {
		return nil, r == 'c'
	}
	switch {
	case r >= '1' && r <= '9':
		i := int(r - '1')
		if i < len(anchored) {
			return tour.JumpToChapter{ID: anchored[i].ID}, false
		}
		return nil, false
	case r == 'q':
		return nil, true
	case r == 'n':
		return tour.NextChapter{}, false
	case r == 'p':
		return tour.PrevChapter{}, false
	case r == 'h':
		if f.Chapter == "" {
			return nil, false
		}
		return tour.ClickHotspot{ID: f.Chapter}, false
	case r == 'c':
		return tour.CloseDetail{}, false
	case r == 'm':
		return tour.Compare{}, false
	case r == 'b':
		return tour.Back{}, false
	case r == '+' || r == '=':
		return tour.SetSensitivity{Value: f.Sensitivity + sensitivityDelta}, false
	case r == '-':
		return tour.SetSensitivity{Value: f.Sensitivity - sensitivityDelta}, false
	case r == ' ':
		return tour.Wheel{WheelEvent: input.WheelEvent{DeltaY: wheelNotch}}, false
	}
	return nil, false
}

// MapMouse turns wheel clicks into wheel commands
func MapMouse(ev *tcell.EventMouse) tour.Command {
	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelDown != 0:
		return tour.Wheel{WheelEvent: input.WheelEvent{DeltaY: wheelNotch}}
	case buttons&tcell.WheelUp != 0:
		return tour.Wheel{WheelEvent: input.WheelEvent{DeltaY: -wheelNotch}}
	}
	return nil
}
