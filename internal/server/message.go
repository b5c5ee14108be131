package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ivlev/airtour/internal/input"
	"github.com/ivlev/airtour/internal/tour"
)

// Inbound is a message from the browser host
type Inbound struct {
	Type string `json:"type"`

	DeltaX float64 `json:"deltaX,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`

	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	Time float64 `json:"time,omitempty"` // ms, any monotonic origin

	Key string `json:"key,omitempty"`

	UserAgent  string  `json:"userAgent,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	PixelRatio float64 `json:"pixelRatio,omitempty"`

	Chapter  string   `json:"chapter,omitempty"`
	Position *float64 `json:"position,omitempty"`
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Value    float64  `json:"value,omitempty"`
}

// Outbound is pushed to the browser: a hello on connect, then frames with
// the events emitted since the previous one
type Outbound struct {
	Type     string       `json:"type"`
	Session  string       `json:"session,omitempty"`
	Frame    *tour.Frame  `json:"frame,omitempty"`
	Events   []tour.Event `json:"events,omitempty"`
	Chapters []string     `json:"chapters,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// Decode turns one websocket text message into a session command
func Decode(data []byte) (tour.Command, error) {
	var m Inbound
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return m.Command()
}

func (m Inbound) Command() (tour.Command, error) {
	switch m.Type {
	case "start":
		return tour.StartTour{}, nil
	case "model_loaded":
		return tour.ModelLoaded{}, nil
	case "end":
		return tour.EndTour{}, nil
	case "compare":
		return tour.Compare{}, nil
	case "back":
		return tour.Back{}, nil
	case "wheel":
		return tour.Wheel{WheelEvent: input.WheelEvent{DeltaX: m.DeltaX, DeltaY: m.DeltaY}}, nil
	case "touch_start":
		return tour.TouchStart{TouchEvent: m.touch()}, nil
	case "touch_move":
		return tour.TouchMove{TouchEvent: m.touch()}, nil
	case "touch_end":
		return tour.TouchEnd{TouchEvent: m.touch()}, nil
	case "key":
		if m.Key == "" {
			return nil, fmt.Errorf("key message without key")
		}
		return tour.Key{Name: m.Key}, nil
	case "resize":
		return tour.Resize{UserAgent: m.UserAgent, Width: m.Width, Height: m.Height, PixelRatio: m.PixelRatio}, nil
	case "jump":
		switch {
		case m.Chapter != "":
			return tour.JumpToChapter{ID: m.Chapter}, nil
		case m.Position != nil:
			return tour.JumpTo{Position: *m.Position}, nil
		}
		return nil, fmt.Errorf("jump needs chapter or position")
	case "next":
		return tour.NextChapter{}, nil
	case "prev":
		return tour.PrevChapter{}, nil
	case "hotspot":
		return tour.ClickHotspot{ID: m.ID}, nil
	case "mesh":
		return tour.ClickMesh{Name: m.Name}, nil
	case "close":
		return tour.CloseDetail{}, nil
	case "sensitivity":
		return tour.SetSensitivity{Value: m.Value}, nil
	case "":
		return nil, fmt.Errorf("message without type")
	}
	return nil, fmt.Errorf("unknown message type %q", m.Type)
}

func (m Inbound) touch() input.TouchEvent {
	t := time.Now()
	if m.Time > 0 {
		t = time.Unix(0, int64(m.Time*float64(time.Millisecond)))
	}
	return input.TouchEvent{X: m.X, Y: m.Y, Time: t}
}
