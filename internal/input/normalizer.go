package input

import (
	"math"
	"time"

	"github.com/ivlev/airtour/internal/config"
)

// User sensitivity bounds and presets of the sensitivity control
const (
	MinUserSensitivity = 0.1
	MaxUserSensitivity = 3.0
)

var SensitivityPresets = []struct {
	Label string
	Value float64
}{
	{"Slow", 0.5},
	{"Normal", 1.0},
	{"Fast", 2.0},
}

// WheelEvent is a vertical wheel scroll in pixels
type WheelEvent struct {
	DeltaX float64 `json:"deltaX"`
	DeltaY float64 `json:"deltaY"`
}

// TouchEvent is a single touch point sample
type TouchEvent struct {
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Time time.Time `json:"-"`
}

// Result is what the host does with one raw event. Consumed means the host
// must prevent default handling (page scroll) of the event.
type Result struct {
	Delta    float64
	HasDelta bool
	EndTour  bool
	Consumed bool
}

// Normalizer turns raw wheel, touch and key events into signed sequence
// deltas. It never clamps; the controller owns the bounds.
type Normalizer struct {
	cfg         config.InputConfig
	profile     DeviceProfile
	sensitivity float64
	active      bool

	touching  bool
	moved     bool
	startX    float64
	startY    float64
	startTime time.Time
	velocity  float64
}

func NewNormalizer(cfg config.InputConfig, profile DeviceProfile) *Normalizer {
	n := &Normalizer{cfg: cfg, profile: profile}
	n.SetSensitivity(cfg.UserSensitivity)
	return n
}

// SetActive enables input handling; only the explore view is active
func (n *Normalizer) SetActive(active bool) {
	n.active = active
	if !active {
		n.resetTouch()
	}
}

func (n *Normalizer) Active() bool { return n.active }

// SetProfile swaps the device profile after a resize
func (n *Normalizer) SetProfile(p DeviceProfile) { n.profile = p }

func (n *Normalizer) Profile() DeviceProfile { return n.profile }

// SetSensitivity clamps the user multiplier to the control's range
func (n *Normalizer) SetSensitivity(v float64) float64 {
	if math.IsNaN(v) {
		v = 1.0
	}
	n.sensitivity = math.Max(MinUserSensitivity, math.Min(MaxUserSensitivity, v))
	return n.sensitivity
}

func (n *Normalizer) Sensitivity() float64 { return n.sensitivity }

// Wheel converts a wheel event. Inactive views leave the event alone.
func (n *Normalizer) Wheel(ev WheelEvent) Result {
	if !n.active {
		return Result{}
	}
	if ev.DeltaY == 0 || math.IsNaN(ev.DeltaY) {
		return Result{Consumed: true}
	}
	return Result{
		Delta:    ev.DeltaY * n.profile.WheelSensitivity * n.sensitivity,
		HasDelta: true,
		Consumed: true,
	}
}

// TouchStart begins tracking a gesture
func (n *Normalizer) TouchStart(ev TouchEvent) Result {
	if !n.active {
		return Result{}
	}
	n.touching = true
	n.moved = false
	n.velocity = 0
	n.startX, n.startY, n.startTime = ev.X, ev.Y, ev.Time
	return Result{Consumed: true}
}

// TouchMove emits a delta for vertical movement. Horizontal swipes and
// jitter below the swipe threshold are ignored.
func (n *Normalizer) TouchMove(ev TouchEvent) Result {
	if !n.active || !n.touching {
		return Result{}
	}

	deltaX := n.startX - ev.X
	deltaY := n.startY - ev.Y
	if math.Abs(deltaX) >= n.cfg.HorizontalTolerance || math.Abs(deltaY) <= n.cfg.SwipeThreshold {
		return Result{Consumed: true}
	}

	elapsed := float64(ev.Time.Sub(n.startTime)) / float64(time.Millisecond)
	if elapsed > 0 {
		n.velocity = deltaY / elapsed
	}
	n.moved = true
	n.startX, n.startY, n.startTime = ev.X, ev.Y, ev.Time

	return Result{
		Delta:    deltaY * n.profile.TouchSensitivity * n.sensitivity,
		HasDelta: true,
		Consumed: true,
	}
}

// TouchEnd applies one momentum delta for a fast swipe
func (n *Normalizer) TouchEnd(TouchEvent) Result {
	if !n.active || !n.touching {
		return Result{}
	}
	moved, velocity := n.moved, n.velocity
	n.resetTouch()

	if moved && math.Abs(velocity) > n.cfg.MomentumThreshold {
		return Result{
			Delta:    velocity * n.cfg.MomentumFactor * n.sensitivity,
			HasDelta: true,
			Consumed: true,
		}
	}
	return Result{Consumed: true}
}

// Key maps navigation keys. Escape ends the tour even when the view is
// inactive so it always wins over pending input.
func (n *Normalizer) Key(key string) Result {
	if key == "Escape" {
		return Result{EndTour: true, Consumed: true}
	}
	if !n.active {
		return Result{}
	}

	switch key {
	case "ArrowRight", "ArrowDown":
		return Result{Delta: n.cfg.KeyStep, HasDelta: true, Consumed: true}
	case "ArrowLeft", "ArrowUp":
		return Result{Delta: -n.cfg.KeyStep, HasDelta: true, Consumed: true}
	}
	return Result{}
}

func (n *Normalizer) resetTouch() {
	n.touching = false
	n.moved = false
	n.velocity = 0
}
