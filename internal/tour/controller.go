package tour

import (
	"math"
	"time"

	"github.com/ivlev/airtour/internal/config"
)

// Controller reconciles the target position with the sequence position
// once per frame. Exactly one of three branches drives the position in a
// frame: an eased chapter jump, an authored timeline transition, or
// exponential smoothing towards the target.
type Controller struct {
	bounds   Bounds
	rate     float64
	epsilon  float64
	lock     *NavLock
	timeline Timeline

	position float64
	target   float64

	// input accepted while a jump or transition owns the position; applied
	// on top of the final value when it completes
	pending float64

	playing     bool
	initialized bool
}

func NewController(cfg config.TourConfig, timeline Timeline) *Controller {
	bounds := Bounds{Min: cfg.MinPosition, Max: cfg.MaxPosition}
	c := &Controller{
		bounds:   bounds,
		rate:     cfg.SmoothingRate,
		epsilon:  cfg.Epsilon,
		lock:     NewNavLock(bounds, cfg.UnlockDelay(), cfg.NavigationDuration()),
		timeline: timeline,
		position: bounds.Min,
		target:   bounds.Min,
	}
	return c
}

// Init forces position and target to Min once per mount. It is skipped
// while a jump is in flight.
func (c *Controller) Init() bool {
	if c.initialized || c.lock.Navigating() {
		return false
	}
	c.initialized = true
	c.position = c.bounds.Min
	c.target = c.bounds.Min
	c.pending = 0
	c.timeline.SetPosition(c.position)
	return true
}

// Nudge applies an input delta to the target. It is dropped while the
// navigation lock blocks input.
func (c *Controller) Nudge(delta float64, now time.Time) bool {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return false
	}
	if c.lock.Locked(now) {
		return false
	}
	if c.lock.Navigating() || c.playing {
		c.pending += delta
		return true
	}
	c.recover()
	c.target = c.bounds.Clamp(c.target + delta)
	return true
}

// JumpTo starts an eased jump from the current position. Any jump in flight
// is superseded.
func (c *Controller) JumpTo(target float64, now time.Time) float64 {
	c.recover()
	c.pending = 0
	return c.lock.Lock(target, c.position, now)
}

// Reset cancels any jump and returns to Min. Safe to call repeatedly.
func (c *Controller) Reset() {
	c.lock.Cancel()
	c.playing = false
	c.pending = 0
	c.position = c.bounds.Min
	c.target = c.bounds.Min
	c.initialized = false
	c.timeline.SetPosition(c.position)
}

// BeginPlay hands the position over to an authored timeline transition
func (c *Controller) BeginPlay() {
	c.playing = true
	c.pending = 0
}

// EndPlay takes the position back. end is where the transition was meant
// to land; an interrupted transition snaps there.
func (c *Controller) EndPlay(end float64) {
	if !c.playing {
		return
	}
	c.playing = false
	c.position = c.bounds.Clamp(end)
	c.target = c.bounds.Clamp(c.position + c.pending)
	c.pending = 0
	c.timeline.SetPosition(c.position)
}

// Step advances one frame and writes the position into the timeline
func (c *Controller) Step(now time.Time) float64 {
	c.recover()

	switch {
	case c.lock.Navigating():
		pos, done := c.lock.Progress(now)
		c.position = pos
		if done {
			c.lock.Complete()
			c.target = c.bounds.Clamp(pos + c.pending)
			c.pending = 0
		}

	case c.playing:
		// the transition owns the timeline; mirror it
		c.position = c.bounds.Clamp(c.timeline.Position())
		c.target = c.position
		return c.position

	default:
		diff := c.target - c.position
		if math.Abs(diff) > c.epsilon {
			c.position += diff * c.rate
		} else {
			c.position = c.target
		}
	}

	c.timeline.SetPosition(c.position)
	return c.position
}

// Converged reports whether the position rests on the target
func (c *Controller) Converged() bool {
	return !c.lock.Navigating() && !c.playing && c.position == c.target
}

func (c *Controller) recover() {
	if math.IsNaN(c.position) {
		c.position = c.bounds.Min
	}
	if math.IsNaN(c.target) {
		c.target = c.bounds.Min
	}
}

func (c *Controller) Position() float64 { return c.position }
func (c *Controller) Target() float64   { return c.target }
func (c *Controller) Bounds() Bounds    { return c.bounds }
func (c *Controller) Lock() *NavLock    { return c.lock }
func (c *Controller) Playing() bool     { return c.playing }
