package tour

import "time"

// NavLock is the discrete chapter-jump state. Locked only blocks new input
// and expires after the unlock delay; Navigating stays set until the eased
// interpolation reaches the target and Complete is called.
type NavLock struct {
	bounds      Bounds
	unlockDelay time.Duration
	duration    time.Duration

	locked     bool
	navigating bool
	target     float64
	start      float64
	startTime  time.Time
	unlockAt   time.Time
}

func NewNavLock(bounds Bounds, unlockDelay, duration time.Duration) *NavLock {
	return &NavLock{bounds: bounds, unlockDelay: unlockDelay, duration: duration}
}

// Lock starts a jump from current to target. A jump already in flight is
// superseded: the new one starts from current, not from the old start.
func (l *NavLock) Lock(target, current float64, now time.Time) float64 {
	l.target = l.bounds.Clamp(target)
	l.start = l.bounds.Clamp(current)
	l.startTime = now
	l.locked = true
	l.navigating = true
	l.unlockAt = now.Add(l.unlockDelay)
	return l.target
}

// Locked reports whether new input is blocked, expiring the flag lazily
func (l *NavLock) Locked(now time.Time) bool {
	if l.locked && !now.Before(l.unlockAt) {
		l.locked = false
	}
	return l.locked
}

// Navigating reports whether a jump animation is in flight
func (l *NavLock) Navigating() bool {
	return l.navigating
}

// Progress returns the eased position at now and whether the jump is done
func (l *NavLock) Progress(now time.Time) (float64, bool) {
	if !l.navigating {
		return l.target, true
	}
	p := 1.0
	if l.duration > 0 {
		p = float64(now.Sub(l.startTime)) / float64(l.duration)
	}
	if p >= 1 {
		return l.target, true
	}
	if p < 0 {
		p = 0
	}
	return Lerp(l.start, l.target, EaseOutCubic(p)), false
}

// Complete ends the animation. The input lock keeps its own deadline.
func (l *NavLock) Complete() {
	l.navigating = false
	l.target = 0
	l.start = 0
	l.startTime = time.Time{}
}

// Cancel drops the jump and the input lock at once
func (l *NavLock) Cancel() {
	l.Complete()
	l.locked = false
	l.unlockAt = time.Time{}
}

func (l *NavLock) Target() float64 { return l.target }

func (l *NavLock) Start() float64 { return l.start }

func (l *NavLock) StartTime() time.Time { return l.startTime }
