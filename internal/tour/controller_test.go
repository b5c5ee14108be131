package tour

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/airtour/internal/config"
)

const frame = time.Second / 60

func newController() (*Controller, *SequenceTimeline) {
	tl := NewSequenceTimeline(0)
	return NewController(config.Default().Tour, tl), tl
}

func TestTargetAlwaysClamped(t *testing.T) {
	c, _ := newController()
	r := rand.New(rand.NewSource(42))
	now := time.Unix(0, 0)

	for i := 0; i < 5000; i++ {
		delta := (r.Float64() - 0.5) * 4
		c.Nudge(delta, now)
		if i%7 == 0 {
			now = now.Add(frame)
			c.Step(now)
		}
		if !c.Bounds().Contains(c.Target()) {
			t.Fatalf("step %d: target %f escaped bounds", i, c.Target())
		}
	}
}

func TestSmoothingConverges(t *testing.T) {
	c, tl := newController()
	now := time.Unix(0, 0)
	c.Nudge(100, now)
	require.Equal(t, 6.7, c.Target())

	prev := c.Position()
	steps := 0
	for !c.Converged() {
		now = now.Add(frame)
		pos := c.Step(now)
		require.GreaterOrEqual(t, pos, prev, "position must not oscillate")
		require.LessOrEqual(t, pos, c.Target(), "position must not overshoot")
		prev = pos
		steps++
		require.Less(t, steps, 500, "smoothing did not converge")
	}
	assert.Equal(t, c.Target(), c.Position())
	assert.Equal(t, c.Position(), tl.Position(), "timeline must receive the position")
}

func TestNaNRecoversToMin(t *testing.T) {
	c, _ := newController()
	c.position = math.NaN()
	c.target = math.NaN()

	pos := c.Step(time.Unix(0, 0))
	assert.Equal(t, 0.1, pos)
	assert.Equal(t, 0.1, c.Target())

	assert.False(t, c.Nudge(math.NaN(), time.Unix(0, 0)))
	assert.Equal(t, 0.1, c.Target())
}

func TestJumpExcludesSmoothing(t *testing.T) {
	c, _ := newController()
	t0 := time.Unix(100, 0)
	start := c.Position()
	c.JumpTo(4.0, t0)

	// Input is blocked while locked
	assert.False(t, c.Nudge(1.0, t0.Add(500*time.Millisecond)))

	for now := t0.Add(frame); now.Before(t0.Add(3 * time.Second)); now = now.Add(frame) {
		if now.After(t0.Add(1500 * time.Millisecond)) {
			// Unlocked but still navigating: accepted without touching the curve
			require.True(t, c.Nudge(0.01, now))
		}
		pos := c.Step(now)
		p := float64(now.Sub(t0)) / float64(3*time.Second)
		require.InDelta(t, Lerp(start, 4.0, EaseOutCubic(p)), pos, 1e-9, "at %v", now.Sub(t0))
		require.True(t, c.Lock().Navigating())
	}

	c.Step(t0.Add(3 * time.Second))
	assert.False(t, c.Lock().Navigating())
	assert.Equal(t, 4.0, c.Position(), "jump must land exactly")
	assert.Greater(t, c.Target(), 4.0, "input accepted after unlock is kept")
	assert.LessOrEqual(t, c.Target(), 6.7)
}

func TestJumpMirrorsTarget(t *testing.T) {
	c, _ := newController()
	t0 := time.Unix(0, 0)
	c.JumpTo(2.0, t0)
	c.Step(t0.Add(4 * time.Second))

	assert.Equal(t, 2.0, c.Position())
	assert.Equal(t, 2.0, c.Target())

	// No snap-back on the following frames
	for i := 1; i <= 10; i++ {
		c.Step(t0.Add(4*time.Second + time.Duration(i)*frame))
	}
	assert.Equal(t, 2.0, c.Position())
}

func TestJumpSupersession(t *testing.T) {
	c, _ := newController()
	t0 := time.Unix(0, 0)
	c.JumpTo(2.0, t0)

	now := t0
	for now.Before(t0.Add(100 * time.Millisecond)) {
		now = now.Add(frame)
		c.Step(now)
	}
	mid := c.Position()
	require.Greater(t, mid, 0.1)
	require.Less(t, mid, 2.0)

	second := t0.Add(100 * time.Millisecond)
	c.JumpTo(4.0, second)
	assert.Equal(t, mid, c.Lock().Start(), "second jump starts from the current position")
	assert.Equal(t, second, c.Lock().StartTime())

	// Continuous: the first frame after the restart stays near mid
	next := c.Step(second.Add(frame))
	assert.InDelta(t, mid, next, 0.1)

	c.Step(second.Add(3 * time.Second))
	assert.Equal(t, 4.0, c.Position())
	assert.Equal(t, 4.0, c.Target())
	assert.False(t, c.Lock().Navigating())
}

func TestJumpClampsTarget(t *testing.T) {
	c, _ := newController()
	assert.Equal(t, 6.7, c.JumpTo(42, time.Unix(0, 0)))
	assert.Equal(t, 0.1, c.JumpTo(-3, time.Unix(0, 0)))
	assert.Equal(t, 0.1, c.JumpTo(math.NaN(), time.Unix(0, 0)))
}

func TestInitOnce(t *testing.T) {
	c, _ := newController()
	now := time.Unix(0, 0)

	require.True(t, c.Init())
	c.Nudge(1, now)
	c.Step(now.Add(frame))
	assert.False(t, c.Init(), "second mount must not reset")
	assert.Greater(t, c.Position(), 0.1)

	c.Reset()
	c.JumpTo(3, now)
	assert.False(t, c.Init(), "init must not race a jump in flight")
	assert.True(t, c.Lock().Navigating())
}

func TestPlayOwnsPosition(t *testing.T) {
	c, tl := newController()
	now := time.Unix(0, 0)
	c.BeginPlay()

	tl.SetPosition(0.6)
	c.Nudge(1, now)
	assert.Equal(t, 0.6, c.Step(now))
	assert.Equal(t, 0.6, tl.Position(), "controller must not write during a transition")

	// Interrupted transition snaps to where it was meant to land
	c.EndPlay(0.8)
	assert.False(t, c.Playing())
	assert.Equal(t, 0.8, c.Position())
	assert.Equal(t, 1.8, c.Target())
	assert.Equal(t, 0.8, tl.Position())
}

func TestNavLockExpiresLazily(t *testing.T) {
	l := NewNavLock(Bounds{Min: 0.1, Max: 6.7}, time.Second, 3*time.Second)
	t0 := time.Unix(0, 0)
	l.Lock(5, 1, t0)

	assert.True(t, l.Locked(t0.Add(999*time.Millisecond)))
	assert.False(t, l.Locked(t0.Add(time.Second)))
	assert.True(t, l.Navigating(), "navigation outlives the input lock")

	l.Cancel()
	assert.False(t, l.Navigating())
	assert.False(t, l.Locked(t0))
}
