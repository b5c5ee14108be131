package tour

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrInterrupted is returned by Play when the transition was cancelled or
// superseded before reaching the end of its range.
var ErrInterrupted = errors.New("timeline: play interrupted")

// PlayDirection of an authored transition
type PlayDirection string

const (
	Forward PlayDirection = "normal"
	Reverse PlayDirection = "reverse"
)

// PlayOptions describes one authored transition over the sequence
type PlayOptions struct {
	Range     [2]float64    `yaml:"range" json:"range"`
	Rate      float64       `yaml:"rate" json:"rate"`
	Direction PlayDirection `yaml:"direction" json:"direction"`
}

// From and To return the endpoints in playback order
func (o PlayOptions) From() float64 {
	if o.Direction == Reverse {
		return o.Range[1]
	}
	return o.Range[0]
}

func (o PlayOptions) To() float64 {
	if o.Direction == Reverse {
		return o.Range[0]
	}
	return o.Range[1]
}

// Duration at the given rate. Sequence positions are seconds of the
// authored animation at rate 1.
func (o PlayOptions) Duration() time.Duration {
	rate := o.Rate
	if rate <= 0 {
		rate = 1
	}
	span := math.Abs(o.Range[1] - o.Range[0])
	return time.Duration(span / rate * float64(time.Second))
}

// Empty reports whether there is nothing to play
func (o PlayOptions) Empty() bool {
	return o.Range[0] == o.Range[1]
}

func (o PlayOptions) validate() error {
	if math.IsNaN(o.Range[0]) || math.IsNaN(o.Range[1]) {
		return fmt.Errorf("timeline: invalid range %v", o.Range)
	}
	if o.Direction != "" && o.Direction != Forward && o.Direction != Reverse {
		return fmt.Errorf("timeline: unknown direction %q", o.Direction)
	}
	return nil
}

// Timeline is the authored camera animation. The controller writes the
// position every frame; Play animates it across a range and blocks until
// the transition completes or is interrupted.
type Timeline interface {
	Position() float64
	SetPosition(float64)
	Play(ctx context.Context, opts PlayOptions) error
}

// SequenceTimeline is an in-memory Timeline. Play is driven by its own
// ticker and is safe to call from another goroutine than the frame loop.
type SequenceTimeline struct {
	mu       sync.Mutex
	position float64
	playing  uint64
	tick     time.Duration
}

// NewSequenceTimeline creates a timeline that advances Play every tick
func NewSequenceTimeline(tick time.Duration) *SequenceTimeline {
	if tick <= 0 {
		tick = time.Second / 60
	}
	return &SequenceTimeline{tick: tick}
}

func (t *SequenceTimeline) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

func (t *SequenceTimeline) SetPosition(v float64) {
	t.mu.Lock()
	t.position = v
	t.mu.Unlock()
}

// Play animates the position linearly from the start of the range to its
// end. A later Play supersedes this one, which then returns ErrInterrupted.
func (t *SequenceTimeline) Play(ctx context.Context, opts PlayOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	t.mu.Lock()
	t.playing++
	gen := t.playing
	t.position = opts.From()
	t.mu.Unlock()

	total := opts.Duration()
	if total <= 0 {
		t.SetPosition(opts.To())
		return nil
	}

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()
	started := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ErrInterrupted
		case now := <-ticker.C:
			p := float64(now.Sub(started)) / float64(total)
			if p > 1 {
				p = 1
			}

			t.mu.Lock()
			if t.playing != gen {
				t.mu.Unlock()
				return ErrInterrupted
			}
			t.position = Lerp(opts.From(), opts.To(), p)
			t.mu.Unlock()

			if p >= 1 {
				return nil
			}
		}
	}
}
