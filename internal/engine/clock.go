package engine

import (
	"context"
	"sync"
	"time"

	"github.com/ivlev/airtour/internal/tour"
)

// clockTimeline is a Timeline driven by the replay's simulated clock
// instead of a ticker, so authored transitions land on the same frame
// every run.
type clockTimeline struct {
	mu       sync.Mutex
	cond     *sync.Cond
	now      time.Time
	position float64
	active   *clockPlay
	started  int
}

type clockPlay struct {
	opts        tour.PlayOptions
	start       time.Time
	done        chan struct{}
	interrupted chan struct{}
}

func newClockTimeline() *clockTimeline {
	t := &clockTimeline{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *clockTimeline) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

func (t *clockTimeline) SetPosition(v float64) {
	t.mu.Lock()
	t.position = v
	t.mu.Unlock()
}

// Play registers the transition at the current simulated time and blocks
// until advance reaches its end.
func (t *clockTimeline) Play(ctx context.Context, opts tour.PlayOptions) error {
	p := &clockPlay{opts: opts, done: make(chan struct{}), interrupted: make(chan struct{})}

	t.mu.Lock()
	if t.active != nil {
		close(t.active.interrupted)
	}
	p.start = t.now
	t.active = p
	t.position = opts.From()
	t.started++
	t.cond.Broadcast()
	t.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-p.interrupted:
		return tour.ErrInterrupted
	case <-ctx.Done():
		t.mu.Lock()
		if t.active == p {
			t.active = nil
		}
		t.mu.Unlock()
		return tour.ErrInterrupted
	}
}

func (t *clockTimeline) setNow(now time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

func (t *clockTimeline) plays() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// waitPlays blocks until n transitions have been registered
func (t *clockTimeline) waitPlays(n int) {
	t.mu.Lock()
	for t.started < n {
		t.cond.Wait()
	}
	t.mu.Unlock()
}

// advance moves the active transition to now. Returns true when it has
// just finished.
func (t *clockTimeline) advance(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.now = now
	p := t.active
	if p == nil {
		return false
	}

	total := p.opts.Duration()
	elapsed := now.Sub(p.start)
	if total <= 0 || elapsed >= total {
		t.position = p.opts.To()
		t.active = nil
		close(p.done)
		return true
	}
	t.position = tour.Lerp(p.opts.From(), p.opts.To(), float64(elapsed)/float64(total))
	return false
}
