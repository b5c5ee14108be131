package tour

import (
	"context"
	"log"
	"time"
)

// Sink receives every frame together with the events emitted since the
// previous one.
type Sink interface {
	Render(frame Frame, events []Event) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Frame, []Event) error

func (f SinkFunc) Render(frame Frame, events []Event) error { return f(frame, events) }

// Runner owns a Session on a single goroutine. Commands from any goroutine
// are serialized through one channel and interleaved with frame ticks, so
// the session never needs a lock.
type Runner struct {
	session  *Session
	sink     Sink
	interval time.Duration
	commands chan Command
	done     chan struct{}
	now      func() time.Time
}

func NewRunner(session *Session, sink Sink, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Second / 60
	}
	r := &Runner{
		session:  session,
		sink:     sink,
		interval: interval,
		commands: make(chan Command, 64),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	session.SetPoster(func(cmd Command) { r.Send(cmd) })
	return r
}

// Send posts a command. It never blocks after the runner has stopped.
func (r *Runner) Send(cmd Command) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.commands <- cmd:
		return true
	case <-r.done:
		return false
	}
}

// Run drives the session until ctx is cancelled or the sink fails
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	defer r.session.Close()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var pending []Event
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd := <-r.commands:
			pending = append(pending, r.session.Handle(r.now(), cmd)...)

		case <-ticker.C:
			frame, events := r.session.Tick(r.now())
			pending = append(pending, events...)
			if err := r.sink.Render(frame, pending); err != nil {
				log.Printf("[!] frame sink: %v", err)
				return err
			}
			pending = nil
		}
	}
}

// Done is closed when Run returns
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
