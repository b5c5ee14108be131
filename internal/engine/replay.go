package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/script"
	"github.com/ivlev/airtour/internal/tour"
)

// Replay runs the script against a fresh session on a simulated clock and
// records every frame. The same script always gives the same trace.
func Replay(cfg *config.Config, table *chapter.Table, sc *script.Script, fps int) (*Trace, error) {
	if sc.FPS > 0 {
		fps = sc.FPS
	}
	if fps <= 0 {
		return nil, fmt.Errorf("replay fps must be positive")
	}

	base := time.Unix(0, 0).UTC()
	dt := time.Second / time.Duration(fps)

	tl := newClockTimeline()
	posted := make(chan tour.Command, 16)
	session := tour.NewSession(cfg, table, tl, sc.Profile())
	session.SetPoster(func(cmd tour.Command) { posted <- cmd })
	defer session.Close()

	trace := &Trace{Title: sc.Title, FPS: fps}
	frames := sc.Frames(fps)
	next := 0

	for i := 0; i < frames; i++ {
		now := base.Add(time.Duration(i) * dt)
		var events []tour.Event

		for next < len(sc.Steps) && sc.Steps[next].Offset() <= now.Sub(base) {
			st := sc.Steps[next]
			next++

			cmd, err := st.ToCommand(base, sc.Device)
			if err != nil {
				return nil, err
			}
			tl.setNow(now)
			wasPlaying := session.Controller().Playing()
			started := tl.plays()

			events = append(events, session.Handle(now, cmd)...)

			playing := session.Controller().Playing()
			switch {
			case !wasPlaying && playing:
				// transition goroutine must register before the clock moves
				tl.waitPlays(started + 1)
			case wasPlaying && !playing:
				// cancelled transition reports back; drain it now
				events = append(events, session.Handle(now, <-posted)...)
			}
		}

		if tl.advance(now) {
			events = append(events, session.Handle(now, <-posted)...)
		}

		frame, tickEvents := session.Tick(now)
		events = append(events, tickEvents...)

		if cfg.Render.Debug {
			for _, ev := range events {
				log.Printf("[*] %6.2fs %s %s", now.Sub(base).Seconds(), ev.Kind, ev.Chapter)
			}
		}

		trace.Frames = append(trace.Frames, TraceFrame{
			Time:   now.Sub(base).Seconds(),
			Frame:  frame,
			Events: events,
		})
	}

	return trace, nil
}
