package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/input"
	"github.com/ivlev/airtour/internal/tour"
)

// A terminal cell stands in for this many pixels when the device profile
// is derived from the terminal size.
const (
	cellWidth  = 8
	cellHeight = 16
	maxNotes   = 5
	userAgent  = "airtour-terminal"
)

// App runs the tour in a terminal. Keys and the mouse wheel are the input
// host, the screen is the renderer.
type App struct {
	cfg      *config.Config
	table    *chapter.Table
	anchored []*chapter.Chapter

	// ModelDelay simulates the asset load that ends the loading screen
	ModelDelay time.Duration

	mu     sync.Mutex
	view   View
	last   tour.Frame
	canvas Canvas
	show   func()
}

func NewApp(cfg *config.Config, table *chapter.Table) *App {
	return &App{
		cfg:        cfg,
		table:      table,
		anchored:   table.Anchored(),
		ModelDelay: 800 * time.Millisecond,
		view: View{
			Table:  table,
			Bounds: tour.Bounds{Min: cfg.Tour.MinPosition, Max: cfg.Tour.MaxPosition},
		},
	}
}

func (a *App) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	a.mu.Lock()
	a.canvas, a.show = screen, screen.Show
	a.mu.Unlock()

	w, h := screen.Size()
	profile := input.DetectProfile(userAgent, w*cellWidth, h*cellHeight, 1)
	interval := a.cfg.Tour.FrameInterval()
	session := tour.NewSession(a.cfg, a.table, tour.NewSequenceTimeline(interval), profile)
	runner := tour.NewRunner(session, a, interval)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- runner.Run(ctx) }()

	go func() {
		select {
		case <-time.After(a.ModelDelay):
			runner.Send(tour.ModelLoaded{})
		case <-ctx.Done():
		}
	}()

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() error {
		cancel()
		if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return stop()
		case err := <-errc:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				cmd, quit := MapKey(ev, a.Frame(), a.anchored)
				if quit {
					return stop()
				}
				if cmd != nil {
					runner.Send(cmd)
				}
			case *tcell.EventMouse:
				if cmd := MapMouse(ev); cmd != nil {
					runner.Send(cmd)
				}
			case *tcell.EventResize:
				screen.Sync()
				w, h := ev.Size()
				runner.Send(tour.Resize{UserAgent: userAgent, Width: w * cellWidth, Height: h * cellHeight, PixelRatio: 1})
			}
		}
	}
}

// Render implements tour.Sink
func (a *App) Render(f tour.Frame, events []tour.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, ev := range events {
		note := string(ev.Kind)
		if ev.Chapter != "" {
			note += " " + ev.Chapter
		}
		a.view.Notes = append(a.view.Notes, note)
	}
	if n := len(a.view.Notes); n > maxNotes {
		a.view.Notes = a.view.Notes[n-maxNotes:]
	}
	a.last = f

	if a.canvas == nil {
		return nil
	}
	a.view.Draw(a.canvas, f)
	if a.show != nil {
		a.show()
	}
	return nil
}

// Frame is the last frame rendered
func (a *App) Frame() tour.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
