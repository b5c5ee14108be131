package tour

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/input"
)

// Session is the tour state machine: mode, position controller, chapter
// resolver, selection and input normalizer. It is not safe for concurrent
// use; the Runner owns it.
type Session struct {
	cfg      config.TourConfig
	table    *chapter.Table
	anchored []*chapter.Chapter
	timeline Timeline

	ctrl     *Controller
	resolver *chapter.Resolver
	input    *input.Normalizer
	sel      Selection

	mode        Mode
	modelLoaded bool
	seq         uint64

	post       func(Command)
	playGen    uint64
	playCancel context.CancelFunc
}

// NewSession creates a session in the entry mode with the position at Min
func NewSession(cfg *config.Config, table *chapter.Table, timeline Timeline, profile input.DeviceProfile) *Session {
	s := &Session{
		cfg:      cfg.Tour,
		table:    table,
		anchored: table.Anchored(),
		timeline: timeline,
		ctrl:     NewController(cfg.Tour, timeline),
		resolver: chapter.NewResolver(table, cfg.Tour.Hysteresis),
		input:    input.NewNormalizer(cfg.Input, profile),
	}
	timeline.SetPosition(s.ctrl.Position())
	return s
}

// SetPoster installs the callback used to post asynchronous completions
// back into the command stream. Without a poster authored transitions are
// skipped.
func (s *Session) SetPoster(post func(Command)) {
	s.post = post
}

// Handle applies one command and returns the notifications it produced
func (s *Session) Handle(now time.Time, cmd Command) []Event {
	var events []Event
	emit := func(kind EventKind, id string) {
		events = append(events, Event{Kind: kind, Chapter: id})
	}

	switch c := cmd.(type) {
	case StartTour:
		if s.mode != ModeEntry {
			return nil
		}
		emit(EventHideControlPanel, "")
		s.setMode(ModeLoading)
		if s.modelLoaded {
			s.setMode(ModeExploring)
		}
		s.ctrl.Init()
		s.startIntro()

	case ModelLoaded:
		if s.modelLoaded {
			return nil
		}
		s.modelLoaded = true
		emit(EventModelLoaded, "")
		if s.mode == ModeLoading {
			s.setMode(ModeExploring)
		}

	case EndTour:
		s.endTour(emit)

	case Compare:
		if s.mode == ModeEntry {
			emit(EventHideControlPanel, "")
			s.setMode(ModeComparing)
		}

	case Back:
		if s.mode == ModeComparing {
			emit(EventShowControlPanel, "")
			s.setMode(ModeEntry)
		}

	case Wheel:
		s.apply(s.input.Wheel(c.WheelEvent), now, emit)
	case TouchStart:
		s.apply(s.input.TouchStart(c.TouchEvent), now, emit)
	case TouchMove:
		s.apply(s.input.TouchMove(c.TouchEvent), now, emit)
	case TouchEnd:
		s.apply(s.input.TouchEnd(c.TouchEvent), now, emit)
	case Key:
		s.apply(s.input.Key(c.Name), now, emit)

	case Resize:
		s.input.SetProfile(input.DetectProfile(c.UserAgent, c.Width, c.Height, c.PixelRatio))

	case JumpToChapter:
		if s.mode != ModeExploring {
			return nil
		}
		ch, ok := s.table.Find(c.ID)
		if !ok {
			log.Printf("[!] jump to unknown chapter %q ignored", c.ID)
			return nil
		}
		target, ok := ch.Target()
		if !ok {
			log.Printf("[!] chapter %q has no anchor or range, jump ignored", c.ID)
			return nil
		}
		s.jump(target, now)

	case JumpTo:
		if s.mode == ModeExploring && !math.IsNaN(c.Position) {
			s.jump(c.Position, now)
		}

	case NextChapter:
		if s.mode == ModeExploring && s.canNext(now) {
			target, _ := s.anchored[s.chapterIndex()+1].Target()
			s.jump(target, now)
		}

	case PrevChapter:
		if s.mode == ModeExploring && s.canPrev(now) {
			target, _ := s.anchored[s.chapterIndex()-1].Target()
			s.jump(target, now)
		}

	case ClickHotspot:
		s.open(c.ID, emit)

	case ClickMesh:
		s.open(c.Name, emit)

	case CloseDetail:
		if s.sel.Close() {
			emit(EventHotspotClosed, "")
		}

	case SetSensitivity:
		s.input.SetSensitivity(c.Value)

	case playDone:
		if c.gen != s.playGen || !s.ctrl.Playing() {
			return nil
		}
		s.playCancel = nil
		if c.err != nil {
			if !errors.Is(c.err, ErrInterrupted) {
				log.Printf("[!] transition failed: %v", c.err)
			}
			log.Printf("[*] transition interrupted, snapping to %.3f", c.end)
		}
		s.ctrl.EndPlay(c.end)

	default:
		log.Printf("[!] unknown command %T", cmd)
	}

	return events
}

// Tick advances one frame: the controller writes the position first, then
// the resolver reads it.
func (s *Session) Tick(now time.Time) (Frame, []Event) {
	var events []Event

	pos := s.ctrl.Step(now)
	if s.mode == ModeExploring {
		ch, changed := s.resolver.Update(pos)
		if changed {
			id := ""
			if ch != nil {
				id = ch.ID
			}
			events = append(events, Event{Kind: EventChapterChanged, Chapter: id})
		}
	}

	s.seq++
	return s.snapshot(now), events
}

// Close cancels any running transition
func (s *Session) Close() {
	s.cancelPlay()
}

func (s *Session) apply(res input.Result, now time.Time, emit func(EventKind, string)) {
	if res.EndTour {
		s.endTour(emit)
		return
	}
	if res.HasDelta {
		s.ctrl.Nudge(res.Delta, now)
	}
}

// endTour resets everything at once. Calling it again changes nothing.
func (s *Session) endTour(emit func(EventKind, string)) {
	s.cancelPlay()
	s.ctrl.Reset()
	s.resolver.Clear()
	s.sel.Close()

	if s.mode == ModeEntry {
		return
	}
	s.setMode(ModeEntry)
	emit(EventTourEnded, "")
	emit(EventShowControlPanel, "")
}

func (s *Session) jump(target float64, now time.Time) {
	if s.ctrl.Playing() {
		s.cancelPlay()
		s.ctrl.EndPlay(s.ctrl.Position())
	}
	s.ctrl.JumpTo(target, now)
}

func (s *Session) open(id string, emit func(EventKind, string)) {
	if s.mode != ModeExploring {
		return
	}
	ch, ok := s.table.Find(id)
	if !ok || ch.Hotspot == nil {
		log.Printf("[!] no hotspot for %q, click ignored", id)
		return
	}
	s.sel.Select(ch)
	emit(EventHotspotOpened, ch.ID)
}

func (s *Session) startIntro() {
	opts := PlayOptions{Range: s.cfg.IntroRange, Rate: s.cfg.IntroRate, Direction: Forward}
	if opts.Empty() || s.post == nil {
		return
	}

	s.cancelPlay()
	ctx, cancel := context.WithCancel(context.Background())
	s.playGen++
	s.playCancel = cancel
	s.ctrl.BeginPlay()

	gen, post, timeline := s.playGen, s.post, s.timeline
	go func() {
		err := timeline.Play(ctx, opts)
		post(playDone{gen: gen, end: opts.To(), err: err})
	}()
}

func (s *Session) cancelPlay() {
	s.playGen++
	if s.playCancel != nil {
		s.playCancel()
		s.playCancel = nil
	}
}

func (s *Session) setMode(m Mode) {
	s.mode = m
	s.input.SetActive(m.InputActive())
}

// chapterIndex is the anchored chapter the position rests on, or -1
func (s *Session) chapterIndex() int {
	pos := s.ctrl.Position()
	for i, ch := range s.anchored {
		anchor, _ := ch.Target()
		if math.Abs(pos-anchor) < s.cfg.AnchorTolerance {
			return i
		}
	}
	return -1
}

func (s *Session) canPrev(now time.Time) bool {
	return s.chapterIndex() > 0 && !s.ctrl.Lock().Locked(now)
}

func (s *Session) canNext(now time.Time) bool {
	return s.chapterIndex() < len(s.anchored)-1 && !s.ctrl.Lock().Locked(now)
}

func (s *Session) snapshot(now time.Time) Frame {
	f := Frame{
		Seq:          s.seq,
		Mode:         s.mode,
		Position:     s.ctrl.Position(),
		Target:       s.ctrl.Target(),
		Progress:     s.ctrl.Bounds().Progress(s.ctrl.Position()),
		Locked:       s.ctrl.Lock().Locked(now),
		Navigating:   s.ctrl.Lock().Navigating(),
		Playing:      s.ctrl.Playing(),
		ChapterIndex: s.chapterIndex(),
		CanPrev:      s.canPrev(now),
		CanNext:      s.canNext(now),
		Sensitivity:  s.input.Sensitivity(),
		Profile:      s.input.Profile(),
	}
	if ch := s.resolver.Active(); ch != nil {
		f.Chapter = ch.ID
	}
	if ch := s.sel.Hotspot(); ch != nil {
		f.Hotspot = ch.ID
	}
	if ch := s.sel.Video(); ch != nil {
		f.Video = ch.ID
	}
	return f
}

// Frame returns the current snapshot without advancing
func (s *Session) Frame(now time.Time) Frame {
	return s.snapshot(now)
}

func (s *Session) Mode() Mode                      { return s.mode }
func (s *Session) Controller() *Controller         { return s.ctrl }
func (s *Session) Table() *chapter.Table           { return s.table }
func (s *Session) ActiveChapter() *chapter.Chapter { return s.resolver.Active() }
func (s *Session) Selection() *Selection           { return &s.sel }
