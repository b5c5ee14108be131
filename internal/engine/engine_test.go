package engine

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/script"
	"github.com/ivlev/airtour/internal/tour"
	"github.com/ivlev/airtour/internal/video"
)

func hasEvent(events []tour.Event, kind tour.EventKind, id string) bool {
	for _, ev := range events {
		if ev.Kind == kind && ev.Chapter == id {
			return true
		}
	}
	return false
}

func TestReplaySample(t *testing.T) {
	cfg := config.Default()
	sc := script.Sample()

	trace, err := Replay(cfg, chapter.Default(), sc, 30)
	require.NoError(t, err)
	require.Len(t, trace.Frames, 720)
	assert.InDelta(t, 24.0, trace.Duration(), 1e-9)

	events := trace.Events()
	assert.True(t, hasEvent(events, tour.EventHideControlPanel, ""))
	assert.True(t, hasEvent(events, tour.EventModelLoaded, ""))
	assert.True(t, hasEvent(events, tour.EventHotspotOpened, "Geom3D_393"))
	assert.True(t, hasEvent(events, tour.EventChapterChanged, "Air Purification"))
	assert.True(t, hasEvent(events, tour.EventTourEnded, ""))
	assert.True(t, hasEvent(events, tour.EventShowControlPanel, ""))

	var sawHotspot bool
	for _, f := range trace.Frames {
		assert.GreaterOrEqual(t, f.Frame.Position, cfg.Tour.MinPosition)
		assert.LessOrEqual(t, f.Frame.Position, cfg.Tour.MaxPosition)
		if f.Frame.Hotspot == "Geom3D_393" {
			sawHotspot = true
		}
	}
	assert.True(t, sawHotspot)

	last := trace.Frames[len(trace.Frames)-1].Frame
	assert.Equal(t, tour.ModeEntry, last.Mode)
	assert.Equal(t, cfg.Tour.MinPosition, last.Position)
	assert.Empty(t, last.Hotspot)
}

func TestReplayIsDeterministic(t *testing.T) {
	cfg := config.Default()
	cfg.Tour.IntroRange = [2]float64{0.1, 1.5}
	cfg.Tour.IntroRate = 1

	sc := &script.Script{
		Title:    "intro",
		Duration: 4,
		FPS:      30,
		Steps: []script.Step{
			{At: 0, Action: script.ActionModelLoaded},
			{At: 0.1, Action: script.ActionStart},
			{At: 0.5, Action: script.ActionWheel, Delta: 100},
		},
	}

	a, err := Replay(cfg, chapter.Default(), sc, 60)
	require.NoError(t, err)
	b, err := Replay(cfg, chapter.Default(), sc, 60)
	require.NoError(t, err)

	// script fps wins
	assert.Equal(t, 30, a.FPS)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("replays differ (-first +second):\n%s", diff)
	}

	var played, finished bool
	for _, f := range a.Frames {
		if f.Frame.Playing {
			played = true
		} else if played {
			finished = true
		}
	}
	assert.True(t, played, "intro never played")
	assert.True(t, finished, "intro never finished")
	// wheel input during the intro is carried past it
	assert.Greater(t, a.Frames[len(a.Frames)-1].Frame.Target, 1.5)
}

func TestReplayJumpCancelsIntro(t *testing.T) {
	cfg := config.Default()
	cfg.Tour.IntroRange = [2]float64{0.1, 3}
	cfg.Tour.IntroRate = 0.5

	sc := &script.Script{
		Duration: 5,
		Steps: []script.Step{
			{At: 0, Action: script.ActionModelLoaded},
			{At: 0, Action: script.ActionStart},
			{At: 0.5, Action: script.ActionJump, Chapter: "Air Purification"},
		},
	}

	trace, err := Replay(cfg, chapter.Default(), sc, 30)
	require.NoError(t, err)

	last := trace.Frames[len(trace.Frames)-1].Frame
	assert.False(t, last.Playing)
	assert.InDelta(t, 4.0, last.Position, 1e-9)
	assert.Equal(t, "Air Purification", last.Chapter)
}

func TestReplayRejectsZeroFPS(t *testing.T) {
	_, err := Replay(config.Default(), chapter.Default(), &script.Script{Duration: 1}, 0)
	assert.Error(t, err)
}

func TestTraceWriteRead(t *testing.T) {
	trace, err := Replay(config.Default(), chapter.Default(), script.Sample(), 10)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, WriteTrace(trace, path))

	got, err := ReadTrace(path)
	require.NoError(t, err)
	if diff := cmp.Diff(trace, got, cmpopts.IgnoreFields(tour.Frame{}, "Profile")); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

type countingEncoder struct {
	mu     sync.Mutex
	params config.SegmentParams
	opts   video.Options
	frames int
	closed bool
	size   image.Rectangle
	fail   error
}

func (e *countingEncoder) Start(ctx context.Context, output string, params config.SegmentParams, opts video.Options) (video.FrameWriter, error) {
	e.params = params
	e.opts = opts
	return e, nil
}

func (e *countingEncoder) WriteFrame(img image.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail != nil {
		return e.fail
	}
	e.frames++
	e.size = img.Bounds()
	return nil
}

func (e *countingEncoder) Close() error {
	e.closed = true
	return nil
}

func previewConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Render.Width = 160
	cfg.Render.Height = 90
	cfg.Render.FPS = 10
	cfg.Render.Workers = 2
	cfg.Render.OutputVideo = filepath.Join(t.TempDir(), "preview.mp4")
	cfg.Render.TracePath = filepath.Join(t.TempDir(), "trace.yaml")
	return cfg
}

func TestPreviewRun(t *testing.T) {
	cfg := previewConfig(t)
	enc := &countingEncoder{}
	p := NewPreview(cfg, chapter.Default(), script.Sample(), nil, enc)

	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 240, enc.frames)
	assert.True(t, enc.closed)
	assert.Equal(t, image.Rect(0, 0, 160, 90), enc.size)
	assert.Equal(t, 10, enc.params.FPS)
	assert.InDelta(t, 24.0, enc.params.Duration, 1e-9)
	assert.Contains(t, enc.params.Filter, "fade")
	assert.Equal(t, "libx264", enc.opts.Encoder)

	trace, err := ReadTrace(cfg.Render.TracePath)
	require.NoError(t, err)
	assert.Len(t, trace.Frames, 240)
}

func TestPreviewEncoderError(t *testing.T) {
	cfg := previewConfig(t)
	boom := errors.New("pipe closed")
	enc := &countingEncoder{fail: boom}
	p := NewPreview(cfg, chapter.Default(), script.Sample(), nil, enc)

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, enc.closed)
}

func TestPreviewWithoutEncoder(t *testing.T) {
	cfg := previewConfig(t)
	p := NewPreview(cfg, chapter.Default(), script.Sample(), nil, nil)
	assert.Error(t, p.Run(context.Background()))
}
