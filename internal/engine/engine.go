package engine

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/renderer"
	"github.com/ivlev/airtour/internal/script"
	"github.com/ivlev/airtour/internal/source"
	"github.com/ivlev/airtour/internal/system"
	"github.com/ivlev/airtour/internal/tour"
	"github.com/ivlev/airtour/internal/video"
)

// Preview replays an input script headlessly and renders the walkthrough
type Preview struct {
	Config    *config.Config
	Table     *chapter.Table
	Script    *script.Script
	Backdrops *source.Backdrops
	Encoder   video.VideoEncoder

	// BenchmarkLog receives one line per run when ShowStats is set
	BenchmarkLog string
}

func NewPreview(cfg *config.Config, table *chapter.Table, sc *script.Script, backdrops *source.Backdrops, enc video.VideoEncoder) *Preview {
	return &Preview{
		Config:       cfg,
		Table:        table,
		Script:       sc,
		Backdrops:    backdrops,
		Encoder:      enc,
		BenchmarkLog: "benchmark.log",
	}
}

func (p *Preview) Run(ctx context.Context) error {
	rc := p.Config.Render
	startTime := time.Now()

	fmt.Println("--- [AIRTOUR: PREVIEW] ---")
	fmt.Printf("[*] Script: %s | Steps: %d | Duration: %.1fs\n", p.Script.Title, len(p.Script.Steps), p.Script.Duration)
	fmt.Printf("[*] Resolution: %dx%d @ %d FPS | Workers: %d\n", rc.Width, rc.Height, rc.FPS, rc.Workers)
	fmt.Println("--------------------------")

	trace, err := Replay(p.Config, p.Table, p.Script, rc.FPS)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	replayTime := time.Since(startTime)
	fmt.Printf("[*] Replayed %d frames, %d events\n", len(trace.Frames), len(trace.Events()))

	if rc.TracePath != "" {
		if dir := filepath.Dir(rc.TracePath); dir != "." {
			os.MkdirAll(dir, 0755)
		}
		if err := WriteTrace(trace, rc.TracePath); err != nil {
			return fmt.Errorf("write trace: %w", err)
		}
		fmt.Printf("[+++] Trace saved: %s\n", rc.TracePath)
	}

	var renderTime time.Duration
	if rc.OutputVideo != "" {
		renderStart := time.Now()
		if err := p.renderVideo(ctx, trace); err != nil {
			return err
		}
		renderTime = time.Since(renderStart)
		fmt.Printf("[+++] Video saved: %s\n", rc.OutputVideo)
	}

	if rc.ShowStats {
		p.report(trace, time.Since(startTime), replayTime, renderTime)
	}
	return nil
}

// renderVideo rasterizes frames in batches on a worker pool and streams
// each batch into the encoder in order
func (p *Preview) renderVideo(ctx context.Context, trace *Trace) error {
	rc := p.Config.Render
	if p.Encoder == nil {
		return fmt.Errorf("no video encoder configured")
	}

	var backdrop renderer.BackdropFunc
	if p.Backdrops != nil {
		backdrop = func(sheet int) (image.Image, error) { return p.Backdrops.Page(sheet) }
	}
	bounds := tour.Bounds{Min: p.Config.Tour.MinPosition, Max: p.Config.Tour.MaxPosition}
	fr := renderer.NewFrameRenderer(rc.Width, rc.Height, p.Table, bounds, backdrop)

	params := config.SegmentParams{
		Width:        rc.Width,
		Height:       rc.Height,
		FPS:          trace.FPS,
		Duration:     trace.Duration(),
		FadeDuration: rc.FadeDuration,
		Debug:        rc.Debug,
	}
	params.Filter = renderer.OutputFilter(params)

	stream, err := p.Encoder.Start(ctx, rc.OutputVideo, params, video.Options{
		Encoder:   rc.VideoEncoder,
		Quality:   rc.Quality,
		AudioPath: rc.AudioPath,
	})
	if err != nil {
		return fmt.Errorf("start encoder: %w", err)
	}

	workers := rc.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers()
	}
	batch := workers * 4
	total := len(trace.Frames)

	for start := 0; start < total; start += batch {
		end := start + batch
		if end > total {
			end = total
		}

		imgs := make([]*image.RGBA, end-start)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				img, err := fr.Render(trace.Frames[i].Frame)
				if err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
				imgs[i-start] = img
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			release(imgs)
			stream.Close()
			return err
		}

		for j, img := range imgs {
			if err := stream.WriteFrame(img); err != nil {
				release(imgs[j:])
				stream.Close()
				return fmt.Errorf("encode frame %d: %w", start+j, err)
			}
			system.PutFrame(img)
		}
		fmt.Printf("[>] Ready: %d/%d\n", end, total)
	}

	return stream.Close()
}

func release(imgs []*image.RGBA) {
	for _, img := range imgs {
		system.PutFrame(img)
	}
}

func (p *Preview) report(trace *Trace, totalTime, replayTime, renderTime time.Duration) {
	rc := p.Config.Render
	host := system.CollectHostStats(200 * time.Millisecond)
	fps := float64(len(trace.Frames)) / totalTime.Seconds()

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Host: %s\n"+
			"Total Time: %.2fs\n"+
			"Replay: %.2fs\n"+
			"Rendering + Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		rc.BuildVersion, host, totalTime.Seconds(), replayTime.Seconds(), renderTime.Seconds(), fps,
	)
	fmt.Print(report)

	if p.BenchmarkLog == "" {
		return
	}
	logEntry := fmt.Sprintf("[%s] Build: %s | Script: %s | Frames: %d | Total: %.2fs | Replay: %.2fs | Render: %.2fs | FPS: %.2f | CPU: %.1f%%\n",
		time.Now().Format("2006-01-02 15:04:05"),
		rc.BuildVersion,
		filepath.Base(rc.ScriptPath),
		len(trace.Frames),
		totalTime.Seconds(),
		replayTime.Seconds(),
		renderTime.Seconds(),
		fps,
		host.CPUPercent,
	)

	f, err := os.OpenFile(p.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		log.Printf("[!] Failed to write %s: %v", p.BenchmarkLog, err)
	}
}
