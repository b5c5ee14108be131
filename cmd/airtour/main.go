package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/engine"
	"github.com/ivlev/airtour/internal/script"
	"github.com/ivlev/airtour/internal/server"
	"github.com/ivlev/airtour/internal/source"
	"github.com/ivlev/airtour/internal/system"
	"github.com/ivlev/airtour/internal/tui"
	"github.com/ivlev/airtour/internal/video"
)

// BuildVersion is set with -ldflags "-X main.BuildVersion=..."
var BuildVersion = "dev"

const usage = `usage: airtour <command> [flags]

commands:
  explore   run the tour in the terminal
  serve     host tour sessions for the browser viewer over websocket
  render    replay an input script into a frame trace and an MP4 preview
  chapters  validate and print the chapter table
  script    write a sample input script
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	commands := map[string]func([]string) error{
		"explore":  runExplore,
		"serve":    runServe,
		"render":   runRender,
		"chapters": runChapters,
		"script":   runScript,
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err := run(os.Args[2:]); err != nil {
		log.Fatalf("[-] %s: %v", os.Args[1], err)
	}
}

// app is loaded once per process: configuration and the chapter table
// every host shares.
type app struct {
	cfg   *config.Config
	table *chapter.Table
}

type appFlags struct {
	config   *string
	chapters *string
}

func addAppFlags(fs *flag.FlagSet) appFlags {
	return appFlags{
		config:   fs.String("config", "", "YAML config overlaid on the defaults"),
		chapters: fs.String("chapters", "", "Chapter table YAML (default: built-in HVAC tour)"),
	}
}

func (f appFlags) load() (*app, error) {
	cfg, err := config.Load(*f.config)
	if err != nil {
		return nil, err
	}
	cfg.Render.BuildVersion = BuildVersion

	path := *f.chapters
	if path == "" {
		path = cfg.Tour.ChaptersPath
	}
	table, err := chapter.Load(path)
	if err != nil {
		return nil, fmt.Errorf("chapters: %w", err)
	}
	if err := table.Validate(cfg.Tour.MinPosition, cfg.Tour.MaxPosition); err != nil {
		return nil, fmt.Errorf("chapters: %w", err)
	}
	return &app{cfg: cfg, table: table}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runExplore(args []string) error {
	fs := flag.NewFlagSet("explore", flag.ExitOnError)
	af := addAppFlags(fs)
	modelDelay := fs.Duration("model-delay", 800*time.Millisecond, "Simulated model load time")
	sensitivity := fs.Float64("sensitivity", 0, "Initial input sensitivity (0.1 - 3.0)")
	fs.Parse(args)

	a, err := af.load()
	if err != nil {
		return err
	}
	if *sensitivity > 0 {
		a.cfg.Input.UserSensitivity = *sensitivity
	}

	ctx, cancel := signalContext()
	defer cancel()

	view := tui.NewApp(a.cfg, a.table)
	view.ModelDelay = *modelDelay
	return view.Run(ctx)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	af := addAppFlags(fs)
	addr := fs.String("addr", "", "Listen address (default from config, :8080)")
	origins := fs.String("origins", "", "Comma separated allowed origins, * for any")
	fs.Parse(args)

	a, err := af.load()
	if err != nil {
		return err
	}
	if *addr != "" {
		a.cfg.Server.Addr = *addr
	}
	if *origins != "" {
		a.cfg.Server.AllowedOrigins = strings.Split(*origins, ",")
	}

	system.InitResourceLimits()

	ctx, cancel := signalContext()
	defer cancel()

	srv := server.New(a.cfg, a.table)
	return srv.ListenAndServe(ctx)
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	af := addAppFlags(fs)
	scriptPath := fs.String("script", "", "Input script YAML (default: latest in input/scripts/, else the built-in sample)")
	output := fs.String("output", "", "Output video (default: generated in output/, \"none\" to skip)")
	tracePath := fs.String("trace", "", "Write the frame trace YAML here")
	brochure := fs.String("brochure", "", "PDF or image folder for chapter backdrops (default: latest in input/pdf/)")
	audio := fs.String("audio", "", "Soundtrack (default: latest in input/audio/)")
	width := fs.Int("width", 0, "Width")
	height := fs.Int("height", 0, "Height")
	fps := fs.Int("fps", 0, "FPS")
	workers := fs.Int("workers", 0, "Render workers (0 - from host stats)")
	dpi := fs.Int("dpi", 0, "Brochure DPI")
	fade := fs.Float64("fade", -1, "Fade in/out seconds")
	quality := fs.Int("quality", 0, "Video quality (0 - auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	preset := fs.String("preset", "", "Format preset: 16:9, 9:16, 4:5")
	stats := fs.Bool("stats", false, "Print the performance report and append it to benchmark.log")
	debug := fs.Bool("debug", false, "Log events and burn a timecode into the video")
	fs.Parse(args)

	system.InitResourceLimits()

	for _, d := range []string{"input/pdf", "input/audio", "input/scripts", "output"} {
		os.MkdirAll(d, 0755)
	}

	a, err := af.load()
	if err != nil {
		return err
	}
	rc := &a.cfg.Render
	if *width > 0 {
		rc.Width = *width
	}
	if *height > 0 {
		rc.Height = *height
	}
	switch *preset {
	case "16:9":
		rc.Width, rc.Height = 1280, 720
	case "9:16":
		rc.Width, rc.Height = 720, 1280
	case "4:5":
		rc.Width, rc.Height = 1080, 1350
	}
	if *fps > 0 {
		rc.FPS = *fps
	}
	if *workers > 0 {
		rc.Workers = *workers
	}
	if *dpi > 0 {
		rc.DPI = *dpi
	}
	if *fade >= 0 {
		rc.FadeDuration = *fade
	}
	rc.ShowStats = rc.ShowStats || *stats
	rc.Debug = rc.Debug || *debug
	if *tracePath != "" {
		rc.TracePath = *tracePath
	}

	// Script
	rc.ScriptPath = firstNonEmpty(*scriptPath, rc.ScriptPath)
	if rc.ScriptPath == "" {
		if latest, err := system.FindLatest("input/scripts", system.ScriptExtensions); err == nil {
			rc.ScriptPath = latest
		}
	}
	var sc *script.Script
	if rc.ScriptPath != "" {
		fmt.Printf("[*] Script: %s\n", rc.ScriptPath)
		if sc, err = script.ReadScript(rc.ScriptPath); err != nil {
			return err
		}
	} else {
		fmt.Println("[*] No script found, using the built-in sample")
		sc = script.Sample()
	}

	// Backdrops
	rc.BrochurePath = firstNonEmpty(*brochure, rc.BrochurePath)
	if rc.BrochurePath == "" {
		if latest, err := system.FindLatest("input/pdf", system.BrochureExtensions); err == nil {
			rc.BrochurePath = latest
		}
	}
	var backdrops *source.Backdrops
	if rc.BrochurePath != "" {
		src, err := source.Open(rc.BrochurePath)
		if err != nil {
			return fmt.Errorf("brochure: %w", err)
		}
		fmt.Printf("[*] Brochure: %s (%d pages)\n", rc.BrochurePath, src.PageCount())
		backdrops = source.NewBackdrops(src, rc.DPI)
		defer backdrops.Close()
	}

	// Audio
	rc.AudioPath = firstNonEmpty(*audio, rc.AudioPath)
	if rc.AudioPath == "" {
		if latest, err := system.FindLatest("input/audio", system.AudioExtensions); err == nil {
			rc.AudioPath = latest
		}
	}
	if rc.AudioPath != "" {
		if d, err := system.GetAudioDuration(rc.AudioPath); err == nil {
			fmt.Printf("[*] Audio: %s (%.2fs, cut to %.2fs)\n", rc.AudioPath, d, sc.Duration)
		} else {
			log.Printf("[!] Could not read audio duration: %v", err)
		}
	}

	// Output
	rc.OutputVideo = firstNonEmpty(*output, rc.OutputVideo)
	switch rc.OutputVideo {
	case "none":
		rc.OutputVideo = ""
	case "":
		name := "walkthrough"
		if rc.ScriptPath != "" {
			base := filepath.Base(rc.ScriptPath)
			name = strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		rc.OutputVideo = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", name, timestamp))
	}

	var encoder video.VideoEncoder
	if rc.OutputVideo != "" {
		rc.VideoEncoder = system.GetBestH264Encoder()
		if rc.VideoEncoder != "libx264" {
			fmt.Printf("[*] Hardware encoder detected: %s\n", rc.VideoEncoder)
		}
		if *quality > 0 {
			rc.Quality = *quality
		} else {
			switch rc.VideoEncoder {
			case "h264_videotoolbox":
				rc.Quality = 75
			case "h264_nvenc":
				rc.Quality = 28
			}
		}
		encoder = &video.FFmpegEncoder{}
	}

	ctx, cancel := signalContext()
	defer cancel()

	preview := engine.NewPreview(a.cfg, a.table, sc, backdrops, encoder)
	if err := preview.Run(ctx); err != nil {
		return err
	}

	if rc.OutputVideo != "" {
		fmt.Printf("[+++] Done! Result: %s\n", rc.OutputVideo)
	}
	return nil
}

func runChapters(args []string) error {
	fs := flag.NewFlagSet("chapters", flag.ExitOnError)
	af := addAppFlags(fs)
	out := fs.String("out", "", "Also write the table as YAML to this path")
	fs.Parse(args)

	a, err := af.load()
	if err != nil {
		return err
	}

	fmt.Printf("--- [CHAPTERS: %s] ---\n", a.table.Title)
	for _, ch := range a.table.Chapters {
		line := fmt.Sprintf("%-18s", ch.ID)
		if ch.Range != nil {
			line += fmt.Sprintf(" [%.2f - %.2f]", ch.Range.Start, ch.Range.End)
		} else {
			line += "               "
		}
		if anchor, ok := ch.Target(); ok {
			line += fmt.Sprintf(" anchor %.2f", anchor)
		}
		if ch.HasUI() {
			line += " hotspot"
		}
		if ch.Video != nil {
			line += " " + ch.Video.VideoURL()
		}
		fmt.Println(line)
	}
	fmt.Printf("[*] %d chapters, %d anchored\n", len(a.table.Chapters), len(a.table.Anchored()))

	if *out != "" {
		if err := chapter.WriteTable(a.table, *out); err != nil {
			return err
		}
		fmt.Printf("[+++] Table saved: %s\n", *out)
	}
	return nil
}

func runScript(args []string) error {
	fs := flag.NewFlagSet("script", flag.ExitOnError)
	out := fs.String("out", filepath.Join("input", "scripts", "sample.yaml"), "Where to write the sample script")
	fs.Parse(args)

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	sc := script.Sample()
	if err := script.WriteScript(sc, *out); err != nil {
		return err
	}
	fmt.Printf("[+++] Sample script saved: %s (%d steps, %.0fs)\n", *out, len(sc.Steps), sc.Duration)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
