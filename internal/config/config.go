package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Every subcommand starts from
// Default(), optionally overlays a YAML file and then applies its flags.
type Config struct {
	Tour   TourConfig   `yaml:"tour"`
	Input  InputConfig  `yaml:"input"`
	Render RenderConfig `yaml:"render"`
	Server ServerConfig `yaml:"server"`
}

// TourConfig holds the sequence constants shared by every host.
type TourConfig struct {
	MinPosition float64 `yaml:"min_position"`
	MaxPosition float64 `yaml:"max_position"`

	SmoothingRate float64 `yaml:"smoothing_rate"` // fraction of the remaining distance per frame
	Epsilon       float64 `yaml:"epsilon"`
	Hysteresis    float64 `yaml:"hysteresis"`

	UnlockDelayMs        int `yaml:"unlock_delay_ms"`
	NavigationDurationMs int `yaml:"navigation_duration_ms"`

	// Authored intro played through the timeline when the tour starts.
	// An empty range (start == end) skips it.
	IntroRange [2]float64 `yaml:"intro_range"`
	IntroRate  float64    `yaml:"intro_rate"`

	AnchorTolerance float64 `yaml:"anchor_tolerance"`
	FPS             int     `yaml:"fps"`
	ChaptersPath    string  `yaml:"chapters_path"`
}

// InputConfig holds the input normalizer thresholds.
type InputConfig struct {
	KeyStep             float64 `yaml:"key_step"`
	HorizontalTolerance float64 `yaml:"horizontal_tolerance"`
	SwipeThreshold      float64 `yaml:"swipe_threshold"`
	MomentumThreshold   float64 `yaml:"momentum_threshold"`
	MomentumFactor      float64 `yaml:"momentum_factor"`
	UserSensitivity     float64 `yaml:"user_sensitivity"`
}

// RenderConfig drives the headless preview renderer.
type RenderConfig struct {
	ScriptPath   string  `yaml:"script_path"`
	OutputVideo  string  `yaml:"output_video"`
	TracePath    string  `yaml:"trace_path"`
	BrochurePath string  `yaml:"brochure_path"`
	AudioPath    string  `yaml:"audio_path"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	FPS          int     `yaml:"fps"`
	Workers      int     `yaml:"workers"`
	DPI          int     `yaml:"dpi"`
	VideoEncoder string  `yaml:"video_encoder"`
	Quality      int     `yaml:"quality"`
	FadeDuration float64 `yaml:"fade_duration"`
	ShowStats    bool    `yaml:"show_stats"`
	Debug        bool    `yaml:"debug"`
	BuildVersion string  `yaml:"-"`
}

// ServerConfig configures the websocket host.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	FrameBuffer    int      `yaml:"frame_buffer"`
}

// SegmentParams describes one encoded clip of the preview.
type SegmentParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	FadeDuration  float64
	Filter        string
	Debug         bool
}

// Default returns the constants chosen for the HVAC tour.
func Default() *Config {
	return &Config{
		Tour: TourConfig{
			MinPosition:          0.1,
			MaxPosition:          6.7,
			SmoothingRate:        0.05,
			Epsilon:              0.001,
			Hysteresis:           0.2,
			UnlockDelayMs:        1000,
			NavigationDurationMs: 3000,
			IntroRange:           [2]float64{0, 0.1},
			IntroRate:            1.0,
			AnchorTolerance:      0.3,
			FPS:                  60,
		},
		Input: InputConfig{
			KeyStep:             0.3,
			HorizontalTolerance: 50,
			SwipeThreshold:      3,
			MomentumThreshold:   0.05,
			MomentumFactor:      0.5,
			UserSensitivity:     1.0,
		},
		Render: RenderConfig{
			Width:        1280,
			Height:       720,
			FPS:          30,
			DPI:          150,
			VideoEncoder: "libx264",
			Quality:      23,
			FadeDuration: 0.5,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			FrameBuffer: 8,
		},
	}
}

// Load overlays the YAML file at path on top of Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the controller cannot run with.
func (c *Config) Validate() error {
	t := c.Tour
	if t.MaxPosition <= t.MinPosition {
		return fmt.Errorf("max_position %.3f must exceed min_position %.3f", t.MaxPosition, t.MinPosition)
	}
	if t.SmoothingRate <= 0 || t.SmoothingRate > 1 {
		return fmt.Errorf("smoothing_rate %.3f out of (0, 1]", t.SmoothingRate)
	}
	if t.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive")
	}
	if t.Hysteresis < 0 {
		return fmt.Errorf("hysteresis must not be negative")
	}
	if t.NavigationDurationMs <= 0 {
		return fmt.Errorf("navigation_duration_ms must be positive")
	}
	if t.FPS <= 0 {
		return fmt.Errorf("fps must be positive")
	}
	return nil
}

func (t TourConfig) UnlockDelay() time.Duration {
	return time.Duration(t.UnlockDelayMs) * time.Millisecond
}

func (t TourConfig) NavigationDuration() time.Duration {
	return time.Duration(t.NavigationDurationMs) * time.Millisecond
}

// FrameInterval is the ticker period for the frame loop.
func (t TourConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(t.FPS)
}
