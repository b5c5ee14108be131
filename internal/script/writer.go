package script

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteScript writes a script to a YAML file
func WriteScript(sc *Script, path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScript reads and validates a script from a YAML file
func ReadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a script
func Parse(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Sample is a walkthrough that touches every chapter of the default tour:
// scrolls into the thermostat, opens its hotspot, jumps around and ends
// with Escape.
func Sample() *Script {
	pos := func(v float64) *float64 { return &v }
	return &Script{
		Version:  "1.0",
		Title:    "HVAC walkthrough",
		Duration: 24,
		Device:   Device{UserAgent: "Mozilla/5.0 (X11; Linux x86_64)", Width: 1280, Height: 720, PixelRatio: 1},
		Steps: []Step{
			{At: 0.2, Action: ActionStart},
			{At: 0.8, Action: ActionModelLoaded},
			{At: 1.5, Action: ActionWheel, Delta: 120},
			{At: 1.7, Action: ActionWheel, Delta: 120},
			{At: 1.9, Action: ActionWheel, Delta: 120},
			{At: 2.1, Action: ActionKey, Key: "ArrowDown"},
			{At: 2.3, Action: ActionKey, Key: "ArrowDown"},
			{At: 4.5, Action: ActionMesh, Chapter: "Geom3D_393"},
			{At: 6.5, Action: ActionClose},
			{At: 7.0, Action: ActionNext},
			{At: 10.5, Action: ActionHotspot, Chapter: "indoor"},
			{At: 12.0, Action: ActionClose},
			{At: 12.2, Action: ActionJump, Chapter: "Air Purification"},
			{At: 15.5, Action: ActionSensitivity, Value: 2},
			{At: 16.0, Action: ActionWheel, Delta: 300},
			{At: 17.0, Action: ActionJump, Target: pos(6.5)},
			{At: 20.5, Action: ActionPrev},
			{At: 22.0, Action: ActionKey, Key: "Escape"},
		},
	}
}
