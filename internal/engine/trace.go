package engine

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/airtour/internal/tour"
)

// Trace is the frame-by-frame record of a replayed script
type Trace struct {
	Title  string       `yaml:"title,omitempty"`
	FPS    int          `yaml:"fps"`
	Frames []TraceFrame `yaml:"frames"`
}

// TraceFrame is one frame with the events emitted since the previous one
type TraceFrame struct {
	Time   float64      `yaml:"t"` // Seconds since the start of the script
	Frame  tour.Frame   `yaml:",inline"`
	Events []tour.Event `yaml:"events,omitempty"`
}

// Duration of the trace in seconds
func (t *Trace) Duration() float64 {
	if t.FPS <= 0 {
		return 0
	}
	return float64(len(t.Frames)) / float64(t.FPS)
}

// Events returns every event of the trace in order
func (t *Trace) Events() []tour.Event {
	var all []tour.Event
	for _, f := range t.Frames {
		all = append(all, f.Events...)
	}
	return all
}

// WriteTrace writes a trace to a YAML file
func WriteTrace(trace *Trace, path string) error {
	data, err := yaml.Marshal(trace)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadTrace reads a trace from a YAML file
func ReadTrace(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var trace Trace
	if err := yaml.Unmarshal(data, &trace); err != nil {
		return nil, err
	}

	return &trace, nil
}
