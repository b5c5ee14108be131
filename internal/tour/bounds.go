package tour

import "math"

// Bounds is the allowed sequence position range. Min is never 0: the camera
// clips into the house geometry at the very start of the sequence.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp limits v to [Min, Max]. NaN recovers to Min.
func (b Bounds) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return b.Min
	}
	return math.Max(b.Min, math.Min(b.Max, v))
}

// Contains reports whether v is inside the bounds
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Span is the length of the range
func (b Bounds) Span() float64 {
	return b.Max - b.Min
}

// Progress maps v to [0, 1] across the bounds
func (b Bounds) Progress(v float64) float64 {
	if b.Span() <= 0 {
		return 0
	}
	return (b.Clamp(v) - b.Min) / b.Span()
}
