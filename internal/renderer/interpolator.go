package renderer

import (
	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/tour"
)

// CameraState is the 2D stand-in for the 3D camera: a point of the backdrop
// in normalized [0,1] coordinates and a zoom level.
type CameraState struct {
	X    float64
	Y    float64
	Zoom float64 // 1.0 = whole backdrop
}

// CameraKeyframe pins the camera at a sequence position
type CameraKeyframe struct {
	Position float64
	State    CameraState
}

var wideShot = CameraState{X: 0.5, Y: 0.5, Zoom: 1.0}

// CameraPath builds keyframes from the chapter table: a wide shot at the
// bounds and a close-up on every anchored hotspot. Hotspots are placed on
// the backdrop by their scene x/z relative to each other.
func CameraPath(table *chapter.Table, bounds tour.Bounds) []CameraKeyframe {
	anchored := table.Anchored()
	keys := []CameraKeyframe{{Position: bounds.Min, State: wideShot}}

	minX, maxX := extent(anchored, 0)
	minZ, maxZ := extent(anchored, 2)
	for _, ch := range anchored {
		anchor, _ := ch.Target()
		p := ch.Hotspot.Position
		keys = append(keys, CameraKeyframe{
			Position: anchor,
			State: CameraState{
				X:    0.25 + 0.5*normalize(p[0], minX, maxX),
				Y:    0.25 + 0.5*normalize(p[2], minZ, maxZ),
				Zoom: 1.6,
			},
		})
	}
	if last := keys[len(keys)-1]; last.Position < bounds.Max {
		keys = append(keys, CameraKeyframe{Position: bounds.Max, State: last.State})
	}
	return keys
}

func extent(chapters []*chapter.Chapter, axis int) (float64, float64) {
	if len(chapters) == 0 {
		return 0, 0
	}
	lo, hi := chapters[0].Hotspot.Position[axis], chapters[0].Hotspot.Position[axis]
	for _, ch := range chapters[1:] {
		v := ch.Hotspot.Position[axis]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}

// InterpolateCamera calculates the camera at a sequence position by
// interpolating between keyframes
func InterpolateCamera(keys []CameraKeyframe, pos float64) CameraState {
	if len(keys) == 0 {
		return wideShot
	}

	// Before the first keyframe
	if pos <= keys[0].Position {
		return keys[0].State
	}

	// After the last keyframe
	if pos >= keys[len(keys)-1].Position {
		return keys[len(keys)-1].State
	}

	// Find surrounding keyframes
	var prev, next CameraKeyframe
	for i := 0; i < len(keys)-1; i++ {
		if pos >= keys[i].Position && pos < keys[i+1].Position {
			prev, next = keys[i], keys[i+1]
			break
		}
	}

	span := next.Position - prev.Position
	if span == 0 {
		return next.State
	}
	t := tour.EaseInOutCubic((pos - prev.Position) / span)

	return CameraState{
		X:    tour.Lerp(prev.State.X, next.State.X, t),
		Y:    tour.Lerp(prev.State.Y, next.State.Y, t),
		Zoom: tour.Lerp(prev.State.Zoom, next.State.Zoom, t),
	}
}
