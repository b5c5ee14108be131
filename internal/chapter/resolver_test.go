package chapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hotspotChapter(id string, start, end float64) Chapter {
	return Chapter{
		ID:      id,
		Range:   &Range{Start: start, End: end},
		Hotspot: &Hotspot{Title: id},
	}
}

func TestResolveHysteresis(t *testing.T) {
	chapters := []Chapter{hotspotChapter("a", 1.0, 2.0)}

	tests := []struct {
		pos    float64
		active bool
	}{
		{0.99, false},
		{1.0, true},
		{2.0, true},
		{2.15, true},
		{2.25, false},
	}

	for _, tt := range tests {
		got := Resolve(chapters, tt.pos, 0.2)
		assert.Equal(t, tt.active, got != nil, "pos %.2f", tt.pos)
	}
}

func TestResolveSkipsTimingOnlyChapters(t *testing.T) {
	chapters := []Chapter{
		{ID: "start", Range: &Range{Start: 0, End: 0.1}},
		hotspotChapter("thermostat", 0.05, 1.0),
	}

	got := Resolve(chapters, 0.08, 0.2)
	require.NotNil(t, got)
	assert.Equal(t, "thermostat", got.ID)
}

func TestResolveFirstMatchWins(t *testing.T) {
	chapters := []Chapter{
		hotspotChapter("first", 1.0, 2.0),
		hotspotChapter("second", 1.5, 3.0),
	}

	got := Resolve(chapters, 1.7, 0.2)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.ID)

	got = Resolve(chapters, 2.5, 0.2)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.ID)
}

func TestResolverReportsChanges(t *testing.T) {
	table := &Table{Chapters: []Chapter{
		hotspotChapter("a", 1.0, 2.0),
		hotspotChapter("b", 3.0, 4.0),
	}}
	r := NewResolver(table, 0.2)

	active, changed := r.Update(0.5)
	assert.Nil(t, active)
	assert.False(t, changed)

	active, changed = r.Update(1.5)
	require.NotNil(t, active)
	assert.Equal(t, "a", active.ID)
	assert.True(t, changed)

	_, changed = r.Update(1.6)
	assert.False(t, changed, "same chapter must not report a change")

	active, changed = r.Update(2.15)
	assert.Equal(t, "a", active.ID)
	assert.False(t, changed)

	active, changed = r.Update(2.25)
	assert.Nil(t, active)
	assert.True(t, changed)

	active, changed = r.Update(3.5)
	require.NotNil(t, active)
	assert.Equal(t, "b", active.ID)
	assert.True(t, changed)

	r.Clear()
	assert.Nil(t, r.Active())
}
