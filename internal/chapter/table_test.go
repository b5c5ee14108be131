package chapter

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultTable(t *testing.T) {
	table := Default()
	if err := table.Validate(0.1, 6.7); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}

	anchored := table.Anchored()
	if len(anchored) != 4 {
		t.Fatalf("expected 4 anchored chapters, got %d", len(anchored))
	}

	want := []float64{1, 2, 4, 6.5}
	for i, c := range anchored {
		pos, _ := c.Target()
		if pos != want[i] {
			t.Errorf("chapter %s: expected anchor %.1f, got %.1f", c.ID, want[i], pos)
		}
	}

	start, ok := table.Find("start")
	if !ok {
		t.Fatal("start chapter missing")
	}
	if start.HasUI() {
		t.Error("start chapter should be timing only")
	}

	outdoor, _ := table.Find("Outdoor")
	if outdoor.Video != nil {
		t.Error("outdoor chapter has no video overlay")
	}
}

func TestTableWriteRead(t *testing.T) {
	anchor := 1.5
	sheet := 2
	table := &Table{
		Version: "1.0",
		Title:   "test",
		Chapters: []Chapter{
			{ID: "intro", Range: &Range{Start: 0, End: 0.1}},
			{
				ID:     "unit",
				Title:  "Unit",
				Range:  &Range{Start: 1, End: 2},
				Anchor: &anchor,
				Sheet:  &sheet,
				Hotspot: &Hotspot{
					Title:          "Unit",
					Description:    "desc",
					Position:       Vec3{1, 2, 3},
					DetailPosition: Vec3{1, 2.5, 3},
				},
				Video: &VideoOverlay{VideoID: "abc", Title: "Unit Demo", Size: Size{Width: 320, Height: 180}},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "tour.yaml")
	if err := WriteTable(table, path); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}

	read, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}

	if diff := cmp.Diff(table, read); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	anchor := 9.0
	tests := []struct {
		name    string
		table   Table
		wantErr bool
	}{
		{"empty", Table{}, true},
		{"missing id", Table{Chapters: []Chapter{{Title: "x"}}}, true},
		{"duplicate", Table{Chapters: []Chapter{{ID: "a"}, {ID: "a"}}}, true},
		{"inverted range", Table{Chapters: []Chapter{{ID: "a", Range: &Range{Start: 2, End: 1}}}}, true},
		{"anchor out of bounds", Table{Chapters: []Chapter{{ID: "a", Anchor: &anchor}}}, true},
		{"overlap only warns", Table{Chapters: []Chapter{
			hotspotChapter("a", 1, 2),
			hotspotChapter("b", 1.5, 3),
		}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate(0.1, 6.7)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeVideoID(t *testing.T) {
	tests := map[string]string{
		"mC1Ket54DW8": "mC1Ket54DW8",
		"https://www.youtube.com/watch?v=Ks-_Mh1QhMc":       "Ks-_Mh1QhMc",
		"https://www.youtube.com/watch?v=Ks-_Mh1QhMc&t=10s": "Ks-_Mh1QhMc",
		"https://youtu.be/dQw4w9WgXcQ?si=share":             "dQw4w9WgXcQ",
		"  ": "",
	}

	for in, want := range tests {
		if got := NormalizeVideoID(in); got != want {
			t.Errorf("NormalizeVideoID(%q) = %q, want %q", in, got, want)
		}
	}

	v := VideoOverlay{VideoID: "https://youtu.be/abc"}
	if got := v.VideoURL(); got != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("unexpected video url %s", got)
	}
}
