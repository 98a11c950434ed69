package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"tv_channel/modules/channel/models"
)

func tempStore(t *testing.T) *ScheduleStore {
	t.Helper()
	return NewScheduleStore(filepath.Join(t.TempDir(), "schedule.txt"))
}

func TestScheduleRoundTrip(t *testing.T) {
	s := tempStore(t)

	items := []models.ScheduleItem{
		{Date: "2025-01-01", StartTime: "09:00", Name: "Intro", Link: "intro.mp4", Duration: "0:30"},
		{Date: "2025-01-01", StartTime: "09:30", Name: "Morning Show", Link: "https://youtube.com/watch?v=abc", Duration: "1:02:10"},
		{Date: "2025-01-02", StartTime: "20:00", Name: "Station ID", Link: "SCENE:Logo", Duration: "0:05"},
	}

	if err := s.Write(items); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, dropped, err := s.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if dropped != 0 {
		t.Fatalf("expected 0 dropped lines, got %d", dropped)
	}
	if len(got) != len(items) {
		t.Fatalf("expected %d items, got %d", len(items), len(got))
	}
	for i := range items {
		if got[i] != items[i] {
			t.Fatalf("item %d mismatch: got %+v want %+v", i, got[i], items[i])
		}
	}
}

func TestScheduleBackslashRoundTrip(t *testing.T) {
	s := tempStore(t)

	items := []models.ScheduleItem{
		{Date: "2025-01-01", StartTime: "09:00", Name: `Movie \ Night`, Link: `C:\videos\movie.mp4`, Duration: "1:30:00"},
	}
	if err := s.Write(items); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, dropped, err := s.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if dropped != 0 || len(got) != 1 {
		t.Fatalf("expected 1 item, got %d (%d dropped)", len(got), dropped)
	}
	if got[0] != items[0] {
		t.Fatalf("backslashes did not round-trip: got %+v want %+v", got[0], items[0])
	}
}

func TestScheduleReadMissingFile(t *testing.T) {
	s := tempStore(t)

	items, dropped, err := s.Read()
	if err != nil {
		t.Fatalf("read of missing file failed: %v", err)
	}
	if len(items) != 0 || dropped != 0 {
		t.Fatalf("expected empty schedule, got %d items, %d dropped", len(items), dropped)
	}
}

func TestScheduleMalformedLinesDropped(t *testing.T) {
	s := tempStore(t)

	content := `"2025-01-01","09:00","Intro","intro.mp4","0:30"
this line is garbage
"2025-01-01","09:30","Show","show.mp4","1:00:00"
"only","three","fields"
`
	if err := os.WriteFile(s.Path, []byte(content), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	items, dropped, err := s.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if dropped != 2 {
		t.Fatalf("expected 2 dropped lines, got %d", dropped)
	}
	if items[1].Name != "Show" {
		t.Fatalf("expected second item to survive, got %+v", items[1])
	}
}

func TestScheduleWriteDefaults(t *testing.T) {
	s := tempStore(t)

	if err := s.Write([]models.ScheduleItem{{Name: "No Times", Link: "x.mp4", Duration: "1:00"}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	line := strings.TrimSpace(string(data))
	want := `"2026-02-23","00:00","No Times","x.mp4","1:00"`
	if line != want {
		t.Fatalf("got %q want %q", line, want)
	}
}

func TestSchedulePopRemovesFirstMatch(t *testing.T) {
	s := tempStore(t)

	a := models.ScheduleItem{Date: "2025-01-01", StartTime: "09:00", Name: "A", Link: "a.mp4", Duration: "1:00"}
	b := models.ScheduleItem{Date: "2025-01-01", StartTime: "10:00", Name: "B", Link: "b.mp4", Duration: "1:00"}
	if err := s.Write([]models.ScheduleItem{a, b}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if err := s.Pop(a); err != nil {
		t.Fatalf("pop failed: %v", err)
	}

	items, _, err := s.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(items) != 1 || items[0] != b {
		t.Fatalf("expected only B to remain, got %+v", items)
	}

	// Popping an item an external writer already removed is a no-op.
	if err := s.Pop(a); err != nil {
		t.Fatalf("second pop failed: %v", err)
	}
	items, _, _ = s.Read()
	if len(items) != 1 {
		t.Fatalf("expected B to remain after no-op pop, got %+v", items)
	}
}

func TestSchedulePopKeepsConcurrentAppends(t *testing.T) {
	s := tempStore(t)

	a := models.ScheduleItem{Date: "2025-01-01", StartTime: "09:00", Name: "A", Link: "a.mp4", Duration: "1:00"}
	if err := s.Write([]models.ScheduleItem{a}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// An external writer appends while A is on air.
	c := models.ScheduleItem{Date: "2025-01-01", StartTime: "11:00", Name: "C", Link: "c.mp4", Duration: "1:00"}
	if err := s.Write([]models.ScheduleItem{a, c}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := s.Pop(a); err != nil {
		t.Fatalf("pop failed: %v", err)
	}

	items, _, _ := s.Read()
	if len(items) != 1 || items[0] != c {
		t.Fatalf("expected appended item to survive the pop, got %+v", items)
	}
}

func TestLibraryRoundTrip(t *testing.T) {
	l := NewLibraryStore(filepath.Join(t.TempDir(), "videos.txt"))

	entries := []models.LibraryEntry{
		{Name: "Intro", Link: "intro.mp4", Duration: "0:30"},
		{Name: "Feature", Link: "https://drive.google.com/file/d/abc123/view", Duration: "1:30:00"},
	}
	if err := l.Write(entries); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, dropped, err := l.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if dropped != 0 || len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d (%d dropped)", len(got), dropped)
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Fatalf("entry %d mismatch: got %+v want %+v", i, got[i], entries[i])
		}
	}
}
