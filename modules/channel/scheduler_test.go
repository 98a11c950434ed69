package channel

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"tv_channel/modules/channel/models"
	"tv_channel/modules/channel/store"
	"tv_channel/modules/obs"
)

type fakeResolver struct {
	mu    sync.Mutex
	paths map[string]string
	fail  map[string]bool
	calls map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		paths: make(map[string]string),
		fail:  make(map[string]bool),
		calls: make(map[string]int),
	}
}

func (r *fakeResolver) Resolve(link string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[link]++
	if r.fail[link] {
		return "", errFake
	}
	if p, ok := r.paths[link]; ok {
		return p, nil
	}
	return "/videos/" + link, nil
}

func (r *fakeResolver) callCount(link string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[link]
}

func (r *fakeResolver) totalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

type fakeHistory struct {
	mu      sync.Mutex
	records []models.PlayHistory
}

func (h *fakeHistory) Record(rec *models.PlayHistory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, *rec)
}

func (h *fakeHistory) outcomes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.records {
		out = append(out, r.Outcome)
	}
	return out
}

// testIntervals keeps the loop fast enough for tests.
func testIntervals() Intervals {
	return Intervals{
		EmptyPoll:   5 * time.Millisecond,
		DuePoll:     5 * time.Millisecond,
		StatusPoll:  time.Millisecond,
		EarlySwitch: 500 * time.Millisecond,
		LoadGrace:   0,
	}
}

func newTestStore(t *testing.T, items []models.ScheduleItem) *store.ScheduleStore {
	t.Helper()
	st := store.NewScheduleStore(filepath.Join(t.TempDir(), "schedule.txt"))
	if len(items) > 0 {
		if err := st.Write(items); err != nil {
			t.Fatalf("failed to seed schedule: %v", err)
		}
	}
	return st
}

// runScheduler starts the loop and returns a stop function that cancels it
// and waits for it to exit.
func runScheduler(s *Scheduler) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func dueItem(name, link string) models.ScheduleItem {
	return models.ScheduleItem{Date: "2020-01-01", StartTime: "00:00", Name: name, Link: link, Duration: "1:00"}
}

func TestSchedulerWaitsForFutureItem(t *testing.T) {
	st := newTestStore(t, []models.ScheduleItem{
		{Date: "2099-01-01", StartTime: "09:00", Name: "Future", Link: "future.mp4", Duration: "1:00"},
	})
	comp := newFakeCompositor()
	res := newFakeResolver()

	s := NewScheduler(st, res, comp, nil, testIntervals())
	stop := runScheduler(s)
	time.Sleep(50 * time.Millisecond)
	stop()

	if res.totalCalls() != 0 {
		t.Fatalf("resolver called for a future item")
	}
	if comp.ensureCalls != 0 {
		t.Fatalf("compositor touched for a future item")
	}
	items, _, err := st.Read()
	if err != nil || len(items) != 1 {
		t.Fatalf("future item must stay in the store, got %d items (err=%v)", len(items), err)
	}
}

func TestSchedulerSceneCue(t *testing.T) {
	st := newTestStore(t, []models.ScheduleItem{dueItem("Cut to news", "SCENE:News Desk")})
	comp := newFakeCompositor()
	res := newFakeResolver()

	s := NewScheduler(st, res, comp, nil, testIntervals())
	stop := runScheduler(s)
	waitFor(t, func() bool { return comp.active() == "News Desk" }, "scene switch")
	stop()

	if res.totalCalls() != 0 {
		t.Fatalf("scene cue must not hit the resolver")
	}
	items, _, _ := st.Read()
	if len(items) != 0 {
		t.Fatalf("scene cue not popped, %d items remain", len(items))
	}
}

func TestSchedulerDropsUnresolvableItem(t *testing.T) {
	st := newTestStore(t, []models.ScheduleItem{dueItem("Broken", "broken.mp4")})
	comp := newFakeCompositor()
	res := newFakeResolver()
	res.fail["broken.mp4"] = true
	hist := &fakeHistory{}

	s := NewScheduler(st, res, comp, hist, testIntervals())
	stop := runScheduler(s)
	waitFor(t, func() bool {
		items, _, _ := st.Read()
		return len(items) == 0
	}, "unresolvable item to be dropped")
	stop()

	got := hist.outcomes()
	if len(got) != 1 || got[0] != models.OutcomeFailed {
		t.Fatalf("expected one failed history record, got %v", got)
	}
	if comp.ensureCalls != 0 {
		t.Fatalf("compositor touched for an unresolvable item")
	}
}

func TestSchedulerPlaysDueItem(t *testing.T) {
	st := newTestStore(t, []models.ScheduleItem{dueItem("Intro", "intro.mp4")})
	comp := newFakeCompositor()
	res := newFakeResolver()
	res.paths["intro.mp4"] = "/videos/intro.mp4"
	hist := &fakeHistory{}

	s := NewScheduler(st, res, comp, hist, testIntervals())
	s.now = func() time.Time { return time.Date(2025, 1, 1, 9, 1, 0, 0, time.Local) }

	stop := runScheduler(s)
	waitFor(t, func() bool {
		items, _, _ := st.Read()
		return len(items) == 0
	}, "item to play and pop")
	stop()

	if comp.active() != SceneA {
		t.Fatalf("expected %s on air, got %s", SceneA, comp.active())
	}
	if comp.mediaOf(SourceA) != "/videos/intro.mp4" {
		t.Fatalf("resolved path not bound: %v", comp.media)
	}
	got := hist.outcomes()
	if len(got) != 1 || got[0] != models.OutcomePlayed {
		t.Fatalf("expected one played history record, got %v", got)
	}
	if hist.records[0].StartedAt != s.now().Unix() {
		t.Fatalf("history started_at = %d, want %d", hist.records[0].StartedAt, s.now().Unix())
	}
}

func TestSchedulerPreloadsAndAdvances(t *testing.T) {
	st := newTestStore(t, []models.ScheduleItem{
		dueItem("First", "a.mp4"),
		dueItem("Second", "b.mp4"),
	})
	comp := newFakeCompositor()
	res := newFakeResolver()

	s := NewScheduler(st, res, comp, nil, testIntervals())
	stop := runScheduler(s)
	waitFor(t, func() bool {
		items, _, _ := st.Read()
		return len(items) == 0
	}, "both items to play")
	stop()

	if comp.active() != SceneB {
		t.Fatalf("second item must advance to %s, on air: %s", SceneB, comp.active())
	}
	if comp.mediaOf(SourceB) != "/videos/b.mp4" {
		t.Fatalf("second item not preloaded on standby: %v", comp.media)
	}
	// The preload resolution is the only resolution of the second item.
	if res.callCount("b.mp4") != 1 {
		t.Fatalf("second item resolved %d times, want 1", res.callCount("b.mp4"))
	}
	comp.mu.Lock()
	switches := append([]string(nil), comp.sceneSwitches...)
	comp.mu.Unlock()
	if len(switches) != 2 || switches[0] != SceneA || switches[1] != SceneB {
		t.Fatalf("unexpected scene switch order: %v", switches)
	}
}

func TestSchedulerShutdownMidItemKeepsStore(t *testing.T) {
	st := newTestStore(t, []models.ScheduleItem{dueItem("Feature", "feature.mp4")})
	comp := newFakeCompositor()
	comp.statusFn = func(string, int) (obs.MediaInputStatus, error) {
		return obs.MediaInputStatus{State: obs.MediaStatePlaying, DurationMillis: 60000, CursorMillis: 1000}, nil
	}
	res := newFakeResolver()
	hist := &fakeHistory{}

	s := NewScheduler(st, res, comp, hist, testIntervals())
	stop := runScheduler(s)
	waitFor(t, func() bool { return comp.mediaOf(SourceA) != "" }, "item to go on air")
	stop()

	// Cancellation during playback must not count as a completed item.
	items, _, _ := st.Read()
	if len(items) != 1 {
		t.Fatalf("shutdown mid-item must keep it in the store, %d items remain", len(items))
	}
	if got := hist.outcomes(); len(got) != 0 {
		t.Fatalf("shutdown mid-item must not record an outcome, got %v", got)
	}
}

func TestSchedulerRetriesWhenCompositorDown(t *testing.T) {
	st := newTestStore(t, []models.ScheduleItem{dueItem("Intro", "intro.mp4")})
	comp := newFakeCompositor()
	comp.setMediaFail = true
	res := newFakeResolver()

	s := NewScheduler(st, res, comp, nil, testIntervals())
	stop := runScheduler(s)
	waitFor(t, func() bool { return res.callCount("intro.mp4") >= 1 }, "first resolution attempt")
	time.Sleep(30 * time.Millisecond)
	stop()

	// Compositor failures keep the item queued and never re-download it.
	items, _, _ := st.Read()
	if len(items) != 1 {
		t.Fatalf("item must survive a compositor failure, %d items remain", len(items))
	}
	if res.callCount("intro.mp4") != 1 {
		t.Fatalf("item re-resolved after compositor failure, %d calls", res.callCount("intro.mp4"))
	}
}
