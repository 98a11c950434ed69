package channel

import (
	"context"
	"sync"
	"testing"
	"time"
	"tv_channel/modules/obs"
)

// fakeCompositor records the calls the channel makes against OBS.
type fakeCompositor struct {
	mu sync.Mutex

	scenes []string
	inputs []string

	activeScene   string
	media         map[string]string
	sceneSwitches []string

	ensureCalls  int
	setMediaFail bool

	// statusFn is consulted per MediaStatus call; nil means ended.
	statusFn func(source string, call int) (obs.MediaInputStatus, error)
	statusN  int
}

func newFakeCompositor() *fakeCompositor {
	return &fakeCompositor{media: make(map[string]string)}
}

func (f *fakeCompositor) EnsureSource(scene, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	for _, s := range f.scenes {
		if s == scene {
			return nil
		}
	}
	f.scenes = append(f.scenes, scene)
	f.inputs = append(f.inputs, source)
	return nil
}

func (f *fakeCompositor) ApplySourceDefaults(scene, source string) {}

func (f *fakeCompositor) SetMedia(source, absolutePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setMediaFail {
		return errFake
	}
	f.media[source] = absolutePath
	return nil
}

func (f *fakeCompositor) MediaStatus(source string) (obs.MediaInputStatus, error) {
	f.mu.Lock()
	fn := f.statusFn
	n := f.statusN
	f.statusN++
	f.mu.Unlock()
	if fn == nil {
		return obs.MediaInputStatus{State: obs.MediaStateEnded}, nil
	}
	return fn(source, n)
}

func (f *fakeCompositor) SetActiveScene(scene string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeScene = scene
	f.sceneSwitches = append(f.sceneSwitches, scene)
	return nil
}

func (f *fakeCompositor) mediaOf(source string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.media[source]
}

func (f *fakeCompositor) active() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeScene
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errFake = fakeError("fake compositor failure")

func TestSlotManagerInitialPlay(t *testing.T) {
	comp := newFakeCompositor()
	m := NewSlotManager(comp)

	if m.ActiveState() != SlotIdle || m.StandbyState() != SlotIdle {
		t.Fatalf("expected both slots idle before first play")
	}

	if err := m.PlayInitial("/videos/a.mp4"); err != nil {
		t.Fatalf("PlayInitial failed: %v", err)
	}

	if comp.active() != SceneA {
		t.Fatalf("expected %s on air, got %s", SceneA, comp.active())
	}
	if comp.mediaOf(SourceA) != "/videos/a.mp4" {
		t.Fatalf("media not bound to active slot: %v", comp.media)
	}
	if m.ActiveState() != SlotActive {
		t.Fatalf("active slot state = %v, want active", m.ActiveState())
	}
	if m.StandbyState() == SlotActive {
		t.Fatalf("both slots report active")
	}
}

func TestSlotManagerAdvanceSwapsRoles(t *testing.T) {
	comp := newFakeCompositor()
	m := NewSlotManager(comp)

	if err := m.PlayInitial("/videos/a.mp4"); err != nil {
		t.Fatalf("PlayInitial failed: %v", err)
	}
	if err := m.PreloadNext("/videos/b.mp4"); err != nil {
		t.Fatalf("PreloadNext failed: %v", err)
	}

	if comp.active() != SceneA {
		t.Fatalf("preload must not switch scenes, on air: %s", comp.active())
	}
	if comp.mediaOf(SourceB) != "/videos/b.mp4" {
		t.Fatalf("preload did not bind standby source")
	}
	if m.StandbyState() != SlotPreloading {
		t.Fatalf("standby state = %v, want preloading", m.StandbyState())
	}

	prevActive := m.ActiveSource()
	if err := m.Advance(); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	if comp.active() != SceneB {
		t.Fatalf("expected cut to %s, on air: %s", SceneB, comp.active())
	}
	if m.ActiveSource() != SourceB {
		t.Fatalf("active source = %s, want %s", m.ActiveSource(), SourceB)
	}
	if m.StandbySource() != prevActive {
		t.Fatalf("previous active did not become standby")
	}
	if m.ActiveState() != SlotActive || m.StandbyState() == SlotActive {
		t.Fatalf("role invariant broken: active=%v standby=%v", m.ActiveState(), m.StandbyState())
	}
}

func TestSlotManagerEnsureSetupCoversBothSlots(t *testing.T) {
	comp := newFakeCompositor()
	m := NewSlotManager(comp)

	if err := m.EnsureSetup(); err != nil {
		t.Fatalf("EnsureSetup failed: %v", err)
	}
	if len(comp.scenes) != 2 {
		t.Fatalf("expected both scenes ensured, got %v", comp.scenes)
	}
}

func TestCompletionReached(t *testing.T) {
	threshold := 500 * time.Millisecond

	playing := obs.MediaInputStatus{State: obs.MediaStatePlaying, DurationMillis: 60000, CursorMillis: 10000}
	if completionReached(playing, threshold) {
		t.Fatalf("mid-playback must not be complete")
	}

	// Remaining time inside the early-switch threshold fires before the
	// compositor ever reports the ended state.
	nearEnd := obs.MediaInputStatus{State: obs.MediaStatePlaying, DurationMillis: 60000, CursorMillis: 59800}
	if !completionReached(nearEnd, threshold) {
		t.Fatalf("early-switch threshold did not fire")
	}

	ended := obs.MediaInputStatus{State: obs.MediaStateEnded}
	if !completionReached(ended, threshold) {
		t.Fatalf("ended state did not complete")
	}

	// Zero duration (still loading) must not trip the threshold math.
	loading := obs.MediaInputStatus{State: obs.MediaStatePlaying}
	if completionReached(loading, threshold) {
		t.Fatalf("loading status must not be complete")
	}
}

func TestWaitForCompletionReportsEnded(t *testing.T) {
	comp := newFakeCompositor()
	m := NewSlotManager(comp)

	if !m.WaitForCompletion(context.Background(), time.Millisecond, 500*time.Millisecond) {
		t.Fatalf("ended media must report completion")
	}
}

func TestWaitForCompletionCancelled(t *testing.T) {
	comp := newFakeCompositor()
	comp.statusFn = func(string, int) (obs.MediaInputStatus, error) {
		return obs.MediaInputStatus{State: obs.MediaStatePlaying, DurationMillis: 60000, CursorMillis: 1000}, nil
	}
	m := NewSlotManager(comp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		done <- m.WaitForCompletion(ctx, time.Millisecond, 500*time.Millisecond)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	if <-done {
		t.Fatalf("cancelled wait must not report completion")
	}
}
