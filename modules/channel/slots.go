package channel

import (
	"context"
	"fmt"
	"time"
	"tv_channel/helpers/logs"
	"tv_channel/modules/obs"

	"github.com/sirupsen/logrus"
)

// Scene and source names for the two alternating playback slots.
const (
	SceneA  = "Scene_A"
	SceneB  = "Scene_B"
	SourceA = "VideoPlayer_A"
	SourceB = "VideoPlayer_B"
)

// Compositor is the narrow control surface the channel needs from OBS.
type Compositor interface {
	EnsureSource(scene, source string) error
	ApplySourceDefaults(scene, source string)
	SetMedia(source, absolutePath string) error
	MediaStatus(source string) (obs.MediaInputStatus, error)
	SetActiveScene(scene string) error
}

// SlotState is the lifecycle state of one playback slot.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotPreloading
	SlotActive
)

func (s SlotState) String() string {
	switch s {
	case SlotPreloading:
		return "preloading"
	case SlotActive:
		return "active"
	default:
		return "idle"
	}
}

type slot struct {
	Scene  string
	Source string
	state  SlotState
}

// SlotManager owns the two alternating (scene, source) pairs. The standby
// slot is preloaded with the next item while the active slot plays, so the
// cut hides compositor load time and download latency.
type SlotManager struct {
	comp   Compositor
	slots  [2]slot
	active int
	logger *logrus.Entry
}

// NewSlotManager returns a manager over the fixed A/B slot pair. Both slots
// start idle; the first PlayInitial puts slot A on air.
func NewSlotManager(comp Compositor) *SlotManager {
	return &SlotManager{
		comp: comp,
		slots: [2]slot{
			{Scene: SceneA, Source: SourceA},
			{Scene: SceneB, Source: SourceB},
		},
		logger: logs.GetLogger().WithField("module", "slots"),
	}
}

// EnsureSetup idempotently creates both scenes and sources in the
// compositor and applies cosmetic defaults. Called defensively before every
// playback because OBS is administered independently and its state may not
// match ours.
func (m *SlotManager) EnsureSetup() error {
	for _, s := range m.slots {
		if err := m.comp.EnsureSource(s.Scene, s.Source); err != nil {
			return fmt.Errorf("failed to ensure %s/%s: %w", s.Scene, s.Source, err)
		}
		m.comp.ApplySourceDefaults(s.Scene, s.Source)
	}
	return nil
}

// PlayInitial binds the resolved file to the currently-designated active
// slot and cuts the program scene to it.
func (m *SlotManager) PlayInitial(absolutePath string) error {
	active := &m.slots[m.active]

	if err := m.comp.SetMedia(active.Source, absolutePath); err != nil {
		return fmt.Errorf("failed to set media on %s: %w", active.Source, err)
	}
	if err := m.comp.SetActiveScene(active.Scene); err != nil {
		return fmt.Errorf("failed to switch to %s: %w", active.Scene, err)
	}

	active.state = SlotActive
	m.slots[1-m.active].state = SlotIdle

	m.logger.WithFields(logrus.Fields{
		"scene": active.Scene,
		"path":  absolutePath,
	}).Info("Playing on initial slot")
	return nil
}

// PreloadNext binds the following item's file to the standby slot without
// switching scenes, while the active slot keeps playing.
func (m *SlotManager) PreloadNext(absolutePath string) error {
	standby := &m.slots[1-m.active]

	if err := m.comp.SetMedia(standby.Source, absolutePath); err != nil {
		return fmt.Errorf("failed to preload %s: %w", standby.Source, err)
	}
	standby.state = SlotPreloading

	m.logger.WithFields(logrus.Fields{
		"scene": standby.Scene,
		"path":  absolutePath,
	}).Info("Preloaded next item on standby slot")
	return nil
}

// Advance cuts the program scene from the active slot to the standby slot
// and swaps the role labels. This is the only transition that changes which
// pair is on air.
func (m *SlotManager) Advance() error {
	standby := &m.slots[1-m.active]

	if err := m.comp.SetActiveScene(standby.Scene); err != nil {
		return fmt.Errorf("failed to cut to %s: %w", standby.Scene, err)
	}

	m.logger.WithFields(logrus.Fields{
		"from": m.slots[m.active].Scene,
		"to":   standby.Scene,
	}).Info("Scene cut")

	m.slots[m.active].state = SlotIdle
	m.active = 1 - m.active
	m.slots[m.active].state = SlotActive
	return nil
}

// ActiveScene returns the scene name of the on-air slot.
func (m *SlotManager) ActiveScene() string { return m.slots[m.active].Scene }

// ActiveSource returns the source name of the on-air slot.
func (m *SlotManager) ActiveSource() string { return m.slots[m.active].Source }

// StandbySource returns the source name of the off-air slot.
func (m *SlotManager) StandbySource() string { return m.slots[1-m.active].Source }

// ActiveState returns the state of the on-air slot.
func (m *SlotManager) ActiveState() SlotState { return m.slots[m.active].state }

// StandbyState returns the state of the off-air slot.
func (m *SlotManager) StandbyState() SlotState { return m.slots[1-m.active].state }

// WaitForCompletion polls the active slot's media status until the
// compositor reports the ended state or the remaining time drops below the
// early-switch threshold. The early threshold makes the cut to the next
// item seamless instead of holding a freeze-frame at true end. Reports
// whether playback actually completed: a cancelled context returns false
// so the caller can leave the item pending. A status error counts as
// completed so one unreachable compositor cannot stall the schedule.
func (m *SlotManager) WaitForCompletion(ctx context.Context, poll, earlySwitch time.Duration) bool {
	source := m.ActiveSource()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(poll):
		}

		status, err := m.comp.MediaStatus(source)
		if err != nil {
			m.logger.WithError(err).WithField("source", source).Error("Media status check failed, ending wait")
			return true
		}
		if completionReached(status, earlySwitch) {
			return true
		}
	}
}

// completionReached reports whether playback should be considered finished:
// either the compositor reports the ended state, or the remaining time has
// dropped inside the early-switch threshold.
func completionReached(status obs.MediaInputStatus, earlySwitch time.Duration) bool {
	if status.State == obs.MediaStateEnded {
		return true
	}
	if status.DurationMillis > 0 {
		remaining := status.DurationMillis - status.CursorMillis
		if remaining > 0 && remaining < earlySwitch.Milliseconds() {
			return true
		}
	}
	return false
}
