package channel

import (
	"context"
	"time"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel/models"

	"github.com/sirupsen/logrus"
)

// ScheduleStore is the durable ordered list of pending items. The item at
// index 0 is the next (or current) due item; the store never reorders.
type ScheduleStore interface {
	Read() ([]models.ScheduleItem, int, error)
	Write(items []models.ScheduleItem) error
	Pop(item models.ScheduleItem) error
}

// Resolver turns a media link into a local playable file path, downloading
// on demand. It may block for the duration of a download.
type Resolver interface {
	Resolve(link string) (string, error)
}

// HistoryRecorder persists the outcome of a playback attempt. May be nil.
type HistoryRecorder interface {
	Record(h *models.PlayHistory)
}

// Intervals are the polling periods of the scheduler loop. All of them are
// explicit configuration; see helpers.GetConfig.
type Intervals struct {
	EmptyPoll   time.Duration
	DuePoll     time.Duration
	StatusPoll  time.Duration
	EarlySwitch time.Duration
	// LoadGrace gives OBS a moment to open a new file before status
	// polling starts, otherwise the first poll can observe the previous
	// item's ended state.
	LoadGrace time.Duration
}

// waitLogInterval throttles the not-yet-due diagnostic so the sub-second
// poll does not flood the log.
const waitLogInterval = 30 * time.Second

// Scheduler is the wall-clock control loop: it re-reads the schedule store
// every poll, waits for the head item to become due, resolves its link,
// drives the playback slots, and pops the store exactly once per completed
// item. Nothing in the loop is allowed to terminate the process.
type Scheduler struct {
	store    ScheduleStore
	resolver Resolver
	comp     Compositor
	slots    *SlotManager
	history  HistoryRecorder
	iv       Intervals

	now func() time.Time

	preloadedLink string
	preloadedPath string
	resolvedLink  string
	resolvedPath  string
	lastWaitLog   time.Time

	logger *logrus.Entry
}

// NewScheduler wires the wall-clock scheduler. history may be nil.
func NewScheduler(store ScheduleStore, resolver Resolver, comp Compositor, history HistoryRecorder, iv Intervals) *Scheduler {
	return &Scheduler{
		store:    store,
		resolver: resolver,
		comp:     comp,
		slots:    NewSlotManager(comp),
		history:  history,
		iv:       iv,
		now:      time.Now,
		logger:   logs.GetLogger().WithField("module", "scheduler"),
	}
}

// Run executes the scheduling loop until the context is cancelled. A
// requested shutdown lets the current blocking operation finish before the
// loop observes it.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler loop started")

	for {
		if ctx.Err() != nil {
			s.logger.Info("Scheduler loop stopped")
			return
		}

		items, _, err := s.store.Read()
		if err != nil {
			s.logger.WithError(err).Error("Failed to read schedule store")
			sleepCtx(ctx, s.iv.EmptyPoll)
			continue
		}

		if len(items) == 0 {
			sleepCtx(ctx, s.iv.EmptyPoll)
			continue
		}

		head := items[0]
		if !head.IsDue(s.now()) {
			s.logWaitThrottled(head)
			sleepCtx(ctx, s.iv.DuePoll)
			continue
		}

		s.playHead(ctx, head, items)
	}
}

// logWaitThrottled reports the wait for a future item, at most once per
// waitLogInterval rather than every tick.
func (s *Scheduler) logWaitThrottled(head models.ScheduleItem) {
	now := s.now()
	if now.Sub(s.lastWaitLog) < waitLogInterval {
		return
	}
	s.lastWaitLog = now
	s.logger.WithFields(logrus.Fields{
		"name":       head.Name,
		"date":       head.Date,
		"start_time": head.StartTime,
	}).Info("Waiting for next schedule item")
}

// playHead broadcasts the due head item and pops it from the store. Item
// failures pop too: a bad item is dropped, never retried, so it cannot
// block the rest of the schedule. Compositor connection failures do not
// pop; the same item is retried lazily on the next iteration.
func (s *Scheduler) playHead(ctx context.Context, head models.ScheduleItem, items []models.ScheduleItem) {
	log := s.logger.WithFields(logrus.Fields{
		"name": head.Name,
		"link": head.Link,
	})

	// Pure scene cue: switch and pop, no resolution or slot management.
	if models.ClassifyLink(head.Link) == models.LinkSceneCue {
		scene := models.SceneCueName(head.Link)
		if err := s.comp.SetActiveScene(scene); err != nil {
			log.WithError(err).Error("Scene switch failed, will retry")
			sleepCtx(ctx, s.iv.EmptyPoll)
			return
		}
		log.WithField("scene", scene).Info("Switched scene")
		s.pop(head)
		return
	}

	path := s.takePreloaded(head.Link)
	preloaded := path != ""
	if !preloaded {
		if s.resolvedLink == head.Link && s.resolvedPath != "" {
			// Resolved on a previous attempt that failed at the compositor.
			path = s.resolvedPath
		} else {
			resolved, err := s.resolver.Resolve(head.Link)
			if err != nil {
				log.WithError(err).Error("Resolution failed, dropping item")
				s.record(head, "", models.OutcomeFailed, s.now())
				s.pop(head)
				return
			}
			path = resolved
		}
	}

	if err := s.slots.EnsureSetup(); err != nil {
		log.WithError(err).Error("Compositor unavailable, will retry")
		s.resolvedLink, s.resolvedPath = head.Link, path
		sleepCtx(ctx, s.iv.EmptyPoll)
		return
	}
	s.resolvedLink, s.resolvedPath = "", ""

	startedAt := s.now()
	var err error
	if preloaded {
		err = s.slots.Advance()
	} else {
		err = s.slots.PlayInitial(path)
	}
	if err != nil {
		log.WithError(err).Error("Playback start failed, will retry")
		s.resolvedLink, s.resolvedPath = head.Link, path
		sleepCtx(ctx, s.iv.EmptyPoll)
		return
	}

	log.WithField("path", path).Info("On air")
	BroadcastNowPlaying(head.Name, startedAt.Unix())

	s.preloadNext(items)

	sleepCtx(ctx, s.iv.LoadGrace)
	if !s.slots.WaitForCompletion(ctx, s.iv.StatusPoll, s.iv.EarlySwitch) {
		// Shutdown mid-item: stay in the store for the next run.
		return
	}

	s.record(head, path, models.OutcomePlayed, startedAt)
	s.pop(head)
}

// takePreloaded consumes the staged standby path when it matches the link.
func (s *Scheduler) takePreloaded(link string) string {
	if s.preloadedLink != link || s.preloadedPath == "" {
		return ""
	}
	path := s.preloadedPath
	s.preloadedLink, s.preloadedPath = "", ""
	return path
}

// preloadNext resolves the following media item and stages it into the
// standby slot while the active slot plays. The download happens here, so
// its latency hides behind the remaining playback time of the current item.
// A preload failure is only logged; the item gets its full attempt when it
// reaches the head.
func (s *Scheduler) preloadNext(items []models.ScheduleItem) {
	if len(items) < 2 {
		return
	}
	next := items[1]
	if models.ClassifyLink(next.Link) == models.LinkSceneCue {
		return
	}

	path, err := s.resolver.Resolve(next.Link)
	if err != nil {
		s.logger.WithError(err).WithField("name", next.Name).Warn("Preload resolution failed")
		return
	}
	if err := s.slots.PreloadNext(path); err != nil {
		s.logger.WithError(err).WithField("name", next.Name).Warn("Preload failed")
		return
	}
	s.preloadedLink, s.preloadedPath = next.Link, path
}

func (s *Scheduler) pop(item models.ScheduleItem) {
	if err := s.store.Pop(item); err != nil {
		s.logger.WithError(err).WithField("name", item.Name).Error("Failed to pop schedule item")
	}
}

func (s *Scheduler) record(item models.ScheduleItem, path, outcome string, startedAt time.Time) {
	if s.history == nil {
		return
	}
	h := &models.PlayHistory{
		Name:         item.Name,
		Link:         item.Link,
		ResolvedPath: path,
		StartedAt:    startedAt.Unix(),
	}
	h.MarkAsFinished(outcome)
	s.history.Record(h)
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
