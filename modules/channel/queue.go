package channel

import (
	"context"
	"time"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel/models"

	"github.com/sirupsen/logrus"
)

// ImmediateQueue is the thread-safe blocking queue of the immediate-play
// variant: producers are the HTTP API or interactive input, the consumer is
// the playback goroutine.
type ImmediateQueue struct {
	ch chan models.ScheduleItem
}

// NewImmediateQueue returns a queue with the given buffer capacity.
func NewImmediateQueue(capacity int) *ImmediateQueue {
	return &ImmediateQueue{
		ch: make(chan models.ScheduleItem, capacity),
	}
}

// Put enqueues an item, blocking while the queue is full.
func (q *ImmediateQueue) Put(item models.ScheduleItem) {
	q.ch <- item
}

// Get dequeues the next item, waiting at most timeout. The timed receive
// lets the consumer run periodic liveness checks instead of blocking
// indefinitely.
func (q *ImmediateQueue) Get(timeout time.Duration) (models.ScheduleItem, bool) {
	select {
	case item := <-q.ch:
		return item, true
	case <-time.After(timeout):
		return models.ScheduleItem{}, false
	}
}

// Len returns the number of queued items.
func (q *ImmediateQueue) Len() int {
	return len(q.ch)
}

// ImmediatePlayer is the immediate-queue variant of the channel: items play
// as soon as they are dequeued, with no wall-clock gating and no durable
// store. Items pushed while one plays wait their turn in order.
type ImmediatePlayer struct {
	queue    *ImmediateQueue
	resolver Resolver
	comp     Compositor
	slots    *SlotManager
	history  HistoryRecorder
	iv       Intervals
	logger   *logrus.Entry
}

// NewImmediatePlayer wires the immediate-play variant. history may be nil.
func NewImmediatePlayer(queue *ImmediateQueue, resolver Resolver, comp Compositor, history HistoryRecorder, iv Intervals) *ImmediatePlayer {
	return &ImmediatePlayer{
		queue:    queue,
		resolver: resolver,
		comp:     comp,
		slots:    NewSlotManager(comp),
		history:  history,
		iv:       iv,
		logger:   logs.GetLogger().WithField("module", "player"),
	}
}

// Queue returns the pending-work queue for producers.
func (p *ImmediatePlayer) Queue() *ImmediateQueue {
	return p.queue
}

// Run consumes the queue until the context is cancelled.
func (p *ImmediatePlayer) Run(ctx context.Context) {
	p.logger.Info("Immediate player started")

	for {
		if ctx.Err() != nil {
			p.logger.Info("Immediate player stopped")
			return
		}

		item, ok := p.queue.Get(time.Second)
		if !ok {
			continue
		}
		p.play(ctx, item)
	}
}

func (p *ImmediatePlayer) play(ctx context.Context, item models.ScheduleItem) {
	log := p.logger.WithFields(logrus.Fields{
		"name": item.Name,
		"link": item.Link,
	})

	if models.ClassifyLink(item.Link) == models.LinkSceneCue {
		scene := models.SceneCueName(item.Link)
		if err := p.comp.SetActiveScene(scene); err != nil {
			log.WithError(err).Error("Scene switch failed, dropping item")
			return
		}
		log.WithField("scene", scene).Info("Switched scene")
		return
	}

	path, err := p.resolver.Resolve(item.Link)
	if err != nil {
		log.WithError(err).Error("Resolution failed, dropping item")
		p.record(item, "", models.OutcomeFailed, time.Now())
		return
	}

	if err := p.slots.EnsureSetup(); err != nil {
		log.WithError(err).Error("Compositor unavailable, dropping item")
		return
	}

	startedAt := time.Now()
	if err := p.slots.PlayInitial(path); err != nil {
		log.WithError(err).Error("Playback start failed, dropping item")
		return
	}

	log.WithField("path", path).Info("On air")
	BroadcastNowPlaying(item.Name, startedAt.Unix())

	sleepCtx(ctx, p.iv.LoadGrace)
	if !p.slots.WaitForCompletion(ctx, p.iv.StatusPoll, p.iv.EarlySwitch) {
		return
	}

	p.record(item, path, models.OutcomePlayed, startedAt)
}

func (p *ImmediatePlayer) record(item models.ScheduleItem, path, outcome string, startedAt time.Time) {
	if p.history == nil {
		return
	}
	h := &models.PlayHistory{
		Name:         item.Name,
		Link:         item.Link,
		ResolvedPath: path,
		StartedAt:    startedAt.Unix(),
	}
	h.MarkAsFinished(outcome)
	p.history.Record(h)
}
