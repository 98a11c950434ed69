package channel

import (
	"context"
	"time"
	"tv_channel/helpers"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel/store"
	"tv_channel/modules/obs"
	"tv_channel/modules/resolver"
)

// immediateQueue is shared with the web API when the channel runs in queue
// mode; nil in clock mode.
var immediateQueue *ImmediateQueue

// GetImmediateQueue returns the pending-work queue of the immediate-play
// variant, or nil when the channel runs on the wall clock.
func GetImmediateQueue() *ImmediateQueue {
	return immediateQueue
}

// StartChannel wires the configured scheduling variant and runs it until
// the context is cancelled. Meant to run on its own goroutine.
func StartChannel(ctx context.Context) {
	cfg := helpers.GetConfig()
	logger := logs.GetLogger().WithField("module", "channel")

	comp := obs.NewClient(obs.Config{
		Host:     cfg.OBS.Host,
		Port:     cfg.OBS.Port,
		Password: cfg.OBS.Password,
	})

	res := resolver.New(cfg.App.VideoFilesPath, resolver.NewDBCache())
	history := NewDBHistory()

	iv := Intervals{
		EmptyPoll:   time.Duration(cfg.Scheduler.EmptyPollSeconds) * time.Second,
		DuePoll:     time.Duration(cfg.Scheduler.DuePollMillis) * time.Millisecond,
		StatusPoll:  time.Duration(cfg.Scheduler.StatusPollMillis) * time.Millisecond,
		EarlySwitch: time.Duration(cfg.Scheduler.EarlySwitchMillis) * time.Millisecond,
		LoadGrace:   2 * time.Second,
	}

	switch cfg.Scheduler.Mode {
	case "queue":
		logger.Info("Starting channel in immediate-queue mode")
		immediateQueue = NewImmediateQueue(256)
		player := NewImmediatePlayer(immediateQueue, res, comp, history, iv)
		player.Run(ctx)

	default:
		logger.Info("Starting channel in wall-clock mode")
		scheduleStore := store.NewScheduleStore(cfg.App.ScheduleFile)
		scheduler := NewScheduler(scheduleStore, res, comp, history, iv)
		scheduler.Run(ctx)
	}
}
