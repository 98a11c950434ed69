package models

import (
	"time"
)

// Playback outcomes recorded in history.
const (
	OutcomePlayed  = "played"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// PlayHistory records one schedule item the channel attempted to broadcast.
type PlayHistory struct {
	ID              int64  `xorm:"pk autoincr 'id'"`
	Name            string `xorm:"varchar(250) not null 'name'"`
	Link            string `xorm:"varchar(500) not null 'link'"`
	ResolvedPath    string `xorm:"varchar(500) null default '' 'resolved_path'"`
	StartedAt       int64  `xorm:"not null 'started_at'"`
	FinishedAt      int64  `xorm:"null 'finished_at'"`
	DurationSeconds int64  `xorm:"null 'duration_seconds'"`
	Outcome         string `xorm:"varchar(20) not null default 'played' 'outcome'"`
}

// TableName returns the table name for PlayHistory
func (PlayHistory) TableName() string {
	return "play_history"
}

// MarkAsFinished marks the playback as finished and calculates duration
func (p *PlayHistory) MarkAsFinished(outcome string) {
	p.FinishedAt = time.Now().Unix()
	p.DurationSeconds = p.FinishedAt - p.StartedAt
	p.Outcome = outcome
}
