package models

import (
	"time"
)

// Defaults written for items that arrive without a date or start time.
const (
	DefaultDate      = "2026-02-23"
	DefaultStartTime = "00:00"
)

// ScheduleItem is one dated broadcast event: either a media link to play
// or a pure scene-switch directive.
type ScheduleItem struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	Name      string `json:"name"`
	Link      string `json:"link"`
	Duration  string `json:"duration"`
}

// ApplyWriteDefaults fills the date and start time for partially populated
// items before they are persisted.
func (s *ScheduleItem) ApplyWriteDefaults() {
	if s.Date == "" {
		s.Date = DefaultDate
	}
	if s.StartTime == "" {
		s.StartTime = DefaultStartTime
	}
}

// IsDue reports whether the item's date and start time are now or in the
// past relative to the given wall clock. An unparseable date or time is
// treated as due so a malformed head item cannot wedge the channel.
func (s *ScheduleItem) IsDue(now time.Time) bool {
	itemDate, err := time.ParseInLocation("2006-01-02", s.Date, now.Location())
	if err != nil {
		return true
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if itemDate.After(today) {
		return false
	}
	if itemDate.Before(today) {
		return true
	}

	start, err := time.ParseInLocation("15:04", s.StartTime, now.Location())
	if err != nil {
		return true
	}
	startToday := time.Date(now.Year(), now.Month(), now.Day(), start.Hour(), start.Minute(), 0, 0, now.Location())
	return !startToday.After(now)
}

// Equal reports field-for-field equality, used when popping the head item
// from a freshly re-read store.
func (s ScheduleItem) Equal(other ScheduleItem) bool {
	return s == other
}
