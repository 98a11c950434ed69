package channel

import (
	"fmt"
	"tv_channel/helpers"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel/models"
)

// DBHistory persists playback outcomes in the channel metadata database.
type DBHistory struct{}

// NewDBHistory returns the sqlite-backed history recorder.
func NewDBHistory() *DBHistory {
	return &DBHistory{}
}

// Record inserts one playback attempt. Failures are logged, never fatal:
// history is bookkeeping and must not interrupt the broadcast.
func (h *DBHistory) Record(entry *models.PlayHistory) {
	if _, err := helpers.GetXORM().Insert(entry); err != nil {
		logs.GetLogger().WithField("module", "channel").
			WithError(err).Error("Failed to record play history")
	}
}

// GetPlayHistory returns the most recent playback records.
func GetPlayHistory(limit int) ([]models.PlayHistory, error) {
	var history []models.PlayHistory
	err := helpers.GetXORM().
		OrderBy("started_at DESC").
		Limit(limit).
		Find(&history)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch play history: %w", err)
	}
	return history, nil
}
