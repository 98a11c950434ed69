package resolver

import (
	"time"
	"tv_channel/helpers"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel/models"

	"github.com/sirupsen/logrus"
)

// DBCache persists link-to-file mappings in the channel metadata database.
type DBCache struct {
	logger *logrus.Entry
}

// NewDBCache returns the sqlite-backed download cache.
func NewDBCache() *DBCache {
	return &DBCache{
		logger: logs.GetLogger().WithField("module", "resolver"),
	}
}

// Lookup returns the cached local path for a link, if one was recorded.
func (c *DBCache) Lookup(link string) (string, bool) {
	var entry models.DownloadCache
	has, err := helpers.GetXORM().Where("link = ?", link).Get(&entry)
	if err != nil {
		c.logger.WithError(err).Warn("Download cache lookup failed")
		return "", false
	}
	if !has {
		return "", false
	}
	return entry.LocalPath, true
}

// Store records the local path a link resolved to.
func (c *DBCache) Store(link, path string) {
	entry := &models.DownloadCache{
		Link:      link,
		LocalPath: path,
		FetchedAt: time.Now().Unix(),
	}
	affected, err := helpers.GetXORM().Where("link = ?", link).
		Cols("local_path", "fetched_at").
		Update(&models.DownloadCache{LocalPath: path, FetchedAt: entry.FetchedAt})
	if err != nil {
		c.logger.WithError(err).Warn("Download cache update failed")
		return
	}
	if affected == 0 {
		if _, err := helpers.GetXORM().Insert(entry); err != nil {
			c.logger.WithError(err).Warn("Download cache insert failed")
		}
	}
}
