package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"tv_channel/helpers"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel"
	"tv_channel/modules/channel/models"
	"tv_channel/modules/channel/store"
	"tv_channel/modules/resolver"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// handleScheduleGet returns the full pending schedule
func handleScheduleGet(c *gin.Context) {
	logger := logs.GetLogger().WithFields(logrus.Fields{
		"module":    "web",
		"handler":   "handleScheduleGet",
		"client_ip": c.ClientIP(),
	})

	items, dropped, err := store.NewScheduleStore(helpers.GetConfig().App.ScheduleFile).Read()
	if err != nil {
		logger.WithError(err).Error("Failed to read schedule")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read schedule",
		})
		return
	}
	if items == nil {
		items = []models.ScheduleItem{}
	}

	logger.WithFields(logrus.Fields{
		"items":         len(items),
		"dropped_lines": dropped,
	}).Debug("Schedule read")
	c.JSON(http.StatusOK, items)
}

// handleSchedulePost replaces the full schedule with the posted list.
// The body must be a JSON array; nothing is applied on a malformed payload.
func handleSchedulePost(c *gin.Context) {
	logger := logs.GetLogger().WithFields(logrus.Fields{
		"module":    "web",
		"handler":   "handleSchedulePost",
		"client_ip": c.ClientIP(),
	})

	var items []models.ScheduleItem
	if err := c.ShouldBindJSON(&items); err != nil {
		logger.WithError(err).Warn("Invalid schedule payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid format, expected list",
		})
		return
	}
	// A JSON null decodes into a nil slice without error; only an actual
	// list (including an empty one) may replace the schedule.
	if items == nil {
		logger.Warn("Schedule payload is not a list")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid format, expected list",
		})
		return
	}

	if err := store.NewScheduleStore(helpers.GetConfig().App.ScheduleFile).Write(items); err != nil {
		logger.WithError(err).Error("Failed to write schedule")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to write schedule",
		})
		return
	}

	logger.WithField("items", len(items)).Info("Schedule replaced")
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// handleVideosGet returns the video library. Entries without a duration are
// probed on the fly when they point at a local file.
func handleVideosGet(c *gin.Context) {
	logger := logs.GetLogger().WithFields(logrus.Fields{
		"module":    "web",
		"handler":   "handleVideosGet",
		"client_ip": c.ClientIP(),
	})

	cfg := helpers.GetConfig()
	entries, _, err := store.NewLibraryStore(cfg.App.LibraryFile).Read()
	if err != nil {
		logger.WithError(err).Error("Failed to read library")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read library",
		})
		return
	}
	if entries == nil {
		entries = []models.LibraryEntry{}
	}

	for i := range entries {
		if entries[i].Duration == "" && models.ClassifyLink(entries[i].Link) == models.LinkLocalFile {
			entries[i].Duration = resolver.ProbeDuration(libraryProbePath(cfg.App.VideoFilesPath, entries[i].Link))
		}
	}

	logger.WithField("entries", len(entries)).Debug("Library read")
	c.JSON(http.StatusOK, entries)
}

// libraryProbePath follows the resolver's local lookup order: the link
// relative to the videos directory first, then as given.
func libraryProbePath(videosDir, link string) string {
	candidate := filepath.Join(videosDir, link)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return link
}

// handleHistoryGet returns recent playback history
func handleHistoryGet(c *gin.Context) {
	logger := logs.GetLogger().WithFields(logrus.Fields{
		"module":    "web",
		"handler":   "handleHistoryGet",
		"client_ip": c.ClientIP(),
	})

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	history, err := channel.GetPlayHistory(limit)
	if err != nil {
		logger.WithError(err).Error("Failed to get play history")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get play history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": history,
		"count":   len(history),
	})
}

// handleQueuePost enqueues an item for immediate playback. Only available
// when the channel runs in immediate-queue mode.
func handleQueuePost(c *gin.Context) {
	logger := logs.GetLogger().WithFields(logrus.Fields{
		"module":    "web",
		"handler":   "handleQueuePost",
		"client_ip": c.ClientIP(),
	})

	queue := channel.GetImmediateQueue()
	if queue == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Channel is not running in queue mode",
		})
		return
	}

	var item models.ScheduleItem
	if err := c.ShouldBindJSON(&item); err != nil || item.Link == "" {
		logger.Warn("Invalid queue payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item, link is required",
		})
		return
	}

	queue.Put(item)
	logger.WithFields(logrus.Fields{
		"name": item.Name,
		"link": item.Link,
	}).Info("Item enqueued")
	c.JSON(http.StatusOK, gin.H{"status": "queued", "pending": queue.Len()})
}
