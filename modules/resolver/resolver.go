package resolver

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel/models"

	"github.com/sirupsen/logrus"
)

// downloadTimeout bounds a single remote fetch so a dead link cannot block
// the channel forever. There is no retry: resolution failure is terminal
// for that attempt.
const downloadTimeout = 30 * time.Minute

// Cache remembers which local file a remote link resolved to, so a repeated
// link skips the download. Implementations may be nil-safe no-ops in tests.
type Cache interface {
	Lookup(link string) (string, bool)
	Store(link, path string)
}

// Resolver turns a schedule item's link into a local playable file path.
// Remote variants download synchronously and return only on completion.
type Resolver struct {
	videosDir  string
	cache      Cache
	httpClient *http.Client
	ytdlpBin   string
	logger     *logrus.Entry
}

// New returns a resolver saving downloads under videosDir. cache may be nil.
func New(videosDir string, cache Cache) *Resolver {
	return &Resolver{
		videosDir:  videosDir,
		cache:      cache,
		httpClient: &http.Client{Timeout: downloadTimeout},
		ytdlpBin:   "yt-dlp",
		logger:     logs.GetLogger().WithField("module", "resolver"),
	}
}

// Resolve returns a local file path for the link, downloading first when the
// link is remote. Scene directives are not resolvable; the scheduler
// intercepts them before calling here.
func (r *Resolver) Resolve(link string) (string, error) {
	kind := models.ClassifyLink(link)

	log := r.logger.WithFields(logrus.Fields{
		"link": link,
		"kind": kind.String(),
	})

	switch kind {
	case models.LinkSceneCue:
		return "", fmt.Errorf("scene directive %q is not a media link", link)

	case models.LinkRemoteVideo:
		if path, ok := r.cached(link); ok {
			log.WithField("path", path).Info("Resolved from download cache")
			return path, nil
		}
		path, err := r.downloadYouTube(link)
		if err != nil {
			return "", err
		}
		r.remember(link, path)
		return path, nil

	case models.LinkCloudDrive:
		if path, ok := r.cached(link); ok {
			log.WithField("path", path).Info("Resolved from download cache")
			return path, nil
		}
		path, err := r.downloadDrive(link)
		if err != nil {
			return "", err
		}
		r.remember(link, path)
		return path, nil

	default:
		return r.resolveLocal(link)
	}
}

// resolveLocal tries the link relative to the videos directory first, then
// as given, and returns the first path that exists.
func (r *Resolver) resolveLocal(link string) (string, error) {
	candidates := []string{filepath.Join(r.videosDir, link), link}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return candidate, nil
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("no local file found for %q", link)
}

func (r *Resolver) cached(link string) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	path, ok := r.cache.Lookup(link)
	if !ok {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (r *Resolver) remember(link, path string) {
	if r.cache != nil {
		r.cache.Store(link, path)
	}
}

func (r *Resolver) ensureVideosDir() error {
	return os.MkdirAll(r.videosDir, 0755)
}
