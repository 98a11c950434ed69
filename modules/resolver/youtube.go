package resolver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// downloadYouTube fetches a video through yt-dlp in the best available
// format, named after the remote title, and returns the downloaded path.
func (r *Resolver) downloadYouTube(url string) (string, error) {
	if err := r.ensureVideosDir(); err != nil {
		return "", fmt.Errorf("failed to create videos directory: %w", err)
	}

	log := r.logger.WithField("url", url)
	log.Info("Downloading video via yt-dlp...")

	ctx, cancel := context.WithTimeout(context.Background(), downloadTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.ytdlpBin,
		"-f", "best",
		"-o", filepath.Join(r.videosDir, "%(title)s.%(ext)s"),
		"--no-simulate",
		"--print", "after_move:filepath",
		url,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.WithError(err).WithField("stderr", strings.TrimSpace(stderr.String())).Error("yt-dlp failed")
		return "", fmt.Errorf("yt-dlp failed: %w", err)
	}

	path := strings.TrimSpace(stdout.String())
	if lines := strings.Split(path, "\n"); len(lines) > 0 {
		path = strings.TrimSpace(lines[len(lines)-1])
	}
	if path == "" {
		return "", fmt.Errorf("yt-dlp reported no output file for %q", url)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("yt-dlp output file missing: %w", err)
	}

	log.WithField("path", path).Info("Download finished")
	return path, nil
}
