package resolver

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"tv_channel/helpers/logs"
)

const probeTimeout = 5 * time.Second

// ProbeDuration returns the duration of a local media file formatted for
// display (H:MM:SS or M:SS), using ffprobe. Returns "0:00" when the file
// cannot be probed.
func ProbeDuration(path string) string {
	logger := logs.GetLogger().WithField("module", "resolver")

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		logger.WithError(err).WithField("path", path).Debug("ffprobe failed")
		return "0:00"
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return "0:00"
	}
	return FormatSeconds(seconds)
}

// FormatSeconds renders a duration in the schedule's display format:
// H:MM:SS when an hour or longer, M:SS otherwise.
func FormatSeconds(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
