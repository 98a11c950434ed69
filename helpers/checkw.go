package helpers

import (
	"os/exec"
)

// IsYtDlpInstalled checks if yt-dlp is installed and available in the system's PATH.
// It returns true if yt-dlp is found, false otherwise.
func IsYtDlpInstalled() bool {
	cmd := exec.Command("yt-dlp", "--version")
	if err := cmd.Run(); err != nil {
		return false
	}
	return true
}

// IsFFprobeInstalled checks if ffprobe is installed and available in the system's PATH.
func IsFFprobeInstalled() bool {
	cmd := exec.Command("ffprobe", "-version")
	if err := cmd.Run(); err != nil {
		return false
	}
	return true
}
