package resolver

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sirupsen/logrus"
)

var (
	driveIDPattern          = regexp.MustCompile(`(?:id=|/d/|/file/d/|/open\?id=)([a-zA-Z0-9_-]+)`)
	driveResourceKeyPattern = regexp.MustCompile(`resourcekey=([a-zA-Z0-9_-]+)`)
)

// extractDriveRef pulls the file identifier and optional resource key out
// of a Google Drive URL.
func extractDriveRef(url string) (fileID, resourceKey string, err error) {
	idMatch := driveIDPattern.FindStringSubmatch(url)
	if idMatch == nil {
		return "", "", fmt.Errorf("no file id found in drive URL %q", url)
	}
	fileID = idMatch[1]
	if rkMatch := driveResourceKeyPattern.FindStringSubmatch(url); rkMatch != nil {
		resourceKey = rkMatch[1]
	}
	return fileID, resourceKey, nil
}

// driveDownloadURL builds the direct-download form of a Drive link.
func driveDownloadURL(fileID, resourceKey string) string {
	url := fmt.Sprintf("https://drive.google.com/uc?id=%s&export=download", fileID)
	if resourceKey != "" {
		url += "&resourcekey=" + resourceKey
	}
	return url
}

// driveLocalName is the deterministic name a Drive file is saved under.
func driveLocalName(fileID string) string {
	return fmt.Sprintf("gdrive_video_%s.mp4", fileID)
}

// downloadDrive fetches a Google Drive file as a direct download and saves
// it under a name derived from the file identifier.
func (r *Resolver) downloadDrive(url string) (string, error) {
	fileID, resourceKey, err := extractDriveRef(url)
	if err != nil {
		return "", err
	}

	if err := r.ensureVideosDir(); err != nil {
		return "", fmt.Errorf("failed to create videos directory: %w", err)
	}

	log := r.logger.WithFields(logrus.Fields{
		"file_id": fileID,
		"url":     url,
	})
	log.Info("Downloading Google Drive video...")

	resp, err := r.httpClient.Get(driveDownloadURL(fileID, resourceKey))
	if err != nil {
		return "", fmt.Errorf("drive download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("drive download failed: HTTP %d", resp.StatusCode)
	}

	outputPath := filepath.Join(r.videosDir, driveLocalName(fileID))
	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("drive download interrupted: %w", err)
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		absPath = outputPath
	}

	log.WithFields(logrus.Fields{
		"path":  absPath,
		"bytes": written,
	}).Info("Download finished")
	return absPath, nil
}
