package store

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel/models"

	"github.com/sirupsen/logrus"
)

// libraryPattern matches one persisted library record:
// "<name>","<link>","<duration>"
var libraryPattern = regexp.MustCompile(`"([^"]*)","([^"]*)","([^"]*)"`)

// LibraryStore is the flat-file video library read by the UI.
type LibraryStore struct {
	Path   string
	logger *logrus.Entry
}

// NewLibraryStore returns a library backed by the given file path.
func NewLibraryStore(path string) *LibraryStore {
	return &LibraryStore{
		Path: path,
		logger: logs.GetLogger().WithFields(logrus.Fields{
			"module": "store",
			"file":   path,
		}),
	}
}

// Read parses the library file. A missing file yields an empty library;
// malformed lines are dropped and counted.
func (l *LibraryStore) Read() ([]models.LibraryEntry, int, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read library file: %w", err)
	}

	var entries []models.LibraryEntry
	dropped := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		match := libraryPattern.FindStringSubmatch(line)
		if match == nil {
			dropped++
			continue
		}
		entries = append(entries, models.LibraryEntry{
			Name:     match[1],
			Link:     match[2],
			Duration: match[3],
		})
	}

	if dropped > 0 {
		l.logger.WithField("dropped_lines", dropped).Warn("Skipped malformed library records")
	}

	return entries, dropped, nil
}

// Write serializes the full library and replaces the file atomically.
func (l *LibraryStore) Write(entries []models.LibraryEntry) error {
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("\"%s\",\"%s\",\"%s\"\n", entry.Name, entry.Link, entry.Duration))
	}
	return atomicWriteFile(l.Path, []byte(sb.String()))
}
