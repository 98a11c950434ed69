package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"tv_channel/helpers/logs"
	"tv_channel/modules/channel/models"

	"github.com/sirupsen/logrus"
)

// schedulePattern matches one persisted schedule record:
// "<date>","<startTime>","<name>","<link>","<duration>"
var schedulePattern = regexp.MustCompile(`"([^"]*)","([^"]*)","([^"]*)","([^"]*)","([^"]*)"`)

// ScheduleStore is the durable ordered list of pending schedule items,
// one quoted record per line. The file is shared with the HTTP API without
// locking: a read-modify-write can race an external writer and the last
// full-file rewrite wins. Updates are human-paced, so this is accepted.
type ScheduleStore struct {
	Path   string
	logger *logrus.Entry
}

// NewScheduleStore returns a store backed by the given file path.
func NewScheduleStore(path string) *ScheduleStore {
	return &ScheduleStore{
		Path: path,
		logger: logs.GetLogger().WithFields(logrus.Fields{
			"module": "store",
			"file":   path,
		}),
	}
}

// Read parses the schedule file. A missing file yields an empty schedule.
// Lines that do not match the record pattern are dropped; the count of
// dropped lines is returned so callers can observe what was lost.
func (s *ScheduleStore) Read() ([]models.ScheduleItem, int, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var items []models.ScheduleItem
	dropped := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		match := schedulePattern.FindStringSubmatch(line)
		if match == nil {
			dropped++
			continue
		}
		items = append(items, models.ScheduleItem{
			Date:      match[1],
			StartTime: match[2],
			Name:      match[3],
			Link:      match[4],
			Duration:  match[5],
		})
	}

	if dropped > 0 {
		s.logger.WithField("dropped_lines", dropped).Warn("Skipped malformed schedule records")
	}

	return items, dropped, nil
}

// Write serializes the full schedule and replaces the file atomically
// (temp file in the same directory, then rename). Items missing a date or
// start time get the write defaults.
func (s *ScheduleStore) Write(items []models.ScheduleItem) error {
	var sb strings.Builder
	for _, item := range items {
		item.ApplyWriteDefaults()
		// Raw fields between plain quotes: %q would escape backslashes
		// and break the field-for-field round-trip.
		sb.WriteString(fmt.Sprintf("\"%s\",\"%s\",\"%s\",\"%s\",\"%s\"\n",
			item.Date, item.StartTime, item.Name, item.Link, item.Duration))
	}
	return atomicWriteFile(s.Path, []byte(sb.String()))
}

// Pop removes the first item equal to the given one from the file and
// writes the remainder back. The file is re-read here, immediately before
// the rewrite, so items appended concurrently by the API are kept.
func (s *ScheduleStore) Pop(item models.ScheduleItem) error {
	items, _, err := s.Read()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].Equal(item) {
			return s.Write(append(items[:i:i], items[i+1:]...))
		}
	}
	// Already removed by an external writer.
	return nil
}

func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
