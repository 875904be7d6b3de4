package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one parsed markdown log entry.
type Entry struct {
	Timestamp string
	Emoji     string
	Action    string
	Details   string
}

// Today returns the file day key for t.
func Today(t time.Time) string {
	return t.Format(dayLayout)
}

// ReadEntries parses the daily file for day (YYYY-MM-DD) in dir and returns
// at most limit of its most recent entries, oldest first. A missing file
// yields no entries. limit <= 0 returns every entry.
func ReadEntries(dir, day string, limit int) ([]Entry, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName(day)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}

	var entries []Entry
	for _, chunk := range strings.Split(string(data), "\n"+entrySeparator+"\n") {
		if e, ok := parseEntry(chunk); ok {
			entries = append(entries, e)
		}
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// ReadRaw returns the daily file for day verbatim. A missing file yields an
// empty string.
func ReadRaw(dir, day string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName(day)))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading log file: %w", err)
	}
	return string(data), nil
}

// parseEntry decodes a chunk between separators. The file header line is
// skipped; chunks without a "## " timestamp heading are ignored.
func parseEntry(chunk string) (Entry, bool) {
	lines := strings.Split(strings.TrimSpace(chunk), "\n")
	for len(lines) > 0 && !strings.HasPrefix(lines[0], "## ") {
		lines = lines[1:]
	}
	if len(lines) < 3 {
		return Entry{}, false
	}

	e := Entry{Timestamp: strings.TrimPrefix(lines[0], "## ")}

	heading := strings.TrimSpace(lines[2])
	heading = strings.TrimSuffix(strings.TrimPrefix(heading, "**"), "**")
	if emoji, action, ok := strings.Cut(heading, " "); ok {
		e.Emoji, e.Action = emoji, action
	} else {
		e.Action = heading
	}

	details := lines[3:]
	for i, line := range details {
		if strings.HasPrefix(line, `\`) && isSeparatorLine(line) {
			details[i] = line[1:]
		}
	}
	e.Details = strings.TrimSpace(strings.Join(details, "\n"))
	return e, true
}
