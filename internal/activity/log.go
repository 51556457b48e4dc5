// Package activity keeps an append-only JSONL audit trail of changes
// zappy made to the host.
package activity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/msalah0e/zappy/internal/config"
)

// Entry represents a single activity log entry.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	Details   string    `json:"details,omitempty"`
	OK        bool      `json:"ok"`
}

func logPath() string {
	return filepath.Join(config.ConfigDir(), "activity.jsonl")
}

// Log appends a successful action.
func Log(action, target, details string) error {
	return appendEntry(Entry{Timestamp: time.Now(), Action: action, Target: target, Details: details, OK: true})
}

// Record appends an action with its outcome; a non-nil err marks it failed
// and is stored as the details.
func Record(action, target string, err error) error {
	e := Entry{Timestamp: time.Now(), Action: action, Target: target, OK: err == nil}
	if err != nil {
		e.Details = err.Error()
	}
	return appendEntry(e)
}

func appendEntry(entry Entry) error {
	path := logPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%s\n", data)
	return err
}

// Read returns the newest count entries, newest first. Zero means all.
func Read(count int) ([]Entry, error) {
	data, err := os.ReadFile(logPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}

	// Newest lines are at the end; reverse so ties keep newest first.
	slices.Reverse(entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// Search finds entries whose action, target or details contain query,
// case-insensitively.
func Search(query string, count int) ([]Entry, error) {
	all, err := Read(0)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var results []Entry
	for _, e := range all {
		haystack := strings.ToLower(e.Action + "\x00" + e.Target + "\x00" + e.Details)
		if strings.Contains(haystack, q) {
			results = append(results, e)
			if count > 0 && len(results) >= count {
				break
			}
		}
	}
	return results, nil
}

// Clear removes all log entries.
func Clear() error {
	err := os.Remove(logPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
