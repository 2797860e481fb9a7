package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/xolan/evertrack/internal/entry"
	"github.com/xolan/evertrack/internal/osutil"
	"github.com/xolan/evertrack/internal/period"
)

const (
	// SnapshotsFile is the name of the JSON Lines cache file
	SnapshotsFile = "snapshots.jsonl"
	// DateLayout is the layout of Snapshot.From and Snapshot.To
	DateLayout = "2006-01-02"

	maxLineSize = 16 * 1024 * 1024
)

// Snapshot is one successful fetch of time entries for a query range.
type Snapshot struct {
	ID        uuid.UUID         `json:"id"`
	FetchedAt time.Time         `json:"fetched_at"`
	Mode      period.Mode       `json:"mode"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Entries   []entry.TimeEntry `json:"entries"`
}

// NewSnapshot stamps entries fetched for [from, to] with a fresh ID.
func NewSnapshot(mode period.Mode, from, to time.Time, entries []entry.TimeEntry, fetchedAt time.Time) Snapshot {
	if entries == nil {
		entries = []entry.TimeEntry{}
	}
	return Snapshot{
		ID:        uuid.New(),
		FetchedAt: fetchedAt,
		Mode:      mode,
		From:      from.Format(DateLayout),
		To:        to.Format(DateLayout),
		Entries:   entries,
	}
}

// Matches reports whether s was fetched for mode over the from..to dates.
func (s Snapshot) Matches(mode period.Mode, from, to string) bool {
	return s.Mode == mode && s.From == from && s.To == to
}

// ParseWarning represents a warning about a corrupted or malformed line
type ParseWarning struct {
	LineNumber int    // Line number in the file (1-indexed)
	Content    string // Raw content of the corrupted line
	Error      string // Description of the parsing error
}

// ReadResult contains the successfully parsed snapshots and a warning for
// every line that could not be parsed.
type ReadResult struct {
	Snapshots []Snapshot
	Warnings  []ParseWarning
}

// GetStoragePath returns the path to the snapshot cache file, next to the
// config file. Creates the directory if it doesn't exist.
func GetStoragePath() (string, error) {
	return osutil.AppFile(SnapshotsFile)
}

// AppendSnapshot appends s to the JSON Lines file, creating it if needed.
func AppendSnapshot(path string, s Snapshot) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	line, err := json.Marshal(s)
	if err != nil {
		return err
	}

	_, err = file.Write(append(line, '\n'))
	return err
}

// ReadSnapshotsWithWarnings reads every snapshot in file order.
// A missing file is an empty result.
func ReadSnapshotsWithWarnings(path string) (ReadResult, error) {
	result := ReadResult{
		Snapshots: []Snapshot{},
		Warnings:  []ParseWarning{},
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, err
	}
	defer func() { _ = file.Close() }()

	scanner := newScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		lineContent := scanner.Text()
		if lineContent == "" {
			continue
		}

		var s Snapshot
		if err := json.Unmarshal([]byte(lineContent), &s); err != nil {
			result.Warnings = append(result.Warnings, ParseWarning{
				LineNumber: lineNumber,
				Content:    lineContent,
				Error:      err.Error(),
			})
			continue
		}
		result.Snapshots = append(result.Snapshots, s)
	}

	if err := scanner.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// LatestFor returns the most recently fetched snapshot for mode and the
// from..to dates. The boolean is false when there is none.
func LatestFor(path string, mode period.Mode, from, to string) (Snapshot, bool, error) {
	result, err := ReadSnapshotsWithWarnings(path)
	if err != nil {
		return Snapshot{}, false, err
	}

	var latest Snapshot
	found := false
	for _, s := range result.Snapshots {
		if !s.Matches(mode, from, to) {
			continue
		}
		if !found || !s.FetchedAt.Before(latest.FetchedAt) {
			latest = s
			found = true
		}
	}
	return latest, found, nil
}

// Prune keeps the newest keep snapshots and drops the rest along with any
// corrupted lines. The file is rewritten through a temporary file and a
// rename. Returns the number of lines removed.
func Prune(path string, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative, got %d", keep)
	}

	result, err := ReadSnapshotsWithWarnings(path)
	if err != nil {
		return 0, err
	}

	removed := len(result.Warnings)
	kept := result.Snapshots
	if len(kept) > keep {
		removed += len(kept) - keep
		kept = kept[len(kept)-keep:]
	}
	if removed == 0 {
		return 0, nil
	}

	if err := writeSnapshots(path, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Clear removes the cache file. A missing file is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeSnapshots(path string, snapshots []Snapshot) error {
	// A unique temp name keeps concurrent rewrites from clobbering each other.
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpFile := file.Name()

	w := bufio.NewWriter(file)
	for _, s := range snapshots {
		line, err := json.Marshal(s)
		if err == nil {
			_, err = w.Write(append(line, '\n'))
		}
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmpFile)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpFile)
		return err
	}

	// Close temp file before rename
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpFile)
		return err
	}
	return os.Rename(tmpFile, path)
}

func newScanner(file *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// StorageHealth contains information about the health status of the cache
// file: line counts and a warning per corrupted line.
type StorageHealth struct {
	TotalLines       int
	ValidSnapshots   int
	CorruptedEntries int
	Warnings         []ParseWarning
}

// ValidateStorage analyzes the cache file. A missing file is healthy and
// empty.
func ValidateStorage(path string) (StorageHealth, error) {
	health := StorageHealth{Warnings: []ParseWarning{}}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return health, nil
		}
		return health, err
	}
	defer func() { _ = file.Close() }()

	scanner := newScanner(file)
	for scanner.Scan() {
		health.TotalLines++
	}
	if err := scanner.Err(); err != nil {
		return health, err
	}

	result, err := ReadSnapshotsWithWarnings(path)
	if err != nil {
		return health, err
	}

	health.ValidSnapshots = len(result.Snapshots)
	health.CorruptedEntries = len(result.Warnings)
	health.Warnings = result.Warnings
	return health, nil
}
