package storage

import (
	"sync"
	"time"

	"github.com/xolan/evertrack/internal/entry"
	"github.com/xolan/evertrack/internal/period"
)

// Store is the snapshot cache bound to one file. It keeps at most keep
// snapshots. A Store is safe for concurrent use; Save serializes the
// append and the prune that follows it.
type Store struct {
	mu   sync.Mutex
	path string
	keep int
}

// NewStore returns a Store for path. keep below 1 means 1.
func NewStore(path string, keep int) *Store {
	if keep < 1 {
		keep = 1
	}
	return &Store{path: path, keep: keep}
}

// Path returns the cache file path.
func (s *Store) Path() string {
	return s.path
}

// Save records entries fetched for mode over [from, to] and prunes old
// snapshots.
func (s *Store) Save(mode period.Mode, from, to time.Time, entries []entry.TimeEntry, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := AppendSnapshot(s.path, NewSnapshot(mode, from, to, entries, fetchedAt)); err != nil {
		return err
	}
	_, err := Prune(s.path, s.keep)
	return err
}

// Latest returns the newest snapshot for mode over the dates of [from, to].
func (s *Store) Latest(mode period.Mode, from, to time.Time) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LatestFor(s.path, mode, from.Format(DateLayout), to.Format(DateLayout))
}
