// File path: internal/capture/store.go
package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/activitylens/lens/internal/common"
	"github.com/activitylens/lens/internal/common/telemetry"
)

// Store is the durable, shared collection of capture records. Merge and
// Persist run under one process-wide mutex because workers complete
// concurrently and each completion triggers a checkpoint write.
type Store struct {
	path string

	mu      sync.Mutex
	records []Record
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path required")
	}
	return &Store{path: path}, nil
}

// Load reads the backing file into memory and returns a snapshot. An absent
// file yields an empty collection; a malformed file is renamed aside as a
// backup and likewise yields an empty collection. Any other read failure is
// returned to the caller and should abort startup.
func (s *Store) Load() ([]Record, error) {
	logger := common.Logger()
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("store: no existing records, starting fresh", "path", s.path)
			s.records = nil
			return nil, nil
		}
		return nil, fmt.Errorf("read record store: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		backup := s.path + ".backup"
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			logger.Warn("store: could not back up corrupted record file", "error", renameErr)
		} else {
			logger.Warn("store: corrupted record file backed up, starting fresh", "backup", backup, "error", err)
		}
		s.records = nil
		return nil, nil
	}
	logger.Info("store: loaded existing records", "count", len(records), "path", s.path)
	s.records = records
	return s.snapshotLocked(), nil
}

// Records returns a copy of the in-memory collection.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Merge replaces in place the record whose match key equals the updated
// record's. An update with no matching record is silently dropped; the
// return value lets callers observe that.
func (s *Store) Merge(updated Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergeLocked(updated)
}

func (s *Store) mergeLocked(updated Record) bool {
	key := updated.MatchKey()
	if key == "" {
		return false
	}
	for i := range s.records {
		if s.records[i].MatchKey() == key {
			s.records[i] = updated
			return true
		}
	}
	return false
}

// Persist writes the full collection atomically: the JSON is written to a
// temporary file in the same directory and renamed over the target, so a
// reader never observes a partially written file.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	records := s.records
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".records-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	telemetry.RecordCheckpoint()
	return nil
}

// Checkpoint merges the updated record and persists the collection under a
// single lock acquisition. Every completed unit of work, successful or not,
// is checkpointed so a crash loses at most the in-flight units.
func (s *Store) Checkpoint(updated Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(updated)
	return s.persistLocked()
}
