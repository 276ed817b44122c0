package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/allroundedgrowth/glucobalance/internal/services"
)

// SnapshotStore is the secondary, best-effort persistence path: a flat JSON
// file of result snapshots, written only when the primary store fails. It is
// deliberately simple; losing it loses nothing the primary store holds.
type SnapshotStore struct {
	mu   sync.Mutex
	path string
}

var _ services.ResultFallbackStore = (*SnapshotStore)(nil)

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// SaveResultSnapshot appends a snapshot to the file, creating it on first use.
func (s *SnapshotStore) SaveResultSnapshot(snap *services.ResultSnapshot) error {
	if s == nil || s.path == "" {
		return errors.New("snapshot store not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, err := s.readLocked()
	if err != nil {
		return err
	}
	snaps = append(snaps, snap)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshots: %w", err)
	}
	return nil
}

// List returns every snapshot written so far.
func (s *SnapshotStore) List() ([]*services.ResultSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *SnapshotStore) readLocked() ([]*services.ResultSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshots: %w", err)
	}
	var snaps []*services.ResultSnapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return snaps, nil
}
