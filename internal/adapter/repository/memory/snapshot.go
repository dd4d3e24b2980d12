package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// Snapshot is the on-disk form of a Store.
type Snapshot struct {
	Version  int              `json:"version"`
	SavedAt  time.Time        `json:"saved_at"`
	Entities []*domain.Entity `json:"entities"`
	Banks    []*domain.Bank   `json:"banks"`
	Entries  []*domain.Entry  `json:"entries"`
}

const snapshotVersion = 1

// Snapshot copies the current state.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	snap := &Snapshot{
		Version:  snapshotVersion,
		SavedAt:  time.Now().UTC(),
		Entities: make([]*domain.Entity, 0, len(s.entities)),
		Banks:    make([]*domain.Bank, 0, len(s.banks)),
		Entries:  make([]*domain.Entry, 0, len(s.entries)),
	}
	for _, e := range s.entities {
		snap.Entities = append(snap.Entities, cloneEntity(e))
	}
	for _, b := range s.banks {
		snap.Banks = append(snap.Banks, cloneBank(b))
	}
	for _, e := range s.entries {
		snap.Entries = append(snap.Entries, cloneEntry(e))
	}

	return snap, nil
}

// SaveSnapshot writes the store to path. The file is written to a temporary
// sibling first and renamed into place.
func (s *Store) SaveSnapshot(ctx context.Context, path string) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}

	return os.Rename(tmp, path)
}

// LoadStore builds a store from the snapshot at path. A missing file yields
// an empty store.
func LoadStore(path string) (*Store, error) {
	s := NewStore()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	for _, e := range snap.Entities {
		s.entityByID[e.ID] = len(s.entities)
		s.entities = append(s.entities, e)
	}
	for _, b := range snap.Banks {
		s.bankByID[b.ID] = len(s.banks)
		s.banks = append(s.banks, b)
	}
	for _, e := range snap.Entries {
		s.entryByID[e.ID] = len(s.entries)
		s.entries = append(s.entries, e)
	}

	return s, nil
}
