package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpalmerr/healthboard/internal/store"
)

// Manager performs checkpoint and restore for a store.
type Manager struct {
	store   store.Store
	storage Storage
}

// NewManager returns a [Manager] persisting st to storage.
func NewManager(st store.Store, storage Storage) *Manager {
	return &Manager{store: st, storage: storage}
}

// Storage returns the configured storage backend.
func (m *Manager) Storage() Storage {
	return m.storage
}

// Checkpoint writes the whole board to storage, overwriting any previous
// checkpoint. Writers are blocked for the duration of the write.
//
// Every failure wraps [ErrWrite].
func (m *Manager) Checkpoint(ctx context.Context) error {
	return m.store.Checkpoint(func(board store.Board) error {
		data, err := Encode(board)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		if err := m.storage.Save(ctx, data); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		return nil
	})
}

// Restore replaces the whole board with the stored checkpoint.
//
// On failure the board is left untouched and the error wraps
// [ErrNotFound], [ErrCorrupt] or [ErrRead].
func (m *Manager) Restore(ctx context.Context) error {
	return m.store.Restore(func() (store.Board, error) {
		data, err := m.storage.Load(ctx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrRead, err)
		}
		return Decode(data)
	})
}
