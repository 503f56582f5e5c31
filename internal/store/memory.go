package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jpalmerr/healthboard/internal/validate"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// A single RWMutex guards the whole board: reads share it, every mutation
// (including checkpoint and restore) holds it exclusively. Events are
// published while the lock is held, so subscribers see them in the order
// the board changed; publish never blocks.
type MemoryStore struct {
	mu    sync.RWMutex
	board Board
	vocab Vocabulary
	now   func() time.Time

	subscribers map[chan Event]struct{}
	subMu       sync.RWMutex
}

// MemoryOption configures a [MemoryStore].
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used to stamp last_updated.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates an empty board that validates statuses against vocab.
func NewMemoryStore(vocab Vocabulary, opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		board:       make(Board),
		vocab:       vocab,
		now:         time.Now,
		subscribers: make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStore) stamp() Timestamp {
	return NewTimestamp(m.now())
}

// CreateCategory implements [Store].
func (m *MemoryStore) CreateCategory(name string) (CreateCategoryResult, error) {
	if err := validate.Name(name); err != nil {
		return CreateCategoryResult{}, err
	}

	m.mu.Lock()
	if existing, ok := m.board[name]; ok {
		result := CreateCategoryResult{Name: name, Category: existing.Clone(), Existed: true}
		m.mu.Unlock()
		return result, nil
	}
	m.board[name] = make(Category)
	m.publish(Event{Type: EventCategoryCreated, Category: name})
	m.mu.Unlock()
	return CreateCategoryResult{Name: name, Category: make(Category)}, nil
}

// DeleteCategory implements [Store].
func (m *MemoryStore) DeleteCategory(name string) error {
	m.mu.Lock()
	if _, ok := m.board[name]; !ok {
		m.mu.Unlock()
		return categoryNotFound(name)
	}
	delete(m.board, name)
	m.publish(Event{Type: EventCategoryDeleted, Category: name})
	m.mu.Unlock()
	return nil
}

// CreateItem implements [Store].
func (m *MemoryStore) CreateItem(category, item string) (CreateItemResult, error) {
	m.mu.Lock()
	cat, ok := m.board[category]
	if !ok {
		m.mu.Unlock()
		return CreateItemResult{}, categoryNotFound(category)
	}
	if err := validate.Name(item); err != nil {
		m.mu.Unlock()
		return CreateItemResult{}, err
	}
	if existing, ok := cat[item]; ok {
		m.mu.Unlock()
		return CreateItemResult{Name: item, Record: existing, Existed: true}, nil
	}

	rec := ItemRecord{Status: DefaultStatus, LastUpdated: m.stamp()}
	cat[item] = rec
	m.publish(Event{Type: EventItemCreated, Category: category, Item: item, Record: &rec})
	m.mu.Unlock()
	return CreateItemResult{Name: item, Record: rec}, nil
}

// DeleteItem implements [Store].
func (m *MemoryStore) DeleteItem(category, item string) error {
	m.mu.Lock()
	cat, ok := m.board[category]
	if !ok {
		m.mu.Unlock()
		return categoryNotFound(category)
	}
	if _, ok := cat[item]; !ok {
		m.mu.Unlock()
		return itemNotFound(category, item)
	}
	delete(cat, item)
	m.publish(Event{Type: EventItemDeleted, Category: category, Item: item})
	m.mu.Unlock()
	return nil
}

// UpdateItem implements [Store].
//
// Validation runs before any field is written: an unknown status or an
// unavailable vocabulary rejects the whole update. An unsafe URL is not an
// error; the URL field keeps its previous value and the rest of the update
// applies.
func (m *MemoryStore) UpdateItem(category, item string, u ItemUpdate) (ItemRecord, error) {
	m.mu.Lock()
	cat, ok := m.board[category]
	if !ok {
		m.mu.Unlock()
		return ItemRecord{}, categoryNotFound(category)
	}
	rec, ok := cat[item]
	if !ok {
		m.mu.Unlock()
		return ItemRecord{}, itemNotFound(category, item)
	}

	var status string
	if u.Status != nil {
		var err error
		if status, err = m.checkStatus(*u.Status); err != nil {
			m.mu.Unlock()
			return ItemRecord{}, err
		}
	}

	if u.Status != nil {
		rec.Status = status
	}
	if u.Message != nil {
		rec.Message = *u.Message
	}
	if u.URL != nil {
		if *u.URL == "" || validate.SafeURL(*u.URL) {
			rec.URL = *u.URL
		}
	}
	rec.LastUpdated = m.stamp()
	cat[item] = rec
	m.publish(Event{Type: EventItemUpdated, Category: category, Item: item, Record: &rec})
	m.mu.Unlock()
	return rec, nil
}

// checkStatus lowercases status and verifies it against the vocabulary.
func (m *MemoryStore) checkStatus(status string) (string, error) {
	if m.vocab == nil {
		return "", fmt.Errorf("%w: no status vocabulary configured", ErrServerConfig)
	}
	set, err := m.vocab.Current()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServerConfig, err)
	}

	status = strings.ToLower(status)
	if !set.Contains(status) {
		return "", fmt.Errorf("%w %q. Must be one of: %s",
			ErrInvalidStatus, status, strings.Join(set.Names(), ", "))
	}
	return status, nil
}

// GetAll implements [Store].
func (m *MemoryStore) GetAll() Board {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.board.Clone()
}

// Checkpoint implements [Store].
func (m *MemoryStore) Checkpoint(fn func(Board) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.board.Clone())
}

// Restore implements [Store].
func (m *MemoryStore) Restore(load func() (Board, error)) error {
	m.mu.Lock()
	board, err := load()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if board == nil {
		board = make(Board)
	}
	for name, cat := range board {
		if cat == nil {
			board[name] = make(Category)
		}
	}
	m.board = board
	m.publish(Event{Type: EventBoardRestored})
	m.mu.Unlock()
	return nil
}

// Subscribe implements [Store].
//
// The returned channel has a buffer of 100 events. If the buffer fills
// (slow consumer), new events are dropped for this subscriber.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe implements [Store].
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// publish sends the event to all active subscribers without blocking.
func (m *MemoryStore) publish(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the event
		}
	}
}

func categoryNotFound(name string) error {
	return fmt.Errorf("%w: Category '%s' not found", ErrNotFound, name)
}

func itemNotFound(category, item string) error {
	return fmt.Errorf("%w: Item '%s' not found in category '%s'", ErrNotFound, item, category)
}
