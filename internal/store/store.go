package store

import (
	"errors"

	"github.com/jpalmerr/healthboard/internal/validate"
	"github.com/jpalmerr/healthboard/internal/vocabulary"
)

// DefaultStatus is the status given to newly created items.
const DefaultStatus = "unknown"

var (
	// ErrInvalidName is returned when a category or item name is rejected.
	ErrInvalidName = validate.ErrInvalidName

	// ErrInvalidStatus is returned when a status is not in the vocabulary.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrNotFound is returned when a category or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrServerConfig is returned when the status vocabulary is unavailable
	// at the time a status update is attempted.
	ErrServerConfig = errors.New("server configuration error")
)

// ItemRecord is the state of a single item.
type ItemRecord struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	URL         string    `json:"url"`
	LastUpdated Timestamp `json:"last_updated"`
}

// Category maps item names to their records.
type Category map[string]ItemRecord

// Board maps category names to categories.
type Board map[string]Category

// Clone returns a deep copy of the category.
func (c Category) Clone() Category {
	cp := make(Category, len(c))
	for name, rec := range c {
		cp[name] = rec
	}
	return cp
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	cp := make(Board, len(b))
	for name, cat := range b {
		cp[name] = cat.Clone()
	}
	return cp
}

// ItemUpdate carries the optional fields of an item update.
//
// A nil field is left unchanged. A non-nil pointer to "" is meaningful:
// it clears Message or URL. Status has no clear semantic.
type ItemUpdate struct {
	Status  *string
	Message *string
	URL     *string
}

// Empty reports whether the update carries no fields.
func (u ItemUpdate) Empty() bool {
	return u.Status == nil && u.Message == nil && u.URL == nil
}

// CreateCategoryResult is returned by [Store.CreateCategory].
type CreateCategoryResult struct {
	Name     string
	Category Category

	// Existed is true when the category was already present. The call is
	// still a success; Category then holds the current items.
	Existed bool
}

// CreateItemResult is returned by [Store.CreateItem].
type CreateItemResult struct {
	Name   string
	Record ItemRecord

	// Existed is true when the item was already present. Record then holds
	// its current, unchanged values.
	Existed bool
}

// Vocabulary supplies the recognized statuses at write time.
//
// *vocabulary.Vocabulary satisfies this interface.
type Vocabulary interface {
	Current() (vocabulary.Set, error)
}

// Store defines the board operations.
//
// Implementations must be safe for concurrent access and must apply each
// operation atomically with respect to the whole board.
type Store interface {
	// CreateCategory creates an empty category. Creating an existing
	// category succeeds with Existed set.
	CreateCategory(name string) (CreateCategoryResult, error)

	// DeleteCategory removes a category and all of its items.
	DeleteCategory(name string) error

	// CreateItem creates an item with default values. Creating an existing
	// item succeeds with Existed set and does not modify it.
	CreateItem(category, item string) (CreateItemResult, error)

	// DeleteItem removes a single item.
	DeleteItem(category, item string) error

	// UpdateItem applies the present fields of u and stamps last_updated.
	UpdateItem(category, item string, u ItemUpdate) (ItemRecord, error)

	// GetAll returns a deep copy of the whole board.
	GetAll() Board

	// Checkpoint calls fn with a copy of the board while holding the
	// board's exclusive lock, so no write can interleave with persistence.
	Checkpoint(fn func(Board) error) error

	// Restore calls load while holding the exclusive lock and, if it
	// succeeds, replaces the whole board with its result. On error the
	// board is left untouched.
	Restore(load func() (Board, error)) error

	// Subscribe returns a channel that receives change events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
