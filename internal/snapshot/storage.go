package snapshot

import "context"

// Storage persists a single checkpoint document.
//
// Save overwrites any previous document. Load returns an error wrapping
// [ErrNotFound] when nothing has been saved yet; other errors are treated
// as read failures.
type Storage interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)

	// Describe returns a short human-readable location, used in messages.
	Describe() string
}
