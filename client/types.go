package client

import (
	"errors"
	"fmt"
)

// ErrNoUpdateFields is returned by [Client.UpdateItem] when the update sets
// no field. No request is sent.
var ErrNoUpdateFields = errors.New("no update fields provided")

// Record is the state of one item.
type Record struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	URL     string `json:"url"`

	// LastUpdated is the server's timestamp string, empty when the item has
	// never been written.
	LastUpdated string `json:"last_updated"`
}

// Category maps item names to records.
type Category map[string]Record

// Board maps category names to categories.
type Board map[string]Category

// StatusInfo describes one status of the server's vocabulary.
type StatusInfo struct {
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Vocabulary maps status names to their metadata.
type Vocabulary map[string]StatusInfo

// Update holds the item fields to change. Nil fields are left untouched;
// a pointer to "" clears message or url.
type Update struct {
	Status  *string `json:"status,omitempty"`
	Message *string `json:"message,omitempty"`
	URL     *string `json:"url,omitempty"`
}

// Empty reports whether the update sets no field.
func (u Update) Empty() bool {
	return u.Status == nil && u.Message == nil && u.URL == nil
}

// String returns a pointer to s, for building an [Update].
func String(s string) *string {
	return &s
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int

	// Message is the server's "error" field, or the raw body when the
	// response was not a JSON error document.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}
