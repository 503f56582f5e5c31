package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jpalmerr/healthboard/internal/store"
)

var (
	// ErrWrite is returned when a checkpoint cannot be written.
	ErrWrite = errors.New("failed to write checkpoint")

	// ErrNotFound is returned when no checkpoint exists.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrCorrupt is returned when a checkpoint cannot be parsed.
	ErrCorrupt = errors.New("invalid checkpoint document")

	// ErrRead is returned for any other failure reading a checkpoint.
	ErrRead = errors.New("failed to read checkpoint")
)

// Encode serializes the board as an indented JSON document.
func Encode(board store.Board) ([]byte, error) {
	if board == nil {
		board = store.Board{}
	}
	data, err := json.MarshalIndent(board, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode board: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a checkpoint document.
//
// The document must be a JSON object of objects of item records; anything
// else, including trailing data, is reported as [ErrCorrupt].
func Decode(data []byte) (store.Board, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var board store.Board
	if err := dec.Decode(&board); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after document", ErrCorrupt)
	}
	if board == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrCorrupt)
	}

	for name, cat := range board {
		if cat == nil {
			return nil, fmt.Errorf("%w: category %q is not an object", ErrCorrupt, name)
		}
	}
	return board, nil
}
