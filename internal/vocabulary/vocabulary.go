// Package vocabulary loads and caches the set of recognized item statuses.
//
// The vocabulary document maps a status name to display metadata:
//
//	{
//	  "passing": {"description": "All checks pass", "color": "green"},
//	  "failing": {"description": "One or more checks fail", "color": "red"}
//	}
//
// JSON and YAML documents are both accepted. The parsed document is cached;
// [Vocabulary.Reload] re-reads the file and [Vocabulary.Watch] reloads it
// whenever it changes on disk.
package vocabulary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when the vocabulary file does not exist.
	ErrNotFound = errors.New("status vocabulary not found")

	// ErrCorrupt is returned when the vocabulary file cannot be parsed or
	// defines no statuses.
	ErrCorrupt = errors.New("status vocabulary is invalid")
)

// Status describes how a status value is presented.
type Status struct {
	Description string `json:"description,omitempty" yaml:"description"`
	Color       string `json:"color,omitempty" yaml:"color"`
}

// Document is the vocabulary as served to clients: status name → metadata.
type Document map[string]Status

// Set is an immutable view of a loaded vocabulary.
type Set struct {
	doc Document
}

// Contains reports whether status is recognized. Matching is case-insensitive.
func (s Set) Contains(status string) bool {
	_, ok := s.doc[strings.ToLower(status)]
	return ok
}

// Names returns the recognized statuses in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.doc))
	for name := range s.doc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document returns a copy of the underlying document.
func (s Set) Document() Document {
	cp := make(Document, len(s.doc))
	for k, v := range s.doc {
		cp[k] = v
	}
	return cp
}

// Vocabulary is a cached, reloadable status vocabulary.
//
// Vocabulary is safe for concurrent use. A failed load replaces the cache
// with the failure: [Vocabulary.Current] keeps returning that error until a
// later reload succeeds.
type Vocabulary struct {
	path string

	mu  sync.RWMutex
	set Set
	err error
}

// Load reads the vocabulary at path and returns a Vocabulary caching it.
//
// Load never fails outright: a missing or malformed file yields a
// Vocabulary whose [Vocabulary.Current] reports the problem, so the server
// can start and recover once the file is fixed.
func Load(path string) *Vocabulary {
	v := &Vocabulary{path: path}
	_ = v.Reload()
	return v
}

// Default returns a file-less vocabulary with the built-in statuses.
func Default() *Vocabulary {
	return &Vocabulary{set: Set{doc: DefaultDocument()}}
}

// DefaultDocument returns the built-in status document.
func DefaultDocument() Document {
	return Document{
		"running":  {Description: "Process is running", Color: "green"},
		"up":       {Description: "Service is reachable", Color: "green"},
		"passing":  {Description: "All checks pass", Color: "green"},
		"degraded": {Description: "Partially functional or slow", Color: "orange"},
		"failing":  {Description: "One or more checks fail", Color: "red"},
		"down":     {Description: "Service is unreachable", Color: "red"},
		"unknown":  {Description: "Status has not been reported", Color: "gray"},
	}
}

// Path returns the backing file, or "" for a built-in vocabulary.
func (v *Vocabulary) Path() string {
	return v.path
}

// Current returns the cached vocabulary, or the error from the last load.
func (v *Vocabulary) Current() (Set, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.err != nil {
		return Set{}, v.err
	}
	return v.set, nil
}

// Reload re-reads the vocabulary file and replaces the cache.
//
// For a built-in vocabulary Reload is a no-op.
func (v *Vocabulary) Reload() error {
	if v.path == "" {
		return nil
	}

	set, err := readFile(v.path)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.set = set
	v.err = err
	return err
}

func readFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Set{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Set{}, fmt.Errorf("%w: failed to read %s: %v", ErrCorrupt, path, err)
	}
	return Parse(data)
}

// Parse decodes a vocabulary document from JSON or YAML.
//
// Status names are lowercased. An empty document is rejected since it would
// make every status update fail.
func Parse(data []byte) (Set, error) {
	var raw map[string]Status
	if err := decode(data, &raw); err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(raw) == 0 {
		return Set{}, fmt.Errorf("%w: no statuses defined", ErrCorrupt)
	}

	doc := make(Document, len(raw))
	for name, meta := range raw {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return Set{}, fmt.Errorf("%w: empty status name", ErrCorrupt)
		}
		doc[name] = meta
	}
	return Set{doc: doc}, nil
}

// decode uses encoding/json for documents that look like JSON, since
// tab-indented JSON is not valid YAML.
func decode(data []byte, out *map[string]Status) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(trimmed, out)
	}
	return yaml.Unmarshal(trimmed, out)
}
