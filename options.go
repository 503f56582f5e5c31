package healthboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jpalmerr/healthboard/internal/snapshot"
	"github.com/jpalmerr/healthboard/internal/validate"
)

// snapshotBackend opens the storage chosen by a With*Snapshot option.
type snapshotBackend func() (snapshot.Storage, error)

// seedEntry is a category, with items, created at startup.
type seedEntry struct {
	category string
	items    []string
}

// boardConfig holds configuration during board construction.
type boardConfig struct {
	title              string
	port               int
	logger             *slog.Logger
	vocabularyFile     string
	watchVocabulary    bool
	snapshot           snapshotBackend
	restoreOnStart     bool
	checkpointInterval time.Duration
	seed               []seedEntry
	probes             []Probe
	pollingInterval    time.Duration
	maxConcurrency     int
	probeCallbacks     []func(ProbeResult)
}

// Option configures a [Board].
type Option func(*boardConfig) error

// WithPort sets the HTTP port. Default 5000.
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title.
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithVocabularyFile loads the status vocabulary from a JSON or YAML file.
// Without it the built-in vocabulary is used.
//
// A missing or malformed file does not stop the board: status updates fail
// with a server configuration error until the file is fixed and reloaded.
func WithVocabularyFile(path string) Option {
	return func(cfg *boardConfig) error {
		if path == "" {
			return errors.New("vocabulary file path cannot be empty")
		}
		cfg.vocabularyFile = path
		return nil
	}
}

// WithWatchVocabulary reloads the vocabulary file whenever it changes.
// Ignored without [WithVocabularyFile].
func WithWatchVocabulary(watch bool) Option {
	return func(cfg *boardConfig) error {
		cfg.watchVocabulary = watch
		return nil
	}
}

// WithFileSnapshot stores checkpoints in a JSON file. This is the default,
// using health_data.json in the working directory.
func WithFileSnapshot(path string) Option {
	return func(cfg *boardConfig) error {
		cfg.snapshot = func() (snapshot.Storage, error) {
			return snapshot.NewFileStorage(path), nil
		}
		return nil
	}
}

// WithRedisSnapshot stores checkpoints under a single Redis key. An empty
// key uses "healthboard:snapshot".
func WithRedisSnapshot(opts *redis.Options, key string) Option {
	return func(cfg *boardConfig) error {
		if opts == nil || opts.Addr == "" {
			return errors.New("redis address is required")
		}
		cfg.snapshot = func() (snapshot.Storage, error) {
			return snapshot.NewRedisStorage(opts, key), nil
		}
		return nil
	}
}

// WithSQLiteSnapshot stores checkpoints in a SQLite database under name.
// An empty name uses "default".
func WithSQLiteSnapshot(path, name string) Option {
	return func(cfg *boardConfig) error {
		if path == "" {
			return errors.New("sqlite path cannot be empty")
		}
		cfg.snapshot = func() (snapshot.Storage, error) {
			return snapshot.OpenSQLiteStorage(path, name)
		}
		return nil
	}
}

// WithRestoreOnStart restores the last checkpoint when the board starts.
// A missing checkpoint is not an error.
func WithRestoreOnStart(restore bool) Option {
	return func(cfg *boardConfig) error {
		cfg.restoreOnStart = restore
		return nil
	}
}

// WithCheckpointInterval checkpoints the board periodically and once more
// on shutdown. Zero disables automatic checkpoints.
func WithCheckpointInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < 0 {
			return errors.New("checkpoint interval cannot be negative")
		}
		if d > 0 && d < time.Second {
			return errors.New("checkpoint interval must be at least 1 second")
		}
		cfg.checkpointInterval = d
		return nil
	}
}

// WithSeed creates category and items at startup, after any restore.
// Existing entries are left untouched.
func WithSeed(category string, items ...string) Option {
	return func(cfg *boardConfig) error {
		if err := validate.Name(category); err != nil {
			return fmt.Errorf("seed category: %w", err)
		}
		for _, item := range items {
			if err := validate.Name(item); err != nil {
				return fmt.Errorf("seed item in %q: %w", category, err)
			}
		}
		cfg.seed = append(cfg.seed, seedEntry{category: category, items: items})
		return nil
	}
}

// WithProbe adds a probe.
func WithProbe(p Probe) Option {
	return func(cfg *boardConfig) error {
		cfg.probes = append(cfg.probes, p)
		return nil
	}
}

// WithProbes adds several probes, e.g. the output of [NewProbeGrid].
func WithProbes(probes ...Probe) Option {
	return func(cfg *boardConfig) error {
		cfg.probes = append(cfg.probes, probes...)
		return nil
	}
}

// WithPollingInterval sets the default interval between probe checks.
// Default 30 seconds.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithMaxConcurrency bounds the number of checks in flight. Default 5.
func WithMaxConcurrency(n int) Option {
	return func(cfg *boardConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithProbeCallback registers cb to run after each probe result has been
// written to the board. Callbacks run sequentially on the result loop, so
// they should be quick; a panicking callback is logged and skipped.
// A nil callback is ignored.
func WithProbeCallback(cb func(ProbeResult)) Option {
	return func(cfg *boardConfig) error {
		if cb != nil {
			cfg.probeCallbacks = append(cfg.probeCallbacks, cb)
		}
		return nil
	}
}
