package healthboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/healthboard/dashboard"
	"github.com/jpalmerr/healthboard/internal/probe"
	"github.com/jpalmerr/healthboard/internal/server"
	"github.com/jpalmerr/healthboard/internal/snapshot"
	"github.com/jpalmerr/healthboard/internal/store"
	"github.com/jpalmerr/healthboard/internal/vocabulary"
)

const (
	defaultPollingInterval = 30 * time.Second
	defaultPort            = 5000
	defaultMaxConcurrency  = 5

	// finalCheckpointTimeout bounds the checkpoint written on shutdown.
	finalCheckpointTimeout = 10 * time.Second
)

// Board is a hierarchical health status board served over HTTP.
//
// A Board holds categories of items, each with a status, message, URL and
// last-updated time. Clients change it through the HTTP API; configured
// probes update it by checking endpoints. The whole board can be
// checkpointed to and restored from a file, Redis or SQLite.
//
// Create a Board with [New] and run it with [Board.Start].
type Board struct {
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

// New creates a [Board] from the given options.
//
// Returns an error if any option is invalid or two probes report on the
// same item.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		port:            defaultPort,
		pollingInterval: defaultPollingInterval,
		maxConcurrency:  defaultMaxConcurrency,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(cfg.probes))
	for _, p := range cfg.probes {
		key := p.category + "/" + p.item
		if seen[key] {
			return nil, fmt.Errorf("duplicate probe for item %q", key)
		}
		seen[key] = true
	}

	if cfg.snapshot == nil {
		cfg.snapshot = func() (snapshot.Storage, error) {
			return snapshot.NewFileStorage(snapshot.DefaultFilePath), nil
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		title:              cfg.title,
		port:               cfg.port,
		logger:             logger,
		vocabularyFile:     cfg.vocabularyFile,
		watchVocabulary:    cfg.watchVocabulary,
		snapshot:           cfg.snapshot,
		restoreOnStart:     cfg.restoreOnStart,
		checkpointInterval: cfg.checkpointInterval,
		seed:               cfg.seed,
		probes:             cfg.probes,
		pollingInterval:    cfg.pollingInterval,
		maxConcurrency:     cfg.maxConcurrency,
		probeCallbacks:     cfg.probeCallbacks,
	}, nil
}

// Start runs the board until ctx is cancelled.
//
// Start opens the snapshot storage, optionally restores the last
// checkpoint, seeds categories and probe items, then serves HTTP while
// running probes, the vocabulary watcher and automatic checkpoints in the
// background. On cancellation it stops them, writes a final checkpoint when
// automatic checkpoints are enabled, and returns nil.
//
// Returns an error if the storage cannot be opened or the port cannot be
// bound.
func (b *Board) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	vocab := vocabulary.Default()
	if b.vocabularyFile != "" {
		vocab = vocabulary.Load(b.vocabularyFile)
		if _, err := vocab.Current(); err != nil {
			b.logger.Warn("status vocabulary unavailable, status updates will fail until it is fixed",
				"path", b.vocabularyFile, "error", err)
		}
	}

	storage, err := b.snapshot()
	if err != nil {
		return fmt.Errorf("failed to open snapshot storage: %w", err)
	}
	if closer, ok := storage.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				b.logger.Warn("failed to close snapshot storage", "error", err)
			}
		}()
	}

	boardStore := store.NewMemoryStore(vocab)
	snapshots := snapshot.NewManager(boardStore, storage)

	if b.restoreOnStart {
		b.restore(ctx, snapshots)
	}
	if err := b.prepare(boardStore); err != nil {
		return err
	}

	b.logger.Info("healthboard starting",
		"probe_count", len(b.probes),
		"snapshot", storage.Describe(),
	)

	httpServer := server.NewServer(server.Config{
		Store:      boardStore,
		Snapshots:  snapshots,
		Vocabulary: vocab,
		Port:       b.port,
		Assets:     dashboard.Assets,
		Title:      b.title,
		Logger:     b.logger,
	})
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	var wg sync.WaitGroup

	if b.watchVocabulary && b.vocabularyFile != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := vocab.Watch(ctx, b.logger, func(err error) {
				if err != nil {
					b.logger.Warn("status vocabulary reload failed", "error", err)
					return
				}
				b.logger.Info("status vocabulary reloaded", "path", b.vocabularyFile)
			})
			if err != nil {
				b.logger.Error("status vocabulary watcher stopped", "error", err)
			}
		}()
	}

	var scheduler *probe.Scheduler
	if len(b.probes) > 0 {
		scheduler = probe.NewScheduler(b.targets(), b.pollingInterval, b.maxConcurrency, b.logger)
		scheduler.Start(ctx)
		b.logger.Info("probes configured", "interval", b.pollingInterval.String())

		wg.Add(1)
		go func() {
			defer wg.Done()
			for result := range scheduler.Results() {
				b.record(boardStore, result)
			}
		}()
	}

	if b.checkpointInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.autosave(ctx, snapshots)
		}()
	}

	<-ctx.Done()

	if scheduler != nil {
		scheduler.Stop() // closes results channel
	}
	wg.Wait()

	if b.checkpointInterval > 0 {
		saveCtx, cancel := context.WithTimeout(context.Background(), finalCheckpointTimeout)
		if err := snapshots.Checkpoint(saveCtx); err != nil {
			b.logger.Error("final checkpoint failed", "error", err)
		} else {
			b.logger.Info("final checkpoint written", "snapshot", storage.Describe())
		}
		cancel()
	}

	b.logger.Info("healthboard stopped")
	return nil
}

// restore loads the last checkpoint. Failures are logged; the board then
// starts empty.
func (b *Board) restore(ctx context.Context, snapshots *snapshot.Manager) {
	err := snapshots.Restore(ctx)
	switch {
	case err == nil:
		b.logger.Info("board restored from checkpoint", "snapshot", snapshots.Storage().Describe())
	case errors.Is(err, snapshot.ErrNotFound):
		b.logger.Info("no checkpoint to restore", "snapshot", snapshots.Storage().Describe())
	default:
		b.logger.Error("failed to restore checkpoint, starting with an empty board", "error", err)
	}
}

// prepare creates seeded entries and the items probes report on.
func (b *Board) prepare(st store.Store) error {
	for _, s := range b.seed {
		if err := ensureItems(st, s.category, s.items...); err != nil {
			return fmt.Errorf("failed to seed board: %w", err)
		}
	}
	for _, p := range b.probes {
		if err := ensureItems(st, p.category, p.item); err != nil {
			return fmt.Errorf("failed to create probe item: %w", err)
		}
	}
	return nil
}

// ensureItems creates category and items unless they already exist.
func ensureItems(st store.Store, category string, items ...string) error {
	if _, err := st.CreateCategory(category); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := st.CreateItem(category, item); err != nil {
			return err
		}
	}
	return nil
}

// autosave checkpoints the board every checkpointInterval until ctx ends.
func (b *Board) autosave(ctx context.Context, snapshots *snapshot.Manager) {
	ticker := time.NewTicker(b.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := snapshots.Checkpoint(ctx); err != nil {
				b.logger.Error("automatic checkpoint failed", "error", err)
				continue
			}
			b.logger.Debug("automatic checkpoint written")
		}
	}
}

// targets converts probes into scheduler targets.
func (b *Board) targets() []probe.Target {
	result := make([]probe.Target, len(b.probes))
	for i, p := range b.probes {
		extractor := p.extractor
		if extractor == nil {
			extractor = DefaultExtractor
		}
		result[i] = probe.Target{
			Category: p.category,
			Item:     p.item,
			URL:      p.url,
			Method:   p.method,
			Headers:  copyMap(p.headers),
			Timeout:  p.timeout,
			Interval: p.interval,
			Extractor: func(body []byte, statusCode int) string {
				return extractor(body, statusCode).String()
			},
		}
	}
	return result
}

// statusMapFor returns the status map of the probe bound to category/item.
func (b *Board) statusMapFor(category, item string) StatusMap {
	for _, p := range b.probes {
		if p.category == category && p.item == item {
			return p.statuses
		}
	}
	return DefaultStatusMap()
}

// record writes a probe result to the board and runs callbacks.
//
// A probe item deleted through the API is recreated, since the probe still
// reports on it.
func (b *Board) record(st store.Store, result probe.Result) {
	verdict := Verdict(result.Verdict)
	status := b.statusMapFor(result.Category, result.Item).For(verdict)
	message := result.Summary()
	update := store.ItemUpdate{Status: &status, Message: &message, URL: &result.URL}

	_, err := st.UpdateItem(result.Category, result.Item, update)
	if errors.Is(err, store.ErrNotFound) {
		if err = ensureItems(st, result.Category, result.Item); err == nil {
			_, err = st.UpdateItem(result.Category, result.Item, update)
		}
	}

	logAttrs := []any{
		"category", result.Category,
		"item", result.Item,
		"verdict", result.Verdict,
		"status", status,
		"latency_ms", result.Latency.Milliseconds(),
	}
	switch {
	case err != nil:
		b.logger.Warn("failed to record probe result", append(logAttrs, "error", err.Error())...)
	case result.Error != nil:
		b.logger.Warn("probe completed with error", append(logAttrs, "error", result.Error.Error())...)
	default:
		b.logger.Debug("probe completed", logAttrs...)
	}

	if len(b.probeCallbacks) == 0 {
		return
	}
	public := ProbeResult{
		Category:    result.Category,
		Item:        result.Item,
		URL:         result.URL,
		Verdict:     verdict,
		Status:      status,
		Latency:     result.Latency,
		CheckedAt:   result.CheckedAt,
		Error:       result.Error,
		StatusCode:  result.StatusCode,
		RawResponse: copyBytes(result.RawResponse),
	}
	for _, cb := range b.probeCallbacks {
		invokeCallbackSafe(cb, public, b.logger)
	}
}

// Probes returns a copy of the configured probes.
func (b *Board) Probes() []Probe {
	cp := make([]Probe, len(b.probes))
	copy(cp, b.probes)
	return cp
}

// Port returns the configured HTTP port.
func (b *Board) Port() int {
	return b.port
}

// PollingInterval returns the default probe interval.
func (b *Board) PollingInterval() time.Duration {
	return b.pollingInterval
}

func copyBytes(bs []byte) []byte {
	if bs == nil {
		return nil
	}
	return append([]byte(nil), bs...)
}

// invokeCallbackSafe runs cb, logging instead of propagating a panic.
func invokeCallbackSafe(cb func(ProbeResult), result ProbeResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("probe callback panicked",
				"panic", r,
				"category", result.Category,
				"item", result.Item,
			)
		}
	}()
	cb(result)
}
