// Package healthboard provides an embeddable status board: named
// categories of items, each carrying a status, a message, a URL and a
// last-updated time, served over a JSON HTTP API with a live dashboard.
//
// # Quick Start
//
//	hb, _ := healthboard.New(
//	    healthboard.WithSeed("services", "api", "worker"),
//	    healthboard.WithVocabularyFile("status_config.json"),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	hb.Start(ctx) // blocks until ctx is cancelled
//
// Clients then create, update and delete entries through /api/...; the
// dashboard at "/" follows changes via Server-Sent Events.
//
// # Statuses
//
// Item statuses must belong to the status vocabulary. Without
// [WithVocabularyFile] the built-in set is used: running, up, passing,
// degraded, failing, down and unknown. A vocabulary file is re-read on
// POST /api/status-config/reload and, with [WithWatchVocabulary], whenever
// it changes on disk.
//
// # Checkpoints
//
// The whole board can be saved and restored through the API. Storage is a
// JSON file by default ([WithFileSnapshot]); [WithRedisSnapshot] and
// [WithSQLiteSnapshot] select the other backends. [WithRestoreOnStart] and
// [WithCheckpointInterval] automate both directions.
//
// # Probes
//
// A [Probe] keeps an item current by checking an HTTP endpoint:
//
//	p, _ := healthboard.NewProbe("services", "api", "https://api.example.com/health",
//	    healthboard.WithExtractor(healthboard.JSONFieldExtractor("data.status")),
//	)
//	hb, _ := healthboard.New(healthboard.WithProbe(p))
//
// An [Extractor] turns each response into a [Verdict], and the probe's
// [StatusMap] turns the verdict into a board status. [NewProbeGrid] builds
// one probe per combination of URL template dimensions.
//
// # Architecture
//
//   - internal/store: board state with pub/sub for live updates
//   - internal/server: HTTP API, Server-Sent Events and dashboard
//   - internal/snapshot: checkpoint codec and file, Redis and SQLite storage
//   - internal/vocabulary: status vocabulary loading and reload
//   - internal/probe: concurrent endpoint checks with a worker pool
//   - client: Go client for the HTTP API, used by cmd/healthboard
//   - config: YAML configuration for the healthboard binary
package healthboard
