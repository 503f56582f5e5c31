// Command example runs a demo board.
//
// It starts a mock service on :9999, probes it through a grid, seeds a
// category that an out-of-process reporter would own, and plays that
// reporter from a goroutine using the client package.
//
//	go run ./example
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/healthboard"
	"github.com/jpalmerr/healthboard/client"
)

const (
	mockAddr  = ":9999"
	boardPort = 8080
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start mock server (see mock_server.go)
	go runMockHealthServer(ctx, mockAddr, logger)
	time.Sleep(100 * time.Millisecond)

	// grid: 2 services × 2 envs = 4 items from one declaration
	probes, err := healthboard.NewProbeGrid("services", "api",
		healthboard.WithURLTemplate("http://localhost:9999/health?svc={{.svc}}&env={{.env}}"),
		healthboard.WithDimensions(map[string][]string{
			"svc": {"users", "orders"},
			"env": {"prod", "staging"},
		}),
		healthboard.WithGridExtractor(healthboard.JSONFieldExtractor("status")),
	)
	if err != nil {
		logger.Error("failed to create probe grid", "error", err)
		os.Exit(1)
	}

	// an external probe with its own interval (overrides the global 5s)
	github, err := healthboard.NewProbe("external", "github", "https://api.github.com",
		healthboard.WithInterval(30*time.Second),
	)
	if err != nil {
		logger.Error("failed to create probe", "error", err)
		os.Exit(1)
	}
	probes = append(probes, github)

	board, err := healthboard.New(
		healthboard.WithTitle("HealthBoard Demo"),
		healthboard.WithProbes(probes...),
		healthboard.WithPollingInterval(5*time.Second),
		healthboard.WithPort(boardPort),
		healthboard.WithSeed("jobs", "nightly-backup"),
		healthboard.WithFileSnapshot("demo_board.json"),
		healthboard.WithRestoreOnStart(true),
		healthboard.WithCheckpointInterval(time.Minute),
		healthboard.WithLogger(logger),
		healthboard.WithProbeCallback(func(r healthboard.ProbeResult) {
			if r.Verdict == healthboard.VerdictDown {
				logger.Warn("probe down", "category", r.Category, "item", r.Item, "status_code", r.StatusCode)
			}
		}),
	)
	if err != nil {
		logger.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	go reportBackups(ctx, logger)

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   HealthBoard Demo                                    ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Items:                                              ║")
	fmt.Println("  ║   • services: 4 probed (2 services × 2 envs)          ║")
	fmt.Println("  ║   • external: github (30s interval)                   ║")
	fmt.Println("  ║   • jobs: nightly-backup, pushed by a reporter        ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	if err := board.Start(ctx); err != nil {
		logger.Error("board error", "error", err)
		os.Exit(1)
	}
}

// reportBackups plays a batch job that pushes its own status to the board.
func reportBackups(ctx context.Context, logger *slog.Logger) {
	c, err := client.New(fmt.Sprintf("http://127.0.0.1:%d", boardPort), client.WithTimeout(5*time.Second))
	if err != nil {
		logger.Error("failed to create client", "error", err)
		return
	}
	backup := client.NewUpdater(c, "jobs", "nightly-backup")

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for run := 1; ; run++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := backup.Report(ctx, "running", fmt.Sprintf("run %d started", run)); err != nil {
			logger.Warn("report failed", "error", err)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}

		status, msg := "passing", fmt.Sprintf("run %d copied %d files", run, 100+rand.Intn(900))
		if rand.Intn(4) == 0 {
			status, msg = "failing", fmt.Sprintf("run %d: disk quota exceeded", run)
		}
		if _, err := backup.Report(ctx, status, msg); err != nil {
			logger.Warn("report failed", "error", err)
		}
	}
}
