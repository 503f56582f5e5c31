package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockState tracks the status and next change time of one mock service.
type mockState struct {
	statusIdx    int
	nextChangeAt time.Time
}

// runMockHealthServer serves /health?svc=...&env=... until ctx is cancelled.
// Each service moves through up, degraded and down, changing every 20-60
// seconds.
func runMockHealthServer(ctx context.Context, addr string, logger *slog.Logger) {
	var (
		states   = make(map[string]*mockState)
		mu       sync.Mutex
		statuses = []string{"up", "degraded", "down"}
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		svc := r.URL.Query().Get("svc")
		env := r.URL.Query().Get("env")
		key := svc + "-" + env

		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		mu.Lock()
		state, exists := states[key]
		if !exists {
			state = &mockState{
				nextChangeAt: time.Now().Add(nextChange()),
			}
			states[key] = state
		}
		if time.Now().After(state.nextChangeAt) {
			oldStatus := statuses[state.statusIdx]
			state.statusIdx = (state.statusIdx + 1) % len(statuses)
			state.nextChangeAt = time.Now().Add(nextChange())
			logger.Info("mock status change", "service", key, "from", oldStatus, "to", statuses[state.statusIdx])
		}
		status := statuses[state.statusIdx]
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{
			"svc":    svc,
			"env":    env,
			"status": status,
		}); err != nil {
			logger.Error("failed to write response", "error", err)
		}
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("mock server error", "error", err)
	}
}

func nextChange() time.Duration {
	return time.Duration(20+rand.Intn(41)) * time.Second
}
