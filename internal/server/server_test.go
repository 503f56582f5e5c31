package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/healthboard/internal/snapshot"
	"github.com/jpalmerr/healthboard/internal/store"
	"github.com/jpalmerr/healthboard/internal/vocabulary"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer returns a server over a fresh board with the built-in
// vocabulary and a file checkpoint in a temp dir.
func newTestServer(t testing.TB) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore(vocabulary.Default())
	storage := snapshot.NewFileStorage(filepath.Join(t.TempDir(), "health_data.json"))
	srv := NewServer(Config{
		Store:      st,
		Snapshots:  snapshot.NewManager(st, storage),
		Vocabulary: vocabulary.Default(),
		Logger:     testLogger(),
	})
	return srv, st
}

func mustCreateItem(t testing.TB, st *store.MemoryStore, category, item string) {
	t.Helper()
	if _, err := st.CreateCategory(category); err != nil {
		t.Fatalf("CreateCategory(%q): %v", category, err)
	}
	if _, err := st.CreateItem(category, item); err != nil {
		t.Fatalf("CreateItem(%q, %q): %v", category, item, err)
	}
}

type sseEvent struct {
	name string
	data string
}

// parseSSEEvents splits a recorded stream into its events.
func parseSSEEvents(body string) []sseEvent {
	var events []sseEvent
	var cur sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "" && cur.name != "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	return events
}

// --- SSE ---

func TestHandleSSE_InitialBoard(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "API-1")
	mustCreateItem(t, st, "services", "API-2")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	events := parseSSEEvents(rec.Body.String())
	if len(events) == 0 {
		t.Fatalf("expected an initial event, got: %s", rec.Body.String())
	}
	if events[0].name != "board" {
		t.Errorf("first event = %q, want board", events[0].name)
	}

	var board store.Board
	if err := json.Unmarshal([]byte(events[0].data), &board); err != nil {
		t.Fatalf("failed to parse board: %v, data: %s", err, events[0].data)
	}
	if _, ok := board["services"]["API-1"]; !ok {
		t.Errorf("board should contain services/API-1, got: %v", board)
	}
	if _, ok := board["services"]["API-2"]; !ok {
		t.Errorf("board should contain services/API-2, got: %v", board)
	}
}

func TestHandleSSE_StreamsUpdates(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "api")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)

	status := "passing"
	if _, err := st.UpdateItem("services", "api", store.ItemUpdate{Status: &status}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	// give time for update to be written
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	var found bool
	for _, ev := range parseSSEEvents(rec.Body.String()) {
		if ev.name != string(store.EventItemUpdated) {
			continue
		}
		var got store.Event
		if err := json.Unmarshal([]byte(ev.data), &got); err != nil {
			t.Fatalf("failed to parse event: %v", err)
		}
		if got.Category == "services" && got.Item == "api" && got.Record != nil && got.Record.Status == "passing" {
			found = true
		}
	}
	if !found {
		t.Errorf("response should contain item_updated event, got: %s", rec.Body.String())
	}
}

func TestHandleSSE_ClientDisconnect(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// simulate client disconnect
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after client disconnect")
	}
}

func TestHandleSSE_NoGoroutineLeaks(t *testing.T) {
	// allow existing goroutines to settle
	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	before := runtime.NumGoroutine()

	srv, _ := newTestServer(t)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
			srv.handleSSE(httptest.NewRecorder(), req)
		}()
	}

	wg.Wait()

	runtime.GC()
	time.Sleep(200 * time.Millisecond)

	after := runtime.NumGoroutine()
	if after > before+2 { // small tolerance for runtime variance
		t.Errorf("potential goroutine leak: before=%d, after=%d", before, after)
	}
}

func TestHandleSSE_ConcurrentClientsShutdown(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "api")

	serverCtx, serverCancel := context.WithCancel(context.Background())

	numClients := 10
	var wg sync.WaitGroup
	started := make(chan struct{})
	var startedCount atomic.Int32

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(serverCtx)

			// use Add's return value to ensure only one goroutine closes the channel
			if startedCount.Add(1) == int32(numClients) {
				close(started)
			}

			srv.handleSSE(httptest.NewRecorder(), req)
		}()
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("clients did not start in time")
	}

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("not all handlers exited after shutdown")
	}
}

type nonFlushWriter struct {
	header     http.Header
	statusCode int
	body       []byte
}

func (n *nonFlushWriter) Header() http.Header {
	return n.header
}

func (n *nonFlushWriter) Write(b []byte) (int, error) {
	n.body = append(n.body, b...)
	return len(b), nil
}

func (n *nonFlushWriter) WriteHeader(statusCode int) {
	n.statusCode = statusCode
}

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	w := &nonFlushWriter{header: make(http.Header)}

	srv.handleSSE(w, req)

	if w.statusCode != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.statusCode)
	}
}

func TestHandleSSE_Headers(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	expectedHeaders := map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Connection":                  "keep-alive",
		"Access-Control-Allow-Origin": "*",
	}

	for key, expected := range expectedHeaders {
		if got := rec.Header().Get(key); got != expected {
			t.Errorf("header %s = %q, want %q", key, got, expected)
		}
	}
}

// TestHandleSSE_ThroughMiddleware checks that flushing still works when the
// handler is reached through the logging middleware's writer wrapper.
func TestHandleSSE_ThroughMiddleware(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "api")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sse", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read first line: %v", err)
	}
	if line != "event: board\n" {
		t.Errorf("first line = %q, want board event", line)
	}
}

// TestHandleSSE_ServerShutdownIntegration tests that SSE handlers exit cleanly
// when the server is shut down, using a real HTTP connection.
func TestHandleSSE_ServerShutdownIntegration(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "api")

	serverCtx, serverCancel := context.WithCancel(context.Background())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// derive request context from server context (simulates BaseContext)
		srv.handleSSE(w, r.WithContext(serverCtx))
	})

	ts := httptest.NewServer(handler)
	defer ts.Close()

	connDone := make(chan error, 1)
	go func() {
		resp, err := ts.Client().Get(ts.URL)
		if err != nil {
			connDone <- err
			return
		}
		defer func() { _ = resp.Body.Close() }()

		// read until connection closes
		buf := make([]byte, 1024)
		for {
			if _, err := resp.Body.Read(buf); err != nil {
				connDone <- nil
				return
			}
		}
	}()

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	select {
	case <-connDone:
	case <-time.After(3 * time.Second):
		t.Fatal("SSE connection did not close after server shutdown")
	}
}

// --- Start ---

func TestStart_AvailablePort_ReturnsNil(t *testing.T) {
	// port 0 = OS assigns available port
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Errorf("Start() on available port returned error: %v", err)
	}
	if srv.Addr() == nil {
		t.Error("Addr() should be set after Start()")
	}
}

func TestStart_ServesAPI(t *testing.T) {
	srv, st := newTestServer(t)
	mustCreateItem(t, st, "services", "api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start(): %v", err)
	}

	port := srv.Addr().(*net.TCPAddr).Port
	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("response should carry X-Request-ID")
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port

	st := store.NewMemoryStore(vocabulary.Default())
	srv := NewServer(Config{Store: st, Port: port, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
}

func TestStart_InvalidPort_ReturnsError(t *testing.T) {
	st := store.NewMemoryStore(vocabulary.Default())
	srv := NewServer(Config{Store: st, Port: -1, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Fatal("Start() with invalid port should return error")
	}
}

// --- Benchmark ---

func BenchmarkHandleSSE_SingleClient(b *testing.B) {
	srv, st := newTestServer(b)
	for i := 0; i < 10; i++ {
		mustCreateItem(b, st, "services", "API-"+string(rune('A'+i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
		srv.handleSSE(httptest.NewRecorder(), req)
		cancel()
	}
}

// --- Dashboard ---

// mockFS implements fs.ReadFileFS for testing dashboard rendering.
type mockFS struct {
	content string
}

func (m *mockFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *mockFS) ReadFile(name string) ([]byte, error) {
	if name == "assets/index.html" {
		return []byte(m.content), nil
	}
	return nil, fs.ErrNotExist
}

func newDashboardServer(assets fs.FS, title string) *Server {
	return NewServer(Config{
		Store:  store.NewMemoryStore(vocabulary.Default()),
		Assets: assets,
		Title:  title,
		Logger: testLogger(),
	})
}

func TestHandleDashboard_CustomTitle(t *testing.T) {
	srv := newDashboardServer(&mockFS{content: "<title>{{.Title}}</title><h1>{{.Title}}</h1>"}, "Platform Health")

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "<title>Platform Health</title>") {
		t.Errorf("expected title tag with custom title, got: %s", body)
	}
	if !strings.Contains(body, "<h1>Platform Health</h1>") {
		t.Errorf("expected h1 with custom title, got: %s", body)
	}
}

func TestHandleDashboard_DefaultTitle(t *testing.T) {
	srv := newDashboardServer(&mockFS{content: "<title>{{.Title}}</title>"}, "")

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Body.String(), "<title>Health Board</title>") {
		t.Errorf("expected default title, got: %s", rec.Body.String())
	}
}

func TestHandleDashboard_AssetsMissing(t *testing.T) {
	srv := newDashboardServer(nil, "Custom Title")

	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestHandleDashboard_NonRootPath(t *testing.T) {
	srv := newDashboardServer(&mockFS{content: "<title>{{.Title}}</title>"}, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d for non-root path, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestHandleDashboard_TitleIsEscaped(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"<script>alert('xss')</script>", "&lt;script&gt;"},
		{"Health & Status", "Health &amp; Status"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			srv := newDashboardServer(&mockFS{content: "<title>{{.Title}}</title>"}, tt.title)

			rec := httptest.NewRecorder()
			srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			body := rec.Body.String()
			if strings.Contains(body, "<script>") {
				t.Error("title should be HTML-escaped to prevent XSS")
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("expected %q in body, got: %s", tt.want, body)
			}
		})
	}
}
