package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/healthboard/internal/store"
	"github.com/jpalmerr/healthboard/internal/vocabulary"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Health Board"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Snapshots checkpoints and restores the board.
//
// *snapshot.Manager satisfies this interface.
type Snapshots interface {
	Checkpoint(ctx context.Context) error
	Restore(ctx context.Context) error
}

// Vocabulary is the status vocabulary as seen by the server.
//
// *vocabulary.Vocabulary satisfies this interface.
type Vocabulary interface {
	Current() (vocabulary.Set, error)
	Reload() error
}

// Config holds the collaborators and settings of a [Server].
type Config struct {
	Store      store.Store
	Snapshots  Snapshots
	Vocabulary Vocabulary

	// Port is the TCP port to listen on. Zero picks a free port.
	Port int

	// Assets holds the dashboard under assets/index.html. May be nil.
	Assets fs.FS

	// Title is substituted into the dashboard page.
	Title string

	Logger *slog.Logger
}

// Server handles HTTP requests for the health board dashboard and API.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	snapshots  Snapshots
	vocab      Vocabulary
	port       int
	httpServer *http.Server
	addr       net.Addr
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// The server is not started until [Server.Start] is called.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     cfg.Store,
		snapshots: cfg.Snapshots,
		vocab:     cfg.Vocabulary,
		port:      cfg.Port,
		assets:    cfg.Assets,
		title:     cfg.Title,
		logger:    logger,
	}
}

// Handler returns the server's routes wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{category}", s.handleDeleteCategory)
	mux.HandleFunc("POST /api/categories/{category}/items", s.handleCreateItem)
	mux.HandleFunc("PUT /api/categories/{category}/items/{item}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /api/categories/{category}/items/{item}", s.handleDeleteItem)
	mux.HandleFunc("POST /api/checkpoint", s.handleCheckpoint)
	mux.HandleFunc("POST /api/restore", s.handleRestore)
	mux.HandleFunc("GET /api/status-config", s.handleStatusConfig)
	mux.HandleFunc("POST /api/status-config/reload", s.handleReloadStatusConfig)
	mux.HandleFunc("GET /api/sse", s.handleSSE)

	// serve index.html at root
	mux.HandleFunc("GET /", s.handleDashboard)

	return requestIDMiddleware(loggingMiddleware(s.logger)(s.recoveryMiddleware(mux)))
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the address the server is listening on, or nil before
// [Server.Start] succeeds.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}
