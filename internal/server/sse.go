package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// eventBoard names the SSE event carrying the full board.
const eventBoard = "board"

// handleSSE streams board changes via Server-Sent Events.
//
// The first event is the whole board ("board"); each later event is a
// store change named after its type, e.g. "item_updated".
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// ResponseController reaches through middleware wrappers to the
	// connection for deadline-aware writes and flushes.
	rc := http.NewResponseController(w)

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// check if flushing is supported; this also commits the headers
	if err := rc.Flush(); err != nil {
		w.Header().Del("Content-Type")
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	// writeEvent writes one SSE event with a deadline to prevent blocking forever.
	writeEvent := func(name string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("failed to encode sse event", "event", name, "error", err)
			return nil
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
			return err
		}

		// ResponseController.Flush respects the write deadline
		return rc.Flush()
	}

	// subscribe before reading the board so no change is missed
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	if err := writeEvent(eventBoard, s.store.GetAll()); err != nil {
		return
	}

	// stream updates
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(string(ev.Type), ev); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
