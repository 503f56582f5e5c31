// Package server provides the HTTP boundary for the health board.
//
// It exposes the board over a small JSON API, a Server-Sent Events stream
// and the embedded dashboard page:
//
//   - GET /: the dashboard HTML
//   - GET /api/health: the whole board
//   - POST, DELETE /api/categories[/{category}]: category lifecycle
//   - POST, PUT, DELETE /api/categories/{category}/items[/{item}]: items
//   - POST /api/checkpoint, POST /api/restore: persistence
//   - GET /api/status-config, POST /api/status-config/reload: vocabulary
//   - GET /api/sse: board changes as they happen
//
// Errors are reported as {"error": "..."} with a status code chosen from the
// error kind. The server supports graceful shutdown via context cancellation,
// with a 5-second timeout for in-flight requests.
//
// The server is started by [healthboard.Board.Start]; most callers never use
// this package directly.
package server
