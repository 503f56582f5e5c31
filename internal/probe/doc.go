// Package probe actively checks HTTP endpoints and reports a verdict for
// each board item they are bound to.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and body limits
//   - [Scheduler]: worker pool that runs each [Target] at its own interval
//   - [Result]: the outcome of one check, ready to be written to the board
//
// Configuration lives in the root healthboard package; this package only
// runs the checks.
package probe
