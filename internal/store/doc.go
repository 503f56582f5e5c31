// Package store provides the in-memory health board and its mutation rules.
//
// The board is a two-level hierarchy: categories contain items, and every
// item carries an [ItemRecord] with a status, message, URL and last-updated
// timestamp.
//
// The main components are:
//
//   - [Store]: Interface defining board operations and change subscriptions
//   - [MemoryStore]: Lock-protected implementation of Store with pub/sub
//   - [Board], [Category], [ItemRecord]: The board data model
//   - [Event]: A change notification published after every mutation
//
// Every mutation validates its input before touching state, so a failed
// call never leaves a partial change behind. Names are checked with
// validate.Name, statuses against the configured [Vocabulary], and URLs
// through validate.SafeURL.
//
// Subscribers receive events via buffered channels with non-blocking sends
// (slow subscribers miss events rather than block writers).
package store
