// Package validate holds the input checks shared by the board store and
// the configuration loader.
//
// The main components are:
//
//   - [Name]: accepts or rejects category and item names
//   - [SafeURL]: gates item URLs to absolute http/https links
//
// Both functions are pure; they never touch board state.
package validate
