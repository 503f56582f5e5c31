// Package dashboard embeds the web UI served at "/".
//
// The page loads the board from /api/health and the status vocabulary from
// /api/status-config, then follows /api/sse to apply changes as they happen.
package dashboard

import "embed"

// Assets holds the dashboard:
//
//	assets/
//	  index.html    - page with inline CSS and JavaScript
//
// The server replaces {{.Title}} in index.html with the configured title.
//
//go:embed assets/*
var Assets embed.FS
