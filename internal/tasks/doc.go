// Package tasks implements long-running client-side operations over the
// backend services.
//
// The [ExportEngine] downloads and renders many transcripts concurrently
// with a worker pool, client-side rate limiting, and channel-based progress
// reporting for the CLI and TUI surfaces.
package tasks
