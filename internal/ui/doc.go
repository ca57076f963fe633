// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow over the user's transcripts:
//  1. [TranscriptListView] : Browse transcripts with status and duration
//  2. [TranscriptDetailView] : Read a transcript's full text and segments
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Transcript data is fetched off the UI goroutine via tea.Cmd closures.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
