package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette is the stylesheet for the transcript browser, built around a teal
// accent with amber timestamps.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

var styles = NewPalette("#1D9A8E", "#2FBF71", "#D64545", "#E8A83E", "#6B7280")

func NewPalette(accent, ok, err, warn, muted string) *Palette {
	return &Palette{
		title: fg(accent).Bold(true).MarginBottom(1),
		ok:    fg(ok).Bold(true),
		err:   fg(err).Bold(true),
		warn:  fg(warn),
		help:  fg(muted).Italic(true),
	}
}

func fg(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}
