package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/scribeworks/scribe/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TranscriptListView ViewState = iota
	TranscriptDetailView
)

// TranscriptSource fetches transcripts for display. *services.AudioService
// satisfies it; tests substitute a fake.
type TranscriptSource interface {
	List(ctx context.Context) ([]services.Transcript, error)
	Get(ctx context.Context, id string) (*services.Transcript, error)
}

// transcriptItem wraps [services.Transcript] to implement list.Item.
type transcriptItem struct {
	transcript services.Transcript
}

func (i transcriptItem) FilterValue() string { return i.transcript.Title }
func (i transcriptItem) Title() string       { return i.transcript.Title }
func (i transcriptItem) Description() string {
	desc := i.transcript.Status
	if i.transcript.DurationSecs > 0 {
		desc = fmt.Sprintf("%s • %d:%02d", desc, i.transcript.DurationSecs/60, i.transcript.DurationSecs%60)
	}
	if i.transcript.Language != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.transcript.Language)
	}
	return desc
}

type transcriptsFetchedMsg struct {
	transcripts []services.Transcript
	err         error
}

type transcriptFetchedMsg struct {
	transcript *services.Transcript
	err        error
}

// Model represents the TUI application state.
type Model struct {
	ctx            context.Context
	view           ViewState
	source         TranscriptSource
	width          int
	height         int
	transcriptList list.Model
	selected       *services.Transcript
	err            error
	help           help.Model
	keys           keyMap
}

// NewModel creates a new TUI model with the provided transcript source.
func NewModel(ctx context.Context, source TranscriptSource) *Model {
	return &Model{
		ctx:    ctx,
		view:   TranscriptListView,
		source: source,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by fetching transcripts from the backend.
func (m *Model) Init() tea.Cmd {
	return m.fetchTranscripts()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.transcriptList.Width() == 0 {
			m.transcriptList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TranscriptListView:
			return m.handleListKeys(msg)
		case TranscriptDetailView:
			return m.handleDetailKeys(msg)
		}

	case transcriptsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.transcripts))
		for i, t := range msg.transcripts {
			items[i] = transcriptItem{transcript: t}
		}
		m.transcriptList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.transcriptList.Title = "Transcripts"
		m.transcriptList.SetSize(m.width-4, m.height-8)
		return m, nil

	case transcriptFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = TranscriptListView
			return m, nil
		}
		m.selected = msg.transcript
		m.view = TranscriptDetailView
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == TranscriptListView {
		m.transcriptList, cmd = m.transcriptList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TranscriptListView:
		return m.renderList()
	case TranscriptDetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.fetchTranscripts()
	case "enter":
		selected := m.transcriptList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(transcriptItem); ok {
				return m, m.fetchTranscript(item.transcript.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.transcriptList, cmd = m.transcriptList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = TranscriptListView
		m.selected = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) fetchTranscripts() tea.Cmd {
	return func() tea.Msg {
		transcripts, err := m.source.List(m.ctx)
		return transcriptsFetchedMsg{transcripts: transcripts, err: err}
	}
}

func (m *Model) fetchTranscript(id string) tea.Cmd {
	return func() tea.Msg {
		transcript, err := m.source.Get(m.ctx, id)
		return transcriptFetchedMsg{transcript: transcript, err: err}
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.reload, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.transcriptList.View(), helpView)
}

func (m *Model) renderDetail() string {
	title := styles.title.Render(m.selected.Title)
	status := styles.help.Render(fmt.Sprintf("status: %s", m.selected.Status))

	var body strings.Builder
	if len(m.selected.Segments) > 0 {
		for _, segment := range m.selected.Segments {
			stamp := fmt.Sprintf("[%02d:%02d]", int(segment.Start)/60, int(segment.Start)%60)
			if segment.Speaker != "" {
				stamp = fmt.Sprintf("%s %s:", stamp, segment.Speaker)
			}
			body.WriteString(fmt.Sprintf("%s %s\n", styles.warn.Render(stamp), segment.Text))
		}
	} else {
		body.WriteString(m.selected.Text)
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", title, status, body.String(), helpView)
}
