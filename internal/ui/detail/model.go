package detail

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/maildesk/internal/export"
	"github.com/nhle/maildesk/internal/keys"
	"github.com/nhle/maildesk/internal/mailstore"
	"github.com/nhle/maildesk/internal/model"
	"github.com/nhle/maildesk/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ThreadLoadedMsg carries the loaded conversation history.
type ThreadLoadedMsg struct {
	ThreadID string
	Messages []model.Email
}

// ReplyRequestMsg signals the parent to open the composer prefilled from
// the current thread.
type ReplyRequestMsg struct {
	Mode     ReplyMode
	ThreadID string
}

// ExportedMsg reports the outcome of a thread export.
type ExportedMsg struct {
	Path string
	Err  error
}

// ReplyMode selects how the composer is prefilled.
type ReplyMode int

const (
	Reply ReplyMode = iota
	ReplyAll
	Forward
)

// Model is the reading pane component.
type Model struct {
	threadID string
	messages []model.Email
	viewport viewport.Model
	store    *mailstore.Store
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new reading pane model.
func New(s *mailstore.Store, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		store:    s,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the reading pane.
func (m Model) Init() tea.Cmd {
	return nil
}

// ThreadID returns the id of the thread currently shown.
func (m Model) ThreadID() string { return m.threadID }

// Load returns a command that fetches the full cross-folder conversation
// and marks it read for the given user. Opening a thread is what clears
// its unread state.
func (m Model) Load(threadID, userID string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		store.MarkThreadRead(threadID, userID)
		return ThreadLoadedMsg{
			ThreadID: threadID,
			Messages: store.ThreadDetails(threadID),
		}
	}
}

// Update handles messages for the reading pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ThreadLoadedMsg:
		m.threadID = msg.ThreadID
		m.messages = msg.Messages
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Reply):
			return m.requestReply(Reply)

		case key.Matches(msg, m.keys.ReplyAll):
			return m.requestReply(ReplyAll)

		case key.Matches(msg, m.keys.Forward):
			return m.requestReply(Forward)

		case key.Matches(msg, m.keys.Export):
			return m, m.exportThread()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) requestReply(mode ReplyMode) (Model, tea.Cmd) {
	if m.threadID == "" {
		return m, nil
	}
	id := m.threadID
	return m, func() tea.Msg {
		return ReplyRequestMsg{Mode: mode, ThreadID: id}
	}
}

// exportThread writes the conversation to ./thread-<id>.mbox.
func (m Model) exportThread() tea.Cmd {
	if m.threadID == "" {
		return nil
	}
	msgs := m.messages
	path := fmt.Sprintf("thread-%s.mbox", m.threadID)
	return func() tea.Msg {
		return ExportedMsg{Path: path, Err: export.WriteThreadFile(path, msgs)}
	}
}

// View renders the reading pane.
func (m Model) View() string {
	if m.threadID == "" {
		return theme.HelpStyle.Render("  Select a thread to read it.")
	}
	return m.viewport.View()
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if len(m.messages) > 0 {
		m.viewport.SetContent(m.renderContent())
	}
}

// renderContent formats the conversation for the viewport.
func (m Model) renderContent() string {
	var sb strings.Builder

	for i, msg := range m.messages {
		if i > 0 {
			sb.WriteString("\n")
		}

		header := fmt.Sprintf("%s  %s",
			theme.UnreadStyle.Render(msg.From.Name),
			theme.HelpStyle.Render(msg.Timestamp.Format("Mon, 02 Jan 2006 15:04")),
		)
		sb.WriteString(header)
		sb.WriteString("\n")

		sb.WriteString(theme.FolderStyle(msg.Folder).Render(string(msg.Folder)))
		sb.WriteString(" ")
		sb.WriteString(msg.Subject)
		sb.WriteString("\n")

		to := make([]string, len(msg.To))
		for j, u := range msg.To {
			to[j] = u.Name
		}
		sb.WriteString(theme.HelpStyle.Render("to " + strings.Join(to, ", ")))
		sb.WriteString("\n\n")

		sb.WriteString(stripHTML(msg.Body))
		sb.WriteString("\n")
	}

	return theme.DetailPanelStyle.Width(m.width - 4).Render(sb.String())
}

var (
	paragraphRe = regexp.MustCompile(`(?i)</p>|<br\s*/?>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
)

// stripHTML converts the trusted HTML-ish body into plain terminal text.
// Paragraph and line breaks become newlines, all other tags are dropped.
func stripHTML(body string) string {
	out := paragraphRe.ReplaceAllString(body, "\n")
	out = tagRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
