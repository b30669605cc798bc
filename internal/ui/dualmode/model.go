package dualmode

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/maildesk/internal/keys"
	"github.com/nhle/maildesk/internal/mailstore"
	"github.com/nhle/maildesk/internal/model"
	"github.com/nhle/maildesk/internal/theme"
)

// BackMsg signals the parent to leave dual mode.
type BackMsg struct{}

// ConversationLoadedMsg carries the two-party exchange to render.
type ConversationLoadedMsg struct {
	Messages []model.Email
}

// Model is the dual-mode simulation view: the chronological exchange
// between two users, with a send box for each side. It exercises the
// store's Conversation query, which de-duplicates the sent/inbox copy
// pairs by folder tag.
type Model struct {
	store *mailstore.Store
	keys  *keys.KeyMap

	userA model.User
	userB model.User
	// activeA selects which side the send box writes as.
	activeA bool

	messages []model.Email
	viewport viewport.Model
	input    textinput.Model

	width  int
	height int
}

// New creates a dual-mode view between the given two users.
func New(s *mailstore.Store, k *keys.KeyMap, a, b model.User, width, height int) Model {
	vp := viewport.New(width, height-5)

	ti := textinput.New()
	ti.Placeholder = "write as the highlighted side, enter sends"
	ti.Prompt = "> "

	return Model{
		store:    s,
		keys:     k,
		userA:    a,
		userB:    b,
		activeA:  true,
		viewport: vp,
		input:    ti,
		width:    width,
		height:   height,
	}
}

// Start resets the pair and reloads the conversation.
func (m *Model) Start(a, b model.User) tea.Cmd {
	m.userA = a
	m.userB = b
	m.activeA = true
	m.input.Reset()
	return tea.Batch(m.input.Focus(), m.Load())
}

// Load returns a command that fetches the conversation.
func (m Model) Load() tea.Cmd {
	store, aID, bID := m.store, m.userA.ID, m.userB.ID
	return func() tea.Msg {
		return ConversationLoadedMsg{Messages: store.Conversation(aID, bID)}
	}
}

// Update handles messages for the dual-mode view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ConversationLoadedMsg:
		m.messages = msg.Messages
		m.viewport.SetContent(m.renderConversation())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return BackMsg{} }

		case "tab":
			m.activeA = !m.activeA
			return m, nil

		case "enter":
			return m.send()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send dispatches the input line as a message from the active side to
// the other, threading onto the existing exchange when there is one.
func (m Model) send() (Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	from, to := m.userA, m.userB
	if !m.activeA {
		from, to = m.userB, m.userA
	}

	threadID := ""
	subject := fmt.Sprintf("Conversation %s / %s", m.userA.Name, m.userB.Name)
	if len(m.messages) > 0 {
		last := m.messages[len(m.messages)-1]
		threadID = last.ThreadID
		subject = last.Subject
	}

	m.input.Reset()
	store := m.store
	load := m.Load()
	return m, func() tea.Msg {
		store.SendEmail(from, []model.User{to}, subject, "<p>"+text+"</p>", threadID)
		return load()
	}
}

// View renders the dual-mode layout.
func (m Model) View() string {
	nameA := m.userA.Name
	nameB := m.userB.Name
	if m.activeA {
		nameA = theme.SelectedItemStyle.Render(nameA)
	} else {
		nameB = theme.SelectedItemStyle.Render(nameB)
	}

	header := fmt.Sprintf("%s  ⇄  %s", nameA, nameB)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		theme.HeaderStyle.Render("Dual Mode"),
		header,
		m.viewport.View(),
		m.input.View(),
		theme.HelpStyle.Render("enter send | tab swap side | esc back"),
	)
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 5
	m.input.Width = width - 4
	if len(m.messages) > 0 {
		m.viewport.SetContent(m.renderConversation())
	}
}

// renderConversation lays out the exchange with each side aligned to its
// own margin, chat-style.
func (m Model) renderConversation() string {
	if len(m.messages) == 0 {
		return theme.HelpStyle.Render("No exchange between these two users yet.")
	}

	half := m.width * 2 / 3
	if half < 20 {
		half = 20
	}

	var sb strings.Builder
	for _, msg := range m.messages {
		stamp := theme.HelpStyle.Render(msg.Timestamp.Format("15:04"))
		bubble := fmt.Sprintf("%s %s\n%s", msg.From.Name, stamp, stripHTML(msg.Body))

		style := lipgloss.NewStyle().Width(half).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

		if msg.From.ID == m.userB.ID {
			bubble = lipgloss.NewStyle().Width(m.width - 2).
				Align(lipgloss.Right).
				Render(style.Render(bubble))
		} else {
			bubble = style.Render(bubble)
		}

		sb.WriteString(bubble)
		sb.WriteString("\n")
	}

	return sb.String()
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

func stripHTML(body string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(body, ""))
}
