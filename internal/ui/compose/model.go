package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/maildesk/internal/ai"
	"github.com/nhle/maildesk/internal/mailstore"
	"github.com/nhle/maildesk/internal/model"
	"github.com/nhle/maildesk/internal/theme"
	"github.com/nhle/maildesk/internal/ui"
)

// SentMsg is dispatched after the message has been handed to the store.
type SentMsg struct{}

// CancelMsg is dispatched when the user abandons the composer.
type CancelMsg struct{}

// draftResultMsg carries the outcome of a generation call back from its
// goroutine. If the user left the composer in the meantime the result is
// simply discarded; the call itself is never cancelled in flight.
type draftResultMsg struct {
	draft ai.Draft
	err   error
}

// field identifies the focusable inputs, cycled with tab.
type field int

const (
	fieldTo field = iota
	fieldSubject
	fieldBody
	fieldCount
)

// Model is the compose view component.
type Model struct {
	store   *mailstore.Store
	drafter *ai.Drafter
	from    model.User

	toInput      textinput.Model
	subjectInput textinput.Model
	bodyInput    textarea.Model
	focus        field

	threadID string // non-empty for replies and forwards

	// AI state
	models     []ai.ModelOption
	modelIndex int
	webFormat  bool
	generating bool

	// preDraft preserves the state before the last generation so the
	// user can revert after a bad result.
	preDraftSubject string
	preDraftBody    string
	hasPreDraft     bool

	width  int
	height int
}

// New creates a composer for the given sender.
func New(s *mailstore.Store, d *ai.Drafter, from model.User, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "recipients (name or address, comma-separated)"
	ti.Prompt = "To: "

	si := textinput.New()
	si.Placeholder = "subject"
	si.Prompt = "Subject: "

	ta := textarea.New()
	ta.Placeholder = "Write your message, or a few keywords for the assistant..."

	m := Model{
		store:        s,
		drafter:      d,
		from:         from,
		toInput:      ti,
		subjectInput: si,
		bodyInput:    ta,
		models:       ai.AvailableModels(),
		width:        width,
		height:       height,
	}
	m.applySize()
	return m
}

// Configure applies the configured default drafting model and format.
// An unknown model id leaves the selection on the first available model.
func (m *Model) Configure(modelID string, webFormat bool) {
	m.webFormat = webFormat
	for i, opt := range m.models {
		if opt.ID == modelID {
			m.modelIndex = i
			break
		}
	}
}

// Start resets the composer for a fresh message.
func (m *Model) Start(from model.User) tea.Cmd {
	return m.StartPrefilled(from, nil, "", "")
}

// StartPrefilled resets the composer with reply/forward context. A
// non-empty threadID makes the sent message join that thread.
func (m *Model) StartPrefilled(from model.User, to []model.User, subject, threadID string) tea.Cmd {
	m.from = from
	m.threadID = threadID
	m.toInput.SetValue(formatRecipients(to))
	m.subjectInput.SetValue(subject)
	m.bodyInput.SetValue("")
	m.generating = false
	m.hasPreDraft = false
	m.focus = fieldTo
	if len(to) > 0 && subject != "" {
		m.focus = fieldBody
	}
	return m.focusCurrent()
}

// Update handles messages for the composer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case draftResultMsg:
		m.generating = false
		if msg.err != nil {
			return m, reportDraftError(msg.err)
		}
		m.subjectInput.SetValue(msg.draft.Subject)
		m.bodyInput.SetValue(msg.draft.Body)
		return m, status("Draft generated. ctrl+z reverts to your previous text.", false)

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return CancelMsg{} }

		case "tab":
			m.focus = (m.focus + 1) % fieldCount
			return m, m.focusCurrent()

		case "shift+tab":
			m.focus = (m.focus - 1 + fieldCount) % fieldCount
			return m, m.focusCurrent()

		case "ctrl+d":
			return m, m.send()

		case "ctrl+g":
			return m.generate()

		case "ctrl+z":
			if m.hasPreDraft {
				m.subjectInput.SetValue(m.preDraftSubject)
				m.bodyInput.SetValue(m.preDraftBody)
				m.hasPreDraft = false
				return m, status("Draft reverted.", false)
			}
			return m, nil

		case "ctrl+w":
			m.webFormat = !m.webFormat
			return m, nil

		case "ctrl+l":
			m.modelIndex = (m.modelIndex + 1) % len(m.models)
			return m, status("Model: "+m.models[m.modelIndex].Name, false)
		}
	}

	return m.updateFocused(msg)
}

// updateFocused forwards a message to the focused input.
func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case fieldTo:
		m.toInput, cmd = m.toInput.Update(msg)
	case fieldSubject:
		m.subjectInput, cmd = m.subjectInput.Update(msg)
	default:
		m.bodyInput, cmd = m.bodyInput.Update(msg)
	}
	return m, cmd
}

// focusCurrent moves input focus to the active field.
func (m *Model) focusCurrent() tea.Cmd {
	m.toInput.Blur()
	m.subjectInput.Blur()
	m.bodyInput.Blur()

	switch m.focus {
	case fieldTo:
		return m.toInput.Focus()
	case fieldSubject:
		return m.subjectInput.Focus()
	default:
		return m.bodyInput.Focus()
	}
}

// send validates the recipient line and hands the message to the store.
// Recipient validation is deliberately the composer's job: the store
// accepts whatever it is given.
func (m Model) send() tea.Cmd {
	recipients, unresolved := resolveRecipients(m.store.Users(), m.toInput.Value())
	if len(unresolved) > 0 {
		return status("Unknown recipients: "+strings.Join(unresolved, ", "), true)
	}
	if len(recipients) == 0 {
		return status("Add at least one recipient.", true)
	}

	store, from, threadID := m.store, m.from, m.threadID
	subject, body := m.subjectInput.Value(), m.bodyInput.Value()
	return func() tea.Msg {
		store.SendEmail(from, recipients, subject, body, threadID)
		return SentMsg{}
	}
}

// generate starts a draft-generation call using the body text as the
// prompt, preserving the current draft for revert.
func (m Model) generate() (Model, tea.Cmd) {
	if m.generating {
		return m, nil
	}

	prompt := strings.TrimSpace(m.bodyInput.Value())
	if prompt == "" {
		return m, status("Write a few keywords in the body to guide the assistant.", true)
	}
	if !m.drafter.Configured() {
		return m, reportDraftError(ai.ErrNotConfigured)
	}

	m.preDraftSubject = m.subjectInput.Value()
	m.preDraftBody = m.bodyInput.Value()
	m.hasPreDraft = true
	m.generating = true

	drafter, webFormat, modelID := m.drafter, m.webFormat, m.models[m.modelIndex].ID
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		draft, err := drafter.GenerateDraft(ctx, prompt, webFormat, modelID)
		return draftResultMsg{draft: draft, err: err}
	}
}

// reportDraftError maps the collaborator's failure modes onto status
// messages. Both are terminal for the action; the pre-generation draft
// stays available for revert.
func reportDraftError(err error) tea.Cmd {
	if errors.Is(err, ai.ErrNotConfigured) {
		return status("GROQ_API_KEY is not configured; add it to your environment or keyring.", true)
	}
	var genErr *ai.GenerationError
	if errors.As(err, &genErr) {
		return status("Generation failed: "+genErr.Reason+". Your draft is unchanged (ctrl+z).", true)
	}
	return status("Generation failed: "+err.Error(), true)
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return ui.StatusMsg{Text: text, IsError: isErr}
	}
}

// View renders the composer.
func (m Model) View() string {
	var sb strings.Builder

	title := "New Message"
	if m.threadID != "" {
		title = "Reply"
	}
	sb.WriteString(theme.HeaderStyle.Render(title))
	sb.WriteString("\n\n")

	sb.WriteString(m.toInput.View())
	sb.WriteString("\n")
	sb.WriteString(m.subjectInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.bodyInput.View())
	sb.WriteString("\n\n")

	format := "plain text"
	if m.webFormat {
		format = "web (HTML)"
	}
	aiLine := fmt.Sprintf("model: %s | format: %s", m.models[m.modelIndex].Name, format)
	if m.generating {
		aiLine = "generating draft..."
	}
	sb.WriteString(theme.HelpStyle.Render(aiLine))
	sb.WriteString("\n")
	sb.WriteString(theme.HelpStyle.Render(
		"ctrl+d send | ctrl+g generate | ctrl+z revert | ctrl+w format | ctrl+l model | esc cancel",
	))

	return lipgloss.NewStyle().Padding(1, 2).Render(sb.String())
}

// SetSize updates the composer dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.applySize()
}

func (m *Model) applySize() {
	w := m.width - 8
	if w < 20 {
		w = 20
	}
	m.toInput.Width = w
	m.subjectInput.Width = w
	m.bodyInput.SetWidth(w)
	h := m.height - 12
	if h < 3 {
		h = 3
	}
	m.bodyInput.SetHeight(h)
}

// formatRecipients renders a recipient list back into the To line.
func formatRecipients(users []model.User) string {
	parts := make([]string, len(users))
	for i, u := range users {
		parts[i] = u.Email
	}
	return strings.Join(parts, ", ")
}

// resolveRecipients matches the comma-separated To line against the
// roster by exact address or case-insensitive name. Unmatched tokens are
// returned for the validation message.
func resolveRecipients(roster []model.User, line string) (resolved []model.User, unresolved []string) {
	seen := make(map[string]bool)
	for _, raw := range strings.Split(line, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}

		var match *model.User
		for i := range roster {
			if strings.EqualFold(roster[i].Email, token) || strings.EqualFold(roster[i].Name, token) {
				match = &roster[i]
				break
			}
		}

		if match == nil {
			unresolved = append(unresolved, token)
			continue
		}
		if !seen[match.ID] {
			seen[match.ID] = true
			resolved = append(resolved, *match)
		}
	}
	return resolved, unresolved
}
