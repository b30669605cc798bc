package app

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	aiservice "github.com/nhle/maildesk/internal/ai"
	"github.com/nhle/maildesk/internal/credential"
	"github.com/nhle/maildesk/internal/keys"
	"github.com/nhle/maildesk/internal/mailstore"
	"github.com/nhle/maildesk/internal/model"
	"github.com/nhle/maildesk/internal/ui"
	"github.com/nhle/maildesk/internal/ui/admin"
	"github.com/nhle/maildesk/internal/ui/compose"
	"github.com/nhle/maildesk/internal/ui/detail"
	"github.com/nhle/maildesk/internal/ui/dualmode"
	"github.com/nhle/maildesk/internal/ui/maillist"
	"github.com/nhle/maildesk/internal/ui/switcher"
)

// storeChangedMsg is delivered whenever the mail store notifies its
// observers. The active view reloads its queries in response.
type storeChangedMsg struct{}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewMail ViewState = iota
	ViewDetail
	ViewCompose
	ViewAdmin
	ViewDual
	ViewSwitcher
)

// Model is the root Bubble Tea model that manages view routing, layout,
// the acting user, and access to the mail store.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        *mailstore.Store
	keys         *keys.KeyMap
	currentUser  model.User

	mailList     maillist.Model
	detail       detail.Model
	composeView  compose.Model
	adminView    admin.Model
	dualView     dualmode.Model
	switcherView switcher.Model

	changes chan struct{}

	ready         bool
	statusMessage string
	statusIsError bool
}

// New creates a new root application model on top of the given store.
func New(s *mailstore.Store, cfg *model.AppConfig, currentUser model.User) Model {
	k := keys.DefaultKeyMap()

	// Try to load the Groq API key for AI drafting.
	drafter := loadDrafter(cfg)

	// A buffered channel of depth one coalesces bursts of store
	// notifications into a single refresh.
	changes := make(chan struct{}, 1)
	s.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	composeView := compose.New(s, drafter, currentUser, 80, 24)
	if cfg != nil {
		composeView.Configure(cfg.AI.Model, cfg.AI.WebFormat)
	}

	return Model{
		currentView:  ViewMail,
		store:        s,
		keys:         k,
		currentUser:  currentUser,
		mailList:     maillist.New(s, k, currentUser.ID, 80, 24),
		detail:       detail.New(s, k, 80, 24),
		composeView:  composeView,
		adminView:    admin.New(s, 80, 24),
		dualView:     dualmode.New(s, k, currentUser, currentUser, 80, 24),
		switcherView: switcher.New(s, k, 80, 24),
		changes:      changes,
	}
}

// loadDrafter attempts to create the AI drafter by loading the API key
// from the environment variable or system keyring. The drafter is still
// returned when no key is available; it reports itself as unconfigured.
func loadDrafter(cfg *model.AppConfig) *aiservice.Drafter {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		stored, err := credential.Get(credential.GroqAPIKey)
		if err == nil {
			apiKey = stored
		}
	}

	maxTokens := 0
	if cfg != nil {
		maxTokens = cfg.AI.MaxTokens
	}
	return aiservice.New(apiKey, maxTokens)
}

// Init returns the initial commands to load the inbox and start
// listening for store changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.mailList.LoadThreads(),
		m.waitForChange(),
	)
}

// waitForChange blocks until the store reports a mutation, then re-arms
// itself from the Update handler.
func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		<-ch
		return storeChangedMsg{}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.mailList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.composeView.SetSize(contentWidth, contentHeight)
		m.adminView.SetSize(contentWidth, contentHeight)
		m.dualView.SetSize(contentWidth, contentHeight)
		m.switcherView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case storeChangedMsg:
		return m, tea.Batch(m.refreshActiveView(), m.waitForChange())

	case ui.StatusMsg:
		m.statusMessage = msg.Text
		m.statusIsError = msg.IsError
		return m, nil

	case maillist.SelectedThreadMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, m.detail.Load(msg.ThreadID, m.currentUser.ID)

	case detail.BackMsg:
		m.currentView = ViewMail
		return m, m.mailList.LoadThreads()

	case detail.ReplyRequestMsg:
		return m.startReply(msg)

	case detail.ExportedMsg:
		if msg.Err != nil {
			m.statusMessage = "Export failed: " + msg.Err.Error()
			m.statusIsError = true
		} else {
			m.statusMessage = "Thread exported to " + msg.Path
			m.statusIsError = false
		}
		return m, nil

	case compose.SentMsg:
		m.currentView = ViewMail
		m.statusMessage = "Message sent."
		m.statusIsError = false
		return m, m.mailList.LoadThreads()

	case compose.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case admin.BackMsg:
		m.currentView = ViewMail
		return m, m.mailList.LoadThreads()

	case dualmode.BackMsg:
		m.currentView = ViewMail
		return m, m.mailList.LoadThreads()

	case switcher.UserSelectedMsg:
		m.currentUser = msg.User
		m.currentView = ViewMail
		m.statusMessage = "Acting as " + msg.User.Name
		m.statusIsError = false
		return m, m.mailList.SetUser(msg.User.ID)

	case switcher.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		// Any keypress retires a stale status line.
		if m.statusMessage != "" {
			m.statusMessage = ""
			m.statusIsError = false
		}
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes the keys that switch between views. They
// apply only from the mail and detail views so that text inputs in the
// other views receive every rune.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.currentView != ViewMail && m.currentView != ViewDetail {
		return nil, false
	}
	if m.currentView == ViewMail && m.mailList.Searching() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Compose):
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m.composeView.Start(m.currentUser), true

	case key.Matches(msg, m.keys.SwitchUser):
		m.previousView = m.currentView
		m.currentView = ViewSwitcher
		return m.switcherView.LoadUsers(), true

	case key.Matches(msg, m.keys.DualMode):
		other, ok := m.firstOtherUser()
		if !ok {
			m.statusMessage = "Dual mode needs at least two users."
			m.statusIsError = true
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewDual
		return m.dualView.Start(m.currentUser, other), true

	case key.Matches(msg, m.keys.AdminAll):
		if !m.currentUser.IsAdmin() {
			m.statusMessage = "Admin access required."
			m.statusIsError = true
			return nil, true
		}
		m.currentView = ViewMail
		return m.mailList.SetFolder(model.FolderAdminAll), true

	case key.Matches(msg, m.keys.AdminUsers):
		if !m.currentUser.IsAdmin() {
			m.statusMessage = "Admin access required."
			m.statusIsError = true
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewAdmin
		return nil, true
	}

	return nil, false
}

// startReply opens the composer prefilled from the thread a reply was
// requested on. Forwarding starts a fresh thread with empty recipients.
func (m Model) startReply(msg detail.ReplyRequestMsg) (tea.Model, tea.Cmd) {
	msgs := m.store.ThreadDetails(msg.ThreadID)
	if len(msgs) == 0 {
		return m, nil
	}
	last := msgs[len(msgs)-1]

	subject := last.Subject
	threadID := msg.ThreadID
	var recipients []model.User

	switch msg.Mode {
	case detail.Reply:
		subject = withPrefix("Re:", subject)
		recipients = []model.User{last.From}
	case detail.ReplyAll:
		subject = withPrefix("Re:", subject)
		recipients = replyAllRecipients(last, m.currentUser.ID)
	case detail.Forward:
		subject = withPrefix("Fwd:", subject)
		threadID = ""
	}

	m.previousView = m.currentView
	m.currentView = ViewCompose
	return m, m.composeView.StartPrefilled(m.currentUser, recipients, subject, threadID)
}

// withPrefix prepends prefix to subject unless it already carries it.
func withPrefix(prefix, subject string) string {
	if strings.HasPrefix(subject, prefix) {
		return subject
	}
	return prefix + " " + subject
}

// replyAllRecipients returns the sender plus every To recipient of the
// message, excluding the acting user, deduplicated by id.
func replyAllRecipients(msg model.Email, currentUserID string) []model.User {
	seen := map[string]bool{currentUserID: true}
	var out []model.User
	for _, u := range append([]model.User{msg.From}, msg.To...) {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		out = append(out, u)
	}
	return out
}

// firstOtherUser picks the first roster entry that is not the acting
// user, as the default far side for dual mode.
func (m Model) firstOtherUser() (model.User, bool) {
	for _, u := range m.store.Users() {
		if u.ID != m.currentUser.ID {
			return u, true
		}
	}
	return model.User{}, false
}

// refreshActiveView reloads whichever view is showing store-derived
// data. The admin overview reads the store directly when rendering, so
// it needs no command.
func (m Model) refreshActiveView() tea.Cmd {
	switch m.currentView {
	case ViewMail:
		return m.mailList.LoadThreads()
	case ViewDetail:
		if id := m.detail.ThreadID(); id != "" {
			return m.detail.Load(id, m.currentUser.ID)
		}
		return nil
	case ViewDual:
		return m.dualView.Load()
	default:
		return nil
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewMail:
		m.mailList, cmd = m.mailList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewAdmin:
		m.adminView, cmd = m.adminView.Update(msg)
	case ViewDual:
		m.dualView, cmd = m.dualView.Update(msg)
	case ViewSwitcher:
		m.switcherView, cmd = m.switcherView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.store.Settings().AppName, m.headerRight())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.errorLine())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewMail:
		return m.mailList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewAdmin:
		return m.adminView.View()
	case ViewDual:
		return m.dualView.View()
	case ViewSwitcher:
		return m.switcherView.View()
	default:
		return ""
	}
}

// headerRight describes the acting user for the header bar.
func (m Model) headerRight() string {
	right := m.currentUser.Name
	if m.currentUser.IsAdmin() {
		right += " [admin]"
	}
	return right
}

// errorLine returns the message shown in the error bar, if any.
func (m Model) errorLine() string {
	if m.statusIsError {
		return m.statusMessage
	}
	return ""
}

// keyHints returns keyboard shortcut hints for the status bar. A
// non-error status message takes the bar over until the next keypress.
func (m Model) keyHints() string {
	if m.statusMessage != "" && !m.statusIsError {
		return m.statusMessage
	}

	switch m.currentView {
	case ViewDetail:
		return "r reply | R reply all | f forward | s export | j/k scroll | esc back"
	case ViewCompose:
		return "ctrl+d send | ctrl+g draft | ctrl+z revert | ctrl+w format | ctrl+l model | esc cancel"
	case ViewAdmin:
		return "n new user | o settings | esc back"
	case ViewDual:
		return "enter send | tab swap side | esc back"
	case ViewSwitcher:
		return "enter select | esc back"
	default:
		hints := "q quit | enter open | c compose | / search | tab folder | u user | d dual"
		if m.currentUser.IsAdmin() {
			hints += " | A all mail | U admin"
		}
		return hints
	}
}
