package maillist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/maildesk/internal/keys"
	"github.com/nhle/maildesk/internal/mailstore"
	"github.com/nhle/maildesk/internal/model"
	"github.com/nhle/maildesk/internal/theme"
)

// ThreadsLoadedMsg is sent when threads have been loaded from the store.
type ThreadsLoadedMsg struct {
	Threads []model.Thread
}

// SelectedThreadMsg is sent when the user opens a thread.
type SelectedThreadMsg struct {
	ThreadID string
}

// mailFolders is the folder rotation cycled by Tab. ADMIN_ALL is entered
// through its own keybinding, not the rotation.
var mailFolders = []model.Folder{
	model.FolderInbox,
	model.FolderSent,
	model.FolderDrafts,
	model.FolderSpam,
	model.FolderTrash,
	model.FolderArchive,
}

// Model is the thread list view component.
type Model struct {
	list        list.Model
	store       *mailstore.Store
	keys        *keys.KeyMap
	folder      model.Folder
	userID      string
	folderIndex int
	searchMode  bool
	searchQuery string
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new thread list model scoped to the given user.
func New(s *mailstore.Store, k *keys.KeyMap, userID string, width, height int) Model {
	l := list.New([]list.Item{}, ThreadDelegate{}, width, height-2)
	l.Title = folderTitle(model.FolderInbox)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search threads..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		folder:      model.FolderInbox,
		userID:      userID,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial folder.
func (m Model) Init() tea.Cmd {
	return m.LoadThreads()
}

// Folder returns the folder currently shown.
func (m Model) Folder() model.Folder { return m.folder }

// Searching reports whether the search input currently owns the
// keyboard.
func (m Model) Searching() bool { return m.searchMode }

// SetFolder switches the view to another folder and reloads.
func (m *Model) SetFolder(f model.Folder) tea.Cmd {
	m.folder = f
	for i, mf := range mailFolders {
		if mf == f {
			m.folderIndex = i
		}
	}
	m.list.Title = folderTitle(f)
	return m.LoadThreads()
}

// SetUser switches the acting user and resets the view to INBOX.
func (m *Model) SetUser(userID string) tea.Cmd {
	m.userID = userID
	m.folderIndex = 0
	return m.SetFolder(model.FolderInbox)
}

// LoadThreads returns a command that queries the store for the current
// folder and applies the active search filter.
func (m Model) LoadThreads() tea.Cmd {
	store, folder, userID, query := m.store, m.folder, m.userID, m.searchQuery
	return func() tea.Msg {
		threads := store.Threads(folder, userID)
		if query != "" {
			threads = filterThreads(threads, query)
		}
		return ThreadsLoadedMsg{Threads: threads}
	}
}

// filterThreads keeps threads whose subject or participant names contain
// the query, case-insensitively.
func filterThreads(threads []model.Thread, query string) []model.Thread {
	q := strings.ToLower(query)
	var out []model.Thread
	for _, th := range threads {
		if strings.Contains(strings.ToLower(th.Subject), q) {
			out = append(out, th)
			continue
		}
		for _, p := range th.Participants {
			if strings.Contains(strings.ToLower(p.Name), q) {
				out = append(out, th)
				break
			}
		}
	}
	return out
}

// Update handles messages for the thread list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ThreadsLoadedMsg:
		items := make([]list.Item, len(msg.Threads))
		for i, th := range msg.Threads {
			items[i] = ThreadItem{Thread: th}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchQuery = m.searchInput.Value()
		return m, m.LoadThreads()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.searchQuery = ""
		return m, m.LoadThreads()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(ThreadItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedThreadMsg{ThreadID: item.Thread.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.NextFolder):
		m.folderIndex = (m.folderIndex + 1) % len(mailFolders)
		return m, m.SetFolder(mailFolders[m.folderIndex])

	case key.Matches(msg, m.keys.PrevFolder):
		m.folderIndex = (m.folderIndex - 1 + len(mailFolders)) % len(mailFolders)
		return m, m.SetFolder(mailFolders[m.folderIndex])
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the thread list.
func (m Model) View() string {
	if m.searchMode {
		return m.searchInput.View() + "\n" + m.list.View()
	}
	return m.list.View()
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}

// folderTitle maps a folder tag to its list title.
func folderTitle(f model.Folder) string {
	switch f {
	case model.FolderInbox:
		return "Inbox"
	case model.FolderSent:
		return "Sent"
	case model.FolderDrafts:
		return "Drafts"
	case model.FolderSpam:
		return "Spam"
	case model.FolderTrash:
		return "Trash"
	case model.FolderArchive:
		return "Archive"
	case model.FolderAdminAll:
		return "All Mail (admin)"
	default:
		return string(f)
	}
}
