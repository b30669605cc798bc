package switcher

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/maildesk/internal/keys"
	"github.com/nhle/maildesk/internal/mailstore"
	"github.com/nhle/maildesk/internal/model"
	"github.com/nhle/maildesk/internal/theme"
)

// UserSelectedMsg is sent when a user is picked to act as.
type UserSelectedMsg struct {
	User model.User
}

// CancelMsg is sent when the switcher is dismissed.
type CancelMsg struct{}

// userItem wraps a model.User for the bubbles list.
type userItem struct {
	user model.User
}

func (i userItem) FilterValue() string { return i.user.Name + " " + i.user.Email }

// userDelegate renders one roster row.
type userDelegate struct{}

func (d userDelegate) Height() int                             { return 1 }
func (d userDelegate) Spacing() int                            { return 0 }
func (d userDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d userDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ui, ok := item.(userItem)
	if !ok {
		return
	}
	u := ui.user

	badge := ""
	if u.Certified {
		badge = theme.StarStyle.Render(" ✔")
	}

	line := fmt.Sprintf("%s <%s> %s%s",
		u.Name, u.Email,
		theme.RoleStyle(u.Role).Render(strings.ToUpper(string(u.Role))),
		badge,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the account switcher: pick the user the session acts as.
type Model struct {
	list  list.Model
	store *mailstore.Store
	keys  *keys.KeyMap
}

// New creates a new switcher model.
func New(s *mailstore.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, userDelegate{}, width, height-2)
	l.Title = "Act as"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, store: s, keys: k}
}

// Init returns the initial command for the switcher.
func (m Model) Init() tea.Cmd {
	return m.LoadUsers()
}

// LoadUsers returns a command that refreshes the roster.
func (m Model) LoadUsers() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return usersLoadedMsg{users: store.Users()}
	}
}

type usersLoadedMsg struct {
	users []model.User
}

// Update handles messages for the switcher.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		items := make([]list.Item, len(msg.users))
		for i, u := range msg.users {
			items[i] = userItem{user: u}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			item, ok := m.list.SelectedItem().(userItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return UserSelectedMsg{User: item.user}
			}

		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the switcher.
func (m Model) View() string {
	return m.list.View()
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height-2)
}
