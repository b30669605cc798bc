package admin

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/maildesk/internal/mailstore"
	"github.com/nhle/maildesk/internal/model"
	"github.com/nhle/maildesk/internal/theme"
	"github.com/nhle/maildesk/internal/ui"
	"github.com/nhle/maildesk/internal/upload"
)

// BackMsg signals the parent to leave the admin view.
type BackMsg struct{}

// mode selects which admin surface is active.
type mode int

const (
	modeOverview mode = iota
	modeNewUser
	modeSettings
)

// userFormBindings holds create-user field values on the heap so huh's
// Value() pointers remain valid across Bubble Tea model copies.
type userFormBindings struct {
	name       string
	email      string
	role       string
	certified  bool
	avatarPath string
}

// settingsFormBindings holds settings field values on the heap.
type settingsFormBindings struct {
	appName  string
	logoPath string
}

// Model is the admin panel: stats overview, user roster, create-user
// form, and application settings form.
type Model struct {
	store *mailstore.Store

	mode mode
	form *huh.Form
	ufb  *userFormBindings
	sfb  *settingsFormBindings

	width  int
	height int
}

// New creates a new admin panel model.
func New(s *mailstore.Store, width, height int) Model {
	return Model{
		store:  s,
		ufb:    &userFormBindings{role: string(model.RoleUser)},
		sfb:    &settingsFormBindings{},
		width:  width,
		height: height,
	}
}

// Init returns the initial command for the admin panel.
func (m Model) Init() tea.Cmd {
	return nil
}

// StartNewUser opens the create-user form.
func (m *Model) StartNewUser() tea.Cmd {
	m.mode = modeNewUser
	m.ufb.name = ""
	m.ufb.email = ""
	m.ufb.role = string(model.RoleUser)
	m.ufb.certified = false
	m.ufb.avatarPath = ""
	m.form = m.buildUserForm()
	return m.form.Init()
}

// StartSettings opens the settings form seeded with the current values.
func (m *Model) StartSettings() tea.Cmd {
	settings := m.store.Settings()
	m.mode = modeSettings
	m.sfb.appName = settings.AppName
	m.sfb.logoPath = ""
	m.form = m.buildSettingsForm()
	return m.form.Init()
}

// Update handles messages for the admin panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == modeOverview {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "esc":
				return m, func() tea.Msg { return BackMsg{} }
			case "n":
				return m, m.StartNewUser()
			case "o":
				return m, m.StartSettings()
			}
		}
		return m, nil
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		switch m.mode {
		case modeNewUser:
			return m.submitUser()
		case modeSettings:
			return m.submitSettings()
		}
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeOverview
		m.form = nil
		return m, nil
	}

	return m, cmd
}

// submitUser creates the user from the form values. An avatar path, if
// given, is ingested as an inline data URL; a bad path or non-image file
// aborts the creation with a validation message.
func (m Model) submitUser() (Model, tea.Cmd) {
	avatar := ""
	if m.ufb.avatarPath != "" {
		dataURL, err := upload.FromFile(m.ufb.avatarPath)
		if err != nil {
			m.mode = modeOverview
			m.form = nil
			return m, statusCmd(err.Error(), true)
		}
		avatar = dataURL
	}

	m.store.CreateUser(
		m.ufb.name,
		m.ufb.email,
		model.Role(m.ufb.role),
		m.ufb.certified,
		avatar,
	)

	m.mode = modeOverview
	m.form = nil
	return m, statusCmd(fmt.Sprintf("User %s created.", m.ufb.name), false)
}

// submitSettings replaces the settings singleton from the form values.
func (m Model) submitSettings() (Model, tea.Cmd) {
	settings := m.store.Settings()
	settings.AppName = m.sfb.appName

	if m.sfb.logoPath != "" {
		dataURL, err := upload.FromFile(m.sfb.logoPath)
		if err != nil {
			m.mode = modeOverview
			m.form = nil
			return m, statusCmd(err.Error(), true)
		}
		settings.LogoURL = dataURL
	}

	m.store.UpdateSettings(settings)

	m.mode = modeOverview
	m.form = nil
	return m, statusCmd("Settings updated.", false)
}

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return ui.StatusMsg{Text: text, IsError: isErr}
	}
}

// View renders the admin panel.
func (m Model) View() string {
	if m.mode != modeOverview && m.form != nil {
		title := "New User"
		if m.mode == modeSettings {
			title = "Application Settings"
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.HeaderStyle.Render(title) + "\n\n" + m.form.View(),
		)
	}

	var sb strings.Builder

	stats := m.store.Stats()
	sb.WriteString(theme.HeaderStyle.Render("Administration"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Emails: %d    Threads: %d    Users: %d\n\n",
		stats.TotalEmails, stats.TotalThreads, stats.Users))

	sb.WriteString(theme.UnreadStyle.Render("Users"))
	sb.WriteString("\n")
	for _, u := range m.store.Users() {
		badge := ""
		if u.Certified {
			badge = " ✔"
		}
		sb.WriteString(fmt.Sprintf("  %s %s <%s>%s\n",
			theme.RoleStyle(u.Role).Render(strings.ToUpper(string(u.Role))),
			u.Name, u.Email, badge,
		))
	}

	sb.WriteString("\n")
	sb.WriteString(theme.HelpStyle.Render("n new user | o settings | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Render(sb.String())
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildUserForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Prénom Nom").
				Value(&m.ufb.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("Email").
				Placeholder("prenom.nom@interac.local").
				Value(&m.ufb.email).
				Validate(validateRequired("Email")),
			huh.NewSelect[string]().
				Title("Role").
				Options(
					huh.NewOption("User", string(model.RoleUser)),
					huh.NewOption("Admin", string(model.RoleAdmin)),
				).
				Value(&m.ufb.role),
			huh.NewConfirm().
				Title("Certified badge").
				Value(&m.ufb.certified),
			huh.NewInput().
				Title("Avatar image").
				Placeholder("path to an image file (optional)").
				Value(&m.ufb.avatarPath),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildSettingsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Application name").
				Value(&m.sfb.appName).
				Validate(validateRequired("Application name")),
			huh.NewInput().
				Title("Logo image").
				Placeholder("path to an image file (optional)").
				Value(&m.sfb.logoPath),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) formWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	return w
}

func (m *Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

// validateRequired rejects empty values for the named field.
func validateRequired(name string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
