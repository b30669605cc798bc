package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/maildesk/internal/app"
	"github.com/nhle/maildesk/internal/mailstore"
	"github.com/nhle/maildesk/internal/model"
	"github.com/nhle/maildesk/internal/seed"
)

func main() {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "maildesk: load config: %v\n", err)
		os.Exit(1)
	}

	users := seed.Users()
	store := mailstore.New(users, seed.Emails(time.Now()), model.AppSettings{
		AppName: cfg.Display.AppName,
		LogoURL: cfg.Display.LogoURL,
	})

	root := app.New(store, cfg, users[seed.DefaultUserIndex])

	p := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "maildesk: %v\n", err)
		os.Exit(1)
	}
}
