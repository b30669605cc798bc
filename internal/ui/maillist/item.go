package maillist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/maildesk/internal/model"
	"github.com/nhle/maildesk/internal/theme"
)

// ThreadItem wraps a model.Thread so it can be used in a bubbles/list.
type ThreadItem struct {
	Thread model.Thread
}

// FilterValue returns the string used for fuzzy filtering: subject plus
// participant names.
func (i ThreadItem) FilterValue() string {
	names := make([]string, 0, len(i.Thread.Participants)+1)
	names = append(names, i.Thread.Subject)
	for _, p := range i.Thread.Participants {
		names = append(names, p.Name)
	}
	return strings.Join(names, " ")
}

// Title returns the thread subject for the list.
func (i ThreadItem) Title() string { return i.Thread.Subject }

// Description returns a short summary line for the list.
func (i ThreadItem) Description() string {
	return fmt.Sprintf("%s | %d messages | %s",
		participantNames(i.Thread, 3),
		len(i.Thread.Messages),
		relativeTime(i.Thread.LastTimestamp),
	)
}

// ThreadDelegate implements list.ItemDelegate for rendering thread rows.
type ThreadDelegate struct{}

// Height returns the number of lines each item takes.
func (d ThreadDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ThreadDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ThreadDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single thread row.
func (d ThreadDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(ThreadItem)
	if !ok {
		return
	}
	th := ti.Thread

	prefix := " "
	if th.HasUnread {
		prefix = "●"
	}

	star := " "
	for _, msg := range th.Messages {
		if msg.Starred {
			star = theme.StarStyle.Render("★")
			break
		}
	}

	count := ""
	if len(th.Messages) > 1 {
		count = fmt.Sprintf(" (%d)", len(th.Messages))
	}

	subject := th.Subject
	if th.HasUnread {
		subject = theme.UnreadStyle.Render(subject)
	}

	line := fmt.Sprintf("%s %s %s — %s%s  %s",
		prefix, star, participantNames(th, 3), subject, count,
		theme.HelpStyle.Render(relativeTime(th.LastTimestamp)),
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// participantNames joins up to max participant names, eliding the rest.
func participantNames(th model.Thread, max int) string {
	names := make([]string, 0, len(th.Participants))
	for _, p := range th.Participants {
		names = append(names, p.Name)
	}
	if len(names) > max {
		names = append(names[:max], "…")
	}
	return strings.Join(names, ", ")
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
