package compose

import (
	"reflect"
	"testing"

	"github.com/nhle/maildesk/internal/model"
)

var roster = []model.User{
	{ID: "u1", Name: "Jean Dupont", Email: "jean.dupont@interac.local"},
	{ID: "u2", Name: "Sophie Martin", Email: "sophie.martin@interac.local"},
	{ID: "u3", Name: "Interac Security", Email: "security@interac.local"},
}

func TestResolveRecipients(t *testing.T) {
	tests := []struct {
		name           string
		line           string
		wantIDs        []string
		wantUnresolved []string
	}{
		{
			name:    "exact email",
			line:    "jean.dupont@interac.local",
			wantIDs: []string{"u1"},
		},
		{
			name:    "case insensitive name",
			line:    "sophie martin",
			wantIDs: []string{"u2"},
		},
		{
			name:    "mixed email and name",
			line:    "security@interac.local, Jean Dupont",
			wantIDs: []string{"u3", "u1"},
		},
		{
			name:    "duplicates collapse",
			line:    "Jean Dupont, jean.dupont@interac.local",
			wantIDs: []string{"u1"},
		},
		{
			name:    "empty tokens skipped",
			line:    " , sophie.martin@interac.local, ",
			wantIDs: []string{"u2"},
		},
		{
			name:           "unknown token reported",
			line:           "Jean Dupont, nobody@elsewhere.example",
			wantIDs:        []string{"u1"},
			wantUnresolved: []string{"nobody@elsewhere.example"},
		},
		{
			name: "blank line resolves nothing",
			line: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, unresolved := resolveRecipients(roster, tt.line)

			var gotIDs []string
			for _, u := range resolved {
				gotIDs = append(gotIDs, u.ID)
			}
			if !reflect.DeepEqual(gotIDs, tt.wantIDs) {
				t.Errorf("resolved = %v, want %v", gotIDs, tt.wantIDs)
			}
			if !reflect.DeepEqual(unresolved, tt.wantUnresolved) {
				t.Errorf("unresolved = %v, want %v", unresolved, tt.wantUnresolved)
			}
		})
	}
}

func TestFormatRecipients(t *testing.T) {
	if got := formatRecipients(nil); got != "" {
		t.Errorf("formatRecipients(nil) = %q, want empty", got)
	}

	got := formatRecipients(roster[:2])
	want := "jean.dupont@interac.local, sophie.martin@interac.local"
	if got != want {
		t.Errorf("formatRecipients = %q, want %q", got, want)
	}
}

func TestConfigureSelectsKnownModel(t *testing.T) {
	m := New(nil, nil, roster[0], 80, 24)

	m.Configure(m.models[1].ID, true)
	if m.modelIndex != 1 {
		t.Errorf("modelIndex = %d, want 1", m.modelIndex)
	}
	if !m.webFormat {
		t.Error("webFormat not applied")
	}

	m.Configure("no-such-model", false)
	if m.modelIndex != 1 {
		t.Errorf("unknown model changed selection to %d", m.modelIndex)
	}
}
