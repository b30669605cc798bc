package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nhle/maildesk/internal/model"
)

func TestWriteThread(t *testing.T) {
	from := model.User{ID: "u1", Name: "Jean Dupont", Email: "jean.dupont@interac.local"}
	to := model.User{ID: "u2", Name: "Sophie Martin", Email: "sophie.martin@interac.local"}
	ts := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	msgs := []model.Email{
		{
			ID: "e1", ThreadID: "t1", From: from, To: []model.User{to},
			Subject: "Projet Alpha", Body: "<p>Bonjour</p>", Timestamp: ts,
			Folder: model.FolderSent,
		},
		{
			ID: "e2", ThreadID: "t1", From: to, To: []model.User{from},
			Subject: "Re: Projet Alpha", Body: "<p>Salut</p>", Timestamp: ts.Add(time.Hour),
			Folder: model.FolderSent,
		},
	}

	var buf bytes.Buffer
	if err := WriteThread(&buf, msgs); err != nil {
		t.Fatalf("WriteThread() error = %v", err)
	}
	out := buf.String()

	if n := strings.Count(out, "From "); n < 2 {
		t.Errorf("expected 2 mbox separators, found %d", n)
	}
	first := strings.Index(out, "Projet Alpha")
	second := strings.Index(out, "Re: Projet Alpha")
	if first < 0 || second < 0 {
		t.Fatalf("subjects missing from output:\n%s", out)
	}
	if first > second {
		t.Error("messages not written in the order provided")
	}
	if !strings.Contains(out, "jean.dupont@interac.local") {
		t.Error("sender address missing from headers")
	}
	if !strings.Contains(out, "text/html") {
		t.Error("content type header missing")
	}
}

func TestWriteThreadEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteThread(&buf, nil); err != nil {
		t.Fatalf("WriteThread() on empty thread error = %v", err)
	}
}
