package mailstore

import (
	"testing"
	"time"

	"github.com/nhle/maildesk/internal/model"
)

var (
	alice = model.User{ID: "ua", Name: "Alice", Email: "alice@corp.local", Role: model.RoleUser}
	bob   = model.User{ID: "ub", Name: "Bob", Email: "bob@corp.local", Role: model.RoleUser}
	carol = model.User{ID: "uc", Name: "Carol", Email: "carol@corp.local", Role: model.RoleAdmin}
)

func newTestStore() *Store {
	s := New(
		[]model.User{alice, bob, carol},
		nil,
		model.AppSettings{AppName: "Test Mail"},
	)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func TestSendEmailCreatesSentAndInboxCopies(t *testing.T) {
	s := newTestStore()
	s.SendEmail(alice, []model.User{bob, carol}, "S", "B", "")

	stats := s.Stats()
	if stats.TotalEmails != 3 {
		t.Fatalf("expected 3 copies, got %d", stats.TotalEmails)
	}
	if stats.TotalThreads != 1 {
		t.Fatalf("expected 1 thread, got %d", stats.TotalThreads)
	}

	sent := s.Threads(model.FolderSent, alice.ID)
	if len(sent) != 1 || len(sent[0].Messages) != 1 {
		t.Fatalf("expected 1 sent thread with 1 message, got %+v", sent)
	}
	if !sent[0].Messages[0].Read {
		t.Error("sent copy should be marked read")
	}
	if sent[0].Messages[0].Folder != model.FolderSent {
		t.Errorf("sent copy folder = %q", sent[0].Messages[0].Folder)
	}

	for _, u := range []model.User{bob, carol} {
		inbox := s.Threads(model.FolderInbox, u.ID)
		if len(inbox) != 1 || len(inbox[0].Messages) != 1 {
			t.Fatalf("expected 1 inbox thread for %s, got %+v", u.Name, inbox)
		}
		msg := inbox[0].Messages[0]
		if msg.Read {
			t.Errorf("inbox copy for %s should be unread", u.Name)
		}
		if msg.ThreadID != sent[0].ID {
			t.Errorf("inbox copy for %s has thread %q, want %q", u.Name, msg.ThreadID, sent[0].ID)
		}
		if !msg.Timestamp.Equal(sent[0].Messages[0].Timestamp) {
			t.Errorf("inbox copy for %s has a different timestamp than the sent copy", u.Name)
		}
	}
}

func TestSendEmailReplyJoinsParentThread(t *testing.T) {
	s := newTestStore()
	s.SendEmail(alice, []model.User{bob}, "Hello", "hi", "")

	threadID := s.Threads(model.FolderSent, alice.ID)[0].ID
	s.SendEmail(bob, []model.User{alice}, "Re: Hello", "hello back", threadID)

	details := s.ThreadDetails(threadID)
	if len(details) != 4 {
		t.Fatalf("expected 4 copies in thread, got %d", len(details))
	}
	for i := 1; i < len(details); i++ {
		if details[i].Timestamp.Before(details[i-1].Timestamp) {
			t.Fatal("thread details are not ascending by timestamp")
		}
	}
	if s.Stats().TotalThreads != 1 {
		t.Errorf("reply created a new thread, want 1, got %d", s.Stats().TotalThreads)
	}
}

func TestSendEmailEmptyRecipientsProducesOnlySentCopy(t *testing.T) {
	s := newTestStore()
	s.SendEmail(alice, nil, "S", "B", "")

	if got := s.Stats().TotalEmails; got != 1 {
		t.Fatalf("expected only the sent copy, got %d copies", got)
	}
	if got := s.Threads(model.FolderInbox, bob.ID); len(got) != 0 {
		t.Errorf("nobody should have received anything, got %d threads", len(got))
	}
}

func TestConversationReturnsOnlySentCopies(t *testing.T) {
	s := newTestStore()
	s.SendEmail(alice, []model.User{bob, carol}, "S", "B", "")

	conv := s.Conversation(alice.ID, bob.ID)
	if len(conv) != 1 {
		t.Fatalf("expected exactly 1 record, got %d", len(conv))
	}
	if conv[0].Folder != model.FolderSent {
		t.Errorf("conversation returned a %q copy, want sent", conv[0].Folder)
	}

	// The exchange is symmetric.
	s.SendEmail(bob, []model.User{alice}, "Re: S", "B2", conv[0].ThreadID)
	conv = s.Conversation(bob.ID, alice.ID)
	if len(conv) != 2 {
		t.Fatalf("expected 2 records after reply, got %d", len(conv))
	}
	if conv[0].Timestamp.After(conv[1].Timestamp) {
		t.Error("conversation is not ascending by timestamp")
	}

	// A third party exchanging mail with neither A nor B stays invisible.
	if got := s.Conversation(carol.ID, bob.ID); len(got) != 0 {
		t.Errorf("carol/bob conversation should be empty, got %d", len(got))
	}
}

func TestMarkThreadReadNotifiesOnceAndOnlyOnTransition(t *testing.T) {
	s := newTestStore()
	s.SendEmail(alice, []model.User{bob, carol}, "S", "B", "")
	threadID := s.Threads(model.FolderSent, alice.ID)[0].ID

	calls := 0
	unsub := s.Subscribe(func() { calls++ })
	defer unsub()

	s.MarkThreadRead(threadID, bob.ID)
	if calls != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", calls)
	}

	for _, e := range s.ThreadDetails(threadID) {
		if !e.Read {
			t.Fatalf("copy %s still unread after MarkThreadRead", e.ID)
		}
	}

	// Already read: silent.
	s.MarkThreadRead(threadID, bob.ID)
	if calls != 1 {
		t.Errorf("expected no notification for an already-read thread, got %d", calls)
	}
}

func TestThreadsFolderVisibility(t *testing.T) {
	s := newTestStore()
	s.SendEmail(alice, []model.User{bob}, "to bob", "x", "")
	s.SendEmail(bob, []model.User{carol}, "to carol", "y", "")

	tests := []struct {
		name   string
		folder model.Folder
		userID string
		want   int
	}{
		{"admin all sees everything regardless of user", model.FolderAdminAll, "nobody", 2},
		{"alice sent", model.FolderSent, alice.ID, 1},
		{"alice inbox is empty", model.FolderInbox, alice.ID, 0},
		{"bob inbox", model.FolderInbox, bob.ID, 1},
		{"carol inbox", model.FolderInbox, carol.ID, 1},
		{"unknown user", model.FolderInbox, "ghost", 0},
		{"unknown folder", model.Folder("newsletter"), bob.ID, 0},
		{"navigation-only folder matches nothing", model.FolderDualMode, bob.ID, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Threads(tt.folder, tt.userID)
			if len(got) != tt.want {
				t.Errorf("Threads(%s, %s) = %d threads, want %d", tt.folder, tt.userID, len(got), tt.want)
			}
		})
	}
}

func TestThreadsSortedByLastTimestampDescending(t *testing.T) {
	s := newTestStore()
	s.SendEmail(alice, []model.User{bob}, "first", "x", "")
	s.SendEmail(carol, []model.User{bob}, "second", "y", "")

	threads := s.Threads(model.FolderInbox, bob.ID)
	if len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}
	if threads[0].Subject != "second" || threads[1].Subject != "first" {
		t.Errorf("threads not sorted by recency: got [%s, %s]", threads[0].Subject, threads[1].Subject)
	}

	// A reply to the first thread moves it back to the top.
	s.SendEmail(bob, []model.User{alice}, "Re: first", "z", threads[1].ID)
	threads = s.Threads(model.FolderAdminAll, "")
	if threads[0].Subject != "Re: first" {
		t.Errorf("replied thread should be first, got %q", threads[0].Subject)
	}
}

func TestThreadAggregates(t *testing.T) {
	s := newTestStore()
	s.SendEmail(alice, []model.User{bob}, "Subject A", "x", "")
	threadID := s.Threads(model.FolderSent, alice.ID)[0].ID
	s.SendEmail(bob, []model.User{alice, carol}, "Subject B", "y", threadID)

	threads := s.Threads(model.FolderAdminAll, "")
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}
	th := threads[0]

	if th.Subject != "Subject B" {
		t.Errorf("thread subject = %q, want the last message's subject", th.Subject)
	}
	if !th.HasUnread {
		t.Error("thread with unread inbox copies should report HasUnread")
	}
	if len(th.Participants) != 3 {
		t.Fatalf("expected 3 distinct participants, got %d", len(th.Participants))
	}
	seen := map[string]int{}
	for _, p := range th.Participants {
		seen[p.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("participant %s appears %d times", id, n)
		}
	}
	if !th.LastTimestamp.Equal(th.Messages[len(th.Messages)-1].Timestamp) {
		t.Error("LastTimestamp does not match the newest message")
	}
}

func TestThreadDetailsIsSupersetOfFolderView(t *testing.T) {
	s := newTestStore()
	s.SendEmail(alice, []model.User{bob}, "S", "x", "")
	threadID := s.Threads(model.FolderSent, alice.ID)[0].ID
	s.SendEmail(bob, []model.User{alice}, "Re: S", "y", threadID)

	details := s.ThreadDetails(threadID)
	for _, folder := range []model.Folder{model.FolderInbox, model.FolderSent} {
		for _, userID := range []string{alice.ID, bob.ID} {
			for _, th := range s.Threads(folder, userID) {
				if th.ID != threadID {
					continue
				}
				if len(details) < len(th.Messages) {
					t.Errorf("details (%d) smaller than %s view (%d)", len(details), folder, len(th.Messages))
				}
			}
		}
	}
}

func TestCreateUser(t *testing.T) {
	s := newTestStore()

	before := len(s.Users())
	u := s.CreateUser("Dave", "dave@corp.local", model.RoleUser, true, "")
	if u.ID == "" {
		t.Fatal("created user has no id")
	}
	if u.Avatar == "" {
		t.Error("created user should receive a placeholder avatar")
	}
	if !u.Certified {
		t.Error("certified flag not carried over")
	}

	users := s.Users()
	if len(users) != before+1 {
		t.Fatalf("roster size = %d, want %d", len(users), before+1)
	}
	if users[len(users)-1].ID != u.ID {
		t.Error("new user not appended in creation order")
	}

	// Duplicate addresses are accepted.
	dup := s.CreateUser("Dave Again", "dave@corp.local", model.RoleUser, false, "")
	if dup.ID == u.ID {
		t.Error("duplicate-address user must still get a fresh id")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStore()

	want := model.AppSettings{AppName: "Renamed", LogoURL: "data:image/png;base64,xx"}
	s.UpdateSettings(want)
	if got := s.Settings(); got != want {
		t.Errorf("Settings() = %+v, want %+v", got, want)
	}

	// Reads are idempotent without intervening mutation.
	if a, b := s.Settings(), s.Settings(); a != b {
		t.Error("repeated Settings() calls disagree")
	}
}

func TestSubscribeNotifiesPerMutationAndUnsubscribeIsIdempotent(t *testing.T) {
	s := newTestStore()

	calls := 0
	unsub := s.Subscribe(func() { calls++ })

	s.SendEmail(alice, []model.User{bob, carol}, "S", "B", "")
	if calls != 1 {
		t.Fatalf("SendEmail should notify exactly once, got %d", calls)
	}

	s.UpdateSettings(model.AppSettings{AppName: "x"})
	s.CreateUser("Eve", "eve@corp.local", model.RoleUser, false, "")
	if calls != 3 {
		t.Fatalf("expected 3 notifications after 3 mutations, got %d", calls)
	}

	unsub()
	unsub() // second call must be safe
	s.UpdateSettings(model.AppSettings{AppName: "y"})
	if calls != 3 {
		t.Errorf("unsubscribed observer was still notified")
	}
}

func TestObserverMayMutateReentrantly(t *testing.T) {
	s := newTestStore()

	replied := false
	var unsub func()
	unsub = s.Subscribe(func() {
		if replied {
			return
		}
		replied = true
		// A mutation from inside a notification must not deadlock and
		// must itself notify, depth-first.
		s.SendEmail(bob, []model.User{alice}, "auto-reply", "ooo", "")
	})
	defer unsub()

	s.SendEmail(alice, []model.User{bob}, "ping", "x", "")

	if got := s.Stats().TotalEmails; got != 4 {
		t.Fatalf("expected 4 copies after reentrant send, got %d", got)
	}
}
