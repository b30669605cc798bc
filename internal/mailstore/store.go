// Package mailstore owns the authoritative in-memory mail state: the user
// roster, the email copies, and the application settings singleton. It is
// the single source of truth for the UI layer; all folder-visibility and
// thread-grouping rules live here.
package mailstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/maildesk/internal/model"
)

// Stats holds the aggregate counts reported by the admin view.
type Stats struct {
	TotalEmails  int `json:"total_emails"`
	TotalThreads int `json:"total_threads"`
	Users        int `json:"users"`
}

// listener is one registered observer callback.
type listener struct {
	id int
	fn func()
}

// Store is the process-wide mail state container. All mutation is
// serialized through its mutex; observers are notified synchronously
// after the mutex has been released, so an observer may safely issue
// further store calls (including mutations) from its callback. Nested
// notifications flush depth-first before the outer mutation returns.
type Store struct {
	mu        sync.Mutex
	users     []model.User
	emails    []model.Email
	settings  model.AppSettings
	listeners []listener
	nextID    int

	// now is the clock used for message timestamps.
	now func() time.Time
}

// New creates a Store seeded with the given roster, email copies, and
// settings. The slices are copied; callers keep ownership of theirs.
func New(users []model.User, emails []model.Email, settings model.AppSettings) *Store {
	return &Store{
		users:    append([]model.User(nil), users...),
		emails:   append([]model.Email(nil), emails...),
		settings: settings,
		now:      time.Now,
	}
}

// Subscribe registers an observer invoked once per mutating operation.
// The returned function removes the observer; calling it more than once
// is a no-op.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// notify invokes every registered observer. It must be called without
// the mutex held: observers run reentrantly on the calling goroutine and
// may trigger further mutations.
func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), len(s.listeners))
	for i, l := range s.listeners {
		fns[i] = l.fn
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Users returns the full roster in creation order.
func (s *Store) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.User(nil), s.users...)
}

// Settings returns the current application settings singleton.
func (s *Store) Settings() model.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the settings singleton wholesale.
func (s *Store) UpdateSettings(settings model.AppSettings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.notify()
}

// CreateUser appends a new user to the roster and returns it. The id is
// freshly generated; when avatar is empty a placeholder derived from the
// id is used, so the same user always renders the same image. Duplicate
// email addresses are accepted.
func (s *Store) CreateUser(name, email string, role model.Role, certified bool, avatar string) model.User {
	id := uuid.New().String()
	if avatar == "" {
		avatar = fmt.Sprintf("https://picsum.photos/seed/%s/200/200", id)
	}

	u := model.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      role,
		Avatar:    avatar,
		Certified: certified,
	}

	s.mu.Lock()
	s.users = append(s.users, u)
	s.mu.Unlock()

	s.notify()
	return u
}

// Threads returns the threads visible in the given folder for the given
// user, most recent conversation first.
//
// Visibility is evaluated per email copy:
//   - FolderAdminAll: every copy, regardless of owner.
//   - FolderSent: copies sent by userID carrying the SENT tag.
//   - anything else: copies addressed to userID (to/cc/bcc) carrying the
//     requested folder tag.
//
// Unknown folder or user ids simply match nothing.
func (s *Store) Threads(folder model.Folder, userID string) []model.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	var visible []model.Email
	switch folder {
	case model.FolderAdminAll:
		visible = s.emails
	case model.FolderSent:
		for _, e := range s.emails {
			if e.From.ID == userID && e.Folder == model.FolderSent {
				visible = append(visible, e)
			}
		}
	default:
		for _, e := range s.emails {
			if e.HasRecipient(userID) && e.Folder == folder {
				visible = append(visible, e)
			}
		}
	}

	// Group surviving copies by thread id, preserving first-seen order
	// for stable output on timestamp ties.
	groups := make(map[string][]model.Email)
	var order []string
	for _, e := range visible {
		if _, ok := groups[e.ThreadID]; !ok {
			order = append(order, e.ThreadID)
		}
		groups[e.ThreadID] = append(groups[e.ThreadID], e)
	}

	threads := make([]model.Thread, 0, len(order))
	for _, id := range order {
		threads = append(threads, buildThread(id, groups[id]))
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LastTimestamp.After(threads[j].LastTimestamp)
	})

	return threads
}

// buildThread computes the derived aggregate for one group of copies.
func buildThread(id string, msgs []model.Email) model.Thread {
	msgs = append([]model.Email(nil), msgs...)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})

	last := msgs[len(msgs)-1]

	hasUnread := false
	seen := make(map[string]bool)
	var participants []model.User
	add := func(u model.User) {
		if !seen[u.ID] {
			seen[u.ID] = true
			participants = append(participants, u)
		}
	}
	for _, m := range msgs {
		if !m.Read {
			hasUnread = true
		}
		add(m.From)
		for _, lst := range [][]model.User{m.To, m.Cc, m.Bcc} {
			for _, u := range lst {
				add(u)
			}
		}
	}

	return model.Thread{
		ID:            id,
		Subject:       last.Subject,
		Messages:      msgs,
		LastTimestamp: last.Timestamp,
		HasUnread:     hasUnread,
		Participants:  participants,
	}
}

// ThreadDetails returns every copy carrying the given thread id across
// all folders, ascending by timestamp. This is the full conversation
// history shown by the reading pane, regardless of the folder the user
// navigated from.
func (s *Store) ThreadDetails(threadID string) []model.Email {
	s.mu.Lock()
	defer s.mu.Unlock()

	var msgs []model.Email
	for _, e := range s.emails {
		if e.ThreadID == threadID {
			msgs = append(msgs, e)
		}
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})

	return msgs
}

// MarkThreadRead marks every copy of the thread as read. It notifies
// once when at least one copy actually transitioned, and stays silent
// otherwise.
//
// The userID argument is accepted for API symmetry but not yet used to
// scope the marking to the reader's own copies; the reading pane shows
// the whole conversation, and the observable contract is that opening a
// thread clears its unread state everywhere.
func (s *Store) MarkThreadRead(threadID, userID string) {
	s.mu.Lock()
	changed := false
	for i := range s.emails {
		if s.emails[i].ThreadID == threadID && !s.emails[i].Read {
			s.emails[i].Read = true
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// SendEmail creates the physical copies for one logical message: a SENT
// copy for the sender (already read) and an INBOX copy per recipient
// (unread). All copies share one thread id and one timestamp. When
// parentThreadID is non-empty the message joins that thread (reply or
// forward); otherwise a new thread id is synthesized.
//
// An empty recipient list is accepted and produces only the sent copy;
// enforcing a non-empty list is the composer's responsibility.
func (s *Store) SendEmail(from model.User, to []model.User, subject, body string, parentThreadID string) {
	threadID := parentThreadID
	if threadID == "" {
		threadID = uuid.New().String()
	}
	ts := s.now()

	base := model.Email{
		ThreadID:  threadID,
		From:      from,
		To:        append([]model.User(nil), to...),
		Subject:   subject,
		Body:      body,
		Timestamp: ts,
	}

	sent := base
	sent.ID = uuid.New().String()
	sent.Read = true
	sent.Folder = model.FolderSent

	copies := []model.Email{sent}
	for range to {
		inbox := base
		inbox.ID = uuid.New().String()
		inbox.Read = false
		inbox.Folder = model.FolderInbox
		copies = append(copies, inbox)
	}

	s.mu.Lock()
	s.emails = append(s.emails, copies...)
	s.mu.Unlock()

	s.notify()
}

// Conversation returns the chronological two-party exchange between
// users a and b: every copy where one is the sender and the other a
// recipient, restricted to SENT-tagged copies. The folder restriction
// selects exactly one physical copy per logical message, which is what
// de-duplicates the sent/inbox pairs created by SendEmail.
func (s *Store) Conversation(aID, bID string) []model.Email {
	s.mu.Lock()
	defer s.mu.Unlock()

	var msgs []model.Email
	for _, e := range s.emails {
		if e.Folder != model.FolderSent {
			continue
		}
		fromA := e.From.ID == aID && e.HasRecipient(bID)
		fromB := e.From.ID == bID && e.HasRecipient(aID)
		if fromA || fromB {
			msgs = append(msgs, e)
		}
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})

	return msgs
}

// Stats returns the aggregate counts for the admin dashboard.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	threads := make(map[string]bool, len(s.emails))
	for _, e := range s.emails {
		threads[e.ThreadID] = true
	}

	return Stats{
		TotalEmails:  len(s.emails),
		TotalThreads: len(threads),
		Users:        len(s.users),
	}
}
