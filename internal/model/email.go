package model

import "time"

// Folder classifies a single physical email copy. Folder membership is a
// property of the (user, copy) pair: the sender's SENT copy and each
// recipient's INBOX copy of the same logical message carry independent
// folder tags, read flags, and star flags.
type Folder string

const (
	FolderInbox   Folder = "inbox"
	FolderSent    Folder = "sent"
	FolderDrafts  Folder = "drafts"
	FolderSpam    Folder = "spam"
	FolderTrash   Folder = "trash"
	FolderArchive Folder = "archive"

	// FolderAdminAll is the supervision view: every copy in the store,
	// regardless of owner.
	FolderAdminAll Folder = "admin_all"

	// Navigation-only sidebar entries, never carried by an email copy.
	FolderAdminUsers Folder = "admin_users"
	FolderDualMode   Folder = "dual_mode"
)

// Email is one physical message copy. Sending a message materializes one
// SENT copy for the sender plus one INBOX copy per recipient, all sharing
// the same ThreadID and Timestamp.
type Email struct {
	// ID is the unique identifier of this copy.
	ID string `json:"id"`

	// ThreadID groups the copies of a conversation.
	ThreadID string `json:"thread_id"`

	// From is the sender of the message.
	From User `json:"from"`

	// To, Cc, and Bcc are the recipient lists. Recorded identically on
	// every copy of the message.
	To  []User `json:"to"`
	Cc  []User `json:"cc,omitempty"`
	Bcc []User `json:"bcc,omitempty"`

	// Subject is the message subject line.
	Subject string `json:"subject"`

	// Body is the message content, an HTML-ish string. The store treats
	// it as trusted text and performs no sanitization.
	Body string `json:"body"`

	// Timestamp is the creation instant, shared by all copies of one
	// logical message.
	Timestamp time.Time `json:"timestamp"`

	// Read and Starred are per-copy mailbox state.
	Read    bool `json:"read"`
	Starred bool `json:"starred"`

	// Folder is the folder tag of this copy.
	Folder Folder `json:"folder"`

	// Attachments holds attachment references (data URLs or names).
	Attachments []string `json:"attachments,omitempty"`
}

// HasRecipient reports whether the given user appears in the To, Cc, or
// Bcc list of this copy.
func (e Email) HasRecipient(userID string) bool {
	for _, lst := range [][]User{e.To, e.Cc, e.Bcc} {
		for _, u := range lst {
			if u.ID == userID {
				return true
			}
		}
	}
	return false
}
