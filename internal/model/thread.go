package model

import "time"

// Thread is a derived aggregate over the email copies sharing one thread
// id. Threads are computed by queries and never stored.
type Thread struct {
	// ID is the shared thread id of the constituent messages.
	ID string `json:"id"`

	// Subject is the subject of the most recent message.
	Subject string `json:"subject"`

	// Messages holds the constituent copies, ascending by timestamp.
	Messages []Email `json:"messages"`

	// LastTimestamp is the timestamp of the most recent message.
	LastTimestamp time.Time `json:"last_timestamp"`

	// HasUnread is true if any constituent copy is unread.
	HasUnread bool `json:"has_unread"`

	// Participants is the de-duplicated union of every message's sender
	// and recipients, in first-seen order. Duplicates resolve by user id.
	Participants []User `json:"participants"`
}
