// Package export renders a conversation to a standard mbox stream, one
// RFC 5322 message per email copy. It is a plain file export: nothing is
// transmitted anywhere.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/maildesk/internal/model"
)

// WriteThread writes the given messages to w in mbox format, in the
// order provided. Callers normally pass the output of ThreadDetails,
// which is already ascending by timestamp.
func WriteThread(w io.Writer, msgs []model.Email) error {
	mw := mbox.NewWriter(w)

	for _, msg := range msgs {
		part, err := mw.CreateMessage(msg.From.Email, msg.Timestamp)
		if err != nil {
			return fmt.Errorf("creating mbox entry for %s: %w", msg.ID, err)
		}
		if err := writeMessage(part, msg); err != nil {
			return fmt.Errorf("writing message %s: %w", msg.ID, err)
		}
	}

	return mw.Close()
}

// WriteThreadFile writes the thread to a new file at path.
func WriteThreadFile(path string, msgs []model.Email) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := WriteThread(f, msgs); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// writeMessage renders one email copy as an RFC 5322 message.
func writeMessage(w io.Writer, msg model.Email) error {
	var h mail.Header
	h.SetDate(msg.Timestamp)
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*mail.Address{addr(msg.From)})
	if len(msg.To) > 0 {
		h.SetAddressList("To", addrs(msg.To))
	}
	if len(msg.Cc) > 0 {
		h.SetAddressList("Cc", addrs(msg.Cc))
	}
	h.SetMessageID(msg.ID + "@maildesk.local")
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	body, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(body, msg.Body); err != nil {
		body.Close()
		return err
	}
	return body.Close()
}

func addr(u model.User) *mail.Address {
	return &mail.Address{Name: u.Name, Address: u.Email}
}

func addrs(users []model.User) []*mail.Address {
	out := make([]*mail.Address, len(users))
	for i, u := range users {
		out[i] = addr(u)
	}
	return out
}
