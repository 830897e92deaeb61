package mail

import (
	"context"
	"errors"
	"sync"
)

// ErrDisabled is returned by senders when no SMTP server is configured
var ErrDisabled = errors.New("mail delivery disabled")

// Attachment is a file sent along with a message
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is one outgoing HTML email
type Message struct {
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Disabled is a Sender that refuses every message with ErrDisabled
type Disabled struct{}

// Send always fails with ErrDisabled
func (Disabled) Send(context.Context, *Message) error {
	return ErrDisabled
}

// Recorder is an in-memory Sender that keeps every message it is given.
// Err, when set, is returned instead of recording.
type Recorder struct {
	mu       sync.Mutex
	messages []*Message
	Err      func(msg *Message) error
}

// Send records msg
func (r *Recorder) Send(_ context.Context, msg *Message) error {
	if r.Err != nil {
		if err := r.Err(msg); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns the recorded messages in send order
func (r *Recorder) Messages() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Message, len(r.messages))
	copy(out, r.messages)
	return out
}
