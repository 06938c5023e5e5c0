package notify

import (
	"context"
	"sync"
)

type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

type Message struct {
	From        string
	To          []string
	Cc          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer delivers a composed message.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// Recorder keeps every message it is asked to send. Err, when set, is
// returned from Send after recording.
type Recorder struct {
	mu   sync.Mutex
	sent []*Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.Err
}

func (r *Recorder) Sent() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Message, len(r.sent))
	copy(out, r.sent)
	return out
}
