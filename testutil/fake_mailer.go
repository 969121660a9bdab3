package testutil

import (
	"context"
	"sync"
)

// SentMessage is one message the FakeMessageSender was asked to deliver.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// FakeMessageSender records outgoing messages and lets tests control the
// outcome per recipient. It satisfies the mailer.MessageSender contract.
type FakeMessageSender struct {
	mu   sync.Mutex
	sent []SentMessage

	// FailFor makes SendMessage return an error for these recipients.
	FailFor map[string]error

	// RejectFor makes SendMessage return (false, nil) for these recipients.
	RejectFor map[string]bool
}

// NewFakeMessageSender creates a new FakeMessageSender.
func NewFakeMessageSender() *FakeMessageSender {
	return &FakeMessageSender{sent: make([]SentMessage, 0)}
}

// SendMessage implements the mailer.MessageSender contract.
func (f *FakeMessageSender) SendMessage(_ context.Context, to string, subject string, body string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, hit := f.FailFor[to]; hit {
		return false, err
	}
	if f.RejectFor[to] {
		return false, nil
	}

	f.sent = append(f.sent, SentMessage{To: to, Subject: subject, Body: body})

	return true, nil
}

// Sent returns a copy of all successfully delivered messages.
func (f *FakeMessageSender) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := make([]SentMessage, len(f.sent))
	copy(copied, f.sent)

	return copied
}

// SentTo returns how many messages went to the given recipient.
func (f *FakeMessageSender) SentTo(to string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, message := range f.sent {
		if message.To == to {
			count++
		}
	}

	return count
}
