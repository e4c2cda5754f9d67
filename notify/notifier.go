package notify

import (
	"context"
	"log"
)

// Message is one rendered notification addressed to a recipient.
type Message struct {
	To    string
	Body  string
	Event EventType
}

// Notifier delivers rendered messages.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, msg Message) error {
	log.Printf("Notification [%s] to %s: %s", msg.Event, msg.To, msg.Body)
	return nil
}
