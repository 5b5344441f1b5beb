// Package message defines the inter-agent message envelope.
package message

import (
	"time"

	"github.com/google/uuid"
)

// Message is the envelope delivered to an agent's mailbox.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to,omitempty"` // empty for broadcasts
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// New builds a message envelope with a generated ID.
func New(from, to, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Content:   content,
		Timestamp: time.Now(),
	}
}
