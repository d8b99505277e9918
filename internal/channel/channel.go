package channel

import (
	"context"
	"time"
)

type InboundMessage struct {
	ChannelID      string    `json:"channel_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

type OutboundMessage struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type Capabilities struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Typing           bool   `json:"typing"`
	MaxMessageLength int    `json:"max_message_length"`
}

// Channel is a chat transport the agent listens on.
type Channel interface {
	ID() string
	Capabilities() Capabilities
	Start(ctx context.Context, inbox chan<- InboundMessage) error
	Send(ctx context.Context, msg OutboundMessage) error
	Stop() error
}

// TypingIndicator is implemented by channels that can show "typing..." while
// a reply is being prepared.
type TypingIndicator interface {
	Typing(ctx context.Context, conversationID string) error
}

// splitMessage breaks text into chunks of at most max runes, preferring
// newline boundaries. max <= 0 disables splitting.
func splitMessage(text string, max int) []string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return []string{text}
	}
	var parts []string
	for len(runes) > max {
		cut := max
		for i := max - 1; i > max/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
