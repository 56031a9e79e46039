package mq

import "context"

// Topics carrying platform notification events.
const (
	// TopicVerificationReviewed carries verification review decisions
	// for the notification consumer.
	TopicVerificationReviewed = "verification.reviewed"

	// TopicMessageSent carries direct message deliveries.
	TopicMessageSent = "message.sent"
)

// VerificationReviewedEvent is the JSON payload published on
// TopicVerificationReviewed.
type VerificationReviewedEvent struct {
	RequestID  int64  `json:"request_id"`
	UserID     int    `json:"user_id"`
	Track      string `json:"track"`
	Status     string `json:"status"`
	ReviewerID int    `json:"reviewer_id"`
	ReviewedAt string `json:"reviewed_at"`
}

// MessageSentEvent is the JSON payload published on TopicMessageSent.
type MessageSentEvent struct {
	MessageID      int64  `json:"message_id"`
	ConversationID int64  `json:"conversation_id"`
	SenderID       int    `json:"sender_id"`
	RecipientID    int    `json:"recipient_id"`
	SentAt         string `json:"sent_at"`
}

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
