package types

import "time"

// Conversation represents a direct message thread between two users.
// The pair is stored normalized with UserLowID < UserHighID so that a
// thread between two members is unique regardless of who started it.
type Conversation struct {
	// ID is the unique identifier of the conversation.
	ID int64 `json:"id" db:"id"`

	// UserLowID is the smaller of the two participant ids.
	UserLowID int `json:"user_low_id" db:"user_low_id"`

	// UserHighID is the larger of the two participant ids.
	UserHighID int `json:"user_high_id" db:"user_high_id"`

	// CreatedAt is the timestamp when the thread was opened.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// LastMessageAt is the timestamp of the most recent message,
	// used to order the conversation list.
	LastMessageAt time.Time `json:"last_message_at" db:"last_message_at"`
}

// Includes reports whether the given user participates in the thread.
func (c Conversation) Includes(userID int) bool {
	return c.UserLowID == userID || c.UserHighID == userID
}

// Other returns the id of the participant that is not the given user.
func (c Conversation) Other(userID int) int {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

// Message represents a single direct message within a conversation.
type Message struct {
	// ID is the unique identifier of the message.
	ID int64 `json:"id" db:"id"`

	// ConversationID identifies the thread the message belongs to.
	ConversationID int64 `json:"conversation_id" db:"conversation_id"`

	// SenderID identifies the user who sent the message.
	SenderID int `json:"sender_id" db:"sender_id"`

	// Body is the text content of the message.
	Body string `json:"body" db:"body"`

	// CreatedAt is the timestamp when the message was sent.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// ReadAt is the timestamp when the recipient read the message,
	// nil while unread.
	ReadAt *time.Time `json:"read_at,omitempty" db:"read_at"`
}
