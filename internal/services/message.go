package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/internal/mq"
	"github.com/ilyasvvv/BridgeAZ-sub000/internal/store"
	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// ErrNotParticipant is returned when a user touches a conversation they
// are not part of.
var ErrNotParticipant = errors.New("not a conversation participant")

// ErrNotConnected is returned when messaging is attempted between users
// without an accepted relationship.
var ErrNotConnected = errors.New("users are not connected")

// MessageRepository defines persistence operations for direct messages.
type MessageRepository interface {
	GetConversation(ctx context.Context, id int64) (types.Conversation, error)
	GetConversationBetween(ctx context.Context, userA, userB int) (types.Conversation, error)
	CreateConversation(ctx context.Context, userA, userB int) (types.Conversation, error)
	ListConversations(ctx context.Context, userID int) ([]types.Conversation, error)
	ListMessages(ctx context.Context, conversationID int64, offset, limit int) ([]types.Message, int, error)
	CreateMessage(ctx context.Context, message types.Message) (types.Message, error)
	MarkRead(ctx context.Context, conversationID int64, readerID int) error
}

// ConnectionChecker is the slice of the connection store messaging needs.
type ConnectionChecker interface {
	AreConnected(ctx context.Context, userA, userB int) (bool, error)
}

// MessageService encapsulates direct messaging use-cases.
type MessageService struct {
	repo        MessageRepository
	connections ConnectionChecker
	events      *mq.MQ
}

// NewMessageService constructs the service. events may be nil, in which
// case no notification events are published.
func NewMessageService(repo MessageRepository, connections ConnectionChecker, events *mq.MQ) *MessageService {
	return &MessageService{repo: repo, connections: connections, events: events}
}

func (s *MessageService) ListConversations(ctx context.Context, userID int) ([]types.Conversation, error) {
	return s.repo.ListConversations(ctx, userID)
}

// ListMessages returns a page of a thread, newest first, and marks the
// counterpart's messages read for the requesting participant.
func (s *MessageService) ListMessages(ctx context.Context, userID int, conversationID int64, offset, limit int) ([]types.Message, int, error) {
	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if !conversation.Includes(userID) {
		return nil, 0, ErrNotParticipant
	}

	messages, total, err := s.repo.ListMessages(ctx, conversationID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	if err := s.repo.MarkRead(ctx, conversationID, userID); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// Send delivers a direct message to another member, opening the thread
// on first contact. Messaging requires an accepted relationship between
// the two users.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID int, body string) (types.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Message{}, errors.New("message body is required")
	}
	if senderID == recipientID {
		return types.Message{}, errors.New("cannot message yourself")
	}

	connected, err := s.connections.AreConnected(ctx, senderID, recipientID)
	if err != nil {
		return types.Message{}, err
	}
	if !connected {
		return types.Message{}, ErrNotConnected
	}

	conversation, err := s.repo.GetConversationBetween(ctx, senderID, recipientID)
	if errors.Is(err, store.ErrNotFound) {
		conversation, err = s.repo.CreateConversation(ctx, senderID, recipientID)
	}
	if err != nil {
		return types.Message{}, err
	}

	message, err := s.repo.CreateMessage(ctx, types.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Body:           body,
	})
	if err != nil {
		return types.Message{}, err
	}

	s.publishSent(ctx, message, recipientID)
	return message, nil
}

// publishSent emits the notification event. Publishing is best effort:
// the message is already persisted, so a broker failure only costs the
// notification.
func (s *MessageService) publishSent(ctx context.Context, message types.Message, recipientID int) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(mq.MessageSentEvent{
		MessageID:      message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		RecipientID:    recipientID,
		SentAt:         message.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if _, err := s.events.Publish(ctx, mq.TopicMessageSent, payload, nil); err != nil {
		slog.Warn("failed to publish message event", "message_id", message.ID, "error", err)
	}
}
