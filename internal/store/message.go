package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

// MessageRepository handles persistence for conversations and messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func normalizePair(a, b int) (low, high int) {
	if a < b {
		return a, b
	}
	return b, a
}

func scanConversation(row interface{ Scan(...any) error }) (types.Conversation, error) {
	var conversation types.Conversation
	err := row.Scan(
		&conversation.ID,
		&conversation.UserLowID,
		&conversation.UserHighID,
		&conversation.CreatedAt,
		&conversation.LastMessageAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Conversation{}, ErrNotFound
		}
		return types.Conversation{}, err
	}
	return conversation, nil
}

func (r *MessageRepository) GetConversation(ctx context.Context, id int64) (types.Conversation, error) {
	const query = `
		SELECT id, user_low_id, user_high_id, created_at, last_message_at
		FROM conversations
		WHERE id = $1`
	return scanConversation(r.db.QueryRowContext(ctx, query, id))
}

func (r *MessageRepository) GetConversationBetween(ctx context.Context, userA, userB int) (types.Conversation, error) {
	low, high := normalizePair(userA, userB)
	const query = `
		SELECT id, user_low_id, user_high_id, created_at, last_message_at
		FROM conversations
		WHERE user_low_id = $1 AND user_high_id = $2`
	return scanConversation(r.db.QueryRowContext(ctx, query, low, high))
}

func (r *MessageRepository) CreateConversation(ctx context.Context, userA, userB int) (types.Conversation, error) {
	low, high := normalizePair(userA, userB)
	now := time.Now()

	const query = `
		INSERT INTO conversations (user_low_id, user_high_id, created_at, last_message_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id`
	conversation := types.Conversation{
		UserLowID:     low,
		UserHighID:    high,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	if err := r.db.QueryRowContext(ctx, query, low, high, now).Scan(&conversation.ID); err != nil {
		return types.Conversation{}, err
	}
	return conversation, nil
}

// ListConversations returns a user's threads, most recently active first.
func (r *MessageRepository) ListConversations(ctx context.Context, userID int) ([]types.Conversation, error) {
	const query = `
		SELECT id, user_low_id, user_high_id, created_at, last_message_at
		FROM conversations
		WHERE user_low_id = $1 OR user_high_id = $1
		ORDER BY last_message_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []types.Conversation
	for rows.Next() {
		conversation, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	return conversations, rows.Err()
}

func (r *MessageRepository) ListMessages(ctx context.Context, conversationID int64, offset, limit int) ([]types.Message, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 50
	}

	const countQuery = `SELECT COUNT(1) FROM messages WHERE conversation_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, conversation_id, sender_id, body, created_at, read_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, conversationID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]types.Message, 0, limit)
	for rows.Next() {
		var message types.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.Body,
			&message.CreatedAt,
			&message.ReadAt,
		); err != nil {
			return nil, 0, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// CreateMessage appends a message and bumps the thread's activity
// timestamp.
func (r *MessageRepository) CreateMessage(ctx context.Context, message types.Message) (types.Message, error) {
	message.CreatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Message{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertQuery = `
		INSERT INTO messages (conversation_id, sender_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insertQuery,
		message.ConversationID,
		message.SenderID,
		message.Body,
		message.CreatedAt,
	).Scan(&message.ID); err != nil {
		return types.Message{}, err
	}

	const touchQuery = `
		UPDATE conversations
		SET last_message_at = $1
		WHERE id = $2`
	if _, err := tx.ExecContext(ctx, touchQuery, message.CreatedAt, message.ConversationID); err != nil {
		return types.Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Message{}, err
	}
	return message, nil
}

// MarkRead stamps all of the counterpart's unread messages in the thread.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID int64, readerID int) error {
	const query = `
		UPDATE messages
		SET read_at = $1
		WHERE conversation_id = $2 AND sender_id <> $3 AND read_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, time.Now(), conversationID, readerID)
	return err
}
