package repository

import (
	"context"
	"errors"
	"fmt"

	"pixchat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository handles database operations for chats
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create creates a new chat
func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	query := `
		INSERT INTO chats (id, user_a_id, user_b_id, latest_message_id, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		chat.ID, chat.UserAID, chat.UserBID, chat.LatestMessageID, chat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

// GetByID retrieves a chat by ID
func (r *ChatRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	query := `
		SELECT id, user_a_id, user_b_id, latest_message_id, updated_at
		FROM chats
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByPair retrieves the chat for an unordered participant pair. The pair
// is stored normalized (user_a_id < user_b_id), so callers may pass the two
// ids in any order.
func (r *ChatRepository) GetByPair(ctx context.Context, userID, otherID string) (*models.Chat, error) {
	if userID > otherID {
		userID, otherID = otherID, userID
	}
	query := `
		SELECT id, user_a_id, user_b_id, latest_message_id, updated_at
		FROM chats
		WHERE user_a_id = $1 AND user_b_id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userID, otherID))
}

func (r *ChatRepository) scanOne(row pgx.Row) (*models.Chat, error) {
	var chat models.Chat
	err := row.Scan(
		&chat.ID, &chat.UserAID, &chat.UserBID, &chat.LatestMessageID, &chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

// SetLatestMessage updates the latest-message pointer and activity timestamp.
// A nil messageID clears the pointer (used when the latest message is deleted).
func (r *ChatRepository) SetLatestMessage(ctx context.Context, chatID string, messageID *string) error {
	query := `UPDATE chats SET latest_message_id = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, messageID, chatID)
	if err != nil {
		return fmt.Errorf("failed to update latest message: %w", err)
	}
	return nil
}

// ListForUser returns all chats the user participates in, most recently
// active first.
func (r *ChatRepository) ListForUser(ctx context.Context, userID string) ([]*models.Chat, error) {
	query := `
		SELECT id, user_a_id, user_b_id, latest_message_id, updated_at
		FROM chats
		WHERE user_a_id = $1 OR user_b_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := []*models.Chat{}
	for rows.Next() {
		var chat models.Chat
		err := rows.Scan(&chat.ID, &chat.UserAID, &chat.UserBID, &chat.LatestMessageID, &chat.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, &chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}
	return chats, nil
}
