package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixchat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for messages and reactions
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, image_url, image_id, caption, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.ChatID, msg.SenderID, msg.ImageURL, msg.ImageID, msg.Caption, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID retrieves a message with its reactions and sender profile.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `
		SELECT m.id, m.chat_id, m.sender_id, m.image_url, m.image_id, m.caption, m.created_at,
		       u.username, u.profile_image_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id = $1
	`
	var msg models.Message
	var senderName, senderImage string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ChatID, &msg.SenderID, &msg.ImageURL, &msg.ImageID, &msg.Caption, &msg.CreatedAt,
		&senderName, &senderImage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	msg.Sender = &models.Profile{ID: msg.SenderID, Username: senderName, ProfileImageURL: senderImage}

	if err := r.loadReactions(ctx, map[string]*models.Message{msg.ID: &msg}); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByChat returns a chat's messages in ascending time order, each with
// its sender profile and reaction list.
func (r *MessageRepository) ListByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.chat_id, m.sender_id, m.image_url, m.image_id, m.caption, m.created_at,
		       u.username, u.profile_image_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	byID := map[string]*models.Message{}
	for rows.Next() {
		var msg models.Message
		var senderName, senderImage string
		err := rows.Scan(
			&msg.ID, &msg.ChatID, &msg.SenderID, &msg.ImageURL, &msg.ImageID, &msg.Caption, &msg.CreatedAt,
			&senderName, &senderImage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Sender = &models.Profile{ID: msg.SenderID, Username: senderName, ProfileImageURL: senderImage}
		messages = append(messages, &msg)
		byID[msg.ID] = &msg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	if err := r.loadReactions(ctx, byID); err != nil {
		return nil, err
	}
	return messages, nil
}

// loadReactions attaches reaction lists, ordered by reaction time, to the
// given messages.
func (r *MessageRepository) loadReactions(ctx context.Context, byID map[string]*models.Message) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id, msg := range byID {
		ids = append(ids, id)
		msg.Reactions = []models.Reaction{}
	}

	query := `
		SELECT message_id, reactor_id, emoji
		FROM reactions
		WHERE message_id = ANY($1)
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID string
		var reaction models.Reaction
		if err := rows.Scan(&messageID, &reaction.ReactorID, &reaction.Emoji); err != nil {
			return fmt.Errorf("failed to scan reaction: %w", err)
		}
		if msg, ok := byID[messageID]; ok {
			msg.Reactions = append(msg.Reactions, reaction)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating reactions: %w", err)
	}
	return nil
}

// UpsertReaction inserts or replaces the reactor's emoji on a message.
// Last write wins per reactor.
func (r *MessageRepository) UpsertReaction(ctx context.Context, messageID, reactorID, emoji string) error {
	query := `
		INSERT INTO reactions (message_id, reactor_id, emoji, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id, reactor_id) DO UPDATE SET emoji = EXCLUDED.emoji
	`
	_, err := r.db.Exec(ctx, query, messageID, reactorID, emoji, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert reaction: %w", err)
	}
	return nil
}

// Delete removes a message and its reactions.
func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM reactions WHERE message_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete reactions: %w", err)
	}
	result, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// LatestForChat returns the newest message of a chat, or ErrNoRows when the
// chat has none.
func (r *MessageRepository) LatestForChat(ctx context.Context, chatID string) (*models.Message, error) {
	query := `
		SELECT m.id, m.chat_id, m.sender_id, m.image_url, m.image_id, m.caption, m.created_at,
		       u.username, u.profile_image_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at DESC
		LIMIT 1
	`
	var msg models.Message
	var senderName, senderImage string
	err := r.db.QueryRow(ctx, query, chatID).Scan(
		&msg.ID, &msg.ChatID, &msg.SenderID, &msg.ImageURL, &msg.ImageID, &msg.Caption, &msg.CreatedAt,
		&senderName, &senderImage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get latest message: %w", err)
	}
	msg.Sender = &models.Profile{ID: msg.SenderID, Username: senderName, ProfileImageURL: senderImage}
	return &msg, nil
}
