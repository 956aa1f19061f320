package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixchat-backend/internal/apperr"
	"pixchat-backend/internal/models"
	"pixchat-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ChatService is the chat access gate plus the message persistence glue.
// Chat access is derived solely from current friendship state: strangers
// cannot open a chat or exchange messages.
type ChatService struct {
	chats     ChatStore
	messages  MessageStore
	users     UserStore
	relations RelationStore
	images    ImageStore
}

// NewChatService creates a new chat service
func NewChatService(chats ChatStore, messages MessageStore, users UserStore, relations RelationStore, images ImageStore) *ChatService {
	return &ChatService{
		chats:     chats,
		messages:  messages,
		users:     users,
		relations: relations,
		images:    images,
	}
}

// AccessChat returns the chat between self and other, creating it lazily on
// first access. Fails unless the two are friends, so no chat can be created
// against an arbitrary user id.
func (s *ChatService) AccessChat(ctx context.Context, selfID, otherID string) (*models.Chat, error) {
	if otherID == "" {
		return nil, apperr.Invalid("user id is required")
	}
	if otherID == selfID {
		return nil, apperr.Invalid("cannot open a chat with yourself")
	}

	friends, err := s.relations.Exists(ctx, selfID, otherID, models.RelationFriend)
	if err != nil {
		return nil, apperr.Upstream("failed to check friendship", err)
	}
	if !friends {
		return nil, apperr.Forbidden("you can only chat with friends")
	}

	chat, err := s.chats.GetByPair(ctx, selfID, otherID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, repository.ErrNoRows) {
		return nil, apperr.Upstream("failed to look up chat", err)
	}

	a, b := selfID, otherID
	if a > b {
		a, b = b, a
	}
	chat = &models.Chat{
		ID:        uuid.New().String(),
		UserAID:   a,
		UserBID:   b,
		UpdatedAt: time.Now(),
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, apperr.Upstream("failed to create chat", err)
	}

	log.Info().
		Str("chat_id", chat.ID).
		Str("user_a_id", a).
		Str("user_b_id", b).
		Msg("Chat created")

	return chat, nil
}

// loadChatForParticipant fetches a chat and verifies membership.
func (s *ChatService) loadChatForParticipant(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, apperr.NotFound("chat not found")
		}
		return nil, apperr.Upstream("failed to load chat", err)
	}
	if !chat.HasParticipant(userID) {
		return nil, apperr.Forbidden("not a participant of this chat")
	}
	return chat, nil
}

// VerifyParticipant checks that userID may join the chat's delivery room.
func (s *ChatService) VerifyParticipant(ctx context.Context, chatID, userID string) error {
	_, err := s.loadChatForParticipant(ctx, chatID, userID)
	return err
}

// SendMessage uploads the image, persists the message, and advances the
// chat's latest-message pointer. Sending requires the participants to still
// be friends.
func (s *ChatService) SendMessage(ctx context.Context, senderID, chatID, caption string, image []byte, contentType string) (*models.Message, error) {
	if chatID == "" || len(image) == 0 {
		return nil, apperr.Invalid("chat id and image are required")
	}

	chat, err := s.loadChatForParticipant(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}

	friends, err := s.relations.Exists(ctx, senderID, chat.OtherParticipant(senderID), models.RelationFriend)
	if err != nil {
		return nil, apperr.Upstream("failed to check friendship", err)
	}
	if !friends {
		return nil, apperr.Forbidden("you can only message friends")
	}

	if contentType == "" {
		contentType = "image/jpeg"
	}

	messageID := uuid.New().String()
	key := fmt.Sprintf("chats/%s/%s", chatID, messageID)
	stored, err := s.images.Upload(ctx, key, image, contentType)
	if err != nil {
		return nil, apperr.Upstream("failed to upload image", err)
	}

	msg := &models.Message{
		ID:        messageID,
		ChatID:    chatID,
		SenderID:  senderID,
		ImageURL:  stored.URL,
		ImageID:   stored.Key,
		Caption:   caption,
		Reactions: []models.Reaction{},
		CreatedAt: time.Now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperr.Upstream("failed to persist message", err)
	}

	if err := s.chats.SetLatestMessage(ctx, chatID, &msg.ID); err != nil {
		log.Error().Err(err).Str("chat_id", chatID).Msg("Failed to advance latest-message pointer")
	}

	if sender, err := s.users.GetByID(ctx, senderID); err == nil {
		p := sender.Profile()
		msg.Sender = &p
	}

	return msg, nil
}

// ListMessages returns a chat's messages in ascending time order.
func (s *ChatService) ListMessages(ctx context.Context, selfID, chatID string) ([]*models.Message, error) {
	if _, err := s.loadChatForParticipant(ctx, chatID, selfID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, apperr.Upstream("failed to list messages", err)
	}
	return messages, nil
}

// React upserts the caller's emoji on a message: one reaction per reactor,
// last write wins. Returns the refreshed message.
func (s *ChatService) React(ctx context.Context, selfID, messageID, emoji string) (*models.Message, error) {
	if emoji == "" {
		return nil, apperr.Invalid("emoji is required")
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Upstream("failed to load message", err)
	}

	if _, err := s.loadChatForParticipant(ctx, msg.ChatID, selfID); err != nil {
		return nil, err
	}

	if err := s.messages.UpsertReaction(ctx, messageID, selfID, emoji); err != nil {
		return nil, apperr.Upstream("failed to record reaction", err)
	}

	updated, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, apperr.Upstream("failed to reload message", err)
	}
	return updated, nil
}

// DeleteMessage removes the caller's own message, releasing the external
// image first. If the chat's latest-message pointer referenced the deleted
// message it is rewound to the previous one.
func (s *ChatService) DeleteMessage(ctx context.Context, selfID, messageID string) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Upstream("failed to load message", err)
	}
	if msg.SenderID != selfID {
		return nil, apperr.Forbidden("you can only delete your own messages")
	}

	if msg.ImageID != "" {
		if err := s.images.Delete(ctx, msg.ImageID); err != nil {
			return nil, apperr.Upstream("failed to delete image", err)
		}
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return nil, apperr.Upstream("failed to delete message", err)
	}

	chat, err := s.chats.GetByID(ctx, msg.ChatID)
	if err == nil && chat.LatestMessageID != nil && *chat.LatestMessageID == messageID {
		var latestID *string
		if latest, err := s.messages.LatestForChat(ctx, msg.ChatID); err == nil {
			latestID = &latest.ID
		}
		if err := s.chats.SetLatestMessage(ctx, msg.ChatID, latestID); err != nil {
			log.Error().Err(err).Str("chat_id", msg.ChatID).Msg("Failed to rewind latest-message pointer")
		}
	}

	return msg, nil
}

// RecentChats returns, per friend, the chat's latest message summary in
// descending activity order.
func (s *ChatService) RecentChats(ctx context.Context, selfID string) ([]models.ChatSummary, error) {
	chats, err := s.chats.ListForUser(ctx, selfID)
	if err != nil {
		return nil, apperr.Upstream("failed to list chats", err)
	}

	otherIDs := make([]string, 0, len(chats))
	for _, chat := range chats {
		otherIDs = append(otherIDs, chat.OtherParticipant(selfID))
	}
	profiles, err := s.users.GetProfiles(ctx, otherIDs)
	if err != nil {
		return nil, apperr.Upstream("failed to resolve participants", err)
	}
	byID := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	summaries := []models.ChatSummary{}
	for _, chat := range chats {
		summary := models.ChatSummary{
			ChatID:    chat.ID,
			Friend:    byID[chat.OtherParticipant(selfID)],
			UpdatedAt: chat.UpdatedAt,
		}
		if chat.LatestMessageID != nil {
			if latest, err := s.messages.GetByID(ctx, *chat.LatestMessageID); err == nil {
				summary.LatestMessage = latest
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
