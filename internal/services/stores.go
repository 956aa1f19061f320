package services

import (
	"context"

	"pixchat-backend/internal/models"
	"pixchat-backend/internal/storage"
)

// UserStore is the identity-store surface the services consume. Implemented
// by repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query, excludeID string, limit int) ([]models.Profile, error)
	GetProfiles(ctx context.Context, ids []string) ([]models.Profile, error)
}

// RelationStore holds the per-owner relation sets. Implemented by
// repository.RelationRepository.
type RelationStore interface {
	Add(ctx context.Context, ownerID, otherID string, kind models.RelationKind) error
	Remove(ctx context.Context, ownerID, otherID string, kind models.RelationKind) error
	Exists(ctx context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error)
	ListIDs(ctx context.Context, ownerID string, kind models.RelationKind) ([]string, error)
	ListProfiles(ctx context.Context, ownerID string, kind models.RelationKind) ([]models.Profile, error)
}

// ChatStore persists 1:1 chat containers. Implemented by
// repository.ChatRepository.
type ChatStore interface {
	Create(ctx context.Context, chat *models.Chat) error
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	GetByPair(ctx context.Context, userID, otherID string) (*models.Chat, error)
	SetLatestMessage(ctx context.Context, chatID string, messageID *string) error
	ListForUser(ctx context.Context, userID string) ([]*models.Chat, error)
}

// MessageStore persists messages and reactions. Implemented by
// repository.MessageRepository.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByChat(ctx context.Context, chatID string) ([]*models.Message, error)
	UpsertReaction(ctx context.Context, messageID, reactorID, emoji string) error
	Delete(ctx context.Context, id string) error
	LatestForChat(ctx context.Context, chatID string) (*models.Message, error)
}

// ImageStore is the external object-storage collaborator. Implemented by
// storage.ImageStore.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (*storage.StoredImage, error)
	Delete(ctx context.Context, key string) error
}
