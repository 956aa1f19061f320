package mocks

import (
	"context"

	"pixchat-backend/internal/models"
	"pixchat-backend/internal/repository"
	"pixchat-backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

type UserStoreMock struct {
	mock.Mock
}

func (m *UserStoreMock) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStoreMock) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserStoreMock) GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	args := m.Called(ctx, usernameOrEmail)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *UserStoreMock) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *UserStoreMock) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *UserStoreMock) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStoreMock) Search(ctx context.Context, query, excludeID string, limit int) ([]models.Profile, error) {
	args := m.Called(ctx, query, excludeID, limit)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *UserStoreMock) GetProfiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	args := m.Called(ctx, ids)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

type RelationStoreMock struct {
	mock.Mock
}

func (m *RelationStoreMock) Add(ctx context.Context, ownerID, otherID string, kind models.RelationKind) error {
	args := m.Called(ctx, ownerID, otherID, kind)
	return args.Error(0)
}

func (m *RelationStoreMock) Remove(ctx context.Context, ownerID, otherID string, kind models.RelationKind) error {
	args := m.Called(ctx, ownerID, otherID, kind)
	return args.Error(0)
}

func (m *RelationStoreMock) Exists(ctx context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error) {
	args := m.Called(ctx, ownerID, otherID, kind)
	return args.Bool(0), args.Error(1)
}

func (m *RelationStoreMock) ListIDs(ctx context.Context, ownerID string, kind models.RelationKind) ([]string, error) {
	args := m.Called(ctx, ownerID, kind)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *RelationStoreMock) ListProfiles(ctx context.Context, ownerID string, kind models.RelationKind) ([]models.Profile, error) {
	args := m.Called(ctx, ownerID, kind)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *RelationStoreMock) FindAsymmetricFriendEdges(ctx context.Context, limit int) ([]repository.Edge, error) {
	args := m.Called(ctx, limit)
	var edges []repository.Edge
	if val := args.Get(0); val != nil {
		edges = val.([]repository.Edge)
	}
	return edges, args.Error(1)
}

func (m *RelationStoreMock) FindDanglingSentEdges(ctx context.Context, limit int) ([]repository.Edge, error) {
	args := m.Called(ctx, limit)
	var edges []repository.Edge
	if val := args.Get(0); val != nil {
		edges = val.([]repository.Edge)
	}
	return edges, args.Error(1)
}

func (m *RelationStoreMock) FindDanglingPendingEdges(ctx context.Context, limit int) ([]repository.Edge, error) {
	args := m.Called(ctx, limit)
	var edges []repository.Edge
	if val := args.Get(0); val != nil {
		edges = val.([]repository.Edge)
	}
	return edges, args.Error(1)
}

type ChatStoreMock struct {
	mock.Mock
}

func (m *ChatStoreMock) Create(ctx context.Context, chat *models.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *ChatStoreMock) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	args := m.Called(ctx, id)
	var chat *models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(*models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatStoreMock) GetByPair(ctx context.Context, userID, otherID string) (*models.Chat, error) {
	args := m.Called(ctx, userID, otherID)
	var chat *models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(*models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatStoreMock) SetLatestMessage(ctx context.Context, chatID string, messageID *string) error {
	args := m.Called(ctx, chatID, messageID)
	return args.Error(0)
}

func (m *ChatStoreMock) ListForUser(ctx context.Context, userID string) ([]*models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []*models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]*models.Chat)
	}
	return chats, args.Error(1)
}

type MessageStoreMock struct {
	mock.Mock
}

func (m *MessageStoreMock) Create(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageStoreMock) GetByID(ctx context.Context, id string) (*models.Message, error) {
	args := m.Called(ctx, id)
	var msg *models.Message
	if val := args.Get(0); val != nil {
		msg = val.(*models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageStoreMock) ListByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []*models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]*models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageStoreMock) UpsertReaction(ctx context.Context, messageID, reactorID, emoji string) error {
	args := m.Called(ctx, messageID, reactorID, emoji)
	return args.Error(0)
}

func (m *MessageStoreMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MessageStoreMock) LatestForChat(ctx context.Context, chatID string) (*models.Message, error) {
	args := m.Called(ctx, chatID)
	var msg *models.Message
	if val := args.Get(0); val != nil {
		msg = val.(*models.Message)
	}
	return msg, args.Error(1)
}

type ImageStoreMock struct {
	mock.Mock
}

func (m *ImageStoreMock) Upload(ctx context.Context, key string, data []byte, contentType string) (*storage.StoredImage, error) {
	args := m.Called(ctx, key, data, contentType)
	var stored *storage.StoredImage
	if val := args.Get(0); val != nil {
		stored = val.(*storage.StoredImage)
	}
	return stored, args.Error(1)
}

func (m *ImageStoreMock) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
