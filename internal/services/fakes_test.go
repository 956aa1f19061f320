package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pixchat-backend/internal/models"
	"pixchat-backend/internal/repository"
	"pixchat-backend/internal/storage"
)

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	f := &fakeUserStore{users: map[string]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, repository.ErrNoRows
}

func (f *fakeUserStore) GetByUsernameOrEmail(_ context.Context, usernameOrEmail string) (*models.User, error) {
	q := strings.ToLower(usernameOrEmail)
	for _, u := range f.users {
		if u.Username == q || u.Email == q {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (f *fakeUserStore) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range f.users {
		if u.Username == strings.ToLower(username) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) Update(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repository.ErrNoRows
	}
	copy := *user
	f.users[user.ID] = &copy
	return nil
}

func (f *fakeUserStore) Search(_ context.Context, query, excludeID string, limit int) ([]models.Profile, error) {
	results := []models.Profile{}
	for _, u := range f.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(u.Username, strings.ToLower(query)) && len(results) < limit {
			results = append(results, u.Profile())
		}
	}
	return results, nil
}

func (f *fakeUserStore) GetProfiles(_ context.Context, ids []string) ([]models.Profile, error) {
	profiles := []models.Profile{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			profiles = append(profiles, u.Profile())
		}
	}
	return profiles, nil
}

type relKey struct {
	owner string
	other string
	kind  models.RelationKind
}

// fakeRelationStore is an in-memory RelationStore and ReconcileStore. An
// entry in failAdd makes the matching Add call fail once, to simulate a
// failed second write.
type fakeRelationStore struct {
	rows    map[relKey]bool
	order   []relKey
	users   *fakeUserStore
	failAdd map[relKey]bool
}

func newFakeRelationStore(users *fakeUserStore) *fakeRelationStore {
	return &fakeRelationStore{
		rows:    map[relKey]bool{},
		users:   users,
		failAdd: map[relKey]bool{},
	}
}

func (f *fakeRelationStore) Add(_ context.Context, ownerID, otherID string, kind models.RelationKind) error {
	key := relKey{ownerID, otherID, kind}
	if f.failAdd[key] {
		delete(f.failAdd, key)
		return fmt.Errorf("simulated write failure")
	}
	if !f.rows[key] {
		f.rows[key] = true
		f.order = append(f.order, key)
	}
	return nil
}

func (f *fakeRelationStore) Remove(_ context.Context, ownerID, otherID string, kind models.RelationKind) error {
	delete(f.rows, relKey{ownerID, otherID, kind})
	return nil
}

func (f *fakeRelationStore) Exists(_ context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error) {
	return f.rows[relKey{ownerID, otherID, kind}], nil
}

func (f *fakeRelationStore) ListIDs(_ context.Context, ownerID string, kind models.RelationKind) ([]string, error) {
	ids := []string{}
	for _, key := range f.order {
		if key.owner == ownerID && key.kind == kind && f.rows[key] {
			ids = append(ids, key.other)
		}
	}
	return ids, nil
}

func (f *fakeRelationStore) ListProfiles(ctx context.Context, ownerID string, kind models.RelationKind) ([]models.Profile, error) {
	ids, _ := f.ListIDs(ctx, ownerID, kind)
	return f.users.GetProfiles(ctx, ids)
}

func (f *fakeRelationStore) findWithoutMirror(kind, mirrorKind models.RelationKind, limit int) []repository.Edge {
	edges := []repository.Edge{}
	for _, key := range f.order {
		if key.kind != kind || !f.rows[key] {
			continue
		}
		if !f.rows[relKey{key.other, key.owner, mirrorKind}] && len(edges) < limit {
			edges = append(edges, repository.Edge{OwnerID: key.owner, OtherID: key.other, Kind: kind})
		}
	}
	return edges
}

func (f *fakeRelationStore) FindAsymmetricFriendEdges(_ context.Context, limit int) ([]repository.Edge, error) {
	return f.findWithoutMirror(models.RelationFriend, models.RelationFriend, limit), nil
}

func (f *fakeRelationStore) FindDanglingSentEdges(_ context.Context, limit int) ([]repository.Edge, error) {
	return f.findWithoutMirror(models.RelationSent, models.RelationPending, limit), nil
}

func (f *fakeRelationStore) FindDanglingPendingEdges(_ context.Context, limit int) ([]repository.Edge, error) {
	return f.findWithoutMirror(models.RelationPending, models.RelationSent, limit), nil
}

// fakeChatStore is an in-memory ChatStore.
type fakeChatStore struct {
	chats map[string]*models.Chat
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{chats: map[string]*models.Chat{}}
}

func (f *fakeChatStore) Create(_ context.Context, chat *models.Chat) error {
	copy := *chat
	f.chats[chat.ID] = &copy
	return nil
}

func (f *fakeChatStore) GetByID(_ context.Context, id string) (*models.Chat, error) {
	if c, ok := f.chats[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, repository.ErrNoRows
}

func (f *fakeChatStore) GetByPair(_ context.Context, userID, otherID string) (*models.Chat, error) {
	if userID > otherID {
		userID, otherID = otherID, userID
	}
	for _, c := range f.chats {
		if c.UserAID == userID && c.UserBID == otherID {
			copy := *c
			return &copy, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (f *fakeChatStore) SetLatestMessage(_ context.Context, chatID string, messageID *string) error {
	if c, ok := f.chats[chatID]; ok {
		c.LatestMessageID = messageID
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeChatStore) ListForUser(_ context.Context, userID string) ([]*models.Chat, error) {
	chats := []*models.Chat{}
	for _, c := range f.chats {
		if c.HasParticipant(userID) {
			copy := *c
			chats = append(chats, &copy)
		}
	}
	return chats, nil
}

// fakeMessageStore is an in-memory MessageStore with real upsert semantics.
type fakeMessageStore struct {
	messages map[string]*models.Message
	order    []string
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: map[string]*models.Message{}}
}

func (f *fakeMessageStore) Create(_ context.Context, msg *models.Message) error {
	copy := *msg
	f.messages[msg.ID] = &copy
	f.order = append(f.order, msg.ID)
	return nil
}

func (f *fakeMessageStore) GetByID(_ context.Context, id string) (*models.Message, error) {
	if m, ok := f.messages[id]; ok {
		copy := *m
		copy.Reactions = append([]models.Reaction{}, m.Reactions...)
		return &copy, nil
	}
	return nil, repository.ErrNoRows
}

func (f *fakeMessageStore) ListByChat(ctx context.Context, chatID string) ([]*models.Message, error) {
	msgs := []*models.Message{}
	for _, id := range f.order {
		if m, ok := f.messages[id]; ok && m.ChatID == chatID {
			copy, _ := f.GetByID(ctx, id)
			msgs = append(msgs, copy)
		}
	}
	return msgs, nil
}

func (f *fakeMessageStore) UpsertReaction(_ context.Context, messageID, reactorID, emoji string) error {
	m, ok := f.messages[messageID]
	if !ok {
		return repository.ErrNoRows
	}
	for i, r := range m.Reactions {
		if r.ReactorID == reactorID {
			m.Reactions[i].Emoji = emoji
			return nil
		}
	}
	m.Reactions = append(m.Reactions, models.Reaction{ReactorID: reactorID, Emoji: emoji})
	return nil
}

func (f *fakeMessageStore) Delete(_ context.Context, id string) error {
	if _, ok := f.messages[id]; !ok {
		return repository.ErrNoRows
	}
	delete(f.messages, id)
	return nil
}

func (f *fakeMessageStore) LatestForChat(_ context.Context, chatID string) (*models.Message, error) {
	for i := len(f.order) - 1; i >= 0; i-- {
		if m, ok := f.messages[f.order[i]]; ok && m.ChatID == chatID {
			copy := *m
			return &copy, nil
		}
	}
	return nil, repository.ErrNoRows
}

// fakeImageStore records uploads and deletions; failUpload makes the next
// upload fail.
type fakeImageStore struct {
	uploads    map[string][]byte
	deleted    []string
	failUpload bool
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{uploads: map[string][]byte{}}
}

func (f *fakeImageStore) Upload(_ context.Context, key string, data []byte, _ string) (*storage.StoredImage, error) {
	if f.failUpload {
		return nil, fmt.Errorf("simulated upload failure")
	}
	f.uploads[key] = data
	return &storage.StoredImage{URL: "https://img.test/" + key, Key: key}, nil
}

func (f *fakeImageStore) Delete(_ context.Context, key string) error {
	delete(f.uploads, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func profileFixture(id string) models.Profile {
	return models.Profile{ID: id, Username: id}
}

// fakeConn is an in-memory hub connection recording written frames.
type fakeConn struct {
	frames    [][]byte
	closed    bool
	failWrite bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.failWrite {
		return fmt.Errorf("simulated write failure")
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}
