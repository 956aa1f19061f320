package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pixchat-backend/internal/middleware"
	"pixchat-backend/internal/mocks"
	"pixchat-backend/internal/models"
	"pixchat-backend/internal/repository"
	"pixchat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type relationsHandlerFixture struct {
	handler   *RelationsHandler
	users     *mocks.UserStoreMock
	relations *mocks.RelationStoreMock
	router    *chi.Mux
}

func newRelationsHandlerFixture(userID string) *relationsHandlerFixture {
	users := &mocks.UserStoreMock{}
	relations := &mocks.RelationStoreMock{}
	svc := services.NewRelationService(users, relations)
	dispatcher := services.NewDispatcher(services.NewHub())
	handler := NewRelationsHandler(svc, dispatcher)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), userID)))
		})
	})
	router.Get("/relations/all", handler.All)
	router.Get("/relations/friends", handler.Friends)
	router.Get("/relations/pending-requests", handler.PendingRequests)
	router.Post("/relations/send-request", handler.SendRequest)
	router.Post("/relations/accept-request", handler.AcceptRequest)
	router.Post("/relations/reject-request", handler.RejectRequest)
	router.Delete("/relations/remove/{friendId}", handler.RemoveFriend)

	return &relationsHandlerFixture{
		handler:   handler,
		users:     users,
		relations: relations,
		router:    router,
	}
}

func (f *relationsHandlerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func userRecord(id string) *models.User {
	return &models.User{ID: id, Username: id}
}

func TestSendRequestHandler(t *testing.T) {
	f := newRelationsHandlerFixture("alice")
	f.users.On("GetByID", mock.Anything, "bob").Return(userRecord("bob"), nil)
	f.users.On("GetByID", mock.Anything, "alice").Return(userRecord("alice"), nil)
	f.relations.On("Exists", mock.Anything, "alice", "bob", models.RelationFriend).Return(false, nil)
	f.relations.On("Exists", mock.Anything, "alice", "bob", models.RelationSent).Return(false, nil)
	f.relations.On("Exists", mock.Anything, "alice", "bob", models.RelationPending).Return(false, nil)
	f.relations.On("Add", mock.Anything, "alice", "bob", models.RelationSent).Return(nil)
	f.relations.On("Add", mock.Anything, "bob", "alice", models.RelationPending).Return(nil)

	rec := f.do(t, http.MethodPost, "/relations/send-request", SendRequestBody{FriendID: "bob"})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["message"], "bob")
	f.relations.AssertExpectations(t)
}

func TestSendRequestHandlerInvalidBody(t *testing.T) {
	f := newRelationsHandlerFixture("alice")

	req := httptest.NewRequest(http.MethodPost, "/relations/send-request", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendRequestHandlerUnknownTarget(t *testing.T) {
	f := newRelationsHandlerFixture("alice")
	f.users.On("GetByID", mock.Anything, "ghost").Return(nil, repository.ErrNoRows)

	rec := f.do(t, http.MethodPost, "/relations/send-request", SendRequestBody{FriendID: "ghost"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Kind)
}

func TestSendRequestHandlerAlreadyFriends(t *testing.T) {
	f := newRelationsHandlerFixture("alice")
	f.users.On("GetByID", mock.Anything, "bob").Return(userRecord("bob"), nil)
	f.users.On("GetByID", mock.Anything, "alice").Return(userRecord("alice"), nil)
	f.relations.On("Exists", mock.Anything, "alice", "bob", models.RelationFriend).Return(true, nil)

	rec := f.do(t, http.MethodPost, "/relations/send-request", SendRequestBody{FriendID: "bob"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	f.relations.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptRequestHandler(t *testing.T) {
	f := newRelationsHandlerFixture("bob")
	f.users.On("GetByID", mock.Anything, "alice").Return(userRecord("alice"), nil)
	f.users.On("GetByID", mock.Anything, "bob").Return(userRecord("bob"), nil)
	f.relations.On("Exists", mock.Anything, "bob", "alice", models.RelationFriend).Return(false, nil)
	f.relations.On("Remove", mock.Anything, "bob", "alice", models.RelationPending).Return(nil)
	f.relations.On("Remove", mock.Anything, "alice", "bob", models.RelationSent).Return(nil)
	f.relations.On("Add", mock.Anything, "bob", "alice", models.RelationFriend).Return(nil)
	f.relations.On("Add", mock.Anything, "alice", "bob", models.RelationFriend).Return(nil)

	rec := f.do(t, http.MethodPost, "/relations/accept-request", RequesterBody{RequesterID: "alice"})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message string         `json:"message"`
		Friend  models.Profile `json:"friend"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Friend.ID)
	f.relations.AssertExpectations(t)
}

func TestRejectRequestHandler(t *testing.T) {
	f := newRelationsHandlerFixture("bob")
	f.users.On("GetByID", mock.Anything, "alice").Return(userRecord("alice"), nil)
	f.users.On("GetByID", mock.Anything, "bob").Return(userRecord("bob"), nil)
	f.relations.On("Remove", mock.Anything, "bob", "alice", models.RelationPending).Return(nil)
	f.relations.On("Remove", mock.Anything, "alice", "bob", models.RelationSent).Return(nil)

	rec := f.do(t, http.MethodPost, "/relations/reject-request", RequesterBody{RequesterID: "alice"})

	assert.Equal(t, http.StatusOK, rec.Code)
	f.relations.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveFriendHandler(t *testing.T) {
	f := newRelationsHandlerFixture("alice")
	f.users.On("GetByID", mock.Anything, "bob").Return(userRecord("bob"), nil)
	f.users.On("GetByID", mock.Anything, "alice").Return(userRecord("alice"), nil)
	f.relations.On("Exists", mock.Anything, "alice", "bob", models.RelationFriend).Return(true, nil)
	f.relations.On("Remove", mock.Anything, "alice", "bob", models.RelationFriend).Return(nil)
	f.relations.On("Remove", mock.Anything, "bob", "alice", models.RelationFriend).Return(nil)

	rec := f.do(t, http.MethodDelete, "/relations/remove/bob", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	f.relations.AssertExpectations(t)
}

func TestRemoveFriendHandlerNotFriends(t *testing.T) {
	f := newRelationsHandlerFixture("alice")
	f.users.On("GetByID", mock.Anything, "bob").Return(userRecord("bob"), nil)
	f.users.On("GetByID", mock.Anything, "alice").Return(userRecord("alice"), nil)
	f.relations.On("Exists", mock.Anything, "alice", "bob", models.RelationFriend).Return(false, nil)

	rec := f.do(t, http.MethodDelete, "/relations/remove/bob", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	f.relations.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFriendsHandler(t *testing.T) {
	f := newRelationsHandlerFixture("alice")
	friends := []models.Profile{{ID: "bob", Username: "bob"}}
	f.relations.On("ListProfiles", mock.Anything, "alice", models.RelationFriend).Return(friends, nil)

	rec := f.do(t, http.MethodGet, "/relations/friends", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Friends []models.Profile `json:"friends"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Friends, 1)
	assert.Equal(t, "bob", resp.Friends[0].ID)
}

func TestAllHandler(t *testing.T) {
	f := newRelationsHandlerFixture("alice")
	f.relations.On("ListProfiles", mock.Anything, "alice", models.RelationFriend).Return([]models.Profile{{ID: "bob"}}, nil)
	f.relations.On("ListProfiles", mock.Anything, "alice", models.RelationSent).Return([]models.Profile{}, nil)
	f.relations.On("ListProfiles", mock.Anything, "alice", models.RelationPending).Return([]models.Profile{{ID: "carol"}}, nil)

	rec := f.do(t, http.MethodGet, "/relations/all", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp models.Relations
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Friends, 1)
	assert.Empty(t, resp.SentRequests)
	require.Len(t, resp.PendingRequests, 1)
}
