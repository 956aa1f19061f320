package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"pixchat-backend/internal/middleware"
	"pixchat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// RelationsHandler exposes the relationship engine over HTTP. Mutations are
// persisted first; live notification is dispatched afterwards, best-effort,
// and never blocks or fails the response.
type RelationsHandler struct {
	relationService *services.RelationService
	dispatcher      *services.Dispatcher
}

// NewRelationsHandler creates a new relations handler
func NewRelationsHandler(relationService *services.RelationService, dispatcher *services.Dispatcher) *RelationsHandler {
	return &RelationsHandler{
		relationService: relationService,
		dispatcher:      dispatcher,
	}
}

// SendRequestBody is the body of POST /relations/send-request.
type SendRequestBody struct {
	FriendID string `json:"friendId"`
}

// RequesterBody is the body of accept-request and reject-request.
type RequesterBody struct {
	RequesterID string `json:"requesterId"`
}

// All handles GET /api/v1/relations/all
func (h *RelationsHandler) All(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	relations, err := h.relationService.ListRelations(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, relations)
}

// Friends handles GET /api/v1/relations/friends
func (h *RelationsHandler) Friends(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	friends, err := h.relationService.Friends(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

// PendingRequests handles GET /api/v1/relations/pending-requests
func (h *RelationsHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	pending, err := h.relationService.PendingRequests(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

// SendRequest handles POST /api/v1/relations/send-request
func (h *RelationsHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var body SendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.relationService.SendRequest(r.Context(), userID, body.FriendID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("friend_id", body.FriendID).Msg("Send request failed")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("friend_id", body.FriendID).Msg("Friend request sent")
	h.dispatcher.RequestSent(*result)

	respondJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Friend request sent to %s", result.Other.Username),
	})
}

// AcceptRequest handles POST /api/v1/relations/accept-request
func (h *RelationsHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var body RequesterBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.relationService.AcceptRequest(r.Context(), userID, body.RequesterID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("requester_id", body.RequesterID).Msg("Accept request failed")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("requester_id", body.RequesterID).Msg("Friend request accepted")
	h.dispatcher.RequestAccepted(*result)

	respondJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("You are now friends with %s", result.Other.Username),
		"friend":  result.Other,
	})
}

// RejectRequest handles POST /api/v1/relations/reject-request
func (h *RelationsHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var body RequesterBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.relationService.RejectRequest(r.Context(), userID, body.RequesterID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("requester_id", body.RequesterID).Msg("Friend request rejected")
	h.dispatcher.RequestRejected(*result)

	respondJSON(w, http.StatusOK, map[string]any{"message": "Friend request rejected"})
}

// RemoveFriend handles DELETE /api/v1/relations/remove/{friendId}
func (h *RelationsHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	friendID := chi.URLParam(r, "friendId")

	result, err := h.relationService.RemoveFriend(r.Context(), userID, friendID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("friend_id", friendID).Msg("Remove friend failed")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("friend_id", friendID).Msg("Friend removed")
	h.dispatcher.FriendRemoved(*result)

	respondJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Removed %s from friends", result.Other.Username),
	})
}
