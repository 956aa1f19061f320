package handlers

import (
	"encoding/json"
	"net/http"

	"pixchat-backend/internal/middleware"
	"pixchat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles chat and message HTTP requests.
type ChatHandler struct {
	chatService *services.ChatService
	dispatcher  *services.Dispatcher
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService, dispatcher *services.Dispatcher) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		dispatcher:  dispatcher,
	}
}

// AccessChatBody is the body of POST /chat/access.
type AccessChatBody struct {
	UserID string `json:"userId"`
}

// ReactBody is the body of PATCH /chat/message/react/{messageId}.
type ReactBody struct {
	Emoji string `json:"emoji"`
}

// Access handles POST /api/v1/chat/access
func (h *ChatHandler) Access(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var body AccessChatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	chat, err := h.chatService.AccessChat(r.Context(), userID, body.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("other_id", body.UserID).Msg("Chat access failed")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"chat": chat})
}

// SendMessage handles POST /api/v1/chat/message/send (multipart: chatId, image, caption)
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	image, contentType, err := readImageFile(r, "image")
	if err != nil {
		respondError(w, "image file is required", http.StatusBadRequest)
		return
	}
	chatID := r.FormValue("chatId")
	caption := r.FormValue("caption")

	msg, err := h.chatService.SendMessage(r.Context(), userID, chatID, caption, image, contentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("chat_id", chatID).Msg("Send message failed")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("chat_id", chatID).Str("message_id", msg.ID).Msg("Message sent")
	h.dispatcher.MessagePosted(msg)

	respondJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

// ListMessages handles GET /api/v1/chat/message/{chatId}
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	chatID := chi.URLParam(r, "chatId")

	messages, err := h.chatService.ListMessages(r.Context(), userID, chatID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// React handles PATCH /api/v1/chat/message/react/{messageId}
func (h *ChatHandler) React(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := chi.URLParam(r, "messageId")

	var body ReactBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.chatService.React(r.Context(), userID, messageID, body.Emoji)
	if err != nil {
		respondAppError(w, err)
		return
	}

	h.dispatcher.MessageReacted(msg)
	respondJSON(w, http.StatusOK, map[string]any{"message": msg})
}

// DeleteMessage handles DELETE /api/v1/chat/message/delete-message/{messageId}
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID := chi.URLParam(r, "messageId")

	msg, err := h.chatService.DeleteMessage(r.Context(), userID, messageID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("message_id", messageID).Msg("Delete message failed")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("message_id", messageID).Msg("Message deleted")
	h.dispatcher.MessageDeleted(msg.ID, msg.ChatID)

	respondJSON(w, http.StatusOK, map[string]any{"message": msg})
}

// Recent handles GET /api/v1/chat/recent
func (h *ChatHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	chats, err := h.chatService.RecentChats(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"chats": chats})
}
