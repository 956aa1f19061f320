package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"pixchat-backend/internal/models"
	"pixchat-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler owns the long-lived presence connection: it registers
// the client in the hub, then serves the inbound frame loop (room joins and
// the legacy client-driven relation relays).
type WebSocketHandler struct {
	hub         *services.Hub
	dispatcher  *services.Dispatcher
	userService *services.UserService
	chatService *services.ChatService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.Hub,
	dispatcher *services.Dispatcher,
	userService *services.UserService,
	chatService *services.ChatService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		dispatcher:  dispatcher,
		userService: userService,
		chatService: chatService,
	}
}

// clientFrame is one inbound JSON frame from the client.
type clientFrame struct {
	Type      string `json:"type"`
	ChatID    string `json:"chat_id"`
	To        string `json:"to"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket frame")
			h.sendError(conn, "Invalid message format")
			continue
		}

		if err := h.handleFrame(ctx, userID, conn, frame); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Str("type", frame.Type).Msg("Failed to handle frame")
			h.sendError(conn, err.Error())
		}
	}
}

// handleFrame processes one inbound frame.
func (h *WebSocketHandler) handleFrame(ctx context.Context, userID string, conn services.Conn, frame clientFrame) error {
	switch frame.Type {
	case "join_chat":
		if err := h.chatService.VerifyParticipant(ctx, frame.ChatID, userID); err != nil {
			return err
		}
		h.hub.JoinRoom(frame.ChatID, conn)
		return nil

	case "leave_chat":
		h.hub.LeaveRoom(frame.ChatID, conn)
		return nil

	case "react_message":
		msg, err := h.chatService.React(ctx, userID, frame.MessageID, frame.Emoji)
		if err != nil {
			return err
		}
		h.dispatcher.MessageReacted(msg)
		return nil

	// Legacy client-driven relation relays. The REST mutation has already
	// persisted the transition; these only forward the matching event to
	// the counterpart's channel.
	case "send_friend_request":
		return h.relay(ctx, userID, frame.To, services.FriendRequestReceived)
	case "accept_friend_request":
		return h.relay(ctx, userID, frame.To, services.RequestAccepted)
	case "removed_friend":
		return h.relay(ctx, userID, frame.To, services.FriendRemoved)

	default:
		h.sendError(conn, "Unknown message type")
		return nil
	}
}

// relay forwards a relation event carrying the sender's profile to the
// target's channel, best-effort.
func (h *WebSocketHandler) relay(ctx context.Context, fromID, toID string, event func(p models.Profile) services.Event) error {
	if toID == "" {
		return nil
	}
	from, err := h.userService.GetByID(ctx, fromID)
	if err != nil {
		return err
	}
	if err := h.hub.SendToUser(toID, event(from.Profile())); err != nil {
		log.Debug().Str("to", toID).Msg("Relay dropped, user not reachable")
	}
	return nil
}

// sendError sends an error event to the WebSocket connection
func (h *WebSocketHandler) sendError(conn services.Conn, message string) {
	data, _ := json.Marshal(services.ErrorEvent(message))
	conn.WriteMessage(websocket.TextMessage, data)
}
