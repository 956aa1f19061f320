package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Conn is the delivery channel the hub writes to. *websocket.Conn satisfies
// it; tests substitute an in-memory recorder.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub is the presence registry plus chat-room membership. It maps each user
// to at most one live connection (last registration wins) and each chat id
// to the set of connections that joined its room. Presence is best-effort
// delivery state, never authoritative for any business rule.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]Conn
	rooms       map[string]map[Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]Conn),
		rooms:       make(map[string]map[Conn]bool),
	}
}

// Register binds a live connection to a user. An existing binding is closed
// and overwritten.
func (h *Hub) Register(userID string, conn Conn) {
	h.mu.Lock()
	if existing, ok := h.connections[userID]; ok && existing != conn {
		existing.Close()
		h.removeFromRoomsLocked(existing)
	}
	h.connections[userID] = conn
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("Connection registered")
}

// Unregister removes the user's binding, but only if it still points at
// conn. A stale disconnect racing a newer registration must not evict the
// newer binding.
func (h *Hub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	if current, ok := h.connections[userID]; ok && current == conn {
		delete(h.connections, userID)
	}
	h.removeFromRoomsLocked(conn)
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("Connection unregistered")
}

// Resolve returns the user's live connection, if any.
func (h *Hub) Resolve(userID string) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.connections[userID]
	return conn, ok
}

// IsOnline checks if a user has a live connection.
func (h *Hub) IsOnline(userID string) bool {
	_, ok := h.Resolve(userID)
	return ok
}

// JoinRoom adds a connection to a chat room.
func (h *Hub) JoinRoom(chatID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[Conn]bool)
	}
	h.rooms[chatID][conn] = true
}

// LeaveRoom removes a connection from a chat room.
func (h *Hub) LeaveRoom(chatID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

func (h *Hub) removeFromRoomsLocked(conn Conn) {
	for chatID, conns := range h.rooms {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// SendToUser delivers an event to a user's connection. Returns an error if
// the user has no connection or the write fails; a failed write evicts the
// connection.
func (h *Hub) SendToUser(userID string, event Event) error {
	conn, ok := h.Resolve(userID)
	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID, conn)
		conn.Close()
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

// BroadcastToRoom delivers an event to every connection in a chat room.
// Failed writes close and evict the connection.
func (h *Hub) BroadcastToRoom(chatID string, event Event) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.rooms[chatID]))
	for conn := range h.rooms[chatID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("chat_id", chatID).Msg("Failed to marshal room event")
		return
	}

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("chat_id", chatID).Msg("Room write failed, evicting connection")
			conn.Close()
			h.LeaveRoom(chatID, conn)
		}
	}
}

// RoomSize returns the number of connections joined to a chat room.
func (h *Hub) RoomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}
