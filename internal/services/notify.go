package services

import (
	"pixchat-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Dispatcher maps relationship and message outcomes to live events. Delivery
// is fire-and-forget: an absent or broken peer connection is logged and
// dropped, never surfaced to the caller and never rolled back against state.
type Dispatcher struct {
	hub *Hub
}

// NewDispatcher creates a dispatcher on top of the hub.
func NewDispatcher(hub *Hub) *Dispatcher {
	return &Dispatcher{hub: hub}
}

// send delivers one event to one user, best-effort.
func (d *Dispatcher) send(userID string, event Event) {
	if err := d.hub.SendToUser(userID, event); err != nil {
		log.Debug().
			Str("user_id", userID).
			Str("event", event.Type).
			Msg("Event dropped, user not reachable")
	}
}

// RequestSent notifies the target of a new friend request and acknowledges
// the sender.
func (d *Dispatcher) RequestSent(res RelationResult) {
	d.send(res.Other.ID, FriendRequestReceived(res.Self))
	d.send(res.Self.ID, FriendRequestSent(res.Other))
}

// RequestAccepted notifies the original requester and confirms to the
// accepter.
func (d *Dispatcher) RequestAccepted(res RelationResult) {
	d.send(res.Other.ID, RequestAccepted(res.Self))
	d.send(res.Self.ID, FriendAdded(res.Other))
}

// RequestRejected notifies the original requester and confirms to the
// rejecter.
func (d *Dispatcher) RequestRejected(res RelationResult) {
	d.send(res.Other.ID, FriendRequestRejected(res.Self))
	d.send(res.Self.ID, RequestRejectedSuccess(res.Other))
}

// FriendRemoved notifies the removed friend, including the remover's
// identity, and confirms to the remover.
func (d *Dispatcher) FriendRemoved(res RelationResult) {
	d.send(res.Other.ID, FriendRemoved(res.Self))
	d.send(res.Self.ID, FriendRemoved(res.Other))
}

// MessagePosted fans a persisted message out to its chat room.
func (d *Dispatcher) MessagePosted(msg *models.Message) {
	d.hub.BroadcastToRoom(msg.ChatID, NewMessage(msg))
}

// MessageReacted fans an updated reaction list out to the chat room.
func (d *Dispatcher) MessageReacted(msg *models.Message) {
	d.hub.BroadcastToRoom(msg.ChatID, MessageReacted(msg))
}

// MessageDeleted fans a deletion out to the chat room.
func (d *Dispatcher) MessageDeleted(messageID, chatID string) {
	d.hub.BroadcastToRoom(chatID, MessageDeleted(messageID, chatID))
}
