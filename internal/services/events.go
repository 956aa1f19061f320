package services

import "pixchat-backend/internal/models"

// Event types delivered over the real-time channel.
const (
	EventFriendRequestReceived  = "friend_request_received"
	EventFriendRequestSent      = "friend_request_sent"
	EventRequestAccepted        = "request_accepted"
	EventFriendAdded            = "friend_added"
	EventFriendRequestRejected  = "friend_request_rejected"
	EventRequestRejectedSuccess = "request_rejected_success"
	EventFriendRemoved          = "friend_removed"
	EventNewMessage             = "new_message"
	EventMessageReacted         = "message_reacted"
	EventMessageDeleted         = "message_deleted"
	EventError                  = "error"
)

// Event is the wire envelope for one server-to-client event. Data holds a
// typed payload; the constructor set below is the closed list of events the
// server emits.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ProfilePayload carries the counterpart's profile for relation events.
type ProfilePayload struct {
	User models.Profile `json:"user"`
}

// MessagePayload carries a full message for new_message / message_reacted.
type MessagePayload struct {
	Message *models.Message `json:"message"`
}

// DeletionPayload identifies a removed message for message_deleted.
type DeletionPayload struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
}

// ErrorPayload carries an error message back over the socket.
type ErrorPayload struct {
	Message string `json:"message"`
}

func FriendRequestReceived(from models.Profile) Event {
	return Event{Type: EventFriendRequestReceived, Data: ProfilePayload{User: from}}
}

func FriendRequestSent(to models.Profile) Event {
	return Event{Type: EventFriendRequestSent, Data: ProfilePayload{User: to}}
}

func RequestAccepted(by models.Profile) Event {
	return Event{Type: EventRequestAccepted, Data: ProfilePayload{User: by}}
}

func FriendAdded(friend models.Profile) Event {
	return Event{Type: EventFriendAdded, Data: ProfilePayload{User: friend}}
}

func FriendRequestRejected(by models.Profile) Event {
	return Event{Type: EventFriendRequestRejected, Data: ProfilePayload{User: by}}
}

func RequestRejectedSuccess(rejected models.Profile) Event {
	return Event{Type: EventRequestRejectedSuccess, Data: ProfilePayload{User: rejected}}
}

func FriendRemoved(p models.Profile) Event {
	return Event{Type: EventFriendRemoved, Data: ProfilePayload{User: p}}
}

func NewMessage(msg *models.Message) Event {
	return Event{Type: EventNewMessage, Data: MessagePayload{Message: msg}}
}

func MessageReacted(msg *models.Message) Event {
	return Event{Type: EventMessageReacted, Data: MessagePayload{Message: msg}}
}

func MessageDeleted(messageID, chatID string) Event {
	return Event{Type: EventMessageDeleted, Data: DeletionPayload{MessageID: messageID, ChatID: chatID}}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Data: ErrorPayload{Message: message}}
}
