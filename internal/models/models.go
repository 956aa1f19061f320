package models

import "time"

// User represents a registered user together with their relationship sets.
// PasswordHash is never serialized outward.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	ProfileImageURL string    `json:"profile_image,omitempty"`
	ProfileImageID  string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`

	Friends         []string `json:"friends,omitempty"`
	SentRequests    []string `json:"sent_requests,omitempty"`
	PendingRequests []string `json:"pending_requests,omitempty"`
}

// Profile is the lightweight user summary embedded in relation listings
// and real-time events.
type Profile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image,omitempty"`
}

// Profile returns the user's public summary.
func (u *User) Profile() Profile {
	return Profile{
		ID:              u.ID,
		Username:        u.Username,
		ProfileImageURL: u.ProfileImageURL,
	}
}

// RelationKind discriminates the rows of the relations table. Each user owns
// three id-sets: friends, requests they sent, requests they received.
type RelationKind string

const (
	RelationFriend  RelationKind = "friend"
	RelationSent    RelationKind = "sent"
	RelationPending RelationKind = "pending"
)

// Relations bundles a user's three resolved relation sets.
type Relations struct {
	Friends         []Profile `json:"friends"`
	SentRequests    []Profile `json:"sentRequests"`
	PendingRequests []Profile `json:"pendingRequests"`
}

// Chat is a 1:1 conversation container. UserAID is always the
// lexicographically smaller participant id.
type Chat struct {
	ID              string    `json:"id"`
	UserAID         string    `json:"user_a_id"`
	UserBID         string    `json:"user_b_id"`
	LatestMessageID *string   `json:"latest_message_id,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OtherParticipant returns the participant that is not userID.
func (c *Chat) OtherParticipant(userID string) string {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// Message is one chat entry: an image with an optional caption and a
// reaction list (at most one reaction per reactor).
type Message struct {
	ID        string     `json:"id"`
	ChatID    string     `json:"chat_id"`
	SenderID  string     `json:"sender_id"`
	Sender    *Profile   `json:"sender,omitempty"`
	ImageURL  string     `json:"image_url"`
	ImageID   string     `json:"-"`
	Caption   string     `json:"caption,omitempty"`
	Reactions []Reaction `json:"reactions"`
	CreatedAt time.Time  `json:"created_at"`
}

// Reaction is a single reactor's emoji on a message.
type Reaction struct {
	ReactorID string `json:"user_id"`
	Emoji     string `json:"emoji"`
}

// ChatSummary is one entry of the recent-chats listing: the friend on the
// other side of the chat plus its latest message.
type ChatSummary struct {
	ChatID        string    `json:"id"`
	Friend        Profile   `json:"friend"`
	LatestMessage *Message  `json:"latest_message,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}
