package models

import (
	"strings"
	"time"
)

// PairKey builds the deterministic chat id for an unordered participant
// pair. Both participants always derive the same key, so concurrent
// get-or-create calls converge on a single document.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// LastMessage is the denormalized summary kept on the chat document.
type LastMessage struct {
	Text      string    `json:"text" bson:"text"`
	ImageRef  string    `json:"image_ref,omitempty" bson:"image_ref,omitempty"`
	SenderID  string    `json:"sender_id" bson:"sender_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ReadBy    []string  `json:"read_by" bson:"read_by"`
}

// Chat is a two-party conversation container.
type Chat struct {
	ID           string          `json:"id" bson:"_id"`
	Participants []string        `json:"participants" bson:"participants"` // exactly 2, immutable
	LastMessage  *LastMessage    `json:"last_message" bson:"last_message"`
	MessageCount int64           `json:"message_count" bson:"message_count"`
	TypingStatus map[string]bool `json:"typing_status" bson:"typing_status"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" bson:"updated_at"`
}

// HasParticipant reports whether the given user belongs to the chat.
func (c *Chat) HasParticipant(id string) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// PeerOf returns the other participant, or "" if id is not a participant.
func (c *Chat) PeerOf(id string) string {
	for _, p := range c.Participants {
		if p != id {
			if c.HasParticipant(id) {
				return p
			}
			return ""
		}
	}
	return ""
}

// Message is one append-only entry of a chat's log. Seq is assigned by the
// store inside the append transaction and defines the per-chat total order.
// Messages are never edited or deleted; only ReadBy grows.
type Message struct {
	ID        string    `json:"id" bson:"_id"`
	ChatID    string    `json:"chat_id" bson:"chat_id"`
	SenderID  string    `json:"sender_id" bson:"sender_id"`
	Text      string    `json:"text" bson:"text"`
	ImageRef  string    `json:"image_ref,omitempty" bson:"image_ref,omitempty"`
	Seq       int64     `json:"seq" bson:"seq"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ReadBy    []string  `json:"read_by" bson:"read_by"`
}

// ReadBySet reports whether the user has read the message.
func (m *Message) ReadBySet(id string) bool {
	for _, r := range m.ReadBy {
		if r == id {
			return true
		}
	}
	return false
}

// StartChatRequest opens (or returns) the chat with another user
type StartChatRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// SendMessageRequest defines the request body for appending a message
type SendMessageRequest struct {
	Text     string `json:"text" validate:"required_without=ImageRef,max=4000"`
	ImageRef string `json:"image_ref" validate:"required_without=Text"`
}

// TypingRequest toggles the caller's typing indicator on a chat
type TypingRequest struct {
	Typing bool `json:"typing"`
}

// Validate rejects blank-only message bodies that pass tag validation.
func (r *SendMessageRequest) Normalized() (text, imageRef string, ok bool) {
	text = strings.TrimSpace(r.Text)
	imageRef = strings.TrimSpace(r.ImageRef)
	return text, imageRef, text != "" || imageRef != ""
}
