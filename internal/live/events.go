package live

import "time"

// Event is one incremental state change pushed to subscribers.
type Event struct {
	Topic   string    `json:"topic"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// Event kinds. Subscribers switch on these to patch their local view
// without re-issuing a full query.
const (
	KindProfileUpdated  = "profile.updated"
	KindRelationUpdated = "relation.updated"
	KindChatCreated     = "chat.created"
	KindChatUpdated     = "chat.updated"
	KindMessageAppended = "message.appended"
	KindMessagesRead    = "messages.read"
	KindTyping          = "chat.typing"
	KindStoryPublished  = "story.published"
	KindStoryRemoved    = "story.removed"
	KindStoryLiked      = "story.liked"
)

// Topic builders. A user-level subscription ("user.<id>") sees profile and
// relationship changes; "chats.<id>" sees that user's chat list; "chat.<id>"
// is a single conversation's stream; "stories.<id>" is the story set visible
// to that user.
func TopicUser(userID string) string    { return "user." + userID }
func TopicChats(userID string) string   { return "chats." + userID }
func TopicChat(chatID string) string    { return "chat." + chatID }
func TopicStories(userID string) string { return "stories." + userID }

// NewEvent stamps an event with the current time.
func NewEvent(topic, kind string, payload any) Event {
	return Event{Topic: topic, Kind: kind, At: time.Now().UTC(), Payload: payload}
}
