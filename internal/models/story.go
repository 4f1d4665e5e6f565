package models

import (
	"time"
)

// StoryTTL is the lifetime of a published story.
const StoryTTL = 24 * time.Hour

// Story is a single ephemeral broadcast item. A user has at most one live
// story; publishing replaces the previous one. Username and ProfileImage
// are denormalized at publish time for display.
type Story struct {
	ID           string    `json:"id" bson:"_id"`
	OwnerID      string    `json:"owner_id" bson:"owner_id"`
	Username     string    `json:"username" bson:"username"`
	ProfileImage string    `json:"profile_image" bson:"profile_image"`
	Image        string    `json:"image" bson:"image"`
	Likes        []string  `json:"likes" bson:"likes"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the story is past its TTL at the given instant.
func (s *Story) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// LikedBy reports whether the user already liked the story.
func (s *Story) LikedBy(id string) bool {
	for _, l := range s.Likes {
		if l == id {
			return true
		}
	}
	return false
}

// PublishStoryRequest defines the request body for publishing a story
type PublishStoryRequest struct {
	Image string `json:"image" validate:"required"`
}
