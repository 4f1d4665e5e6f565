package models

import (
	"time"
)

// DefaultProfileImage is the placeholder avatar assigned at profile creation.
const DefaultProfileImage = "https://images.rawpixel.com/image_800/czNmcy1wcml2YXRlL3Jhd3BpeGVsX2ltYWdlcy93ZWJzaXRlX2NvbnRlbnQvbHIvdjkzNy1hZXctMTExXzMuanBn.jpg"

// Location is the coarse profile location shown on a user's card.
type Location struct {
	City  string `json:"city" bson:"city"`
	State string `json:"state" bson:"state"`
}

// User is the directory document for one person. The four relationship
// arrays are mirrored: A appears in B's friends iff B appears in A's.
type User struct {
	ID              string    `json:"id" bson:"_id"`
	Username        string    `json:"username" bson:"username"` // lowercase, empty until claimed
	Name            string    `json:"name" bson:"name"`
	Email           string    `json:"email" bson:"email"`
	Phone           string    `json:"phone" bson:"phone"`
	Bio             string    `json:"bio" bson:"bio"`
	Location        Location  `json:"location" bson:"location"`
	ProfileImage    string    `json:"profile_image" bson:"profile_image"`
	Friends         []string  `json:"friends" bson:"friends"`
	InvitesSent     []string  `json:"invites_sent" bson:"invites_sent"`
	InvitesReceived []string  `json:"invites_received" bson:"invites_received"`
	BlockedUsers    []string  `json:"blocked_users" bson:"blocked_users"`
	LastSeen        time.Time `json:"last_seen" bson:"last_seen"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

func contains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

func (u *User) IsFriend(id string) bool      { return contains(u.Friends, id) }
func (u *User) HasInvited(id string) bool    { return contains(u.InvitesSent, id) }
func (u *User) HasInviteFrom(id string) bool { return contains(u.InvitesReceived, id) }
func (u *User) HasBlocked(id string) bool    { return contains(u.BlockedUsers, id) }

// RelationStatus is the derived state of a pair as seen from one side.
type RelationStatus string

const (
	RelationFriends         RelationStatus = "friends"
	RelationPendingOutgoing RelationStatus = "pending-outgoing"
	RelationPendingIncoming RelationStatus = "pending-incoming"
	RelationNone            RelationStatus = "none"
)

// RelationTo derives the viewer's status toward the given user. It is a
// pure function of the relationship sets and is recomputed on every read.
func (u *User) RelationTo(id string) RelationStatus {
	switch {
	case u.IsFriend(id):
		return RelationFriends
	case u.HasInvited(id):
		return RelationPendingOutgoing
	case u.HasInviteFrom(id):
		return RelationPendingIncoming
	default:
		return RelationNone
	}
}

// ClaimUsernameRequest defines the request body for the one-time username claim
type ClaimUsernameRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Bio      string `json:"bio" validate:"max=200"`
	City     string `json:"city" validate:"max=60"`
	State    string `json:"state" validate:"max=60"`
}

// UpdateProfileRequest defines the request body for partial profile updates
type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Bio   string `json:"bio,omitempty" validate:"omitempty,max=200"`
	City  string `json:"city,omitempty" validate:"omitempty,max=60"`
	State string `json:"state,omitempty" validate:"omitempty,max=60"`
}

// UpdateAvatarRequest defines the request body for avatar updates. Image is
// either a URL or raw base64 data depending on IsURL.
type UpdateAvatarRequest struct {
	Image string `json:"image" validate:"required"`
	IsURL bool   `json:"is_url"`
}

// RelationRequest targets another user in a social-graph operation
type RelationRequest struct {
	UserID string `json:"user_id" validate:"required"`
}
