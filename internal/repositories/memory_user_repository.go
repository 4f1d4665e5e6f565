package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/models"
)

// memoryUserRepository is the in-memory UserRepository used by tests and
// STORE=memory runs. The single mutex makes every paired relationship
// mutation atomic, mirroring the Mongo transactions.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

// NewMemoryUserRepository creates an empty in-memory user repository
func NewMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*models.User)}
}

func addToSet(set []string, v string) []string {
	for _, e := range set {
		if e == v {
			return set
		}
	}
	return append(set, v)
}

func removeFromSet(set []string, v string) []string {
	out := set[:0]
	for _, e := range set {
		if e != v {
			out = append(out, e)
		}
	}
	return out
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Friends = append([]string(nil), u.Friends...)
	c.InvitesSent = append([]string(nil), u.InvitesSent...)
	c.InvitesReceived = append([]string(nil), u.InvitesReceived...)
	c.BlockedUsers = append([]string(nil), u.BlockedUsers...)
	return &c
}

func (r *memoryUserRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return apperr.Conflictf("user %s already exists", user.ID)
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryUserRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFoundf("user %s not found", id)
	}
	return cloneUser(u), nil
}

func (r *memoryUserRepository) GetUsersByIDs(_ context.Context, ids []string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *cloneUser(u))
		}
	}
	return out, nil
}

func (r *memoryUserRepository) ClaimUsername(_ context.Context, id, username, bio string, loc models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperr.NotFoundf("user %s not found", id)
	}
	for otherID, other := range r.users {
		if otherID != id && other.Username != "" && strings.EqualFold(other.Username, username) {
			return apperr.Conflictf("username %q is already taken", username)
		}
	}
	u.Username = username
	u.Bio = bio
	u.Location = loc
	return nil
}

func (r *memoryUserRepository) UpdateProfile(_ context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperr.NotFoundf("user %s not found", id)
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "phone":
			u.Phone = v.(string)
		case "bio":
			u.Bio = v.(string)
		case "location.city":
			u.Location.City = v.(string)
		case "location.state":
			u.Location.State = v.(string)
		case "profile_image":
			u.ProfileImage = v.(string)
		}
	}
	return nil
}

func (r *memoryUserRepository) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperr.NotFoundf("user %s not found", id)
	}
	// No cascade: counterpart sets keep dangling ids, reads tolerate them.
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepository) TouchLastSeen(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastSeen = at
	}
	return nil
}

func (r *memoryUserRepository) SearchUsers(_ context.Context, query string, limit int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	var out []models.User
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, *cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryUserRepository) pair(a, b string) (*models.User, *models.User, error) {
	ua, ok := r.users[a]
	if !ok {
		return nil, nil, apperr.NotFoundf("user %s not found", a)
	}
	ub, ok := r.users[b]
	if !ok {
		return nil, nil, apperr.NotFoundf("user %s not found", b)
	}
	return ua, ub, nil
}

func (r *memoryUserRepository) AddInvite(_ context.Context, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	uf, ut, err := r.pair(from, to)
	if err != nil {
		return err
	}
	uf.InvitesSent = addToSet(uf.InvitesSent, to)
	ut.InvitesReceived = addToSet(ut.InvitesReceived, from)
	return nil
}

func (r *memoryUserRepository) RemoveInvite(_ context.Context, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	uf, ut, err := r.pair(from, to)
	if err != nil {
		return err
	}
	uf.InvitesSent = removeFromSet(uf.InvitesSent, to)
	ut.InvitesReceived = removeFromSet(ut.InvitesReceived, from)
	return nil
}

func (r *memoryUserRepository) AcceptInvite(_ context.Context, receiver, sender string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ur, us, err := r.pair(receiver, sender)
	if err != nil {
		return err
	}
	ur.Friends = addToSet(ur.Friends, sender)
	ur.InvitesReceived = removeFromSet(ur.InvitesReceived, sender)
	ur.InvitesSent = removeFromSet(ur.InvitesSent, sender)
	us.Friends = addToSet(us.Friends, receiver)
	us.InvitesSent = removeFromSet(us.InvitesSent, receiver)
	us.InvitesReceived = removeFromSet(us.InvitesReceived, receiver)
	return nil
}

func (r *memoryUserRepository) RemoveFriendship(_ context.Context, a, b string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ua, ub, err := r.pair(a, b)
	if err != nil {
		return err
	}
	ua.Friends = removeFromSet(ua.Friends, b)
	ub.Friends = removeFromSet(ub.Friends, a)
	return nil
}

func (r *memoryUserRepository) Block(_ context.Context, actor, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ua, ut, err := r.pair(actor, target)
	if err != nil {
		return err
	}
	ua.BlockedUsers = addToSet(ua.BlockedUsers, target)
	ua.Friends = removeFromSet(ua.Friends, target)
	ua.InvitesSent = removeFromSet(ua.InvitesSent, target)
	ua.InvitesReceived = removeFromSet(ua.InvitesReceived, target)
	ut.Friends = removeFromSet(ut.Friends, actor)
	ut.InvitesSent = removeFromSet(ut.InvitesSent, actor)
	ut.InvitesReceived = removeFromSet(ut.InvitesReceived, actor)
	return nil
}
