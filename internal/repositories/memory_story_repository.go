package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/models"
)

// memoryStoryRepository is the in-memory StoryRepository. One entry per
// owner keeps the single-active invariant structural.
type memoryStoryRepository struct {
	mu      sync.Mutex
	byOwner map[string]*models.Story
}

// NewMemoryStoryRepository creates an empty in-memory story repository
func NewMemoryStoryRepository() *memoryStoryRepository {
	return &memoryStoryRepository{byOwner: make(map[string]*models.Story)}
}

func cloneStory(s *models.Story) *models.Story {
	out := *s
	out.Likes = append([]string(nil), s.Likes...)
	return &out
}

func (r *memoryStoryRepository) ReplaceStory(_ context.Context, story *models.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if story.ID == "" {
		story.ID = uuid.NewString()
	}
	r.byOwner[story.OwnerID] = cloneStory(story)
	return nil
}

func (r *memoryStoryRepository) DeleteStoriesForOwner(_ context.Context, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byOwner[ownerID]; !ok {
		return false, nil
	}
	delete(r.byOwner, ownerID)
	return true, nil
}

func (r *memoryStoryRepository) GetStoryByID(_ context.Context, id string) (*models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byOwner {
		if s.ID == id {
			return cloneStory(s), nil
		}
	}
	return nil, apperr.NotFoundf("story %s not found", id)
}

func (r *memoryStoryRepository) ListStoriesForOwners(_ context.Context, ownerIDs []string, now time.Time) ([]models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Story
	for _, id := range ownerIDs {
		if s, ok := r.byOwner[id]; ok && !s.Expired(now) {
			out = append(out, *cloneStory(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryStoryRepository) LikeStory(_ context.Context, storyID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byOwner {
		if s.ID == storyID {
			s.Likes = addToSet(s.Likes, userID)
			return nil
		}
	}
	return apperr.NotFoundf("story %s not found", storyID)
}

func (r *memoryStoryRepository) DeleteExpiredStories(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for owner, s := range r.byOwner {
		if s.Expired(now) {
			delete(r.byOwner, owner)
			deleted++
		}
	}
	return deleted, nil
}
