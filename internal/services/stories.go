package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/live"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/repositories"
)

// StoryService owns the ephemeral story lifecycle: publish-with-supersede,
// friends-only visibility, lazy expiry filtering on reads, and a scheduled
// sweep that hard-deletes expired rows.
type StoryService struct {
	stories repositories.StoryRepository
	users   repositories.UserRepository
	bus     *live.Bus
	logger  *zap.Logger
	cancel  context.CancelFunc
}

// NewStoryService creates a new StoryService
func NewStoryService(stories repositories.StoryRepository, users repositories.UserRepository, bus *live.Bus, logger *zap.Logger) *StoryService {
	return &StoryService{stories: stories, users: users, bus: bus, logger: logger}
}

func (s *StoryService) notifyAudience(owner *models.User, kind string, payload any) {
	s.bus.Publish(live.NewEvent(live.TopicStories(owner.ID), kind, payload))
	for _, f := range owner.Friends {
		s.bus.Publish(live.NewEvent(live.TopicStories(f), kind, payload))
	}
}

// Publish replaces the owner's live story, if any, with a fresh one
// expiring in 24 hours.
func (s *StoryService) Publish(ctx context.Context, ownerID, image string) (*models.Story, error) {
	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	story := &models.Story{
		OwnerID:      ownerID,
		Username:     owner.Username,
		ProfileImage: owner.ProfileImage,
		Image:        image,
		Likes:        []string{},
		CreatedAt:    now,
		ExpiresAt:    now.Add(models.StoryTTL),
	}
	if err := s.stories.ReplaceStory(ctx, story); err != nil {
		return nil, err
	}
	s.logger.Info("story published", zap.String("owner", ownerID), zap.String("story", story.ID))
	s.notifyAudience(owner, live.KindStoryPublished, story)
	return story, nil
}

// Remove deletes the owner's live story. No-op when none exists.
func (s *StoryService) Remove(ctx context.Context, ownerID string) error {
	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		return err
	}
	removed, err := s.stories.DeleteStoriesForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if removed {
		s.notifyAudience(owner, live.KindStoryRemoved, map[string]string{"owner_id": ownerID})
	}
	return nil
}

// ListVisible returns the unexpired stories of the viewer and their
// friends, newest first. Expired rows are filtered even if the sweeper has
// not collected them yet.
func (s *StoryService) ListVisible(ctx context.Context, viewerID string) ([]models.Story, error) {
	viewer, err := s.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	owners := append([]string{viewerID}, viewer.Friends...)
	return s.stories.ListStoriesForOwners(ctx, owners, time.Now().UTC())
}

// Like records the viewer's like on a story they can see. Idempotent.
func (s *StoryService) Like(ctx context.Context, storyID, viewerID string) error {
	story, err := s.stories.GetStoryByID(ctx, storyID)
	if err != nil {
		return err
	}
	if story.Expired(time.Now().UTC()) {
		return apperr.NotFoundf("story %s not found", storyID)
	}
	if story.OwnerID != viewerID {
		viewer, err := s.users.GetUserByID(ctx, viewerID)
		if err != nil {
			return err
		}
		if !viewer.IsFriend(story.OwnerID) {
			return apperr.Unauthorizedf("story is not visible to you")
		}
	}
	if story.LikedBy(viewerID) {
		// Already recorded; repeating the write would just re-announce it.
		return nil
	}
	if err := s.stories.LikeStory(ctx, storyID, viewerID); err != nil {
		return err
	}
	s.bus.Publish(live.NewEvent(live.TopicStories(story.OwnerID), live.KindStoryLiked, map[string]string{
		"story_id": storyID,
		"user_id":  viewerID,
	}))
	return nil
}

// StartSweeper launches the background expiry sweep. It runs until Stop or
// until the context is cancelled, independent of any connected client.
func (s *StoryService) StartSweeper(ctx context.Context, interval time.Duration) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.sweepLoop(ctx, interval)
}

// StopSweeper stops the background sweep.
func (s *StoryService) StopSweeper() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *StoryService) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepExpired(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SweepExpired deletes expired stories once. Safe to retry: the delete is
// idempotent.
func (s *StoryService) SweepExpired(ctx context.Context) {
	deleted, err := s.stories.DeleteExpiredStories(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("story sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("story sweep completed", zap.Int64("deleted", deleted))
	}
}
