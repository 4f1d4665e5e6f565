package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/live"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/repositories"
)

// SocialGraphService drives the friend/invite state machine. Every
// operation validates against the current mirrored sets, applies the paired
// write through the repository (atomic), then notifies both users' live
// subscriptions.
type SocialGraphService struct {
	users  repositories.UserRepository
	bus    *live.Bus
	logger *zap.Logger
}

// NewSocialGraphService creates a new SocialGraphService
func NewSocialGraphService(users repositories.UserRepository, bus *live.Bus, logger *zap.Logger) *SocialGraphService {
	return &SocialGraphService{users: users, bus: bus, logger: logger}
}

func (s *SocialGraphService) notifyPair(a, b, kind string) {
	s.bus.Publish(live.NewEvent(live.TopicUser(a), kind, map[string]string{"counterpart": b}))
	s.bus.Publish(live.NewEvent(live.TopicUser(b), kind, map[string]string{"counterpart": a}))
}

func (s *SocialGraphService) loadPair(ctx context.Context, a, b string) (*models.User, *models.User, error) {
	ua, err := s.users.GetUserByID(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	ub, err := s.users.GetUserByID(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	return ua, ub, nil
}

// SendInvite sends a friend invite from actor to target.
//
// Blocking is one-directional, as in the product today: only the actor's
// own block list is consulted, so a blocked user can still invite their
// blocker. Closing that gap needs a product decision first.
func (s *SocialGraphService) SendInvite(ctx context.Context, actor, target string) error {
	if actor == target {
		return apperr.Validationf("cannot send an invite to yourself")
	}
	ua, _, err := s.loadPair(ctx, actor, target)
	if err != nil {
		return err
	}
	switch {
	case ua.HasBlocked(target):
		return apperr.InvalidStatef("you have blocked this user")
	case ua.IsFriend(target):
		return apperr.InvalidStatef("already friends")
	case ua.HasInvited(target):
		return apperr.InvalidStatef("invite already sent")
	case ua.HasInviteFrom(target):
		return apperr.InvalidStatef("this user already invited you")
	}
	if err := s.users.AddInvite(ctx, actor, target); err != nil {
		return err
	}
	s.logger.Info("invite sent", zap.String("from", actor), zap.String("to", target))
	s.notifyPair(actor, target, live.KindRelationUpdated)
	return nil
}

// CancelInvite withdraws a pending invite. No-op when nothing is pending.
func (s *SocialGraphService) CancelInvite(ctx context.Context, actor, target string) error {
	ua, err := s.users.GetUserByID(ctx, actor)
	if err != nil {
		return err
	}
	if !ua.HasInvited(target) {
		return nil
	}
	if err := s.users.RemoveInvite(ctx, actor, target); err != nil {
		return err
	}
	s.notifyPair(actor, target, live.KindRelationUpdated)
	return nil
}

// AcceptInvite turns a received invite into a mirrored friendship. The
// actor must be the invite's receiver.
func (s *SocialGraphService) AcceptInvite(ctx context.Context, actor, sender string) error {
	ua, err := s.users.GetUserByID(ctx, actor)
	if err != nil {
		return err
	}
	if !ua.HasInviteFrom(sender) {
		return apperr.InvalidStatef("no pending invite from this user")
	}
	if err := s.users.AcceptInvite(ctx, actor, sender); err != nil {
		return err
	}
	s.logger.Info("invite accepted", zap.String("receiver", actor), zap.String("sender", sender))
	s.notifyPair(actor, sender, live.KindRelationUpdated)
	return nil
}

// DeclineInvite removes a received invite without creating a friendship.
func (s *SocialGraphService) DeclineInvite(ctx context.Context, actor, sender string) error {
	ua, err := s.users.GetUserByID(ctx, actor)
	if err != nil {
		return err
	}
	if !ua.HasInviteFrom(sender) {
		return apperr.InvalidStatef("no pending invite from this user")
	}
	if err := s.users.RemoveInvite(ctx, sender, actor); err != nil {
		return err
	}
	s.notifyPair(actor, sender, live.KindRelationUpdated)
	return nil
}

// RemoveFriend deletes an existing mirrored friendship.
func (s *SocialGraphService) RemoveFriend(ctx context.Context, actor, target string) error {
	ua, err := s.users.GetUserByID(ctx, actor)
	if err != nil {
		return err
	}
	if !ua.IsFriend(target) {
		return apperr.InvalidStatef("users are not friends")
	}
	if err := s.users.RemoveFriendship(ctx, actor, target); err != nil {
		return err
	}
	s.notifyPair(actor, target, live.KindRelationUpdated)
	return nil
}

// Block adds target to the actor's block list and strips any friendship or
// pending invites between the two, in both directions.
func (s *SocialGraphService) Block(ctx context.Context, actor, target string) error {
	if actor == target {
		return apperr.Validationf("cannot block yourself")
	}
	ua, _, err := s.loadPair(ctx, actor, target)
	if err != nil {
		return err
	}
	if ua.HasBlocked(target) {
		return apperr.InvalidStatef("user is already blocked")
	}
	if err := s.users.Block(ctx, actor, target); err != nil {
		return err
	}
	s.logger.Info("user blocked", zap.String("actor", actor), zap.String("target", target))
	s.notifyPair(actor, target, live.KindRelationUpdated)
	return nil
}

// Status derives the actor's relationship to target. Always recomputed
// from the live sets, never cached.
func (s *SocialGraphService) Status(ctx context.Context, actor, target string) (models.RelationStatus, error) {
	ua, err := s.users.GetUserByID(ctx, actor)
	if err != nil {
		return "", err
	}
	return ua.RelationTo(target), nil
}

// Friends resolves the actor's friends list, skipping dangling ids left by
// deleted profiles.
func (s *SocialGraphService) Friends(ctx context.Context, actor string) ([]models.User, error) {
	ua, err := s.users.GetUserByID(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.users.GetUsersByIDs(ctx, ua.Friends)
}

// PendingInvites resolves the senders of the actor's received invites.
func (s *SocialGraphService) PendingInvites(ctx context.Context, actor string) ([]models.User, error) {
	ua, err := s.users.GetUserByID(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.users.GetUsersByIDs(ctx, ua.InvitesReceived)
}
