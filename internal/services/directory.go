package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/live"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/repositories"
)

// DirectoryService owns profile documents: creation at signup, the one-time
// username claim, partial updates, avatars and deletion.
type DirectoryService struct {
	users  repositories.UserRepository
	bus    *live.Bus
	logger *zap.Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(users repositories.UserRepository, bus *live.Bus, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{users: users, bus: bus, logger: logger}
}

// CreateProfile seeds the directory document for a freshly issued identity.
// Username stays empty until the onboarding claim.
func (s *DirectoryService) CreateProfile(ctx context.Context, uid, name, email, phone string) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{
		ID:              uid,
		Username:        "",
		Name:            name,
		Email:           email,
		Phone:           phone,
		ProfileImage:    models.DefaultProfileImage,
		Friends:         []string{},
		InvitesSent:     []string{},
		InvitesReceived: []string{},
		BlockedUsers:    []string{},
		LastSeen:        now,
		CreatedAt:       now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("profile created", zap.String("uid", uid))
	return user, nil
}

// ClaimUsername sets the unique username plus bio and location. Usernames
// are compared case-insensitively; the stored form is lowercase.
func (s *DirectoryService) ClaimUsername(ctx context.Context, uid string, req *models.ClaimUsernameRequest) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 3 {
		return nil, apperr.Validationf("username must be at least 3 characters")
	}
	loc := models.Location{City: req.City, State: req.State}
	if err := s.users.ClaimUsername(ctx, uid, username, req.Bio, loc); err != nil {
		return nil, err
	}
	s.logger.Info("username claimed", zap.String("uid", uid), zap.String("username", username))
	s.bus.Publish(live.NewEvent(live.TopicUser(uid), live.KindProfileUpdated, nil))
	return s.users.GetUserByID(ctx, uid)
}

// GetProfile loads a single profile.
func (s *DirectoryService) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	return s.users.GetUserByID(ctx, uid)
}

// UpdateProfile applies a partial update; empty fields are left untouched.
func (s *DirectoryService) UpdateProfile(ctx context.Context, uid string, req *models.UpdateProfileRequest) (*models.User, error) {
	fields := map[string]any{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Phone != "" {
		fields["phone"] = req.Phone
	}
	if req.Bio != "" {
		fields["bio"] = req.Bio
	}
	if req.City != "" {
		fields["location.city"] = req.City
	}
	if req.State != "" {
		fields["location.state"] = req.State
	}
	if err := s.users.UpdateProfile(ctx, uid, fields); err != nil {
		return nil, err
	}
	s.bus.Publish(live.NewEvent(live.TopicUser(uid), live.KindProfileUpdated, nil))
	return s.users.GetUserByID(ctx, uid)
}

// UpdateAvatar stores either a URL or inline base64 image data as the
// profile image, matching the client's upload path.
func (s *DirectoryService) UpdateAvatar(ctx context.Context, uid string, req *models.UpdateAvatarRequest) (string, error) {
	image := req.Image
	if !req.IsURL {
		image = "data:image/jpeg;base64," + req.Image
	}
	if err := s.users.UpdateProfile(ctx, uid, map[string]any{"profile_image": image}); err != nil {
		return "", err
	}
	s.bus.Publish(live.NewEvent(live.TopicUser(uid), live.KindProfileUpdated, nil))
	return image, nil
}

// DeleteProfile removes the directory document. There is no cascade:
// counterpart relationship sets keep the dangling id and every read path
// tolerates it.
func (s *DirectoryService) DeleteProfile(ctx context.Context, uid string) error {
	if err := s.users.DeleteUser(ctx, uid); err != nil {
		return err
	}
	s.logger.Info("profile deleted", zap.String("uid", uid))
	s.bus.Publish(live.NewEvent(live.TopicUser(uid), live.KindProfileUpdated, nil))
	return nil
}

// TouchLastSeen records presence; failures are not surfaced to callers.
func (s *DirectoryService) TouchLastSeen(ctx context.Context, uid string) {
	if err := s.users.TouchLastSeen(ctx, uid, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to touch last seen", zap.String("uid", uid), zap.Error(err))
	}
}

// Search finds users by username or display name.
func (s *DirectoryService) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validationf("search query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.users.SearchUsers(ctx, query, limit)
}
