package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmedembaby/chat/internal/live"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/repositories"
)

// testEnv wires the full service layer against the in-memory stores.
type testEnv struct {
	repos     repositories.Manager
	bus       *live.Bus
	directory *DirectoryService
	social    *SocialGraphService
	chats     *ChatService
	stories   *StoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos := repositories.NewMemoryManager()
	bus := live.NewBus()
	logger := zap.NewNop()
	return &testEnv{
		repos:     repos,
		bus:       bus,
		directory: NewDirectoryService(repos.Users(), bus, logger),
		social:    NewSocialGraphService(repos.Users(), bus, logger),
		chats:     NewChatService(repos.Chats(), repos.Users(), bus, logger),
		stories:   NewStoryService(repos.Stories(), repos.Users(), bus, logger),
	}
}

// seedUser creates a profile with a claimed username.
func (env *testEnv) seedUser(t *testing.T, id, username string) *models.User {
	t.Helper()
	ctx := context.Background()
	_, err := env.directory.CreateProfile(ctx, id, "User "+id, id+"@example.com", "")
	require.NoError(t, err)
	user, err := env.directory.ClaimUsername(ctx, id, &models.ClaimUsernameRequest{Username: username})
	require.NoError(t, err)
	return user
}

// befriend runs the invite/accept handshake between two seeded users.
func (env *testEnv) befriend(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, env.social.SendInvite(ctx, a, b))
	require.NoError(t, env.social.AcceptInvite(ctx, b, a))
}
