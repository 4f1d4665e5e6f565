package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/models"
)

func TestSendInviteMirrorsBothSides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	require.NoError(t, env.social.SendInvite(ctx, "alice", "bob"))

	alice, err := env.directory.GetProfile(ctx, "alice")
	require.NoError(t, err)
	bob, err := env.directory.GetProfile(ctx, "bob")
	require.NoError(t, err)

	assert.Contains(t, alice.InvitesSent, "bob")
	assert.Contains(t, bob.InvitesReceived, "alice")
	assert.Equal(t, models.RelationPendingOutgoing, alice.RelationTo("bob"))
	assert.Equal(t, models.RelationPendingIncoming, bob.RelationTo("alice"))
}

func TestSendInviteToSelfRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "alice")

	err := env.social.SendInvite(context.Background(), "alice", "alice")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSendInviteDuplicateRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	require.NoError(t, env.social.SendInvite(ctx, "alice", "bob"))
	err := env.social.SendInvite(ctx, "alice", "bob")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestSendInviteWhenAlreadyInvitedByTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	require.NoError(t, env.social.SendInvite(ctx, "bob", "alice"))
	err := env.social.SendInvite(ctx, "alice", "bob")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestAcceptInviteCreatesMirroredFriendship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	require.NoError(t, env.social.SendInvite(ctx, "alice", "bob"))
	require.NoError(t, env.social.AcceptInvite(ctx, "bob", "alice"))

	alice, _ := env.directory.GetProfile(ctx, "alice")
	bob, _ := env.directory.GetProfile(ctx, "bob")

	assert.Contains(t, alice.Friends, "bob")
	assert.Contains(t, bob.Friends, "alice")
	assert.Empty(t, alice.InvitesSent)
	assert.Empty(t, bob.InvitesReceived)
	assert.Equal(t, models.RelationFriends, alice.RelationTo("bob"))
	assert.Equal(t, models.RelationFriends, bob.RelationTo("alice"))
}

func TestAcceptInviteWithoutPendingInvite(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	err := env.social.AcceptInvite(context.Background(), "bob", "alice")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestSendInviteWhenAlreadyFriends(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	env.befriend(t, "alice", "bob")

	err := env.social.SendInvite(context.Background(), "alice", "bob")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestCancelInviteIsNoOpWithoutPending(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	assert.NoError(t, env.social.CancelInvite(context.Background(), "alice", "bob"))
}

func TestDeclineInviteRemovesBothSides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	require.NoError(t, env.social.SendInvite(ctx, "alice", "bob"))
	require.NoError(t, env.social.DeclineInvite(ctx, "bob", "alice"))

	alice, _ := env.directory.GetProfile(ctx, "alice")
	bob, _ := env.directory.GetProfile(ctx, "bob")
	assert.Empty(t, alice.InvitesSent)
	assert.Empty(t, bob.InvitesReceived)
	assert.Empty(t, alice.Friends)
}

func TestRemoveFriendRequiresFriendship(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	err := env.social.RemoveFriend(context.Background(), "alice", "bob")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestRemoveFriendDissolvesBothSides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	env.befriend(t, "alice", "bob")

	require.NoError(t, env.social.RemoveFriend(ctx, "alice", "bob"))

	alice, _ := env.directory.GetProfile(ctx, "alice")
	bob, _ := env.directory.GetProfile(ctx, "bob")
	assert.Empty(t, alice.Friends)
	assert.Empty(t, bob.Friends)
}

func TestBlockSeversFriendshipAndInvites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	env.befriend(t, "alice", "bob")

	require.NoError(t, env.social.Block(ctx, "alice", "bob"))

	alice, _ := env.directory.GetProfile(ctx, "alice")
	bob, _ := env.directory.GetProfile(ctx, "bob")
	assert.Contains(t, alice.BlockedUsers, "bob")
	assert.Empty(t, alice.Friends)
	assert.Empty(t, bob.Friends)
	assert.Empty(t, bob.BlockedUsers, "blocking is one-directional")
}

func TestBlockTwiceRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	require.NoError(t, env.social.Block(ctx, "alice", "bob"))
	err := env.social.Block(ctx, "alice", "bob")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestBlockedActorCannotInvite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	require.NoError(t, env.social.Block(ctx, "alice", "bob"))

	err := env.social.SendInvite(ctx, "alice", "bob")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	// The block only binds its owner: bob never blocked alice, so his
	// invite still goes through.
	assert.NoError(t, env.social.SendInvite(ctx, "bob", "alice"))
}

func TestFriendsSkipsDanglingIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	env.seedUser(t, "carol", "carol")
	env.befriend(t, "alice", "bob")
	env.befriend(t, "alice", "carol")

	require.NoError(t, env.directory.DeleteProfile(ctx, "bob"))

	friends, err := env.social.Friends(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "carol", friends[0].ID)
}

func TestPendingInvitesResolvesSenders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	env.seedUser(t, "carol", "carol")

	require.NoError(t, env.social.SendInvite(ctx, "bob", "alice"))
	require.NoError(t, env.social.SendInvite(ctx, "carol", "alice"))

	pending, err := env.social.PendingInvites(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestStatusAgainstUnrelatedUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	status, err := env.social.Status(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RelationNone, status)
}
