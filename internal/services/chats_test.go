package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/models"
)

func TestGetOrCreateChatIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	first, err := env.chats.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	second, err := env.chats.GetOrCreate(ctx, "bob", "alice")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "both directions resolve to the same chat")
	assert.Equal(t, models.PairKey("alice", "bob"), first.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, first.Participants)
}

func TestGetOrCreateChatConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")

	ids := make([]string, 8)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "alice", "bob"
			if i%2 == 1 {
				a, b = b, a
			}
			chat, err := env.chats.GetOrCreate(ctx, a, b)
			if assert.NoError(t, err) {
				ids[i] = chat.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestGetOrCreateChatWithSelf(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "alice")

	_, err := env.chats.GetOrCreate(context.Background(), "alice", "alice")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestGetOrCreateChatWithUnknownPeer(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "alice")

	_, err := env.chats.GetOrCreate(context.Background(), "alice", "ghost")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAppendAssignsMonotoneSequence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	chat, err := env.chats.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	m1, err := env.chats.Append(ctx, chat.ID, "alice", "first", "")
	require.NoError(t, err)
	m2, err := env.chats.Append(ctx, chat.ID, "bob", "second", "")
	require.NoError(t, err)

	assert.Equal(t, int64(1), m1.Seq)
	assert.Equal(t, int64(2), m2.Seq)
	assert.Contains(t, m1.ReadBy, "alice", "sender has read their own message")

	updated, err := env.chats.GetChat(ctx, chat.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.MessageCount)
	require.NotNil(t, updated.LastMessage)
	assert.Equal(t, "second", updated.LastMessage.Text)
	assert.Equal(t, "bob", updated.LastMessage.SenderID)
}

func TestAppendRejectsEmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	chat, err := env.chats.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = env.chats.Append(ctx, chat.ID, "alice", "", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAppendRejectsNonParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	env.seedUser(t, "carol", "carol")
	chat, err := env.chats.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = env.chats.Append(ctx, chat.ID, "carol", "hi", "")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestHistoryResumesAfterSeq(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	chat, err := env.chats.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := env.chats.Append(ctx, chat.ID, "alice", text, "")
		require.NoError(t, err)
	}

	messages, err := env.chats.History(ctx, chat.ID, "bob", 1, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "two", messages[0].Text)
	assert.Equal(t, "three", messages[1].Text)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	chat, err := env.chats.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = env.chats.Append(ctx, chat.ID, "alice", "hello", "")
	require.NoError(t, err)

	require.NoError(t, env.chats.MarkRead(ctx, chat.ID, "bob"))
	require.NoError(t, env.chats.MarkRead(ctx, chat.ID, "bob"))

	messages, err := env.chats.History(ctx, chat.ID, "bob", 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.ElementsMatch(t, []string{"alice", "bob"}, messages[0].ReadBy)

	updated, err := env.chats.GetChat(ctx, chat.ID, "bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, updated.LastMessage.ReadBy)
}

func TestListChatsOrderedByActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	env.seedUser(t, "carol", "carol")

	withBob, err := env.chats.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	withCarol, err := env.chats.GetOrCreate(ctx, "alice", "carol")
	require.NoError(t, err)

	_, err = env.chats.Append(ctx, withBob.ID, "alice", "ping", "")
	require.NoError(t, err)

	chats, err := env.chats.ListChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, withBob.ID, chats[0].ID, "chat with the latest message comes first")
	assert.Equal(t, withCarol.ID, chats[1].ID)
}

func TestSetTypingVisibleToPeer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "alice", "alice")
	env.seedUser(t, "bob", "bob")
	chat, err := env.chats.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, env.chats.SetTyping(ctx, chat.ID, "alice", true))

	seen, err := env.chats.GetChat(ctx, chat.ID, "bob")
	require.NoError(t, err)
	assert.True(t, seen.TypingStatus["alice"])
}
