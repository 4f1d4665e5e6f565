package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	assert.Equal(t, "alice:bob", PairKey("bob", "alice"))
}

func TestHasParticipant(t *testing.T) {
	chat := Chat{Participants: []string{"alice", "bob"}}
	assert.True(t, chat.HasParticipant("alice"))
	assert.False(t, chat.HasParticipant("carol"))
}

func TestPeerOf(t *testing.T) {
	chat := Chat{Participants: []string{"alice", "bob"}}
	assert.Equal(t, "bob", chat.PeerOf("alice"))
	assert.Equal(t, "alice", chat.PeerOf("bob"))
}

func TestSendMessageRequestNormalized(t *testing.T) {
	req := SendMessageRequest{Text: "  hi  "}
	text, imageRef, ok := req.Normalized()
	assert.True(t, ok)
	assert.Equal(t, "hi", text)
	assert.Empty(t, imageRef)

	blank := SendMessageRequest{Text: "   "}
	_, _, ok = blank.Normalized()
	assert.False(t, ok)
}
