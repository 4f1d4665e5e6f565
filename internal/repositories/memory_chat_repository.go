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

// memoryChatRepository is the in-memory ChatRepository. Appends run under
// one lock, so the per-chat sequence and the chat summary can never drift.
type memoryChatRepository struct {
	mu       sync.Mutex
	chats    map[string]*models.Chat
	messages map[string][]*models.Message
}

// NewMemoryChatRepository creates an empty in-memory chat repository
func NewMemoryChatRepository() *memoryChatRepository {
	return &memoryChatRepository{
		chats:    make(map[string]*models.Chat),
		messages: make(map[string][]*models.Message),
	}
}

func cloneChat(c *models.Chat) *models.Chat {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.TypingStatus = make(map[string]bool, len(c.TypingStatus))
	for k, v := range c.TypingStatus {
		out.TypingStatus[k] = v
	}
	if c.LastMessage != nil {
		lm := *c.LastMessage
		lm.ReadBy = append([]string(nil), c.LastMessage.ReadBy...)
		out.LastMessage = &lm
	}
	return &out
}

func cloneMessage(m *models.Message) *models.Message {
	out := *m
	out.ReadBy = append([]string(nil), m.ReadBy...)
	return &out
}

func (r *memoryChatRepository) GetOrCreateChat(_ context.Context, a, b string) (*models.Chat, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := models.PairKey(a, b)
	if chat, ok := r.chats[id]; ok {
		return cloneChat(chat), false, nil
	}
	now := time.Now().UTC()
	chat := &models.Chat{
		ID:           id,
		Participants: []string{a, b},
		MessageCount: 0,
		TypingStatus: map[string]bool{a: false, b: false},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.chats[id] = chat
	return cloneChat(chat), true, nil
}

func (r *memoryChatRepository) GetChat(_ context.Context, id string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, apperr.NotFoundf("chat %s not found", id)
	}
	return cloneChat(chat), nil
}

func (r *memoryChatRepository) ListChatsFor(_ context.Context, userID string) ([]models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Chat
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			out = append(out, *cloneChat(chat))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memoryChatRepository) AppendMessage(_ context.Context, chatID string, msg *models.Message) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, apperr.NotFoundf("chat %s not found", chatID)
	}
	chat.MessageCount++
	msg.ID = uuid.NewString()
	msg.ChatID = chatID
	msg.Seq = chat.MessageCount
	msg.CreatedAt = time.Now().UTC()
	r.messages[chatID] = append(r.messages[chatID], cloneMessage(msg))
	chat.LastMessage = &models.LastMessage{
		Text:      msg.Text,
		ImageRef:  msg.ImageRef,
		SenderID:  msg.SenderID,
		CreatedAt: msg.CreatedAt,
		ReadBy:    append([]string(nil), msg.ReadBy...),
	}
	chat.UpdatedAt = msg.CreatedAt
	return cloneMessage(msg), nil
}

func (r *memoryChatRepository) ListMessages(_ context.Context, chatID string, afterSeq int64, limit int) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.messages[chatID] {
		if m.Seq > afterSeq {
			out = append(out, *cloneMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryChatRepository) MarkRead(_ context.Context, chatID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return 0, apperr.NotFoundf("chat %s not found", chatID)
	}
	var patched int64
	for _, m := range r.messages[chatID] {
		if !m.ReadBySet(userID) {
			m.ReadBy = append(m.ReadBy, userID)
			patched++
		}
	}
	if chat.LastMessage != nil {
		chat.LastMessage.ReadBy = addToSet(chat.LastMessage.ReadBy, userID)
	}
	return patched, nil
}

func (r *memoryChatRepository) SetTyping(_ context.Context, chatID, userID string, typing bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return apperr.NotFoundf("chat %s not found", chatID)
	}
	chat.TypingStatus[userID] = typing
	return nil
}
