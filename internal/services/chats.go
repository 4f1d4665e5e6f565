package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/live"
	"github.com/ahmedembaby/chat/internal/models"
	"github.com/ahmedembaby/chat/internal/repositories"
)

// ChatService owns the chat registry and the per-chat message log.
type ChatService struct {
	chats  repositories.ChatRepository
	users  repositories.UserRepository
	bus    *live.Bus
	logger *zap.Logger
}

// NewChatService creates a new ChatService
func NewChatService(chats repositories.ChatRepository, users repositories.UserRepository, bus *live.Bus, logger *zap.Logger) *ChatService {
	return &ChatService{chats: chats, users: users, bus: bus, logger: logger}
}

func (s *ChatService) notifyParticipants(chat *models.Chat, kind string, payload any) {
	for _, p := range chat.Participants {
		s.bus.Publish(live.NewEvent(live.TopicChats(p), kind, payload))
	}
}

// GetOrCreate opens the single chat between actor and peer. Creation is
// idempotent: concurrent calls from both sides converge on one chat id.
func (s *ChatService) GetOrCreate(ctx context.Context, actor, peer string) (*models.Chat, error) {
	if actor == peer {
		return nil, apperr.Validationf("cannot open a chat with yourself")
	}
	if _, err := s.users.GetUserByID(ctx, peer); err != nil {
		return nil, err
	}
	chat, created, err := s.chats.GetOrCreateChat(ctx, actor, peer)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("chat created", zap.String("chat", chat.ID))
		s.notifyParticipants(chat, live.KindChatCreated, chat)
	}
	return chat, nil
}

func (s *ChatService) authorized(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, apperr.Unauthorizedf("not a participant of this chat")
	}
	return chat, nil
}

// Append validates the sender, appends the message with server-assigned
// ordering, and fans out to the chat stream and both chat lists.
func (s *ChatService) Append(ctx context.Context, chatID, sender, text, imageRef string) (*models.Message, error) {
	if text == "" && imageRef == "" {
		return nil, apperr.Validationf("message must carry text or an image")
	}
	chat, err := s.authorized(ctx, chatID, sender)
	if err != nil {
		return nil, err
	}
	msg := &models.Message{
		SenderID: sender,
		Text:     text,
		ImageRef: imageRef,
		ReadBy:   []string{sender},
	}
	msg, err = s.chats.AppendMessage(ctx, chatID, msg)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(live.NewEvent(live.TopicChat(chatID), live.KindMessageAppended, msg))
	s.notifyParticipants(chat, live.KindChatUpdated, map[string]string{"chat_id": chatID})
	return msg, nil
}

// MarkRead adds the user to every unread message. Idempotent; repeated and
// concurrent calls converge on the same readBy sets.
func (s *ChatService) MarkRead(ctx context.Context, chatID, userID string) error {
	chat, err := s.authorized(ctx, chatID, userID)
	if err != nil {
		return err
	}
	patched, err := s.chats.MarkRead(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if patched > 0 {
		s.bus.Publish(live.NewEvent(live.TopicChat(chatID), live.KindMessagesRead, map[string]string{"user_id": userID}))
		s.notifyParticipants(chat, live.KindChatUpdated, map[string]string{"chat_id": chatID})
	}
	return nil
}

// History returns messages in ascending per-chat order.
func (s *ChatService) History(ctx context.Context, chatID, userID string, afterSeq int64, limit int) ([]models.Message, error) {
	if _, err := s.authorized(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, chatID, afterSeq, limit)
}

// ListChats returns the caller's chats, most recently updated first.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	return s.chats.ListChatsFor(ctx, userID)
}

// GetChat loads a chat the caller participates in.
func (s *ChatService) GetChat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	return s.authorized(ctx, chatID, userID)
}

// SetTyping toggles the caller's typing indicator and notifies the chat
// stream. The flag is ephemeral UI state; it is not part of the log.
func (s *ChatService) SetTyping(ctx context.Context, chatID, userID string, typing bool) error {
	if _, err := s.authorized(ctx, chatID, userID); err != nil {
		return err
	}
	if err := s.chats.SetTyping(ctx, chatID, userID, typing); err != nil {
		return err
	}
	s.bus.Publish(live.NewEvent(live.TopicChat(chatID), live.KindTyping, map[string]any{
		"user_id": userID,
		"typing":  typing,
	}))
	return nil
}
