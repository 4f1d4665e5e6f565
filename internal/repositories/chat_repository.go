package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/models"
)

// ChatRepository defines the interface for the chat registry and message log.
type ChatRepository interface {
	// GetOrCreateChat returns the single chat for the unordered pair,
	// creating it idempotently. The second return value reports creation.
	GetOrCreateChat(ctx context.Context, a, b string) (*models.Chat, bool, error)
	GetChat(ctx context.Context, id string) (*models.Chat, error)
	ListChatsFor(ctx context.Context, userID string) ([]models.Chat, error)

	// AppendMessage assigns the message id, server timestamp and per-chat
	// sequence, inserts it, and updates the chat summary — all or nothing.
	AppendMessage(ctx context.Context, chatID string, msg *models.Message) (*models.Message, error)
	ListMessages(ctx context.Context, chatID string, afterSeq int64, limit int) ([]models.Message, error)
	// MarkRead adds the user to every unread message's readBy set and to the
	// lastMessage summary. Idempotent; returns the number of patched messages.
	MarkRead(ctx context.Context, chatID, userID string) (int64, error)
	SetTyping(ctx context.Context, chatID, userID string, typing bool) error
}

type mongoChatRepository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

// NewMongoChatRepository creates a ChatRepository backed by the chats and
// messages collections
func NewMongoChatRepository(db *mongo.Database) *mongoChatRepository {
	return &mongoChatRepository{
		chats:    db.Collection("chats"),
		messages: db.Collection("messages"),
	}
}

func (r *mongoChatRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "seq", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = r.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
	})
	return err
}

func (r *mongoChatRepository) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.chats.Database().Client().StartSession()
	if err != nil {
		return apperr.Transient("chat store unavailable", err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// GetOrCreateChat upserts on the deterministic pair key: both participants
// racing here converge on one document, never two.
func (r *mongoChatRepository) GetOrCreateChat(ctx context.Context, a, b string) (*models.Chat, bool, error) {
	id := models.PairKey(a, b)
	now := time.Now().UTC()
	res, err := r.chats.UpdateByID(ctx, id, bson.M{"$setOnInsert": models.Chat{
		ID:           id,
		Participants: []string{a, b},
		LastMessage:  nil,
		MessageCount: 0,
		TypingStatus: map[string]bool{a: false, b: false},
		CreatedAt:    now,
		UpdatedAt:    now,
	}}, options.Update().SetUpsert(true))
	if err != nil {
		return nil, false, apperr.Transient("failed to open chat", err)
	}
	chat, err := r.GetChat(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return chat, res.UpsertedCount > 0, nil
}

func (r *mongoChatRepository) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	err := r.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFoundf("chat %s not found", id)
	}
	if err != nil {
		return nil, apperr.Transient("failed to load chat", err)
	}
	return &chat, nil
}

func (r *mongoChatRepository) ListChatsFor(ctx context.Context, userID string) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.chats.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, apperr.Transient("failed to list chats", err)
	}
	defer cursor.Close(ctx)

	var chats []models.Chat
	if err = cursor.All(ctx, &chats); err != nil {
		return nil, apperr.Transient("failed to decode chats", err)
	}
	return chats, nil
}

// AppendMessage takes the per-chat sequence from the incremented counter
// inside the transaction, so the order of committed messages never depends
// on client clocks and the count always matches the log.
func (r *mongoChatRepository) AppendMessage(ctx context.Context, chatID string, msg *models.Message) (*models.Message, error) {
	err := r.withTxn(ctx, func(sc mongo.SessionContext) error {
		after := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var chat models.Chat
		err := r.chats.FindOneAndUpdate(sc,
			bson.M{"_id": chatID},
			bson.M{"$inc": bson.M{"message_count": 1}},
			after,
		).Decode(&chat)
		if err == mongo.ErrNoDocuments {
			return apperr.NotFoundf("chat %s not found", chatID)
		}
		if err != nil {
			return apperr.Transient("failed to sequence message", err)
		}

		msg.ID = primitive.NewObjectID().Hex()
		msg.ChatID = chatID
		msg.Seq = chat.MessageCount
		msg.CreatedAt = time.Now().UTC()

		if _, err := r.messages.InsertOne(sc, msg); err != nil {
			return apperr.Transient("failed to insert message", err)
		}

		_, err = r.chats.UpdateByID(sc, chatID, bson.M{"$set": bson.M{
			"last_message": models.LastMessage{
				Text:      msg.Text,
				ImageRef:  msg.ImageRef,
				SenderID:  msg.SenderID,
				CreatedAt: msg.CreatedAt,
				ReadBy:    msg.ReadBy,
			},
			"updated_at": msg.CreatedAt,
		}})
		if err != nil {
			return apperr.Transient("failed to update chat summary", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *mongoChatRepository) ListMessages(ctx context.Context, chatID string, afterSeq int64, limit int) ([]models.Message, error) {
	filter := bson.M{"chat_id": chatID}
	if afterSeq > 0 {
		filter["seq"] = bson.M{"$gt": afterSeq}
	}
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Transient("failed to list messages", err)
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, apperr.Transient("failed to decode messages", err)
	}
	return messages, nil
}

func (r *mongoChatRepository) MarkRead(ctx context.Context, chatID, userID string) (int64, error) {
	var patched int64
	err := r.withTxn(ctx, func(sc mongo.SessionContext) error {
		res, err := r.messages.UpdateMany(sc,
			bson.M{"chat_id": chatID, "read_by": bson.M{"$ne": userID}},
			bson.M{"$addToSet": bson.M{"read_by": userID}},
		)
		if err != nil {
			return apperr.Transient("failed to mark messages read", err)
		}
		patched = res.ModifiedCount

		_, err = r.chats.UpdateOne(sc,
			bson.M{"_id": chatID, "last_message": bson.M{"$ne": nil}},
			bson.M{"$addToSet": bson.M{"last_message.read_by": userID}},
		)
		if err != nil {
			return apperr.Transient("failed to mark chat summary read", err)
		}
		return nil
	})
	return patched, err
}

func (r *mongoChatRepository) SetTyping(ctx context.Context, chatID, userID string, typing bool) error {
	res, err := r.chats.UpdateByID(ctx, chatID, bson.M{"$set": bson.M{"typing_status." + userID: typing}})
	if err != nil {
		return apperr.Transient("failed to set typing status", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("chat %s not found", chatID)
	}
	return nil
}
