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

// StoryRepository defines the interface for story operations
type StoryRepository interface {
	// ReplaceStory deletes the owner's existing story (if any) and inserts
	// the new one atomically, preserving the single-active invariant.
	ReplaceStory(ctx context.Context, story *models.Story) error
	DeleteStoriesForOwner(ctx context.Context, ownerID string) (bool, error)
	GetStoryByID(ctx context.Context, id string) (*models.Story, error)
	// ListStoriesForOwners returns unexpired stories for the given owners,
	// newest first.
	ListStoriesForOwners(ctx context.Context, ownerIDs []string, now time.Time) ([]models.Story, error)
	LikeStory(ctx context.Context, storyID, userID string) error
	DeleteExpiredStories(ctx context.Context, now time.Time) (int64, error)
}

type mongoStoryRepository struct {
	collection *mongo.Collection
}

// NewMongoStoryRepository creates a StoryRepository backed by the stories collection
func NewMongoStoryRepository(db *mongo.Database) *mongoStoryRepository {
	return &mongoStoryRepository{collection: db.Collection("stories")}
}

func (r *mongoStoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
	})
	return err
}

func (r *mongoStoryRepository) ReplaceStory(ctx context.Context, story *models.Story) error {
	if story.ID == "" {
		story.ID = primitive.NewObjectID().Hex()
	}
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return apperr.Transient("story store unavailable", err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.collection.DeleteMany(sc, bson.M{"owner_id": story.OwnerID}); err != nil {
			return nil, apperr.Transient("failed to supersede story", err)
		}
		if _, err := r.collection.InsertOne(sc, story); err != nil {
			return nil, apperr.Transient("failed to insert story", err)
		}
		return nil, nil
	})
	return err
}

func (r *mongoStoryRepository) DeleteStoriesForOwner(ctx context.Context, ownerID string) (bool, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return false, apperr.Transient("failed to delete story", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoStoryRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	var story models.Story
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&story)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFoundf("story %s not found", id)
	}
	if err != nil {
		return nil, apperr.Transient("failed to load story", err)
	}
	return &story, nil
}

func (r *mongoStoryRepository) ListStoriesForOwners(ctx context.Context, ownerIDs []string, now time.Time) ([]models.Story, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"owner_id":   bson.M{"$in": ownerIDs},
		"expires_at": bson.M{"$gt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Transient("failed to list stories", err)
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, apperr.Transient("failed to decode stories", err)
	}
	return stories, nil
}

func (r *mongoStoryRepository) LikeStory(ctx context.Context, storyID, userID string) error {
	res, err := r.collection.UpdateByID(ctx, storyID, bson.M{"$addToSet": bson.M{"likes": userID}})
	if err != nil {
		return apperr.Transient("failed to like story", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("story %s not found", storyID)
	}
	return nil
}

func (r *mongoStoryRepository) DeleteExpiredStories(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, apperr.Transient("failed to sweep stories", err)
	}
	return res.DeletedCount, nil
}
