package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/models"
)

// UserRepository defines the interface for directory and social-graph data
// operations. The relationship methods each mutate both user documents and
// must be atomic: a reader never observes one-sided mirrored state.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	ClaimUsername(ctx context.Context, id, username, bio string, loc models.Location) error
	UpdateProfile(ctx context.Context, id string, fields map[string]any) error
	DeleteUser(ctx context.Context, id string) error
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)

	AddInvite(ctx context.Context, from, to string) error
	RemoveInvite(ctx context.Context, from, to string) error
	AcceptInvite(ctx context.Context, receiver, sender string) error
	RemoveFriendship(ctx context.Context, a, b string) error
	Block(ctx context.Context, actor, target string) error
}

type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a UserRepository backed by the users collection
func NewMongoUserRepository(db *mongo.Database) *mongoUserRepository {
	return &mongoUserRepository{collection: db.Collection("users")}
}

// EnsureIndexes builds the unique username index. The index is partial so
// profiles that have not claimed a username yet do not collide on "".
func (r *mongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"username": bson.M{"$gt": ""}}),
	})
	return err
}

func (r *mongoUserRepository) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return apperr.Transient("user store unavailable", err)
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *mongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflictf("user %s already exists", user.ID)
	}
	if err != nil {
		return apperr.Transient("failed to create user", err)
	}
	return nil
}

func (r *mongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFoundf("user %s not found", id)
	}
	if err != nil {
		return nil, apperr.Transient("failed to load user", err)
	}
	return &user, nil
}

// GetUsersByIDs resolves the given ids, silently skipping dangling ones.
func (r *mongoUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Transient("failed to load users", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, apperr.Transient("failed to decode users", err)
	}
	return users, nil
}

func (r *mongoUserRepository) ClaimUsername(ctx context.Context, id, username, bio string, loc models.Location) error {
	res, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"username": username,
		"bio":      bio,
		"location": loc,
	}})
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflictf("username %q is already taken", username)
	}
	if err != nil {
		return apperr.Transient("failed to claim username", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("user %s not found", id)
	}
	return nil
}

func (r *mongoUserRepository) UpdateProfile(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	res, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return apperr.Transient("failed to update profile", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("user %s not found", id)
	}
	return nil
}

func (r *mongoUserRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Transient("failed to delete user", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFoundf("user %s not found", id)
	}
	return nil
}

func (r *mongoUserRepository) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_seen": at}})
	if err != nil {
		return apperr.Transient("failed to touch last seen", err)
	}
	return nil
}

// SearchUsers matches on username or display name, case-insensitive.
func (r *mongoUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"name": bson.M{"$regex": query, "$options": "i"}},
	}}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "username", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Transient("failed to search users", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, apperr.Transient("failed to decode users", err)
	}
	return users, nil
}

func (r *mongoUserRepository) pairUpdate(sc mongo.SessionContext, id string, update bson.M) error {
	res, err := r.collection.UpdateByID(sc, id, update)
	if err != nil {
		return apperr.Transient("failed to update relationship", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFoundf("user %s not found", id)
	}
	return nil
}

// AddInvite records a pending invite on both sides.
func (r *mongoUserRepository) AddInvite(ctx context.Context, from, to string) error {
	return r.withTxn(ctx, func(sc mongo.SessionContext) error {
		if err := r.pairUpdate(sc, from, bson.M{"$addToSet": bson.M{"invites_sent": to}}); err != nil {
			return err
		}
		return r.pairUpdate(sc, to, bson.M{"$addToSet": bson.M{"invites_received": from}})
	})
}

// RemoveInvite withdraws a pending invite from both sides.
func (r *mongoUserRepository) RemoveInvite(ctx context.Context, from, to string) error {
	return r.withTxn(ctx, func(sc mongo.SessionContext) error {
		if err := r.pairUpdate(sc, from, bson.M{"$pull": bson.M{"invites_sent": to}}); err != nil {
			return err
		}
		return r.pairUpdate(sc, to, bson.M{"$pull": bson.M{"invites_received": from}})
	})
}

// AcceptInvite promotes a pending invite to a mirrored friendship and clears
// invite entries in both directions so the sets stay pairwise disjoint.
func (r *mongoUserRepository) AcceptInvite(ctx context.Context, receiver, sender string) error {
	return r.withTxn(ctx, func(sc mongo.SessionContext) error {
		if err := r.pairUpdate(sc, receiver, bson.M{
			"$addToSet": bson.M{"friends": sender},
			"$pull":     bson.M{"invites_received": sender, "invites_sent": sender},
		}); err != nil {
			return err
		}
		return r.pairUpdate(sc, sender, bson.M{
			"$addToSet": bson.M{"friends": receiver},
			"$pull":     bson.M{"invites_sent": receiver, "invites_received": receiver},
		})
	})
}

// RemoveFriendship deletes the mirrored friends entries.
func (r *mongoUserRepository) RemoveFriendship(ctx context.Context, a, b string) error {
	return r.withTxn(ctx, func(sc mongo.SessionContext) error {
		if err := r.pairUpdate(sc, a, bson.M{"$pull": bson.M{"friends": b}}); err != nil {
			return err
		}
		return r.pairUpdate(sc, b, bson.M{"$pull": bson.M{"friends": a}})
	})
}

// Block records the block on the actor only and strips any friendship or
// invites between the pair in both directions.
func (r *mongoUserRepository) Block(ctx context.Context, actor, target string) error {
	return r.withTxn(ctx, func(sc mongo.SessionContext) error {
		if err := r.pairUpdate(sc, actor, bson.M{
			"$addToSet": bson.M{"blocked_users": target},
			"$pull":     bson.M{"friends": target, "invites_sent": target, "invites_received": target},
		}); err != nil {
			return err
		}
		return r.pairUpdate(sc, target, bson.M{
			"$pull": bson.M{"friends": actor, "invites_sent": actor, "invites_received": actor},
		})
	})
}
