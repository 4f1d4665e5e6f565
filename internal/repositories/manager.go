package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/ahmedembaby/chat/internal/models"
)

// Manager bundles the per-entity repositories so handlers and services can
// be wired against one dependency regardless of the backing store.
type Manager interface {
	Accounts() AccountRepository
	Users() UserRepository
	Chats() ChatRepository
	Stories() StoryRepository
}

type storeManager struct {
	accounts AccountRepository
	users    UserRepository
	chats    ChatRepository
	stories  StoryRepository
}

func (m *storeManager) Accounts() AccountRepository { return m.accounts }
func (m *storeManager) Users() UserRepository       { return m.users }
func (m *storeManager) Chats() ChatRepository       { return m.chats }
func (m *storeManager) Stories() StoryRepository    { return m.stories }

// NewStoreManager wires the Postgres-backed account repository and the
// Mongo-backed document repositories, running migrations and index builds.
func NewStoreManager(ctx context.Context, pg *gorm.DB, mongoDB *mongo.Database) (Manager, error) {
	if err := pg.AutoMigrate(&models.Account{}); err != nil {
		return nil, err
	}

	users := NewMongoUserRepository(mongoDB)
	if err := users.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	chats := NewMongoChatRepository(mongoDB)
	if err := chats.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	stories := NewMongoStoryRepository(mongoDB)
	if err := stories.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	return &storeManager{
		accounts: NewPostgresAccountRepository(pg),
		users:    users,
		chats:    chats,
		stories:  stories,
	}, nil
}

// NewMemoryManager returns an all-in-memory manager for tests and local
// development without databases.
func NewMemoryManager() Manager {
	return &storeManager{
		accounts: NewMemoryAccountRepository(),
		users:    NewMemoryUserRepository(),
		chats:    NewMemoryChatRepository(),
		stories:  NewMemoryStoryRepository(),
	}
}
