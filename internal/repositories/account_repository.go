package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/models"
)

// AccountRepository defines the interface for identity account operations
type AccountRepository interface {
	CreateAccount(account *models.Account) error
	GetAccountByUID(uid string) (*models.Account, error)
	GetAccountByEmail(email string) (*models.Account, error)
	GetAccountByFirebaseUID(firebaseUID string) (*models.Account, error)
	UpdateAccount(account *models.Account) error
	DeleteAccountByUID(uid string) error
}

// PostgresAccountRepository implements AccountRepository for PostgreSQL
type PostgresAccountRepository struct {
	db *gorm.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db *gorm.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

func translateAccountErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFoundf("account not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflictf("account already exists")
	default:
		return apperr.Transient("account store failure", err)
	}
}

// CreateAccount creates a new account row
func (r *PostgresAccountRepository) CreateAccount(account *models.Account) error {
	return translateAccountErr(r.db.Create(account).Error)
}

// GetAccountByUID retrieves an account by its stable user id
func (r *PostgresAccountRepository) GetAccountByUID(uid string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("uid = ?", uid).First(&account).Error; err != nil {
		return nil, translateAccountErr(err)
	}
	return &account, nil
}

// GetAccountByEmail retrieves an account by email
func (r *PostgresAccountRepository) GetAccountByEmail(email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translateAccountErr(err)
	}
	return &account, nil
}

// GetAccountByFirebaseUID retrieves an account by its Firebase UID
func (r *PostgresAccountRepository) GetAccountByFirebaseUID(firebaseUID string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("firebase_uid = ?", firebaseUID).First(&account).Error; err != nil {
		return nil, translateAccountErr(err)
	}
	return &account, nil
}

// UpdateAccount updates an existing account row
func (r *PostgresAccountRepository) UpdateAccount(account *models.Account) error {
	return translateAccountErr(r.db.Save(account).Error)
}

// DeleteAccountByUID deletes the account with the given user id
func (r *PostgresAccountRepository) DeleteAccountByUID(uid string) error {
	return translateAccountErr(r.db.Where("uid = ?", uid).Delete(&models.Account{}).Error)
}
