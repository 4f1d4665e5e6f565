package repositories

import (
	"strings"
	"sync"

	"github.com/ahmedembaby/chat/internal/apperr"
	"github.com/ahmedembaby/chat/internal/models"
)

// memoryAccountRepository is the in-memory AccountRepository.
type memoryAccountRepository struct {
	mu       sync.Mutex
	nextID   uint
	accounts map[string]*models.Account // keyed by UID
}

// NewMemoryAccountRepository creates an empty in-memory account repository
func NewMemoryAccountRepository() *memoryAccountRepository {
	return &memoryAccountRepository{accounts: make(map[string]*models.Account), nextID: 1}
}

func cloneAccount(a *models.Account) *models.Account {
	out := *a
	return &out
}

func (r *memoryAccountRepository) CreateAccount(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return apperr.Conflictf("account already exists")
		}
		if account.LinkedToFirebase() && a.LinkedToFirebase() && *a.FirebaseUID == *account.FirebaseUID {
			return apperr.Conflictf("account already exists")
		}
	}
	account.ID = r.nextID
	r.nextID++
	r.accounts[account.UID] = cloneAccount(account)
	return nil
}

func (r *memoryAccountRepository) GetAccountByUID(uid string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[uid]; ok {
		return cloneAccount(a), nil
	}
	return nil, apperr.NotFoundf("account not found")
}

func (r *memoryAccountRepository) GetAccountByEmail(email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			return cloneAccount(a), nil
		}
	}
	return nil, apperr.NotFoundf("account not found")
}

func (r *memoryAccountRepository) GetAccountByFirebaseUID(firebaseUID string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.LinkedToFirebase() && *a.FirebaseUID == firebaseUID {
			return cloneAccount(a), nil
		}
	}
	return nil, apperr.NotFoundf("account not found")
}

func (r *memoryAccountRepository) UpdateAccount(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.UID]; !ok {
		return apperr.NotFoundf("account not found")
	}
	r.accounts[account.UID] = cloneAccount(account)
	return nil
}

func (r *memoryAccountRepository) DeleteAccountByUID(uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, uid)
	return nil
}
