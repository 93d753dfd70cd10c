package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/Diego23-co/GoPredict/internal/domain/account"
)

type AccountRepository struct {
	mu      sync.RWMutex
	byName  map[string]account.Account
	byEmail map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byName:  make(map[string]account.Account),
		byEmail: make(map[string]string),
	}
}

func (r *AccountRepository) Create(_ context.Context, a account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[a.Username]; exists {
		return account.ErrDuplicate
	}
	if email := normalizeEmail(a.Email); email != "" {
		if _, exists := r.byEmail[email]; exists {
			return account.ErrDuplicate
		}
		r.byEmail[email] = a.Username
	}
	r.byName[a.Username] = a
	return nil
}

func (r *AccountRepository) GetByUsername(_ context.Context, username string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byName[username]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return r.byName[username], nil
}

func (r *AccountRepository) Update(_ context.Context, a account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[a.Username]; !ok {
		return account.ErrNotFound
	}
	r.byName[a.Username] = a
	return nil
}

func (r *AccountRepository) List(_ context.Context) ([]account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]account.Account, 0, len(r.byName))
	for _, a := range r.byName {
		out = append(out, a)
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
