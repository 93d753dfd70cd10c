package account

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("account not found")
	ErrDuplicate = errors.New("account already exists")
)

type Repository interface {
	// Create returns ErrDuplicate when the username is taken.
	Create(ctx context.Context, a Account) error

	GetByUsername(ctx context.Context, username string) (Account, error)

	// GetByEmail supports logging in with either identifier.
	GetByEmail(ctx context.Context, email string) (Account, error)

	Update(ctx context.Context, a Account) error

	// List returns every registered account; the leaderboard ranks all
	// users, including those with no predictions.
	List(ctx context.Context) ([]Account, error)
}
