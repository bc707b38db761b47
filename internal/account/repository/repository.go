package repository

import (
	"context"
	"errors"

	"auth-service/internal/account/domain"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
// The store enforces uniqueness itself (unique index on lower(email)) so a
// concurrent check-then-create cannot slip in a duplicate account.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository defines persistence for accounts. Lookups return nil, nil when
// no row matches; errors are reserved for infrastructure failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	// LinkFederatedID sets the account's federated ID if it is currently
	// unset and returns the account as stored. Linking is one-way and
	// idempotent; an already-linked account is returned unchanged.
	LinkFederatedID(ctx context.Context, id, federatedID string) (*domain.Account, error)
}
