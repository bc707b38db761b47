package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"auth-service/internal/account/domain"
	"auth-service/internal/account/repository"
)

// Reconciler merges a federated-login assertion (name, email, federated ID)
// with the account records. Email is the sole join key between the two login
// methods: a federated login for an email that already has a password account
// must link to it, never create a second account.
type Reconciler struct {
	accounts AccountRepo
}

// NewReconciler returns a Reconciler over the given account repository.
func NewReconciler(accounts AccountRepo) *Reconciler {
	return &Reconciler{accounts: accounts}
}

// Reconcile returns the single authoritative account for the assertion.
// An existing account without a federated ID is linked; an existing account
// with one is returned unchanged (idempotent re-login); otherwise a new
// federated-only account is created. When a concurrent first login wins the
// create race, the store's unique index reports a duplicate and Reconcile
// falls back to linking the row that won.
func (r *Reconciler) Reconcile(ctx context.Context, name, email, federatedID string) (*domain.Account, error) {
	account, err := r.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return r.link(ctx, account, federatedID)
	}

	now := time.Now().UTC()
	account = &domain.Account{
		ID:          uuid.New().String(),
		Email:       email,
		Name:        name,
		FederatedID: federatedID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = r.accounts.Create(ctx, account)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, err
	}

	// Lost the create race; the email now exists. Link to the winner.
	account, err = r.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account for %q vanished after duplicate create", email)
	}
	return r.link(ctx, account, federatedID)
}

func (r *Reconciler) link(ctx context.Context, account *domain.Account, federatedID string) (*domain.Account, error) {
	if account.FederatedID != "" {
		return account, nil
	}
	return r.accounts.LinkFederatedID(ctx, account.ID, federatedID)
}
