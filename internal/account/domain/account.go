package domain

import (
	"errors"
	"time"
)

// Account is the durable identity record. ID and Email are immutable after
// creation. PasswordHash is present only when the account supports password
// login and must never leave the store/service boundary. FederatedID is set
// at federated first-login or when linking a federated identity to an
// existing password account; once set it is never overwritten or cleared.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	FederatedID  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account supports password login.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// Validate validates the account for persistence. Every account must carry at
// least one authentication method. Returns an error describing the first
// validation failure.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("id is required")
	}
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.PasswordHash == "" && a.FederatedID == "" {
		return errors.New("account needs a password hash or a federated identity")
	}
	return nil
}
