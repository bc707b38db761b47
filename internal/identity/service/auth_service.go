package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"auth-service/internal/account/domain"
	"auth-service/internal/account/repository"
	"auth-service/internal/security"
)

// Sentinel errors for the auth service; the handler maps them to HTTP status
// codes. Store failures are not translated and propagate unchanged.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// minPasswordLength is the minimum accepted password length at signup.
const minPasswordLength = 6

// AuthResult holds the outcome of a successful Login or FederatedLogin.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	AccountID string
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	LinkFederatedID(ctx context.Context, id, federatedID string) (*domain.Account, error)
}

// AuthService orchestrates signup, password login, and federated login. It
// holds no state of its own; every request runs to a single terminal outcome
// with no internal retries (the reconciler's duplicate-create recovery is the
// one exception, and it is idempotent).
type AuthService struct {
	accounts   AccountRepo
	reconciler *Reconciler
	hasher     *security.Hasher
	tokens     *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(accounts AccountRepo, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{
		accounts:   accounts,
		reconciler: NewReconciler(accounts),
		hasher:     hasher,
		tokens:     tokens,
	}
}

// Signup creates a password account with the given email. It fails with
// ErrAccountExists when the email is taken, whether caught by the pre-check
// or by the store's unique index under a concurrent signup. Signup does not
// imply login: no token is issued.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*domain.Account, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	return account, nil
}

// Login authenticates with email and password and issues a session token.
// A missing account, a federated-only account, and a wrong password all fail
// with the same ErrInvalidCredentials so the caller learns nothing about
// which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(account.PasswordHash, []byte(password)) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(account)
}

// FederatedLogin reconciles a federated identity assertion with the account
// records and issues a session token. It never fails for an unknown account;
// a first login creates one.
func (s *AuthService) FederatedLogin(ctx context.Context, name, email, federatedID string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(federatedID) == "" {
		return nil, fmt.Errorf("%w: federated id is required", ErrInvalidInput)
	}
	account, err := s.reconciler.Reconcile(ctx, strings.TrimSpace(name), email, strings.TrimSpace(federatedID))
	if err != nil {
		return nil, err
	}
	return s.issue(account)
}

func (s *AuthService) issue(account *domain.Account) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, AccountID: account.ID}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}
