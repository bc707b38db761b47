package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"auth-service/internal/account/domain"
)

// uniqueViolation is the Postgres error code for a unique constraint violation.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `
		SELECT id, email, name, password_hash, federated_id, created_at, updated_at
		FROM accounts WHERE id = $1`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail returns the account with the given email, or nil if not found.
// Matching is case-insensitive. It returns an error only for database failures.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `
		SELECT id, email, name, password_hash, federated_id, created_at, updated_at
		FROM accounts WHERE lower(email) = lower($1)`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// Create persists the account. The account must have ID set; it is not
// assigned by this method. Returns ErrDuplicateEmail when the unique index
// on lower(email) rejects the insert.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	const query = `
		INSERT INTO accounts (id, email, name, password_hash, federated_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	name := sql.NullString{String: a.Name, Valid: a.Name != ""}
	hash := sql.NullString{String: a.PasswordHash, Valid: a.PasswordHash != ""}
	fid := sql.NullString{String: a.FederatedID, Valid: a.FederatedID != ""}
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Email, name, hash, fid, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// LinkFederatedID sets federated_id on the account only when it is currently
// NULL, then re-reads the row. The conditional update makes linking one-way
// and idempotent under concurrent federated logins.
func (r *PostgresRepository) LinkFederatedID(ctx context.Context, id, federatedID string) (*domain.Account, error) {
	const update = `
		UPDATE accounts SET federated_id = $2, updated_at = $3
		WHERE id = $1 AND federated_id IS NULL`
	if _, err := r.db.ExecContext(ctx, update, id, federatedID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	var name, hash, fid sql.NullString
	err := row.Scan(&a.ID, &a.Email, &name, &hash, &fid, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Name = name.String
	a.PasswordHash = hash.String
	a.FederatedID = fid.String
	return &a, nil
}
