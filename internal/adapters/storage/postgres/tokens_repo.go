package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pet-adoption/internal/domain/passwordreset"
)

type ResetTokensRepo struct {
	db *sql.DB
}

func NewResetTokensRepo(db *sql.DB) *ResetTokensRepo {
	return &ResetTokensRepo{db: db}
}

func (r *ResetTokensRepo) Save(ctx context.Context, t passwordreset.Token) error {
	// limpieza oportunista de expirados
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE expires_at <= $1`, time.Now().UTC()); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reset_tokens (token, user_id, expires_at)
		VALUES ($1,$2,$3)
	`, t.Token, t.UserID, t.ExpiresAt)
	return err
}

func (r *ResetTokensRepo) Get(ctx context.Context, token string) (passwordreset.Token, error) {
	return r.one(ctx, `SELECT token, user_id, expires_at FROM reset_tokens WHERE token = $1`, token)
}

// Consume borra y devuelve en un solo statement; dos llamadas concurrentes no pueden ganar ambas.
func (r *ResetTokensRepo) Consume(ctx context.Context, token string) (passwordreset.Token, error) {
	return r.one(ctx, `DELETE FROM reset_tokens WHERE token = $1 RETURNING token, user_id, expires_at`, token)
}

func (r *ResetTokensRepo) one(ctx context.Context, q, token string) (passwordreset.Token, error) {
	var t passwordreset.Token
	err := r.db.QueryRowContext(ctx, q, token).Scan(&t.Token, &t.UserID, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return passwordreset.Token{}, passwordreset.ErrTokenNotFound
		}
		return passwordreset.Token{}, err
	}
	return t, nil
}

// RevokedTokensRepo implementa auth.TokenRevoker sobre Postgres.
type RevokedTokensRepo struct {
	db *sql.DB
}

func NewRevokedTokensRepo(db *sql.DB) *RevokedTokensRepo {
	return &RevokedTokensRepo{db: db}
}

func (r *RevokedTokensRepo) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (token_id, until)
		VALUES ($1,$2)
		ON CONFLICT (token_id) DO UPDATE SET until = EXCLUDED.until
	`, tokenID, until)
	return err
}

func (r *RevokedTokensRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1 AND until > now())
	`, tokenID).Scan(&revoked)
	return revoked, err
}
