package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash'
// column).  Tokens are keyed by the session identity: email plus the
// role the server asserted when the session was created, so a rotated
// token re-issues the same role without re-deciding it.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, email, role, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (email, role, token_hash, expires_at) VALUES (?,?,?,?)",
		email, role, tokenHash, exp)
	return err
}

// ValidateRefresh returns the session identity if a non-revoked,
// non-expired token exists for the hash.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (email, role string, err error) {
	var (
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err = r.DB.QueryRowContext(ctx,
		"SELECT email, role, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&email, &role, &expiresAt, &revokedAt)
	if err != nil {
		return "", "", err
	}
	if revokedAt.Valid {
		return "", "", sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return "", "", sql.ErrNoRows
	}
	return email, role, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForEmail revokes every active token for one identity,
// logging that person out of all sessions.
func (r *TokenRepo) RevokeAllForEmail(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE email=? AND revoked_at IS NULL",
		email)
	return err
}
