package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/leave-management/internal/model"
)

// TokenRepo stores refresh tokens by the SHA-256 hash of their raw value.
type TokenRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db, Now: time.Now} }

// StoreRefresh records a newly issued token.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, exp.UTC())
	return err
}

// GetByHash loads one token row.
func (r *TokenRepo) GetByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var (
		t       model.RefreshToken
		revoked sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM refresh_tokens WHERE token_hash = ? LIMIT 1`, tokenHash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revoked, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	if revoked.Valid {
		at := revoked.Time
		t.RevokedAt = &at
	}
	return t, nil
}

// ValidateRefresh returns the owner of a token that is neither revoked nor
// expired, and ErrTokenInvalid otherwise.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	t, err := r.GetByHash(ctx, tokenHash)
	if errors.Is(err, ErrNotFound) {
		return 0, ErrTokenInvalid
	}
	if err != nil {
		return 0, err
	}
	if t.RevokedAt != nil || r.Now().UTC().After(t.ExpiresAt) {
		return 0, ErrTokenInvalid
	}
	return t.UserID, nil
}

// RevokeByHash revokes one token.  Unknown or already revoked tokens are
// ignored.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	return r.revoke(ctx, "token_hash = ?", tokenHash)
}

// RevokeAllForUser ends every session of a user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return r.revoke(ctx, "user_id = ?", userID)
}

func (r *TokenRepo) revoke(ctx context.Context, where string, arg any) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE `+where+` AND revoked_at IS NULL`, arg)
	return err
}
