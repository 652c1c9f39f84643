package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// ErrTokenInvalid is returned for unknown, expired or revoked refresh tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")

// TokenRepo stores refresh tokens by their SHA-256 hash.  A token is
// live while revoked_at is NULL and expires_at lies in the future.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Issue records a freshly minted refresh token.
func (r *TokenRepo) Issue(ctx context.Context, userID uint64, hash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, hash, exp.UTC())
	if err != nil {
		return fmt.Errorf("issue refresh token: %w", err)
	}
	return nil
}

// Consume revokes a live token and returns its owner.  The row is
// locked for the duration so a token can be exchanged at most once.
func (r *TokenRepo) Consume(ctx context.Context, hash string, now time.Time) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var t model.RefreshToken
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? FOR UPDATE`,
		hash).Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.RevokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTokenInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("load refresh token: %w", err)
	}
	if !t.Live(now) {
		return 0, ErrTokenInvalid
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE id = ?`, now.UTC(), t.ID); err != nil {
		return 0, fmt.Errorf("revoke refresh token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return t.UserID, nil
}

// Revoke ends a single live token.  Unknown, expired or already revoked
// tokens give ErrTokenInvalid.
func (r *TokenRepo) Revoke(ctx context.Context, hash string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ?
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`,
		now.UTC(), hash, now.UTC())
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// RevokeUser ends every live token of a user (logout everywhere).
func (r *TokenRepo) RevokeUser(ctx context.Context, userID uint64, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		now.UTC(), userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}
	return res.RowsAffected()
}
