package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists operator refresh sessions.  Only the SHA-256 hash of a
// refresh token is stored; the raw value exists nowhere but in the
// operator's client.  Rows are never deleted while live: revocation is a
// revoked_at stamp, which keeps an audit trail of session history.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a freshly issued refresh session for an operator.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh resolves a token hash to its operator if the session is
// live: present, not revoked, not past its expiry.  Any dead session
// reports sql.ErrNoRows so callers cannot distinguish why it failed.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// Consume validates and revokes a refresh session in one transaction: the
// rotation step of the refresh flow.  Two concurrent refreshes with the
// same token serialize on the row lock; the loser sees a revoked session
// and gets sql.ErrNoRows.
func (r *TokenRepo) Consume(ctx context.Context, tokenHash string) (userID uint64, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var (
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? FOR UPDATE",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		err = sql.ErrNoRows
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=?", tokenHash); err != nil {
		return 0, err
	}
	return userID, nil
}

// RevokeByHash ends one session (logout from one device).
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser ends every live session of an operator (logout
// everywhere).
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
