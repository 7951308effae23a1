package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Credential holds one user's stored Google Calendar tokens.  The refresh
// token is long-lived; the access token is refreshed as needed.
type Credential struct {
	UserID       uint64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ErrNoCredential is returned when the user has never connected a calendar
// or their stored credential was cleared after revocation.
var ErrNoCredential = errors.New("no calendar credential stored")

// CredentialRepo persists per-user OAuth tokens for calendar sync.
type CredentialRepo struct{ DB *sql.DB }

func NewCredentialRepo(db *sql.DB) *CredentialRepo { return &CredentialRepo{DB: db} }

// Get returns the stored credential for a user, or ErrNoCredential.
func (r *CredentialRepo) Get(ctx context.Context, userID uint64) (Credential, error) {
	var c Credential
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, access_token, refresh_token, expires_at FROM calendar_credentials WHERE user_id=? LIMIT 1",
		userID).Scan(&c.UserID, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, ErrNoCredential
	}
	return c, err
}

// Upsert stores a freshly exchanged token pair, replacing any previous row.
func (r *CredentialRepo) Upsert(ctx context.Context, c Credential) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO calendar_credentials (user_id, access_token, refresh_token, expires_at)
		 VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE access_token=VALUES(access_token),
		                         refresh_token=VALUES(refresh_token),
		                         expires_at=VALUES(expires_at)`,
		c.UserID, c.AccessToken, c.RefreshToken, c.ExpiresAt)
	return err
}

// UpdateAccess rewrites only the short-lived access token after a refresh.
func (r *CredentialRepo) UpdateAccess(ctx context.Context, userID uint64, accessToken string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE calendar_credentials SET access_token=?, expires_at=? WHERE user_id=?",
		accessToken, expiresAt, userID)
	return err
}

// Clear removes the stored credential entirely.  Called when Google reports
// the refresh token as expired or revoked; the user must re-authenticate.
func (r *CredentialRepo) Clear(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM calendar_credentials WHERE user_id=?", userID)
	return err
}
