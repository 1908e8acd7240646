package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

// TokenRepository implements user.TokenRepository on PostgreSQL.
type TokenRepository struct {
	conn *Connection
}

// NewTokenRepository creates a TokenRepository.
func NewTokenRepository(conn *Connection) *TokenRepository {
	return &TokenRepository{conn: conn}
}

// Save persists a refresh token.
func (r *TokenRepository) Save(ctx context.Context, t *user.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.conn.Exec(ctx, query, t.ID, t.UserID, t.Token, t.ExpiresAt, t.CreatedAt); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// FindByToken returns the stored token or shared.ErrRefreshTokenInvalid.
func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*user.RefreshToken, error) {
	var t user.RefreshToken
	err := r.conn.QueryRow(ctx,
		`SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE token = $1`,
		token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("select refresh token: %w", err)
	}

	return &t, nil
}

// DeleteByToken invalidates a single token.
func (r *TokenRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// DeleteForUser invalidates every token of a user.
func (r *TokenRepository) DeleteForUser(ctx context.Context, userID string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user refresh tokens: %w", err)
	}
	return nil
}

// PurgeExpired removes tokens past their expiry.
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
