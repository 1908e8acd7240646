package user

import "time"

// RefreshToken is a persisted long-lived credential that can be exchanged
// for a fresh access token. Presenting a token rotates it: the old row is
// deleted and a new token is issued.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
