package user

import (
	"context"
	"time"
)

// Repository defines the persistence operations for users.
//
// AwardXP and ApplySettlement mutate progression counters with single
// atomic statements so that concurrent writers (session completion,
// achievement unlock) can never observe or store a level that disagrees
// with the stored XP.
type Repository interface {
	// Create persists a new user. Returns shared.ErrUserAlreadyExists
	// when the email is taken.
	Create(ctx context.Context, u *User) error

	// GetByID returns the user or shared.ErrUserNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail returns the user or shared.ErrUserNotFound. The lookup
	// is case-insensitive.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateProfile persists name, avatar URL, university affiliation
	// and preferences. Progression counters are not written here.
	UpdateProfile(ctx context.Context, u *User) error

	// AwardXP atomically adds delta XP and recomputes the level in the
	// same statement. Returns the updated user.
	AwardXP(ctx context.Context, userID string, delta int) (*User, error)

	// Search finds users by name or email fragment, excluding the viewer.
	Search(ctx context.Context, viewerID, query string, limit int) ([]*User, error)
}

// TokenRepository persists refresh tokens. Tokens are opaque random
// strings; rotation deletes the presented token and stores a new one.
type TokenRepository interface {
	Save(ctx context.Context, t *RefreshToken) error

	// FindByToken returns the stored token or
	// shared.ErrRefreshTokenInvalid when unknown or expired.
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)

	// DeleteByToken invalidates a single token. Unknown tokens are not
	// an error.
	DeleteByToken(ctx context.Context, token string) error

	// DeleteForUser invalidates every token of a user (logout-all).
	DeleteForUser(ctx context.Context, userID string) error

	// PurgeExpired removes tokens past their expiry. Returns the number
	// of rows removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
