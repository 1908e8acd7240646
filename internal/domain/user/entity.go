// Package user contains the user domain model: identity plus cumulative
// progression (XP, level, streak, total study hours). This is core business
// logic - there are no external dependencies here.
package user

import (
	"errors"
	"strings"
	"time"
)

// XPPerLevel is the amount of XP that advances one level.
// Level is always derived: level == xp/100 + 1.
const XPPerLevel = 100

// LevelForXP computes the level for a given XP total.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// User is the central entity of FocusArena.
type User struct {
	// ID is the internal unique identifier (UUID in string form).
	ID string

	// Email is the unique login identity.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Name is the display name.
	Name string

	// AvatarURL is an optional profile picture URL.
	AvatarURL string

	// UniversityID is the optional campus affiliation. Nil when the user
	// has not joined a university.
	UniversityID *string

	// XP is the cumulative experience point total. Never negative.
	XP int

	// Level is derived from XP. Invariant: Level == XP/100 + 1 after
	// every mutation.
	Level int

	// StreakCount is the consecutive completed-session count. It is
	// incremented once per completed session, not per calendar day.
	StreakCount int

	// TotalStudyHours is the cumulative study time in hours.
	TotalStudyHours float64

	// Preferences holds free-form client preferences.
	Preferences map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain errors.
var (
	ErrInvalidEmail = errors.New("invalid email: must contain @ and be 3-254 chars")
	ErrInvalidName  = errors.New("invalid name: must be 2-100 chars")
	ErrNegativeXP   = errors.New("invalid xp: must be non-negative")
)

// NewUserParams contains parameters for creating a new user.
type NewUserParams struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	AvatarURL    string
}

// NewUser creates a user with zero progression. Users are created at first
// authentication and are never hard-deleted.
func NewUser(params NewUserParams) (*User, error) {
	if params.ID == "" {
		return nil, errors.New("user id is required")
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	if len(email) < 3 || len(email) > 254 || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	name := strings.TrimSpace(params.Name)
	if len(name) < 2 || len(name) > 100 {
		return nil, ErrInvalidName
	}

	now := time.Now().UTC()

	return &User{
		ID:           params.ID,
		Email:        email,
		PasswordHash: params.PasswordHash,
		Name:         name,
		AvatarURL:    params.AvatarURL,
		XP:           0,
		Level:        1,
		StreakCount:  0,
		Preferences:  map[string]any{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AddXP adds XP and recomputes the level. Returns true if the user leveled
// up. Negative deltas are rejected - XP only grows.
func (u *User) AddXP(delta int) (leveledUp bool, err error) {
	if delta < 0 {
		return false, ErrNegativeXP
	}

	u.XP += delta
	newLevel := LevelForXP(u.XP)
	leveledUp = newLevel > u.Level
	u.Level = newLevel
	u.UpdatedAt = time.Now().UTC()

	return leveledUp, nil
}

// RecordCompletedSession folds a settled session into the cumulative
// progression counters. Streak grows only for completed sessions.
func (u *User) RecordCompletedSession(actualMinutes int, completed bool) {
	u.TotalStudyHours += float64(actualMinutes) / 60
	if completed {
		u.StreakCount++
	}
	u.UpdatedAt = time.Now().UTC()
}

// JoinUniversity sets the campus affiliation.
func (u *User) JoinUniversity(universityID string) {
	u.UniversityID = &universityID
	u.UpdatedAt = time.Now().UTC()
}

// HasUniversity reports whether the user is campus-affiliated.
func (u *User) HasUniversity() bool {
	return u.UniversityID != nil && *u.UniversityID != ""
}

// Clone creates a shallow copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
