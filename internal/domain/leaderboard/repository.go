package leaderboard

import "context"

// Repository computes rankings. Implementations run the whole ranking in
// SQL; the service layer only resolves scope inputs (friend ID lists,
// period windows) and caches results.
type Repository interface {
	// Rank returns one page of the leaderboard described by q, plus the
	// total number of ranked users.
	Rank(ctx context.Context, q Query) ([]*Entry, int, error)

	// StandingFor returns the viewer's own rank within the population
	// described by q, ignoring q's pagination.
	StandingFor(ctx context.Context, q Query, userID string) (*Standing, error)
}
