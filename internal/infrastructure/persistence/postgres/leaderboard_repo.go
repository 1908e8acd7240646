package postgres

import (
	"context"
	"fmt"

	"github.com/focusarena/focusarena/internal/domain/leaderboard"
)

// LeaderboardRepository implements leaderboard.Repository on PostgreSQL.
// The whole ranking runs in one query: the sort key is lifetime XP while
// the per-entry counters are summed over completed sessions inside the
// requested window.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// rankedQuery builds the shared ranking CTE. Arguments:
//
//	$1 window start (nil means all-time)
//	$2 subject filter ('' means any)
//	$3 scope argument (university id or friend id array; unused for global)
//
// Ties in XP are broken by user id so pagination is stable.
func rankedQuery(q leaderboard.Query) (string, []any) {
	var windowStart any
	if !q.WindowStart.IsZero() {
		windowStart = q.WindowStart
	}

	args := []any{windowStart, q.Subject}

	scopeWhere := "TRUE"
	sessionJoin := "LEFT JOIN"

	switch q.Scope {
	case leaderboard.ScopeUniversity:
		args = append(args, q.UniversityID)
		scopeWhere = "u.university_id = $3"

	case leaderboard.ScopeFriends:
		population := append([]string{q.ViewerID}, q.FriendIDs...)
		args = append(args, population)
		scopeWhere = "u.id = ANY($3)"

	case leaderboard.ScopeSubject:
		// Only users with at least one completed session in the subject
		// and window are ranked.
		sessionJoin = "JOIN"
	}

	query := fmt.Sprintf(`
		WITH period_stats AS (
			SELECT user_id, COUNT(*) AS sessions, SUM(duration) AS minutes
			FROM study_sessions
			WHERE completed = TRUE
			  AND ($1::timestamptz IS NULL OR start_time >= $1)
			  AND ($2 = '' OR subject = $2)
			GROUP BY user_id
		),
		ranked AS (
			SELECT u.id, u.name, u.avatar_url,
			       COALESCE(u.university_id::text, '') AS university_id,
			       COALESCE(uni.name, '') AS university_name,
			       u.xp, u.level, u.streak_count, u.total_study_hours,
			       COALESCE(ps.sessions, 0) AS period_sessions,
			       COALESCE(ps.minutes, 0) AS period_minutes,
			       ROW_NUMBER() OVER (ORDER BY u.xp DESC, u.id) AS rank
			FROM users u
			LEFT JOIN universities uni ON uni.id = u.university_id
			%s period_stats ps ON ps.user_id = u.id
			WHERE %s
		)`, sessionJoin, scopeWhere)

	return query, args
}

// Rank returns one page of the leaderboard plus the ranked population
// size.
func (r *LeaderboardRepository) Rank(ctx context.Context, q leaderboard.Query) ([]*leaderboard.Entry, int, error) {
	base, args := rankedQuery(q)

	var total int
	countQuery := base + ` SELECT COUNT(*) FROM ranked`
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leaderboard: %w", err)
	}

	pageArgs := append(args, q.Limit, q.Offset())
	pageQuery := base + fmt.Sprintf(`
		SELECT rank, id, name, avatar_url, university_id, university_name,
		       xp, level, streak_count, total_study_hours,
		       period_sessions, period_minutes
		FROM ranked
		ORDER BY rank
		LIMIT $%d OFFSET $%d`, len(pageArgs)-1, len(pageArgs))

	rows, err := r.conn.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []*leaderboard.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		out = append(out, e)
	}

	return out, total, rows.Err()
}

// StandingFor returns one user's rank within the ranked population.
func (r *LeaderboardRepository) StandingFor(ctx context.Context, q leaderboard.Query, userID string) (*leaderboard.Standing, error) {
	base, args := rankedQuery(q)

	var total int
	if err := r.conn.QueryRow(ctx, base+` SELECT COUNT(*) FROM ranked`, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count leaderboard: %w", err)
	}

	entryArgs := append(args, userID)
	entryQuery := base + fmt.Sprintf(`
		SELECT rank, id, name, avatar_url, university_id, university_name,
		       xp, level, streak_count, total_study_hours,
		       period_sessions, period_minutes
		FROM ranked
		WHERE id = $%d`, len(entryArgs))

	e, err := scanEntry(r.conn.QueryRow(ctx, entryQuery, entryArgs...))
	if err != nil {
		if IsNoRows(err) {
			// The user is outside the population (no completed subject
			// sessions, not a friend, etc).
			return &leaderboard.Standing{Total: total}, nil
		}
		return nil, fmt.Errorf("query standing: %w", err)
	}

	return &leaderboard.Standing{Rank: e.Rank, Total: total, Entry: e}, nil
}

func scanEntry(row interface{ Scan(...any) error }) (*leaderboard.Entry, error) {
	var e leaderboard.Entry
	var periodMinutes int64
	err := row.Scan(
		&e.Rank, &e.UserID, &e.Name, &e.AvatarURL, &e.UniversityID, &e.UniversityName,
		&e.XP, &e.Level, &e.StreakCount, &e.TotalStudyHours,
		&e.PeriodSessions, &periodMinutes,
	)
	if err != nil {
		return nil, err
	}
	e.PeriodHours = float64(periodMinutes) / 60
	return &e, nil
}
