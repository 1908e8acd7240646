package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration is one versioned schema change.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator applies the embedded migrations in order, tracking progress in
// a schema_migrations table.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// GetAppliedMigrations returns the applied versions.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time

		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}

		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, isApplied := applied[mig.Version]; isApplied {
			continue
		}

		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}

			insertQuery := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// Rollback rolls back the last applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	var lastVersion int
	for v := range applied {
		if v > lastVersion {
			lastVersion = v
		}
	}
	if lastVersion == 0 {
		return nil
	}

	var migration *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == lastVersion {
			migration = &m.migrations[i]
			break
		}
	}
	if migration == nil || migration.DownSQL == "" {
		return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, lastVersion)
	}

	return m.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migration.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", lastVersion, err)
		}

		deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName)
		_, err := tx.Exec(ctx, deleteQuery, lastVersion)
		return err
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations in apply order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_universities", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_users", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_study_sessions", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_achievements", UpSQL: migration004Up, DownSQL: migration004Down},
		{Version: 5, Name: "create_friendships", UpSQL: migration005Up, DownSQL: migration005Down},
	}
}

const migration001Up = `
CREATE TABLE universities (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	country TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	logo_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE campuses (
	id UUID PRIMARY KEY,
	university_id UUID NOT NULL REFERENCES universities(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_campuses_university ON campuses(university_id);
`

const migration001Down = `
DROP TABLE IF EXISTS campuses;
DROP TABLE IF EXISTS universities;
`

const migration002Up = `
CREATE TABLE users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	name TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT '',
	university_id UUID REFERENCES universities(id) ON DELETE SET NULL,
	xp INTEGER NOT NULL DEFAULT 0 CHECK (xp >= 0),
	level INTEGER NOT NULL DEFAULT 1 CHECK (level >= 1),
	streak_count INTEGER NOT NULL DEFAULT 0 CHECK (streak_count >= 0),
	total_study_hours DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (total_study_hours >= 0),
	preferences JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX users_email_key ON users(LOWER(email));
CREATE INDEX idx_users_university ON users(university_id) WHERE university_id IS NOT NULL;
CREATE INDEX idx_users_xp ON users(xp DESC);

CREATE TABLE refresh_tokens (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token TEXT NOT NULL UNIQUE,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX idx_refresh_tokens_user ON refresh_tokens(user_id);
CREATE INDEX idx_refresh_tokens_expires ON refresh_tokens(expires_at);
`

const migration002Down = `
DROP TABLE IF EXISTS refresh_tokens;
DROP TABLE IF EXISTS users;
`

const migration003Up = `
CREATE TABLE study_sessions (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ,
	duration INTEGER NOT NULL CHECK (duration >= 0),
	subject TEXT NOT NULL DEFAULT '',
	task TEXT NOT NULL DEFAULT '',
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	xp_earned INTEGER NOT NULL DEFAULT 0 CHECK (xp_earned >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- At most one open session per user. The partial index makes the
-- invariant hold even under concurrent starts.
CREATE UNIQUE INDEX study_sessions_one_active_per_user
	ON study_sessions(user_id)
	WHERE completed = FALSE AND end_time IS NULL;

CREATE INDEX idx_sessions_user_start ON study_sessions(user_id, start_time DESC);
CREATE INDEX idx_sessions_completed_start ON study_sessions(start_time) WHERE completed = TRUE;
CREATE INDEX idx_sessions_subject ON study_sessions(subject) WHERE completed = TRUE AND subject <> '';
`

const migration003Down = `
DROP TABLE IF EXISTS study_sessions;
`

const migration004Up = `
CREATE TABLE achievements (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	icon TEXT NOT NULL DEFAULT '',
	xp_reward INTEGER NOT NULL DEFAULT 0 CHECK (xp_reward BETWEEN 0 AND 1000),
	condition JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE user_achievements (
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	achievement_id UUID NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
	unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, achievement_id)
);

CREATE INDEX idx_user_achievements_user ON user_achievements(user_id, unlocked_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS user_achievements;
DROP TABLE IF EXISTS achievements;
`

const migration005Up = `
CREATE TABLE friendships (
	id UUID PRIMARY KEY,
	requester_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	addressee_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'blocked')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (requester_id <> addressee_id)
);

-- One edge per unordered user pair regardless of request direction.
CREATE UNIQUE INDEX friendships_pair_key
	ON friendships(LEAST(requester_id, addressee_id), GREATEST(requester_id, addressee_id));

CREATE INDEX idx_friendships_addressee ON friendships(addressee_id) WHERE status = 'pending';
CREATE INDEX idx_friendships_requester ON friendships(requester_id) WHERE status = 'pending';
`

const migration005Down = `
DROP TABLE IF EXISTS friendships;
`
