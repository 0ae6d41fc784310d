package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jfmyers9/lastfm-auth/internal/identity"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists local users and their Last.fm links in SQLite
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (or creates) the user database at dbPath
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool size to 1 for in-memory databases to ensure consistency
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			full_name TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS social_auth (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			provider TEXT NOT NULL,
			uid TEXT NOT NULL,
			extra_data TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			UNIQUE (provider, uid)
		);

		CREATE INDEX IF NOT EXISTS idx_social_auth_user ON social_auth(user_id);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const selectUser = `
	SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.full_name,
		COALESCE(a.provider, ''), COALESCE(a.uid, ''), COALESCE(a.extra_data, '{}'),
		u.created_at, u.updated_at
	FROM users u
	LEFT JOIN social_auth a ON a.user_id = u.id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*identity.User, error) {
	var u identity.User
	var extra string
	var createdAt, updatedAt int64

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.FullName,
		&u.Provider,
		&u.UID,
		&extra,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(extra), &u.Extra); err != nil {
		return nil, fmt.Errorf("failed to decode extra data: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)

	return &u, nil
}

// FindByExternalID returns the user linked to uid at provider
func (s *SQLiteStore) FindByExternalID(ctx context.Context, provider, uid string) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+" WHERE a.provider = ? AND a.uid = ?", provider, uid)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by external id: %w", err)
	}
	return u, nil
}

// GetUser returns the user with the given local id
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*identity.User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+" WHERE u.id = ?", id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateOrUpdate links uid at provider to a local user, creating the user on
// first login. Existing users keep their username; names and extra data are
// refreshed from c. The boolean result reports whether a user was created.
func (s *SQLiteStore) CreateOrUpdate(ctx context.Context, provider, uid string, c identity.Canonical) (*identity.User, bool, error) {
	extra, err := json.Marshal(c.Extra)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode extra data: %w", err)
	}
	if c.Extra == nil {
		extra = []byte("{}")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().Unix()

	var userID string
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM social_auth WHERE provider = ? AND uid = ?",
		provider, uid,
	).Scan(&userID)

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		username, err := uniqueUsername(ctx, tx, c.Username)
		if err != nil {
			return nil, false, err
		}

		userID = uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, email, first_name, last_name, full_name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, userID, username, c.Email, c.FirstName, c.LastName, c.FullName, now, now); err != nil {
			return nil, false, fmt.Errorf("failed to insert user: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO social_auth (user_id, provider, uid, extra_data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, userID, provider, uid, string(extra), now, now); err != nil {
			return nil, false, fmt.Errorf("failed to insert social auth: %w", err)
		}
		created = true

	case err != nil:
		return nil, false, fmt.Errorf("failed to look up social auth: %w", err)

	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET first_name = ?, last_name = ?, full_name = ?, updated_at = ?
			WHERE id = ?
		`, c.FirstName, c.LastName, c.FullName, now, userID); err != nil {
			return nil, false, fmt.Errorf("failed to update user: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE social_auth
			SET extra_data = ?, updated_at = ?
			WHERE provider = ? AND uid = ?
		`, string(extra), now, provider, uid); err != nil {
			return nil, false, fmt.Errorf("failed to update social auth: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	u, err := s.FindByExternalID(ctx, provider, uid)
	if err != nil {
		return nil, false, err
	}
	return u, created, nil
}

// uniqueUsername returns base, or base with a short random suffix when base is
// taken. An empty base gets a generated name.
func uniqueUsername(ctx context.Context, tx *sql.Tx, base string) (string, error) {
	if base == "" {
		base = identity.Provider
	}

	candidate := base
	for i := 0; i < 5; i++ {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE username = ?", candidate).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		candidate = base + "-" + uuid.NewString()[:8]
	}

	return "", fmt.Errorf("failed to find a free username for %q", base)
}

// List returns all users, oldest first
func (s *SQLiteStore) List(ctx context.Context) ([]identity.User, error) {
	rows, err := s.db.QueryContext(ctx, selectUser+" ORDER BY u.created_at ASC, u.username ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []identity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Count returns the number of local users
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
