package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"horse.fit/civica/internal/auth"
)

// AuthUser is an administrator account row.
type AuthUser struct {
	UserID       int64      `json:"user_id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// AuthSession joins a session row with its owning account.
type AuthSession struct {
	SessionID  string    `json:"session_id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

func (p *Pool) CountAdminUsers(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM admin_users`

	var count int64
	if err := p.QueryRow(ctx, q).Scan(&count); err != nil {
		return 0, fmt.Errorf("count admin users: %w", err)
	}
	return count, nil
}

func (p *Pool) CreateAdminUser(ctx context.Context, username, passwordHash string) (*AuthUser, error) {
	const q = `
INSERT INTO admin_users (
	username,
	password_hash,
	created_at
)
VALUES ($1, $2, now())
RETURNING
	user_id,
	username,
	password_hash,
	created_at,
	last_login_at
`

	var row AuthUser
	if err := p.QueryRow(ctx, q, auth.NormalizeUsername(username), strings.TrimSpace(passwordHash)).Scan(
		&row.UserID,
		&row.Username,
		&row.PasswordHash,
		&row.CreatedAt,
		&row.LastLoginAt,
	); err != nil {
		return nil, fmt.Errorf("insert admin user: %w", err)
	}

	return &row, nil
}

func (p *Pool) GetAdminUserByUsername(ctx context.Context, username string) (*AuthUser, error) {
	const q = `
SELECT
	user_id,
	username,
	password_hash,
	created_at,
	last_login_at
FROM admin_users
WHERE username = $1
LIMIT 1
`

	var row AuthUser
	if err := p.QueryRow(ctx, q, auth.NormalizeUsername(username)).Scan(
		&row.UserID,
		&row.Username,
		&row.PasswordHash,
		&row.CreatedAt,
		&row.LastLoginAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query admin user by username: %w", err)
	}
	return &row, nil
}

func (p *Pool) GetAdminUserByID(ctx context.Context, userID int64) (*AuthUser, error) {
	const q = `
SELECT
	user_id,
	username,
	password_hash,
	created_at,
	last_login_at
FROM admin_users
WHERE user_id = $1
LIMIT 1
`

	var row AuthUser
	if err := p.QueryRow(ctx, q, userID).Scan(
		&row.UserID,
		&row.Username,
		&row.PasswordHash,
		&row.CreatedAt,
		&row.LastLoginAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query admin user by id: %w", err)
	}
	return &row, nil
}

func (p *Pool) SetAdminUserLastLogin(ctx context.Context, userID int64, loginAt time.Time) error {
	const q = `
UPDATE admin_users
SET last_login_at = $2
WHERE user_id = $1
`

	tag, err := p.Exec(ctx, q, userID, loginAt.UTC())
	if err != nil {
		return fmt.Errorf("update admin user last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (p *Pool) SetAdminUserPasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	const q = `
UPDATE admin_users
SET password_hash = $2
WHERE user_id = $1
`

	tag, err := p.Exec(ctx, q, userID, strings.TrimSpace(passwordHash))
	if err != nil {
		return fmt.Errorf("update admin user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (p *Pool) CreateSession(ctx context.Context, userID int64, expiresAt, now time.Time) (string, error) {
	const q = `
INSERT INTO admin_sessions (
	session_id,
	user_id,
	expires_at,
	created_at,
	last_seen_at
)
VALUES ($1, $2, $3, $4, $4)
RETURNING session_id
`

	var sessionID string
	if err := p.QueryRow(ctx, q, uuid.NewString(), userID, expiresAt.UTC(), now.UTC()).Scan(&sessionID); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return sessionID, nil
}

func (p *Pool) GetSession(ctx context.Context, sessionID string) (*AuthSession, error) {
	const q = `
SELECT
	s.session_id,
	s.user_id,
	u.username,
	s.expires_at,
	s.last_seen_at
FROM admin_sessions s
JOIN admin_users u
	ON u.user_id = s.user_id
WHERE s.session_id = $1
LIMIT 1
`

	var row AuthSession
	if err := p.QueryRow(ctx, q, strings.TrimSpace(sessionID)).Scan(
		&row.SessionID,
		&row.UserID,
		&row.Username,
		&row.ExpiresAt,
		&row.LastSeenAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &row, nil
}

func (p *Pool) TouchSession(ctx context.Context, sessionID string, seenAt time.Time) error {
	const q = `
UPDATE admin_sessions
SET last_seen_at = $2
WHERE session_id = $1
`

	tag, err := p.Exec(ctx, q, strings.TrimSpace(sessionID), seenAt.UTC())
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (p *Pool) DeleteSession(ctx context.Context, sessionID string) error {
	const q = `
DELETE FROM admin_sessions
WHERE session_id = $1
`

	if _, err := p.Exec(ctx, q, strings.TrimSpace(sessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (p *Pool) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const q = `
DELETE FROM admin_sessions
WHERE expires_at <= $1
`

	tag, err := p.Exec(ctx, q, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
