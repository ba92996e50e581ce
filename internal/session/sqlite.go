package session

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	jsx         TEXT NOT NULL DEFAULT '',
	css         TEXT NOT NULL DEFAULT '',
	modified_at INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
);
CREATE INDEX IF NOT EXISTS sessions_updated ON sessions (updated_at DESC);
`

// SQLiteStore persists sessions in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, storeError("failed to create session directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeError("failed to open session database", err)
	}
	// One connection keeps :memory: databases and pragmas consistent.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()

			return nil, storeError("failed to initialize session database", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, name string) (*Session, error) {
	sess := New(name)
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	var (
		sess                 Session
		modified, created, u int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, jsx, css, modified_at, created_at, updated_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.Name, &sess.Component.JSX, &sess.Component.CSS, &modified, &created, &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeError("failed to load session", err)
	}
	sess.Component.LastModified = fromUnix(modified)
	sess.CreatedAt = fromUnix(created)
	sess.UpdatedAt = fromUnix(u)

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, storeError("failed to load messages", err)
	}
	defer rows.Close()

	sess.Messages = []Message{}
	for rows.Next() {
		var m Message
		var at int64
		if err := rows.Scan(&m.Role, &m.Content, &at); err != nil {
			return nil, storeError("failed to read message", err)
		}
		m.CreatedAt = fromUnix(at)
		sess.Messages = append(sess.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to read messages", err)
	}

	return &sess, nil
}

// Save writes the session and replaces its transcript.
func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, name, jsx, css, modified_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			jsx = excluded.jsx,
			css = excluded.css,
			modified_at = excluded.modified_at,
			updated_at = excluded.updated_at`,
		sess.ID, sess.Name, sess.Component.JSX, sess.Component.CSS,
		toUnix(sess.Component.LastModified), toUnix(sess.CreatedAt), toUnix(sess.UpdatedAt))
	if err != nil {
		return storeError("failed to save session", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sess.ID); err != nil {
		return storeError("failed to replace messages", err)
	}

	for i, m := range sess.Messages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
			sess.ID, i, m.Role, m.Content, toUnix(m.CreatedAt)); err != nil {
			return storeError("failed to save message", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit session", err)
	}

	return nil
}

// List returns summaries, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.updated_at, COUNT(m.seq)
		FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.updated_at DESC, s.id`)
	if err != nil {
		return nil, storeError("failed to list sessions", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var updated int64
		if err := rows.Scan(&sum.ID, &sum.Name, &updated, &sum.Messages); err != nil {
			return nil, storeError("failed to read session", err)
		}
		sum.UpdatedAt = fromUnix(updated)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to list sessions", err)
	}

	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return storeError("failed to delete session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return storeError("failed to delete messages", err)
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit delete", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func storeError(message string, err error) error {
	return jsxerrors.NewStoreError(jsxerrors.ErrCodeStoreFailed, message, err)
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}

	return time.Unix(0, n).UTC()
}

// Open returns the store for driver.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(ctx, path)
	default:
		return nil, jsxerrors.NewConfigError(jsxerrors.ErrCodeConfigInvalid, "unknown session driver "+driver)
	}
}

