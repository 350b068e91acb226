package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sessionDBFileName = "session.sqlite"

// ErrNotFound is returned by lookups that find no row.
var ErrNotFound = errors.New("not found")

// Store is the client's local durable storage rooted at Dir (normally ConfigDir()).
type Store struct {
	Dir string
}

// SessionRecord is the persisted login state.
type SessionRecord struct {
	Token    string
	Username string
	SavedAt  time.Time
}

// Open returns a Store rooted at the config dir.
func Open() (Store, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store dir is empty")
	}
	return os.MkdirAll(s.Dir, 0o700)
}

func (s Store) sessionPath() string {
	return filepath.Join(filepath.Clean(s.Dir), sessionDBFileName)
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sessionPath())
	if err != nil {
		return nil, err
	}
	// CLI and TUI may run side by side; busy_timeout avoids "database is locked" flakiness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSessionSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	_ = os.Chmod(s.sessionPath(), 0o600)
	return db, nil
}

func migrateSessionSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session_kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// LoadSession returns the persisted session, or ErrNotFound when no token is stored.
func (s Store) LoadSession(ctx context.Context) (SessionRecord, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return SessionRecord{}, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT k, v, updated_at_unixms FROM session_kv`)
	if err != nil {
		return SessionRecord{}, err
	}
	defer rows.Close()

	var rec SessionRecord
	for rows.Next() {
		var k, v string
		var ms int64
		if err := rows.Scan(&k, &v, &ms); err != nil {
			return SessionRecord{}, err
		}
		switch k {
		case "token":
			rec.Token = v
			rec.SavedAt = time.UnixMilli(ms).UTC()
		case "username":
			rec.Username = v
		}
	}
	if err := rows.Err(); err != nil {
		return SessionRecord{}, err
	}
	if strings.TrimSpace(rec.Token) == "" {
		return SessionRecord{}, ErrNotFound
	}
	return rec, nil
}

// SaveSession replaces the persisted session.
func (s Store) SaveSession(ctx context.Context, rec SessionRecord) error {
	if strings.TrimSpace(rec.Token) == "" {
		return errors.New("save session: empty token")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_kv`); err != nil {
		return err
	}
	nowMs := time.Now().UTC().UnixMilli()
	kv := map[string]string{
		"token":    rec.Token,
		"username": strings.TrimSpace(rec.Username),
		"version":  strconv.Itoa(1),
	}
	for k, v := range kv {
		if _, err := tx.ExecContext(ctx, `INSERT INTO session_kv(k, v, updated_at_unixms) VALUES(?, ?, ?)`, k, v, nowMs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClearSession removes the persisted token. Clearing an empty store is not an error.
func (s Store) ClearSession(ctx context.Context) error {
	if _, err := os.Stat(s.sessionPath()); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM session_kv`)
	return err
}
