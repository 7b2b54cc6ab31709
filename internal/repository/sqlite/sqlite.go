// Package sqlite implements repository.Store on SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary
// builds without CGo and the tests run against ":memory:" databases.
// The connection runs in WAL mode with foreign keys on, and the schema is
// applied at open time with idempotent CREATE statements.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gregsypek/devflow/internal/repository"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Every query method runs against it, so the same code serves both the
// pooled connection and an open transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB implements repository.Store. The zero-value conn means this DB wraps
// a live transaction handed out by InTx.
type DB struct {
	conn *sql.DB
	db   dbtx
}

var _ repository.Store = (*DB)(nil)

// New opens (or creates) the database at dbPath and applies the schema.
// Use ":memory:" for throwaway test databases.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection keeps writers serialized (no SQLITE_BUSY) and makes
	// ":memory:" behave: every pooled connection would otherwise get its
	// own empty in-memory database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent readers during a write, which a web server
	// needs. Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, db: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. In-memory databases are lost here.
func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

// InTx runs fn inside a single transaction. The *DB passed to fn routes
// every query through the transaction. Rollback is deferred, so the
// transaction is released on every exit path; after a successful Commit
// the deferred Rollback is a no-op.
func (d *DB) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if d.conn == nil {
		// Already inside a transaction; join it.
		return fn(d)
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&DB{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The unique indexes are the storage-level backstop for the
// uniqueness checks the flows perform inside their transactions.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	// The driver occasionally surfaces constraint failures as plain
	// errors; match on the stable message prefix.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (d *DB) migrate() error {
	_, err := d.db.ExecContext(context.Background(), `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			username   TEXT NOT NULL UNIQUE,
			email      TEXT NOT NULL UNIQUE,
			bio        TEXT NOT NULL DEFAULT '',
			image      TEXT NOT NULL DEFAULT '',
			location   TEXT NOT NULL DEFAULT '',
			portfolio  TEXT NOT NULL DEFAULT '',
			reputation INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS accounts (
			id                  TEXT PRIMARY KEY,
			user_id             TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			provider            TEXT NOT NULL,
			provider_account_id TEXT NOT NULL,
			password_hash       TEXT NOT NULL DEFAULT '',
			created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (provider, provider_account_id),
			UNIQUE (user_id, provider)
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);

		CREATE TABLE IF NOT EXISTS questions (
			id           TEXT PRIMARY KEY,
			author_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			content      TEXT NOT NULL,
			views        INTEGER NOT NULL DEFAULT 0,
			upvotes      INTEGER NOT NULL DEFAULT 0,
			downvotes    INTEGER NOT NULL DEFAULT 0,
			answer_count INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_questions_created_at ON questions(created_at);
		CREATE INDEX IF NOT EXISTS idx_questions_author_id ON questions(author_id);

		CREATE TABLE IF NOT EXISTS tags (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL UNIQUE,
			question_count INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS question_tags (
			question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			tag_id      TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (question_id, tag_id)
		);
		CREATE INDEX IF NOT EXISTS idx_question_tags_tag_id ON question_tags(tag_id);

		CREATE TABLE IF NOT EXISTS answers (
			id          TEXT PRIMARY KEY,
			question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			author_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content     TEXT NOT NULL,
			upvotes     INTEGER NOT NULL DEFAULT 0,
			downvotes   INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_answers_question_id ON answers(question_id);

		CREATE TABLE IF NOT EXISTS votes (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			target_type TEXT NOT NULL,
			target_id   TEXT NOT NULL,
			kind        TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, target_type, target_id)
		);
		CREATE INDEX IF NOT EXISTS idx_votes_target ON votes(target_type, target_id);

		CREATE TABLE IF NOT EXISTS collections (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, question_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
