// Package metadata persists tracked-file state and the append-only action
// history in SQLite.
package metadata

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/fwdware/ward/internal/errs"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const schema = `
CREATE TABLE IF NOT EXISTS files (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    path         TEXT NOT NULL UNIQUE,
    created_at   DATETIME NOT NULL,
    updated_at   DATETIME NOT NULL,
    last_checked DATETIME,
    b3sum        TEXT NOT NULL,
    size         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    action_id   INTEGER NOT NULL,
    action_type INTEGER NOT NULL,
    path        TEXT NOT NULL,
    b3sum       TEXT,
    size        INTEGER,
    metadata    TEXT
);

CREATE INDEX IF NOT EXISTS idx_files_path         ON files(path);
CREATE INDEX IF NOT EXISTS idx_files_last_checked ON files(last_checked);
CREATE INDEX IF NOT EXISTS idx_files_updated_at   ON files(updated_at);
CREATE INDEX IF NOT EXISTS idx_files_b3sum        ON files(b3sum);
CREATE INDEX IF NOT EXISTS idx_history_action_id   ON history(action_id);
CREATE INDEX IF NOT EXISTS idx_history_action_type ON history(action_type);
CREATE INDEX IF NOT EXISTS idx_history_path        ON history(path);
CREATE INDEX IF NOT EXISTS idx_history_b3sum       ON history(b3sum);
`

// Store wraps the SQLite metadata database. It assumes a single writer for
// the duration of one invocation.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database file at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	dsn := "file:" + path +
		"?_time_format=sqlite" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(ON)"

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, errs.New(errs.KindDatabase, fmt.Sprintf("open metadata database %q", path), err)
	}
	// SQLite serializes writers anyway; a single connection avoids
	// SQLITE_BUSY between the pool's handles.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.New(errs.KindDatabase, "initialize schema", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Begin opens a write transaction. Callers commit or roll back; an
// interrupted invocation leaves only committed state behind.
func (s *Store) Begin() (*sqlx.Tx, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, errs.New(errs.KindDatabase, "begin transaction", err)
	}
	return tx, nil
}
