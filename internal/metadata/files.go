package metadata

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fwdware/ward/internal/errs"
)

// InsertFile creates the live row for a newly tracked path.
func (s *Store) InsertFile(tx *sqlx.Tx, path, sum string, size int64, now time.Time) error {
	_, err := tx.Exec(
		`INSERT INTO files (path, b3sum, size, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		path, sum, size, now, now,
	)
	if err != nil {
		return errs.New(errs.KindDatabase, "insert file "+path, err)
	}
	return nil
}

// UpdateFileContent overwrites checksum, size and timestamps after verify
// confirmed new content for path.
func (s *Store) UpdateFileContent(tx *sqlx.Tx, path, sum string, size int64, now time.Time) error {
	res, err := tx.Exec(
		`UPDATE files SET b3sum = ?, size = ?, updated_at = ?, last_checked = ? WHERE path = ?`,
		sum, size, now, now, path,
	)
	if err != nil {
		return errs.New(errs.KindDatabase, "update file "+path, err)
	}
	return mustAffect(res, path)
}

// DeleteFile removes the live row for path.
func (s *Store) DeleteFile(tx *sqlx.Tx, path string) error {
	res, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path)
	if err != nil {
		return errs.New(errs.KindDatabase, "delete file "+path, err)
	}
	return mustAffect(res, path)
}

// SetLastChecked records a passed verification without producing history.
func (s *Store) SetLastChecked(path string, t time.Time) error {
	res, err := s.db.Exec(`UPDATE files SET last_checked = ? WHERE path = ?`, t, path)
	if err != nil {
		return errs.New(errs.KindDatabase, "set last_checked for "+path, err)
	}
	return mustAffect(res, path)
}

// mustAffect turns a zero-row write into a concurrent-modification error:
// the row was read at the start of the run, so another process removed it in
// between.
func mustAffect(res sql.Result, path string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errs.New(errs.KindDatabase, "rows affected for "+path, err)
	}
	if n == 0 {
		return errs.Newf(errs.KindConcurrentModification,
			"file %q was removed by another process", path)
	}
	return nil
}

// FileByPath returns the live row for path, or nil when untracked.
func (s *Store) FileByPath(path string) (*FileRecord, error) {
	var rec FileRecord
	err := s.db.Get(&rec,
		`SELECT id, path, created_at, updated_at, last_checked, b3sum, size FROM files WHERE path = ?`,
		path,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.KindDatabase, "load file "+path, err)
	}
	return &rec, nil
}

// AllFiles returns every live row ordered by path.
func (s *Store) AllFiles() ([]FileRecord, error) {
	var recs []FileRecord
	err := s.db.Select(&recs,
		`SELECT id, path, created_at, updated_at, last_checked, b3sum, size FROM files ORDER BY path`,
	)
	if err != nil {
		return nil, errs.New(errs.KindDatabase, "load files", err)
	}
	return recs, nil
}

// FilesUnder returns live rows whose path equals scope or lies below it.
// The boundary is a whole segment: scope "docs" never matches "docs2/x".
// An empty scope selects everything.
func (s *Store) FilesUnder(scope string) ([]FileRecord, error) {
	if scope == "" || scope == "." {
		return s.AllFiles()
	}
	var recs []FileRecord
	err := s.db.Select(&recs,
		`SELECT id, path, created_at, updated_at, last_checked, b3sum, size
		 FROM files WHERE path = ? OR path LIKE ? ESCAPE '\' ORDER BY path`,
		scope, likePrefix(scope)+"/%",
	)
	if err != nil {
		return nil, errs.New(errs.KindDatabase, "load files under "+scope, err)
	}
	return recs, nil
}

// FilesDue returns live rows whose last verification predates cutoff or never
// happened, ordered by path.
func (s *Store) FilesDue(cutoff time.Time) ([]FileRecord, error) {
	var recs []FileRecord
	err := s.db.Select(&recs,
		`SELECT id, path, created_at, updated_at, last_checked, b3sum, size
		 FROM files WHERE last_checked IS NULL OR last_checked < ? ORDER BY path`,
		cutoff,
	)
	if err != nil {
		return nil, errs.New(errs.KindDatabase, "load files due for verification", err)
	}
	return recs, nil
}

// CountFiles returns the number of live rows.
func (s *Store) CountFiles() (int, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM files`); err != nil {
		return 0, errs.New(errs.KindDatabase, "count files", err)
	}
	return n, nil
}

// CountDue returns how many live rows are overdue for verification.
func (s *Store) CountDue(cutoff time.Time) (int, error) {
	var n int
	err := s.db.Get(&n,
		`SELECT COUNT(*) FROM files WHERE last_checked IS NULL OR last_checked < ?`, cutoff)
	if err != nil {
		return 0, errs.New(errs.KindDatabase, "count files due", err)
	}
	return n, nil
}

// NewestCheck returns the most recent last_checked across all live rows.
// The result is invalid when no row has ever been verified.
func (s *Store) NewestCheck() (sql.NullTime, error) {
	var t time.Time
	err := s.db.Get(&t,
		`SELECT last_checked FROM files WHERE last_checked IS NOT NULL
		 ORDER BY last_checked DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.NullTime{}, nil
	}
	if err != nil {
		return sql.NullTime{}, errs.New(errs.KindDatabase, "load newest check time", err)
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

// likePrefix escapes LIKE metacharacters in a literal prefix.
func likePrefix(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
