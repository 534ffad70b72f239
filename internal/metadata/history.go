package metadata

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/fwdware/ward/internal/errs"
)

// AppendHistory writes one audit row. Rows are never mutated afterwards; the
// prune engine is the only component that ever deletes them.
func (s *Store) AppendHistory(tx *sqlx.Tx, actionID int64, action ActionType, path, sum string, size int64, meta *string) error {
	var metadata sql.NullString
	if meta != nil {
		metadata = sql.NullString{String: *meta, Valid: true}
	}
	_, err := tx.Exec(
		`INSERT INTO history (action_id, action_type, path, b3sum, size, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		actionID, int(action), path, sum, size, metadata,
	)
	if err != nil {
		return errs.New(errs.KindDatabase, "append history for "+path, err)
	}
	return nil
}

// History returns the newest rows first, optionally filtered by action type.
// A limit of 0 or less returns at most 20 rows.
func (s *Store) History(limit int, filter *ActionType) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var recs []HistoryRecord
	var err error
	if filter != nil {
		err = s.db.Select(&recs,
			`SELECT id, action_id, action_type, path, b3sum, size, metadata
			 FROM history WHERE action_type = ? ORDER BY id DESC LIMIT ?`,
			int(*filter), limit,
		)
	} else {
		err = s.db.Select(&recs,
			`SELECT id, action_id, action_type, path, b3sum, size, metadata
			 FROM history ORDER BY id DESC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, errs.New(errs.KindDatabase, "load history", err)
	}
	for _, r := range recs {
		if !r.Action.Valid() {
			return nil, errs.Newf(errs.KindDatabase, "history row %d has unknown action type %d", r.ID, int(r.Action))
		}
	}
	return recs, nil
}

// EligibleHistory returns rows whose action_id predates cutoff and which no
// longer describe a path's current live state: every Delete row that old, and
// every Track row without a matching live files row (superseded or deleted).
func (s *Store) EligibleHistory(cutoff int64) ([]HistoryRecord, error) {
	var recs []HistoryRecord
	err := s.db.Select(&recs,
		`SELECT h.id, h.action_id, h.action_type, h.path, h.b3sum, h.size, h.metadata
		 FROM history h
		 WHERE h.action_id < ?
		   AND (h.action_type = ?
		        OR NOT EXISTS (
		            SELECT 1 FROM files f WHERE f.path = h.path AND f.b3sum = h.b3sum))
		 ORDER BY h.id`,
		cutoff, int(ActionDelete),
	)
	if err != nil {
		return nil, errs.New(errs.KindDatabase, "load prunable history", err)
	}
	return recs, nil
}

// ChecksumReferenced reports whether sum is still referenced by any live file
// row or by any history row outside excludeIDs (the rows about to be removed).
func (s *Store) ChecksumReferenced(sum string, excludeIDs []int64) (bool, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM files WHERE b3sum = ?`, sum); err != nil {
		return false, errs.New(errs.KindDatabase, "count file references for "+sum, err)
	}
	if n > 0 {
		return true, nil
	}

	if len(excludeIDs) == 0 {
		if err := s.db.Get(&n, `SELECT COUNT(*) FROM history WHERE b3sum = ?`, sum); err != nil {
			return false, errs.New(errs.KindDatabase, "count history references for "+sum, err)
		}
		return n > 0, nil
	}

	query, args, err := sqlx.In(
		`SELECT COUNT(*) FROM history WHERE b3sum = ? AND id NOT IN (?)`, sum, excludeIDs)
	if err != nil {
		return false, errs.New(errs.KindDatabase, "build history reference query", err)
	}
	if err := s.db.Get(&n, s.db.Rebind(query), args...); err != nil {
		return false, errs.New(errs.KindDatabase, "count history references for "+sum, err)
	}
	return n > 0, nil
}

// DeleteHistoryRows removes the given rows inside tx and returns how many
// went away.
func (s *Store) DeleteHistoryRows(tx *sqlx.Tx, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM history WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errs.New(errs.KindDatabase, "build history delete query", err)
	}
	res, err := tx.Exec(tx.Rebind(query), args...)
	if err != nil {
		return 0, errs.New(errs.KindDatabase, "delete history rows", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.New(errs.KindDatabase, "count deleted history rows", err)
	}
	return n, nil
}

// DuplicateGroup is a set of live paths sharing one checksum.
type DuplicateGroup struct {
	Checksum string
	Size     int64
	Paths    []string
}

// Duplicates returns groups of live files with identical content, largest
// waste first.
func (s *Store) Duplicates() ([]DuplicateGroup, error) {
	rows := []struct {
		Checksum string `db:"b3sum"`
		Size     int64  `db:"size"`
		Path     string `db:"path"`
	}{}
	err := s.db.Select(&rows,
		`SELECT f.b3sum, f.size, f.path FROM files f
		 WHERE f.b3sum IN (SELECT b3sum FROM files GROUP BY b3sum HAVING COUNT(*) > 1)
		 ORDER BY f.size DESC, f.b3sum, f.path`,
	)
	if err != nil {
		return nil, errs.New(errs.KindDatabase, "load duplicate files", err)
	}

	var groups []DuplicateGroup
	for _, r := range rows {
		if len(groups) == 0 || groups[len(groups)-1].Checksum != r.Checksum {
			groups = append(groups, DuplicateGroup{Checksum: r.Checksum, Size: r.Size})
		}
		g := &groups[len(groups)-1]
		g.Paths = append(g.Paths, r.Path)
	}
	return groups, nil
}
