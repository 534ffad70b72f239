package integrity

import (
	"errors"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/fwdware/ward/internal/checksum"
	"github.com/fwdware/ward/internal/errs"
	"github.com/fwdware/ward/internal/metadata"
	"github.com/fwdware/ward/internal/scanner"
)

// ViolationKind classifies what verify found wrong with one file.
type ViolationKind string

const (
	ViolationMissing    ViolationKind = "missing"
	ViolationModified   ViolationKind = "modified"
	ViolationUnreadable ViolationKind = "unreadable"
	// ViolationStoreMissing means the metadata row references an object
	// absent from the object store.
	ViolationStoreMissing ViolationKind = "store missing"
)

// Violation is one reported verify finding.
type Violation struct {
	Path     string
	Kind     ViolationKind
	Expected string
	Actual   string
}

// VerifyResult aggregates one verify invocation.
type VerifyResult struct {
	Checked      int
	OK           int
	Modified     int
	Missing      int
	StoreMissing int
	Violations   []Violation
}

// Err classifies the run's violations for the exit-code mapping: store
// corruption outranks checksum divergence. Nil when the run was clean.
func (r *VerifyResult) Err() error {
	if r.StoreMissing > 0 {
		return errs.Newf(errs.KindStoreCorruption,
			"%d object(s) missing from the store", r.StoreMissing)
	}
	if len(r.Violations) > 0 {
		return errs.Newf(errs.KindChecksum,
			"%d integrity violation(s) found", len(r.Violations))
	}
	return nil
}

// Verify recomputes checksums for tracked files whose last check is absent or
// older than the configured interval. An empty pattern selects all rows;
// force bypasses the interval filter. Missing files are reported and retried
// next run (only add records intentional deletions); changed files have
// their row overwritten, the new content stored, and a Track history entry
// appended; unchanged files only advance last_checked.
func (e *Engine) Verify(pattern string, force bool) (*VerifyResult, error) {
	log := e.sess.Log

	var rows []metadata.FileRecord
	var err error
	if force {
		rows, err = e.sess.DB.AllFiles()
	} else {
		cutoff := time.Now().UTC().AddDate(0, 0, -e.sess.Settings.IntervalDays)
		rows, err = e.sess.DB.FilesDue(cutoff)
	}
	if err != nil {
		return nil, err
	}

	if pattern != "" {
		filtered := rows[:0]
		for _, rec := range rows {
			if scanner.Match(pattern, rec.Path) || scanner.WithinScope(rec.Path, pattern) {
				filtered = append(filtered, rec)
			}
		}
		rows = filtered
	}

	result := &VerifyResult{}
	if len(rows) == 0 {
		log.Info("no files need verification")
		return result, nil
	}
	log.Info("verifying files", zap.Int("count", len(rows)))

	paths := make([]string, len(rows))
	for i, rec := range rows {
		paths[i] = e.absPath(rec.Path)
	}
	sums := checksum.Batch(paths, checksum.WorkerCount())

	actionID := time.Now().Unix()
	now := time.Now().UTC()

	for i, rec := range rows {
		res := sums[i]
		result.Checked++

		// The recorded content must still be recoverable. A row whose
		// object vanished is reported and skipped; last_checked stays put
		// so every run re-reports it until the store is repaired.
		if sum, perr := checksum.Parse(rec.Checksum); perr == nil && !e.sess.Objects.Exists(sum) {
			result.StoreMissing++
			result.Violations = append(result.Violations, Violation{
				Path: rec.Path, Kind: ViolationStoreMissing, Expected: rec.Checksum,
			})
			log.Error("object missing from store",
				zap.String("path", rec.Path),
				zap.String("b3sum", rec.Checksum))
			continue
		}

		switch {
		case res.Err != nil && errors.Is(res.Err, fs.ErrNotExist):
			// Deliberately not advanced: the row stays due so the next
			// run retries it.
			result.Missing++
			result.Violations = append(result.Violations, Violation{
				Path: rec.Path, Kind: ViolationMissing, Expected: rec.Checksum,
			})
			log.Warn("file missing", zap.String("path", rec.Path))

		case res.Err != nil:
			result.Violations = append(result.Violations, Violation{
				Path: rec.Path, Kind: ViolationUnreadable, Expected: rec.Checksum,
			})
			log.Warn("file unreadable", zap.String("path", rec.Path), zap.Error(res.Err))

		case res.Sum.String() != rec.Checksum:
			if err := e.recordModified(actionID, rec, res, now); err != nil {
				return result, err
			}
			result.Modified++
			result.Violations = append(result.Violations, Violation{
				Path:     rec.Path,
				Kind:     ViolationModified,
				Expected: rec.Checksum,
				Actual:   res.Sum.String(),
			})
			log.Warn("checksum mismatch",
				zap.String("path", rec.Path),
				zap.String("expected", rec.Checksum),
				zap.String("actual", res.Sum.String()))

		default:
			if err := e.sess.DB.SetLastChecked(rec.Path, now); err != nil {
				return result, err
			}
			result.OK++
			log.Debug("verified", zap.String("path", rec.Path))
		}
	}

	log.Info("verify complete",
		zap.Int("checked", result.Checked),
		zap.Int("ok", result.OK),
		zap.Int("modified", result.Modified),
		zap.Int("missing", result.Missing))
	return result, nil
}

// recordModified captures the file's new state: object first, then the
// metadata overwrite plus a Track history row in one transaction.
func (e *Engine) recordModified(actionID int64, rec metadata.FileRecord, res checksum.Result, now time.Time) error {
	if err := e.sess.Objects.Put(res.Path, res.Sum); err != nil {
		return errs.New(errs.KindIO, "store new content for "+rec.Path, err)
	}

	tx, err := e.sess.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.sess.DB.UpdateFileContent(tx, rec.Path, res.Sum.String(), res.Size, now); err != nil {
		return err
	}
	if err := e.sess.DB.AppendHistory(tx, actionID, metadata.ActionTrack, rec.Path, res.Sum.String(), res.Size, nil); err != nil {
		return err
	}
	return tx.Commit()
}
