package integrity

import (
	"time"

	"go.uber.org/zap"

	"github.com/fwdware/ward/internal/checksum"
	"github.com/fwdware/ward/internal/metadata"
	"github.com/fwdware/ward/internal/scanner"
)

// AddResult summarizes one add invocation. Failed counts per-file problems
// that did not abort the batch.
type AddResult struct {
	Added   int
	Deleted int
	Failed  int
}

// FileFailure records a per-path problem from a batch operation.
type FileFailure struct {
	Path string
	Err  error
}

// Add scans the subtree at path and reconciles it with the metadata store:
// untracked files are checksummed, stored and recorded; tracked files under
// the same scope that vanished from disk are recorded as deleted. The scope
// bounds deletion detection, so files tracked elsewhere are never touched.
// All history rows of one call share a single action_id.
func (e *Engine) Add(path string) (*AddResult, []FileFailure, error) {
	relScope, absScope, err := e.resolveScope(path)
	if err != nil {
		return nil, nil, err
	}

	log := e.sess.Log
	log.Info("adding files", zap.String("scope", fmtScope(relScope)))

	scanned, err := scanner.Walk(e.sess.Root, absScope, e.sess.IgnoreRules())
	if err != nil {
		return nil, nil, err
	}

	tracked, err := e.sess.DB.FilesUnder(relScope)
	if err != nil {
		return nil, nil, err
	}
	trackedByPath := make(map[string]metadata.FileRecord, len(tracked))
	for _, rec := range tracked {
		trackedByPath[rec.Path] = rec
	}

	seen := make(map[string]bool, len(scanned))
	var newPaths []string
	for _, rel := range scanned {
		seen[rel] = true
		if _, ok := trackedByPath[rel]; !ok {
			newPaths = append(newPaths, rel)
		}
	}

	absNew := make([]string, len(newPaths))
	for i, rel := range newPaths {
		absNew[i] = e.absPath(rel)
	}
	sums := checksum.Batch(absNew, checksum.WorkerCount())

	actionID := time.Now().Unix()
	now := time.Now().UTC()
	result := &AddResult{}
	var failures []FileFailure

	for i, rel := range newPaths {
		res := sums[i]
		if res.Err != nil {
			log.Warn("skipping unreadable file", zap.String("path", rel), zap.Error(res.Err))
			failures = append(failures, FileFailure{Path: rel, Err: res.Err})
			result.Failed++
			continue
		}

		// The object lands before the metadata row so that metadata never
		// references a missing object.
		if err := e.sess.Objects.Put(res.Path, res.Sum); err != nil {
			log.Warn("object store put failed", zap.String("path", rel), zap.Error(err))
			failures = append(failures, FileFailure{Path: rel, Err: err})
			result.Failed++
			continue
		}

		if err := e.trackFile(actionID, rel, res.Sum.String(), res.Size, now); err != nil {
			return result, failures, err
		}
		result.Added++
		log.Debug("tracked", zap.String("path", rel), zap.String("b3sum", res.Sum.String()))
	}

	for _, rec := range tracked {
		if seen[rec.Path] {
			continue
		}
		if err := e.untrackFile(actionID, rec); err != nil {
			return result, failures, err
		}
		result.Deleted++
		log.Info("recorded deletion", zap.String("path", rec.Path))
	}

	log.Info("add complete",
		zap.Int("added", result.Added),
		zap.Int("deleted", result.Deleted),
		zap.Int("failed", result.Failed))
	return result, failures, nil
}

// trackFile inserts the live row and its Track history entry atomically.
func (e *Engine) trackFile(actionID int64, rel, sum string, size int64, now time.Time) error {
	tx, err := e.sess.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.sess.DB.InsertFile(tx, rel, sum, size, now); err != nil {
		return err
	}
	if err := e.sess.DB.AppendHistory(tx, actionID, metadata.ActionTrack, rel, sum, size, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// untrackFile removes the live row and appends the Delete entry carrying the
// last known checksum and size.
func (e *Engine) untrackFile(actionID int64, rec metadata.FileRecord) error {
	tx, err := e.sess.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.sess.DB.DeleteFile(tx, rec.Path); err != nil {
		return err
	}
	if err := e.sess.DB.AppendHistory(tx, actionID, metadata.ActionDelete, rec.Path, rec.Checksum, rec.Size, nil); err != nil {
		return err
	}
	return tx.Commit()
}
