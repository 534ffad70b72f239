// Package prune garbage-collects expired history and the objects nothing
// references anymore.
package prune

import (
	"time"

	"go.uber.org/zap"

	"github.com/fwdware/ward/internal/checksum"
	"github.com/fwdware/ward/internal/repo"
)

// Options controls one prune run. DryRun computes the removal set without
// mutating either store. Force (confirmation bypass) is handled by the CLI;
// it never changes the delete-metadata-then-objects ordering.
type Options struct {
	DryRun bool
}

// Result reports what was (or would be) removed.
type Result struct {
	HistoryRemoved int
	ObjectsRemoved int
}

// Plan is the removal set computed for one run.
type Plan struct {
	historyIDs []int64
	objects    []checksum.Sum
}

func (p *Plan) HistoryCount() int { return len(p.historyIDs) }
func (p *Plan) ObjectCount() int  { return len(p.objects) }

// Compute builds the removal set: history rows older than the retention
// cutoff that no longer describe live state, plus every object whose checksum
// would be referenced by no live row and no surviving history row.
func Compute(sess *repo.Session) (*Plan, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -sess.Settings.RetentionDays).Unix()

	eligible, err := sess.DB.EligibleHistory(cutoff)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	candidates := make(map[string]bool)
	for _, h := range eligible {
		plan.historyIDs = append(plan.historyIDs, h.ID)
		if h.Checksum.Valid {
			candidates[h.Checksum.String] = true
		}
	}

	for sum := range candidates {
		referenced, err := sess.DB.ChecksumReferenced(sum, plan.historyIDs)
		if err != nil {
			return nil, err
		}
		if referenced {
			continue
		}
		parsed, err := checksum.Parse(sum)
		if err != nil {
			// A malformed stored checksum cannot map to an object path;
			// leave it for inspection rather than guessing.
			sess.Log.Warn("skipping malformed checksum in history", zap.String("b3sum", sum), zap.Error(err))
			continue
		}
		plan.objects = append(plan.objects, parsed)
	}

	sess.Log.Info("computed prune plan",
		zap.Int("history_rows", len(plan.historyIDs)),
		zap.Int("objects", len(plan.objects)))
	return plan, nil
}

// Run executes a prune. Metadata removals commit in one all-or-nothing
// transaction; object files are deleted only after that commit, so metadata
// never references a missing object (an object may transiently outlive its
// last reference, which is harmless).
func Run(sess *repo.Session, opts Options) (*Result, error) {
	plan, err := Compute(sess)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		return &Result{
			HistoryRemoved: plan.HistoryCount(),
			ObjectsRemoved: plan.ObjectCount(),
		}, nil
	}
	return Apply(sess, plan)
}

// Apply removes the planned rows and objects.
func Apply(sess *repo.Session, plan *Plan) (*Result, error) {
	result := &Result{}

	tx, err := sess.DB.Begin()
	if err != nil {
		return nil, err
	}
	removed, err := sess.DB.DeleteHistoryRows(tx, plan.historyIDs)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	result.HistoryRemoved = int(removed)

	for _, sum := range plan.objects {
		if err := sess.Objects.Remove(sum); err != nil {
			// The object is already unreferenced; a leftover file wastes
			// space but breaks nothing. Report and continue.
			sess.Log.Warn("failed to remove object", zap.String("b3sum", sum.String()), zap.Error(err))
			continue
		}
		result.ObjectsRemoved++
	}

	sess.Log.Info("prune complete",
		zap.Int("history_removed", result.HistoryRemoved),
		zap.Int("objects_removed", result.ObjectsRemoved))
	return result, nil
}
