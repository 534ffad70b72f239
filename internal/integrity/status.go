package integrity

import "time"

// StatusResult is the read-only repository summary.
type StatusResult struct {
	Tracked int
	// LastVerifyAge is the time since the most recent successful check;
	// zero when nothing has ever been verified (see Verified).
	LastVerifyAge time.Duration
	Verified      bool
	// PendingViolations counts tracked files overdue for verification.
	PendingViolations int
}

// Status inspects the metadata store without mutating anything.
func (e *Engine) Status() (*StatusResult, error) {
	tracked, err := e.sess.DB.CountFiles()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -e.sess.Settings.IntervalDays)
	pending, err := e.sess.DB.CountDue(cutoff)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Tracked: tracked, PendingViolations: pending}

	newest, err := e.sess.DB.NewestCheck()
	if err != nil {
		return nil, err
	}
	if newest.Valid {
		result.Verified = true
		result.LastVerifyAge = now.Sub(newest.Time)
	}
	return result, nil
}
