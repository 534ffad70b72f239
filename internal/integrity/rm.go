package integrity

import (
	"time"

	"go.uber.org/zap"

	"github.com/fwdware/ward/internal/errs"
)

// Untrack stops tracking every file under path without touching the working
// tree or the object store. Each removal appends a Delete history entry, so
// the content stays recoverable until retention expires.
func (e *Engine) Untrack(path string) (int, error) {
	relScope, _, err := e.resolveScope(path)
	if err != nil {
		return 0, err
	}

	rows, err := e.sess.DB.FilesUnder(relScope)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, errs.Newf(errs.KindIO, "no tracked files under %q", fmtScope(relScope))
	}

	actionID := time.Now().Unix()
	for _, rec := range rows {
		if err := e.untrackFile(actionID, rec); err != nil {
			return 0, err
		}
		e.sess.Log.Info("untracked", zap.String("path", rec.Path))
	}
	return len(rows), nil
}
