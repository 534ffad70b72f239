package metadata

import (
	"database/sql"
	"fmt"
	"time"
)

// ActionType is the closed set of history actions. The integer values are
// part of the on-disk schema contract.
type ActionType int

const (
	ActionTrack  ActionType = 1
	ActionDelete ActionType = 2
)

func (a ActionType) String() string {
	switch a {
	case ActionTrack:
		return "track"
	case ActionDelete:
		return "delete"
	}
	return fmt.Sprintf("unknown(%d)", int(a))
}

// Valid reports whether a is one of the known actions. Rows read back from
// disk are checked at the scan boundary rather than trusted.
func (a ActionType) Valid() bool {
	return a == ActionTrack || a == ActionDelete
}

// ParseAction maps the CLI spelling of an action to its type.
func ParseAction(s string) (ActionType, error) {
	switch s {
	case "track":
		return ActionTrack, nil
	case "delete":
		return ActionDelete, nil
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

// FileRecord is one live tracked file. Path is unique among live rows and
// Checksum always reflects the last known-good content.
type FileRecord struct {
	ID          int64        `db:"id"`
	Path        string       `db:"path"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	LastChecked sql.NullTime `db:"last_checked"`
	Checksum    string       `db:"b3sum"`
	Size        int64        `db:"size"`
}

// HistoryRecord is one append-only audit row. Rows sharing an ActionID were
// produced by the same invocation.
type HistoryRecord struct {
	ID       int64          `db:"id"`
	ActionID int64          `db:"action_id"`
	Action   ActionType     `db:"action_type"`
	Path     string         `db:"path"`
	Checksum sql.NullString `db:"b3sum"`
	Size     sql.NullInt64  `db:"size"`
	Metadata sql.NullString `db:"metadata"`
}

// ActionTime interprets the action_id grouping key as the invocation start
// time.
func (h HistoryRecord) ActionTime() time.Time {
	return time.Unix(h.ActionID, 0).UTC()
}
