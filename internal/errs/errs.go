// Package errs classifies failures so callers can decide between
// collect-and-continue (per-file problems) and abort (engine-level problems),
// and so the CLI can map a failure to a stable exit code.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindIO covers unreadable, missing, or permission-denied files.
	KindIO Kind = iota + 1
	// KindChecksum marks a verify-detected divergence. Non-fatal, reported.
	KindChecksum
	// KindStoreCorruption means metadata references an object missing from
	// the object store. Fatal for that item only.
	KindStoreCorruption
	// KindConfig covers malformed configuration values.
	KindConfig
	// KindDatabase covers constraint violations and connection failures.
	// Fatal, aborts the invocation.
	KindDatabase
	// KindConcurrentModification marks metadata that another process changed
	// between this invocation's read and its write.
	KindConcurrentModification
	// KindRepository covers a missing or invalid control directory.
	KindRepository
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindChecksum:
		return "checksum"
	case KindStoreCorruption:
		return "store corruption"
	case KindConfig:
		return "config"
	case KindDatabase:
		return "database"
	case KindConcurrentModification:
		return "concurrent modification"
	case KindRepository:
		return "repository"
	}
	return "unknown"
}

// Error carries a kind alongside the wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error. A nil cause is allowed.
func New(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Newf builds a classified error without a cause.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the classification of err, or 0 if it carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindRepository:
		return 2
	case KindDatabase:
		return 3
	case KindIO, KindStoreCorruption:
		return 4
	case KindChecksum:
		return 5
	case KindConfig:
		return 10
	}
	return 1
}
