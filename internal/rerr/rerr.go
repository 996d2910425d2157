// Package rerr defines the error taxonomy of spec.md 7: TransientExternal,
// PermanentExternal, DataQuality, StorageUnavailable, and ProgrammerError.
// Each is a sentinel that call sites wrap with fmt.Errorf("...: %w", cause)
// so errors.Is/errors.As dispatch cleanly, generalizing the transient/
// permanent split the teacher hand-rolls in internal/fetch.isTransient.
package rerr

import "errors"

var (
	// ErrTransient marks a retriable external failure (5xx, fetch timeout).
	ErrTransient = errors.New("transient external error")
	// ErrPermanent marks a non-retriable external failure (4xx, bad creds).
	ErrPermanent = errors.New("permanent external error")
	// ErrDataQuality marks a retry-driving condition, not a crash: zero
	// documents, all claims discarded.
	ErrDataQuality = errors.New("data quality condition")
	// ErrStorage marks a persistence failure; surfaces as HTTP 503.
	ErrStorage = errors.New("storage unavailable")
	// ErrProgrammer marks a violated invariant (e.g. re-running a terminal
	// session). Logged loudly; callers must not change state on it.
	ErrProgrammer = errors.New("programmer error")
)

// IsTransient reports whether err (or anything it wraps) is transient.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// IsPermanent reports whether err (or anything it wraps) is permanent.
func IsPermanent(err error) bool { return errors.Is(err, ErrPermanent) }

// IsDataQuality reports whether err (or anything it wraps) is a data
// quality condition.
func IsDataQuality(err error) bool { return errors.Is(err, ErrDataQuality) }

// IsStorage reports whether err (or anything it wraps) is a storage
// failure.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }

// IsProgrammer reports whether err (or anything it wraps) is a programmer
// error.
func IsProgrammer(err error) bool { return errors.Is(err, ErrProgrammer) }
